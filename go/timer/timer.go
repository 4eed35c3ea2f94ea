// timer makes timing operations easier.
package timer

import (
	"time"

	"github.com/ortweb/infra/go/sklog"
)

var nowFunc = time.Now

// Timer is for timing events. When finished the duration is reported
// via sklog at Debug level.
//
// The standard way to use Timer is at the top of the func you
// want to measure:
//
//	defer timer.New("download").Stop()
type Timer struct {
	Begin time.Time
	Name  string
}

func New(name string) *Timer {
	return &Timer{
		Begin: nowFunc(),
		Name:  name,
	}
}

// Stop logs and returns the time elapsed since New.
func (t Timer) Stop() time.Duration {
	d := nowFunc().Sub(t.Begin)
	sklog.Debugf("%s %v", t.Name, d)
	return d
}
