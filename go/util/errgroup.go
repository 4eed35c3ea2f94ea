package util

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// NamedErrGroup is like errgroup.Group, except each function in the group gets
// a name. It waits for all goroutines to finish and reports all errors by name.
type NamedErrGroup struct {
	errs map[string]error
	mtx  sync.Mutex
	wg   sync.WaitGroup
}

// NewNamedErrGroup returns a NamedErrGroup instance.
func NewNamedErrGroup() *NamedErrGroup {
	return &NamedErrGroup{
		errs: map[string]error{},
	}
}

// Go runs the given function in a goroutine.
func (g *NamedErrGroup) Go(name string, fn func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := fn(); err != nil {
			g.mtx.Lock()
			defer g.mtx.Unlock()
			g.errs[name] = err
		}
	}()
}

// Wait waits for all of the goroutines to finish and reports any errors, sorted
// by name. The returned error is a *multierror.Error.
func (g *NamedErrGroup) Wait() error {
	g.wg.Wait()
	g.mtx.Lock()
	defer g.mtx.Unlock()
	if len(g.errs) == 0 {
		return nil
	}
	names := make([]string, 0, len(g.errs))
	for name := range g.errs {
		names = append(names, name)
	}
	sort.Strings(names)
	result := &multierror.Error{ErrorFormat: formatNamedErrors}
	for _, name := range names {
		result = multierror.Append(result, fmt.Errorf("%s: %w", name, g.errs[name]))
	}
	return result.ErrorOrNil()
}

func formatNamedErrors(errs []error) string {
	var msg strings.Builder
	msg.WriteString("NamedErrGroup encountered errors:\n")
	for _, err := range errs {
		fmt.Fprintf(&msg, "\t%s\n", err)
	}
	return msg.String()
}
