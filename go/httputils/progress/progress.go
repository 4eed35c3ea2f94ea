// Package progress reports how many bytes of a transfer have been read so far.
package progress

import (
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ortweb/infra/go/sklog"
)

// DefaultInterval between two progress lines.
const DefaultInterval = 5 * time.Second

var (
	// nowFunc allows overriding time.Now for testing.
	nowFunc = time.Now

	// callbackFunc is the function which reports the number of bytes transferred.
	callbackFunc = loggingCallbackFunc
)

// loggingCallbackFunc logs the number of transferred bytes.
func loggingCallbackFunc(name string, byteCount, total int64) {
	if total > 0 {
		sklog.Infof("%s: %s of %s transferred", name, humanize.Bytes(uint64(byteCount)), humanize.Bytes(uint64(total)))
	} else {
		sklog.Infof("%s: %s transferred", name, humanize.Bytes(uint64(byteCount)))
	}
}

// Reader is an io.Reader which counts the bytes read through it and reports
// the count at most once per interval.
type Reader struct {
	r        io.Reader
	name     string
	total    int64
	interval time.Duration
	count    int64
	last     time.Time
}

// NewReader wraps r. total is the expected size, or a value <= 0 if unknown.
func NewReader(r io.Reader, name string, total int64, interval time.Duration) *Reader {
	return &Reader{
		r:        r,
		name:     name,
		total:    total,
		interval: interval,
		last:     nowFunc(),
	}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.count += int64(n)
	if t := nowFunc(); t.Sub(r.last) >= r.interval {
		r.last = t
		callbackFunc(r.name, r.count, r.total)
	}
	return n, err
}

// Count returns the number of bytes read so far.
func (r *Reader) Count() int64 {
	return r.count
}

var _ io.Reader = &Reader{}
