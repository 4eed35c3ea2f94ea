// Package stdlogging is the default sklog backend. It writes
// github.com/jcgregorio/logger lines to a SyncWriter such as os.Stderr.
package stdlogging

import (
	"fmt"

	"github.com/jcgregorio/logger"

	"github.com/ortweb/infra/go/sklog/sklogimpl"
)

type stdlog struct {
	logger *logger.Logger
	dst    logger.SyncWriter
}

// New returns a sklogimpl.Logger that writes to dst. Every severity is
// written; sklogimpl decides which lines reach it.
func New(dst logger.SyncWriter) sklogimpl.Logger {
	return &stdlog{
		logger: logger.NewFromOptions(&logger.Options{
			SyncWriter:   dst,
			DepthDelta:   3,
			IncludeDebug: true,
		}),
		dst: dst,
	}
}

// Log implements sklogimpl.Logger. Fatal lines are written at Error severity.
func (s *stdlog) Log(_ int, severity sklogimpl.Severity, format string, args ...interface{}) {
	msg := fmt.Sprint(args...)
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	switch severity {
	case sklogimpl.Debug:
		s.logger.Debug(msg)
	case sklogimpl.Info:
		s.logger.Info(msg)
	case sklogimpl.Warning:
		s.logger.Warning(msg)
	default:
		s.logger.Error(msg)
	}
}

// Flush implements sklogimpl.Logger.
func (s *stdlog) Flush() {
	_ = s.dst.Sync()
}
