// Package sklog is the leveled logging API used throughout the repo. Lines go
// to the logger installed with SetLogger, stderr by default.
package sklog

import (
	"os"

	"github.com/ortweb/infra/go/sklog/sklogimpl"
	"github.com/ortweb/infra/go/sklog/stdlogging"
)

// WE MUST CALL SetLogger in an init function; otherwise there's a very good
// chance of getting a nil pointer panic.
func init() {
	sklogimpl.SetLogger(stdlogging.New(os.Stderr))
}

// SetLogger replaces the logger used by all of the functions below.
func SetLogger(l sklogimpl.Logger) {
	sklogimpl.SetLogger(l)
}

// SetVerbose enables or disables Debug lines. They are off by default.
func SetVerbose(verbose bool) {
	level := sklogimpl.Info
	if verbose {
		level = sklogimpl.Debug
	}
	sklogimpl.SetLevel(level)
}

// Debugf lines are only written after SetVerbose(true).
func Debugf(format string, v ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Debug, format, v...)
}

func Info(msg ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Info, "", msg...)
}

func Infof(format string, v ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Info, format, v...)
}

func Warningf(format string, v ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Warning, format, v...)
}

// ErrorfWithDepth reports the line depth frames above its caller. 0 means the
// caller itself.
func ErrorfWithDepth(depth int, format string, v ...interface{}) {
	sklogimpl.Log(1+depth, sklogimpl.Error, format, v...)
}

// Fatal logs msg, flushes the logger and exits with status 1.
func Fatal(msg ...interface{}) {
	sklogimpl.Log(1, sklogimpl.Fatal, "", msg...)
}
