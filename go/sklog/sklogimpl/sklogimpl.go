// Package sklogimpl holds the pluggable logger behind the sklog functions.
// Only sklog and logger implementations should import it.
package sklogimpl

import (
	"os"
	"sync"
)

// Severity of a log line.
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	}
	return "UNKNOWN"
}

// Logger is implemented by every log backend.
//
// depth is the number of stack frames between the caller of sklog and the
// call to Log. format is empty when args should be formatted with fmt.Sprint.
type Logger interface {
	Log(depth int, severity Severity, format string, args ...interface{})
	Flush()
}

var (
	mtx      sync.RWMutex
	logger   Logger
	minLevel = Info
	exitFunc = os.Exit
)

// SetLogger replaces the current logger.
func SetLogger(l Logger) {
	mtx.Lock()
	defer mtx.Unlock()
	logger = l
}

// SetLevel sets the lowest severity that is passed to the logger.
func SetLevel(s Severity) {
	mtx.Lock()
	defer mtx.Unlock()
	minLevel = s
}

// Log passes the line to the current logger. Fatal lines flush the logger and
// exit the process.
func Log(depth int, severity Severity, format string, args ...interface{}) {
	mtx.RLock()
	l, lvl := logger, minLevel
	mtx.RUnlock()
	if l != nil && severity >= lvl {
		l.Log(depth+1, severity, format, args...)
	}
	if severity == Fatal {
		if l != nil {
			l.Flush()
		}
		exitFunc(1)
	}
}
