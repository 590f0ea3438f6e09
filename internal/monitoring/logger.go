// Package monitoring routes operator-facing diagnostics, such as failures of
// best-effort sinks, to a replaceable logger.
package monitoring

import (
	"log"
	"sync/atomic"
)

// LogFunc matches log.Printf.
type LogFunc func(format string, v ...interface{})

var logger atomic.Pointer[LogFunc]

func init() {
	SetLogger(log.Printf)
}

// Logf writes a diagnostic line through the current logger. It is safe to
// call from any goroutine, including while SetLogger runs.
func Logf(format string, v ...interface{}) {
	(*logger.Load())(format, v...)
}

// SetLogger replaces the package logger and returns the previous one.
// Passing nil installs a no-op logger.
func SetLogger(f LogFunc) LogFunc {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	prev := logger.Swap(&f)
	if prev == nil {
		return nil
	}
	return *prev
}
