// Package monitoring is the error reporting seam for the board. The service
// wires a Sentry-backed Monitor in production; everything else reports
// through the package-level helpers so callers never carry a handle.
package monitoring

import "time"

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation. Nil monitors are ignored.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if current != nil {
		current.CaptureException(err, tags)
	}
}

// Recover captures panics in goroutines. Call it deferred.
func Recover() {
	if current != nil {
		current.Recover()
	}
}

// Flush flushes buffered events before shutdown.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}
