// Package monitoring adapts Sentry to the board's Monitor seam.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/forestryvehicleadmin/motorpool/config"
	coremon "github.com/forestryvehicleadmin/motorpool/core/monitoring"
)

// recoverFlush bounds how long a crashing process waits for the report to
// leave the box.
const recoverFlush = 2 * time.Second

// NewSentryMonitor initializes the Sentry SDK from cfg. An empty DSN yields
// a NopMonitor so the board runs fine without a Sentry project.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if !cfg.Enabled() {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
	})
	if err != nil {
		return nil, err
	}
	return sentryMonitor{}, nil
}

type sentryMonitor struct{}

// CaptureException reports err under the given tags. Tags become searchable
// dimensions in Sentry, so callers pass the failing stage rather than
// encoding it in the message.
func (sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	if len(tags) == 0 {
		sentry.CaptureException(err)
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// Recover reports a panic and re-raises it. Meant to be deferred at the top
// of long-lived goroutines.
func (sentryMonitor) Recover() {
	r := recover()
	if r == nil {
		return
	}
	sentry.CurrentHub().Recover(r)
	sentry.Flush(recoverFlush)
	panic(r)
}

func (sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
