// Package jobs runs the board's periodic housekeeping: pulling remote edits
// into the working copy and purging entries returned long ago.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/monitoring"
	"github.com/forestryvehicleadmin/motorpool/core/schedule"
	"github.com/forestryvehicleadmin/motorpool/infra/logger"
)

// Config enables the housekeeping jobs. Zero values disable them.
type Config struct {
	RefreshMinutes int `json:"refresh_minutes"`
	RetentionDays  int `json:"retention_days"`
}

// Enabled reports whether any job is configured.
func (c Config) Enabled() bool { return c.RefreshMinutes > 0 || c.RetentionDays > 0 }

// Refresher pulls the working copy up to date with the remote.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Runner drives the configured jobs. The refresh job reloads the board from
// disk each round so edits made outside the process show up, pulling from
// the remote first when one is wired. The retention job deletes entries
// returned more than RetentionDays ago.
type Runner struct {
	cfg Config
	mgr *schedule.Manager
	ref Refresher
	log logger.Logger
	now func() time.Time

	refreshEvery time.Duration
	purgeEvery   time.Duration
}

// NewRunner creates a Runner. ref may be nil when the board has no remote.
func NewRunner(cfg Config, mgr *schedule.Manager, ref Refresher, log logger.Logger) (*Runner, error) {
	if mgr == nil {
		return nil, fmt.Errorf("jobs: manager is required")
	}
	if log == nil {
		return nil, fmt.Errorf("jobs: logger is required")
	}
	return &Runner{
		cfg:          cfg,
		mgr:          mgr,
		ref:          ref,
		log:          log,
		now:          time.Now,
		refreshEvery: time.Duration(cfg.RefreshMinutes) * time.Minute,
		purgeEvery:   24 * time.Hour,
	}, nil
}

// Start launches the job loop in its own goroutine. It exits when ctx is
// cancelled. Retention runs once right away to catch up after downtime; the
// first refresh waits a full interval since the caller just booted.
func (r *Runner) Start(ctx context.Context) {
	if !r.cfg.Enabled() {
		return
	}
	go r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) {
	var refreshC, purgeC <-chan time.Time
	if r.cfg.RefreshMinutes > 0 {
		t := time.NewTicker(r.refreshEvery)
		defer t.Stop()
		refreshC = t.C
	}
	if r.cfg.RetentionDays > 0 {
		r.runRetention(ctx)
		t := time.NewTicker(r.purgeEvery)
		defer t.Stop()
		purgeC = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-refreshC:
			r.runRefresh(ctx)
		case <-purgeC:
			r.runRetention(ctx)
		}
	}
}

// runRefresh adopts outside edits. A failed remote pull is logged and the
// reload still happens, so the board at least follows the local files.
func (r *Runner) runRefresh(ctx context.Context) {
	if r.ref != nil {
		if err := r.ref.Refresh(ctx); err != nil {
			r.log.Warnf("refresh job: remote pull failed: %v", err)
			monitoring.CaptureException(err, map[string]string{"stage": "refresh-job"})
		}
	}
	if err := r.mgr.Load(); err != nil {
		r.log.Errorf("refresh job: reload failed: %v", err)
		monitoring.CaptureException(err, map[string]string{"stage": "refresh-job"})
	}
}

func (r *Runner) runRetention(ctx context.Context) {
	cutoff := r.now().AddDate(0, 0, -r.cfg.RetentionDays)
	n, _, err := r.mgr.DeleteBefore(ctx, cutoff)
	if err != nil {
		r.log.Errorf("retention job: %v", err)
		monitoring.CaptureException(err, map[string]string{"stage": "retention-job"})
		return
	}
	if n > 0 {
		r.log.Infof("retention job purged %d entries returned before %s", n, cutoff.Format("2006-01-02"))
	}
}
