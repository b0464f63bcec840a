package schedule

import (
	"net/http"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/events"
	"github.com/forestryvehicleadmin/motorpool/core/schedule"
	"github.com/forestryvehicleadmin/motorpool/core/timeline"
	"github.com/forestryvehicleadmin/motorpool/internal/eventbus"
)

// NewTimelineHandler projects the board onto the plotting timeline via GET.
// The view parameter picks the desktop or mobile window; a nil cache projects
// from scratch on every request.
func NewTimelineHandler(mgr *schedule.Manager, cache *timeline.Cache, bus *eventbus.Bus[any]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		view := r.URL.Query().Get("view")
		if view == "" {
			view = timeline.ViewDesktop
		}
		start := time.Now()
		win := timeline.WindowFor(view, start)
		var (
			proj timeline.Projection
			hit  bool
		)
		if cache != nil {
			proj, hit = cache.Project(mgr.Snapshot(), win, start)
		} else {
			proj = timeline.Project(mgr.Snapshot(), win, start)
		}
		if bus != nil {
			bus.Publish(events.ProjectionEvent{
				View:      view,
				Intervals: len(proj.Intervals),
				CacheHit:  hit,
				Elapsed:   time.Since(start),
			})
		}
		writeJSON(w, http.StatusOK, proj)
	})
}
