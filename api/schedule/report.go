package schedule

import (
	"net/http"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/report"
	"github.com/forestryvehicleadmin/motorpool/core/schedule"
)

// NewReportHandler computes utilization statistics via GET. from and to bound
// the inclusive day window; omitted, it covers the trailing 30 days.
func NewReportHandler(mgr *schedule.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()
		to := time.Now()
		if s := q.Get("to"); s != "" {
			t, err := parseDay(s)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			to = t
		}
		from := to.AddDate(0, 0, -30)
		if s := q.Get("from"); s != "" {
			t, err := parseDay(s)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			from = t
		}
		writeJSON(w, http.StatusOK, report.Build(mgr.Snapshot(), from, to))
	})
}
