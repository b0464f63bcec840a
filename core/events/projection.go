package events

import "time"

// ProjectionEvent is emitted when a timeline projection is served.
type ProjectionEvent struct {
	View      string
	Intervals int
	CacheHit  bool
	Elapsed   time.Duration
}
