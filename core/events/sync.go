package events

import "time"

// SyncEvent is published when a publish attempt against the shared remote
// finishes, whatever the outcome. Reason is empty on success.
type SyncEvent struct {
	OpID     string
	State    string
	Reason   string
	Duration time.Duration
	Err      error
}
