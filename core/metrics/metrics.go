package metrics

import "time"

// MutationRecord represents one applied board change to be recorded.
// Records is the board size after the change.
type MutationRecord struct {
	Op      string
	EntryID int
	Summary string
	Records int
	Time    time.Time
}

// Sink records board mutations for observability purposes.
type Sink interface {
	RecordMutation(ev MutationRecord) error
}

// SyncRecord captures the outcome of one publish attempt.
type SyncRecord struct {
	OpID     string
	State    string
	Reason   string
	Duration time.Duration
	Time     time.Time
}

// SyncRecorder is implemented by sinks able to record publish outcomes.
type SyncRecorder interface {
	RecordSync(ev SyncRecord) error
}

// ProjectionRecord captures one served timeline projection.
type ProjectionRecord struct {
	View      string
	Intervals int
	CacheHit  bool
	Elapsed   time.Duration
	Time      time.Time
}

// ProjectionRecorder is implemented by sinks able to record projections.
type ProjectionRecorder interface {
	RecordProjection(ev ProjectionRecord) error
}

// BoardSizeRecorder records the number of records on the board.
type BoardSizeRecorder interface {
	RecordBoardSize(size int) error
}

// NopSink implements Sink and every optional recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordMutation(MutationRecord) error     { return nil }
func (NopSink) RecordSync(SyncRecord) error             { return nil }
func (NopSink) RecordProjection(ProjectionRecord) error { return nil }
func (NopSink) RecordBoardSize(int) error               { return nil }
