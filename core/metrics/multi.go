package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordMutation forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordMutation(ev MutationRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordMutation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSync forwards publish outcomes to sinks that support them.
func (m *MultiSink) RecordSync(ev SyncRecord) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SyncRecorder); ok {
			if err := rec.RecordSync(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordProjection forwards projection records to sinks that support them.
func (m *MultiSink) RecordProjection(ev ProjectionRecord) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ProjectionRecorder); ok {
			if err := rec.RecordProjection(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordBoardSize forwards the board size to sinks that support it.
func (m *MultiSink) RecordBoardSize(size int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(BoardSizeRecorder); ok {
			if err := rec.RecordBoardSize(size); err != nil {
				return err
			}
		}
	}
	return nil
}
