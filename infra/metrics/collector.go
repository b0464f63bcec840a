package metrics

import (
	"context"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/events"
	coremetrics "github.com/forestryvehicleadmin/motorpool/core/metrics"
	"github.com/forestryvehicleadmin/motorpool/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// board events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[any], sink coremetrics.Sink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.MutationEvent:
					_ = sink.RecordMutation(coremetrics.MutationRecord{
						Op:      e.Op,
						EntryID: e.EntryID,
						Summary: e.Summary,
						Records: e.Records,
						Time:    time.Now(),
					})
				case events.SyncEvent:
					if r, ok := sink.(coremetrics.SyncRecorder); ok {
						_ = r.RecordSync(coremetrics.SyncRecord{
							OpID:     e.OpID,
							State:    e.State,
							Reason:   e.Reason,
							Duration: e.Duration,
							Time:     time.Now(),
						})
					}
				case events.ProjectionEvent:
					if r, ok := sink.(coremetrics.ProjectionRecorder); ok {
						_ = r.RecordProjection(coremetrics.ProjectionRecord{
							View:      e.View,
							Intervals: e.Intervals,
							CacheHit:  e.CacheHit,
							Elapsed:   e.Elapsed,
							Time:      time.Now(),
						})
					}
				}
			}
		}
	}()
}
