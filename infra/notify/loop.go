package notify

import (
	"context"

	"github.com/forestryvehicleadmin/motorpool/core/events"
	corenotify "github.com/forestryvehicleadmin/motorpool/core/notify"
	"github.com/forestryvehicleadmin/motorpool/infra/logger"
	"github.com/forestryvehicleadmin/motorpool/internal/eventbus"
)

// StartChangeNotifier subscribes to the event bus and forwards mutation
// events to the notifier. It stops when the context is canceled. Notify
// failures are logged and dropped; displays recover on the next change.
func StartChangeNotifier(ctx context.Context, bus *eventbus.Bus[any], n corenotify.Notifier) {
	if bus == nil || n == nil {
		return
	}
	log := logger.New("notify")
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
				mut, ok := ev.(events.MutationEvent)
				if !ok {
					continue
				}
				if err := n.NotifyChange(mut); err != nil {
					log.Warnf("change notification failed: %v", err)
				}
			}
		}
	}()
}
