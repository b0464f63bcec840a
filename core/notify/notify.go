// Package notify defines the seam for broadcasting applied board changes to
// connected displays so they refresh without polling.
package notify

import "github.com/forestryvehicleadmin/motorpool/core/events"

// Notifier broadcasts an applied board change.
type Notifier interface {
	NotifyChange(ev events.MutationEvent) error
	Close()
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyChange(events.MutationEvent) error { return nil }
func (NopNotifier) Close()                                  {}
