// Package events defines the board related events emitted on the event bus.
//
// Available event types:
//   - MutationEvent: a schedule or registry change was applied
//   - SyncEvent: a publish attempt against the shared remote finished
//   - ProjectionEvent: a timeline projection was served
package events
