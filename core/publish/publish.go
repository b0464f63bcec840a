// Package publish shares the board's data files through a git remote. Every
// mutation is written locally first, then the engine rebases the payload on
// the latest remote tip and pushes it: local-durable, remote-best-effort.
package publish

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors describing why a publish fell back to local-only.
var (
	// ErrUnreachable means the remote could not be contacted. The local
	// write already happened and is not rolled back.
	ErrUnreachable = errors.New("remote unreachable")
	// ErrConflict means the remote changed the same file differently since
	// the last shared point. Manual resolution is required; the engine never
	// merges reservation edits.
	ErrConflict = errors.New("conflicting remote changes")
	// ErrRejected means the push was refused, usually because the remote
	// moved again mid-publish. The caller may retry the whole publish.
	ErrRejected = errors.New("push rejected by remote")
	// ErrTimeout means the publish exceeded its deadline.
	ErrTimeout = errors.New("publish timed out")
)

// State summarizes how a publish attempt ended.
type State int

const (
	// StatePublished means the payload was committed and pushed.
	StatePublished State = iota
	// StateNoChange means nothing differed byte-for-byte, so no commit was
	// made.
	StateNoChange
	// StateLocalOnly means the local write survived but the remote was not
	// updated. Outcome.Err carries the reason.
	StateLocalOnly
)

func (s State) String() string {
	switch s {
	case StatePublished:
		return "published"
	case StateNoChange:
		return "no_change"
	case StateLocalOnly:
		return "local_only"
	default:
		return "unknown"
	}
}

// Outcome reports one publish attempt. OpID ties log lines, metrics and
// change notifications of the same attempt together.
type Outcome struct {
	OpID     string
	State    State
	Message  string
	Duration time.Duration
	Err      error
}

// Reason names the sentinel behind a local-only outcome, for metrics labels
// and API payloads.
func (o Outcome) Reason() string {
	switch {
	case o.Err == nil:
		return ""
	case errors.Is(o.Err, ErrConflict):
		return "conflict"
	case errors.Is(o.Err, ErrRejected):
		return "rejected"
	case errors.Is(o.Err, ErrTimeout):
		return "timeout"
	case errors.Is(o.Err, ErrUnreachable):
		return "unreachable"
	default:
		return "error"
	}
}

// Publisher is what mutation call sites depend on; Engine is the real
// implementation.
type Publisher interface {
	Publish(ctx context.Context, message string) Outcome
}

// NopPublisher keeps everything local and reports success. Used when no
// remote is configured and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string) Outcome {
	return Outcome{State: StateNoChange}
}
