package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/forestryvehicleadmin/motorpool/core/logger"
)

// DefaultTimeout bounds one whole publish, pull and push included.
const DefaultTimeout = 30 * time.Second

// Remote is the minimal version-control surface the engine drives. The git
// CLI adapter in infra/git implements it. Implementations classify their own
// failures with the sentinel errors where they can tell.
type Remote interface {
	// Head returns the local tip, or "" when the repository has no commits.
	Head(ctx context.Context) (string, error)
	// Fetch refreshes the tracked remote branch.
	Fetch(ctx context.Context) error
	// RemoteHead returns the fetched remote tip, or "" when the branch does
	// not exist there yet.
	RemoteHead(ctx context.Context) (string, error)
	// ChangedSince lists paths differing between two revisions. An empty
	// base means every path present in tip.
	ChangedSince(ctx context.Context, base, tip string) ([]string, error)
	// Content returns a file's bytes at a revision. A missing path or empty
	// revision yields nil.
	Content(ctx context.Context, rev, path string) ([]byte, error)
	// ResetToRemote makes the working tree match the fetched remote tip.
	ResetToRemote(ctx context.Context) error
	// StageAll stages every change in the working tree.
	StageAll(ctx context.Context) error
	// IsClean reports whether nothing is modified or staged.
	IsClean(ctx context.Context) (bool, error)
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context) error
}

// Engine runs the publish protocol over the data files in dir. It is
// stateless between calls; each Publish captures the files from disk.
type Engine struct {
	remote  Remote
	dir     string
	files   []string
	timeout time.Duration
	log     logger.Logger
}

// NewEngine returns an Engine owning the given repo-relative data files.
// A non-positive timeout falls back to DefaultTimeout.
func NewEngine(remote Remote, dir string, files []string, timeout time.Duration, log logger.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{remote: remote, dir: dir, files: files, timeout: timeout, log: log}
}

// Publish shares everything currently on disk under the engine's data files.
// The caller has already persisted its mutation; whatever happens to the
// remote, that local write stays.
func (e *Engine) Publish(ctx context.Context, message string) Outcome {
	start := time.Now()
	out := Outcome{OpID: uuid.NewString(), Message: message}
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	state, err := e.run(cctx, message)
	out.State = state
	out.Duration = time.Since(start)
	if err != nil {
		out.State = StateLocalOnly
		out.Err = deadlineAware(cctx, err)
		if e.log != nil {
			e.log.Warnf("publish %s: saved locally, remote not updated: %v", out.OpID, out.Err)
		}
		return out
	}
	if e.log != nil {
		if out.State == StateNoChange {
			e.log.Debugf("publish %s: nothing to commit", out.OpID)
		} else {
			e.log.Infof("publish %s: pushed %q in %s", out.OpID, message, out.Duration.Round(time.Millisecond))
		}
	}
	return out
}

func (e *Engine) run(ctx context.Context, message string) (State, error) {
	// The mutation is already serialized to disk. Capture every data file so
	// local state can be laid back down on top of whatever the remote has.
	payload, err := e.capture()
	if err != nil {
		return StateLocalOnly, fmt.Errorf("capture payload: %w", err)
	}
	base, err := e.remote.Head(ctx)
	if err != nil {
		return StateLocalOnly, fmt.Errorf("local tip: %w", err)
	}
	if err := e.remote.Fetch(ctx); err != nil {
		return StateLocalOnly, fmt.Errorf("fetch: %w", err)
	}
	tip, err := e.remote.RemoteHead(ctx)
	if err != nil {
		return StateLocalOnly, fmt.Errorf("remote tip: %w", err)
	}
	if tip != "" && tip != base {
		if err := e.rebase(ctx, base, tip, payload); err != nil {
			return StateLocalOnly, err
		}
	}
	if err := e.remote.StageAll(ctx); err != nil {
		return StateLocalOnly, fmt.Errorf("stage: %w", err)
	}
	clean, err := e.remote.IsClean(ctx)
	if err != nil {
		return StateLocalOnly, fmt.Errorf("status: %w", err)
	}
	if clean {
		return StateNoChange, nil
	}
	if err := e.remote.Commit(ctx, message); err != nil {
		return StateLocalOnly, fmt.Errorf("commit: %w", err)
	}
	if err := e.remote.Push(ctx); err != nil {
		return StateLocalOnly, fmt.Errorf("push: %w", err)
	}
	return StatePublished, nil
}

// rebase moves the working tree to the remote tip and re-applies the local
// payload. A file both sides changed since base, to different content, is a
// true conflict and aborts the publish before anything is overwritten.
func (e *Engine) rebase(ctx context.Context, base, tip string, payload map[string][]byte) error {
	remoteChanged, err := e.remote.ChangedSince(ctx, base, tip)
	if err != nil {
		return fmt.Errorf("remote diff: %w", err)
	}
	changed := make(map[string]bool, len(remoteChanged))
	for _, p := range remoteChanged {
		changed[p] = true
	}
	for _, path := range e.files {
		if !changed[path] {
			continue
		}
		ours, ok := payload[path]
		if !ok {
			// Missing locally: nothing of ours to preserve, remote wins.
			continue
		}
		baseContent, err := e.remote.Content(ctx, base, path)
		if err != nil {
			return fmt.Errorf("content of %s at base: %w", path, err)
		}
		if bytes.Equal(ours, baseContent) {
			// Only the remote touched it; adopt theirs.
			delete(payload, path)
			continue
		}
		theirs, err := e.remote.Content(ctx, tip, path)
		if err != nil {
			return fmt.Errorf("content of %s at tip: %w", path, err)
		}
		if !bytes.Equal(ours, theirs) {
			return fmt.Errorf("%w: %s", ErrConflict, path)
		}
	}
	if err := e.remote.ResetToRemote(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return e.restore(payload)
}

func (e *Engine) capture() (map[string][]byte, error) {
	payload := make(map[string][]byte, len(e.files))
	for _, path := range e.files {
		raw, err := os.ReadFile(filepath.Join(e.dir, path))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		payload[path] = raw
	}
	return payload, nil
}

func (e *Engine) restore(payload map[string][]byte) error {
	for path, raw := range payload {
		if err := os.WriteFile(filepath.Join(e.dir, path), raw, 0o644); err != nil {
			return fmt.Errorf("restore %s: %w", path, err)
		}
	}
	return nil
}

// Refresh adopts the remote state wholesale: fetch plus hard reset. Called at
// boot before the board loads so a restarted instance starts from the shared
// truth. Local uncommitted edits do not exist at that point.
func (e *Engine) Refresh(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.remote.Fetch(cctx); err != nil {
		return deadlineAware(cctx, fmt.Errorf("fetch: %w", err))
	}
	tip, err := e.remote.RemoteHead(cctx)
	if err != nil {
		return deadlineAware(cctx, fmt.Errorf("remote tip: %w", err))
	}
	if tip == "" {
		return nil
	}
	if err := e.remote.ResetToRemote(cctx); err != nil {
		return deadlineAware(cctx, fmt.Errorf("reset: %w", err))
	}
	return nil
}

// deadlineAware folds context expiry into ErrTimeout unless the error is
// already one of the protocol sentinels.
func deadlineAware(ctx context.Context, err error) error {
	if errors.Is(err, ErrUnreachable) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrRejected) || errors.Is(err, ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
