package schedule

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/events"
	"github.com/forestryvehicleadmin/motorpool/core/logger"
	"github.com/forestryvehicleadmin/motorpool/core/model"
	"github.com/forestryvehicleadmin/motorpool/core/publish"
	"github.com/forestryvehicleadmin/motorpool/core/registry"
	"github.com/forestryvehicleadmin/motorpool/internal/eventbus"
)

const commitTimeLayout = "2006-01-02 15:04:05"

// Manager ties the store, the registries and the publisher together: every
// mutation is validated, applied, written to the table file and then offered
// to the remote. Mutations are serialized; a failed file write rolls the
// store back so memory and disk never disagree.
type Manager struct {
	mu    sync.Mutex
	store *Store
	regs  *registry.Set
	path  string
	pub   publish.Publisher
	bus   *eventbus.Bus[any]
	log   logger.Logger
	now   func() time.Time
}

// NewManager builds a Manager over the table file at tablePath. A nil
// publisher keeps all changes local; a nil bus disables event fan-out.
func NewManager(store *Store, regs *registry.Set, tablePath string, pub publish.Publisher, bus *eventbus.Bus[any], log logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if regs == nil {
		return nil, fmt.Errorf("registries cannot be nil")
	}
	if tablePath == "" {
		return nil, fmt.Errorf("table path cannot be empty")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if pub == nil {
		pub = publish.NopPublisher{}
	}
	return &Manager{
		store: store,
		regs:  regs,
		path:  tablePath,
		pub:   pub,
		bus:   bus,
		log:   log,
		now:   time.Now,
	}, nil
}

// SetClock overrides the clock used for commit message timestamps.
func (m *Manager) SetClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

// Load reads the registries and the table file into memory. Ids are
// reassigned densely on the way in.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.regs.Load(); err != nil {
		return err
	}
	recs, err := ReadTableFile(m.path)
	if err != nil {
		return err
	}
	m.store.Replace(recs)
	m.log.Infof("loaded %d entries from %s", len(recs), m.path)
	return nil
}

// EnsureInitialized creates any missing data files and publishes the result,
// so a brand new deployment shares its empty board right away. Nothing
// happens when every file already exists.
func (m *Manager) EnsureInitialized(ctx context.Context) (publish.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created, err := m.regs.EnsureFiles()
	if err != nil {
		return publish.Outcome{}, err
	}
	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		if err := WriteTableFile(m.path, nil); err != nil {
			return publish.Outcome{}, fmt.Errorf("init table: %w", err)
		}
		created = true
	} else if err != nil {
		return publish.Outcome{}, err
	}
	if !created {
		return publish.Outcome{State: publish.StateNoChange}, nil
	}
	m.log.Infof("initialized data files for %s", m.path)
	out := m.publish(ctx, "Initialize data files")
	m.emit(events.OpInit, -1, "data files created")
	return out, nil
}

// Create validates f, appends the entry and publishes the new table.
func (m *Manager) Create(ctx context.Context, f Fields) (model.Reservation, publish.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.store.Snapshot()
	rec, err := m.store.Create(f, m.regs)
	if err != nil {
		return model.Reservation{}, publish.Outcome{}, err
	}
	if err := m.persist(prev); err != nil {
		return model.Reservation{}, publish.Outcome{}, err
	}
	m.log.Infof("created entry %d: %s", rec.ID, rec.Summary())
	msg := fmt.Sprintf("Added new entry via board app at %s", m.now().Format(commitTimeLayout))
	out := m.publish(ctx, msg)
	m.emit(events.OpCreate, rec.ID, rec.Summary())
	return rec, out, nil
}

// CreateBulk appends one entry per span, all under a single commit. Spans are
// validated before anything is applied; an empty span list is a no-op.
func (m *Manager) CreateBulk(ctx context.Context, f Fields, spans []DateSpan) ([]model.Reservation, publish.Outcome, error) {
	if len(spans) == 0 {
		return nil, publish.Outcome{State: publish.StateNoChange}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.store.Snapshot()
	recs, err := m.store.CreateBulk(f, spans, m.regs)
	if err != nil {
		return nil, publish.Outcome{}, err
	}
	if err := m.persist(prev); err != nil {
		return nil, publish.Outcome{}, err
	}
	m.log.Infof("created %d entries for %s", len(recs), f.AssignedTo)
	msg := fmt.Sprintf("Added %d new entries via board app at %s", len(recs), m.now().Format(commitTimeLayout))
	out := m.publish(ctx, msg)
	m.emit(events.OpBulkCreate, recs[0].ID, fmt.Sprintf("%d entries for %s", len(recs), f.AssignedTo))
	return recs, out, nil
}

// Update replaces the entry with the given id. The id itself is stable.
func (m *Manager) Update(ctx context.Context, id int, f Fields) (model.Reservation, publish.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.store.Snapshot()
	rec, err := m.store.Update(id, f, m.regs)
	if err != nil {
		return model.Reservation{}, publish.Outcome{}, err
	}
	if err := m.persist(prev); err != nil {
		return model.Reservation{}, publish.Outcome{}, err
	}
	m.log.Infof("updated entry %d: %s", rec.ID, rec.Summary())
	out := m.publish(ctx, fmt.Sprintf("Updated entry: %s", rec.Summary()))
	m.emit(events.OpUpdate, rec.ID, rec.Summary())
	return rec, out, nil
}

// Delete removes one entry. Later entries slide down to keep ids dense.
func (m *Manager) Delete(ctx context.Context, id int) (model.Reservation, publish.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.store.Snapshot()
	removed, err := m.store.Delete(id)
	if err != nil {
		return model.Reservation{}, publish.Outcome{}, err
	}
	if err := m.persist(prev); err != nil {
		return model.Reservation{}, publish.Outcome{}, err
	}
	m.log.Infof("deleted entry %d: %s", id, removed.Summary())
	out := m.publish(ctx, fmt.Sprintf("Deleted single entry: %s", removed.Summary()))
	m.emit(events.OpDelete, id, removed.Summary())
	return removed, out, nil
}

// DeleteBefore removes every entry returned on or before the cutoff day.
// When nothing matches, the table file and the remote are left untouched.
func (m *Manager) DeleteBefore(ctx context.Context, cutoff time.Time) (int, publish.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.store.Snapshot()
	n := m.store.DeleteWhere(ReturnedBy(cutoff))
	if n == 0 {
		return 0, publish.Outcome{State: publish.StateNoChange}, nil
	}
	if err := m.persist(prev); err != nil {
		return 0, publish.Outcome{}, err
	}
	day := cutoff.Format("2006-01-02")
	m.log.Infof("purged %d entries returned by %s", n, day)
	out := m.publish(ctx, fmt.Sprintf("Bulk deleted %d entries before %s", n, day))
	m.emit(events.OpBulkDelete, -1, fmt.Sprintf("%d entries before %s", n, day))
	return n, out, nil
}

// AddRegistryValue appends a value to the named registry and publishes the
// updated registry file. kind is one of the registry.Kind identifiers.
func (m *Manager) AddRegistryValue(ctx context.Context, kind, value string) (publish.Outcome, error) {
	reg, ok := m.regs.ByName(kind)
	if !ok {
		return publish.Outcome{}, fmt.Errorf("unknown registry %q", kind)
	}
	value = strings.TrimSpace(value)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := reg.Append(value); err != nil {
		return publish.Outcome{}, err
	}
	m.log.Infof("registry %s: added %q", reg.Name(), value)
	out := m.publish(ctx, fmt.Sprintf("Added '%s' to %s", value, reg.Filename()))
	m.emit(events.OpRegistryAdd, -1, reg.Name()+": "+value)
	return out, nil
}

// Get returns the entry with the given id.
func (m *Manager) Get(id int) (model.Reservation, error) { return m.store.Get(id) }

// Filter returns matching entries in snapshot order.
func (m *Manager) Filter(spec FilterSpec) []model.Reservation { return m.store.Filter(spec) }

// Snapshot returns every entry ordered by id.
func (m *Manager) Snapshot() []model.Reservation { return m.store.Snapshot() }

// Records returns the current board size.
func (m *Manager) Records() int { return m.store.Len() }

// Registries exposes the registry set for read endpoints.
func (m *Manager) Registries() *registry.Set { return m.regs }

// persist writes the table file, restoring prev on failure so the store
// keeps matching the disk.
func (m *Manager) persist(prev []model.Reservation) error {
	if err := WriteTableFile(m.path, m.store.Snapshot()); err != nil {
		m.store.Replace(prev)
		m.log.Errorf("write table %s: %v", m.path, err)
		return fmt.Errorf("persist table: %w", err)
	}
	return nil
}

// publish offers the already-persisted change to the remote and reports how
// that went. A local-only outcome is logged but never fails the mutation.
func (m *Manager) publish(ctx context.Context, msg string) publish.Outcome {
	out := m.pub.Publish(ctx, msg)
	if out.State == publish.StateLocalOnly {
		m.log.Warnf("change %q saved locally only: %v", msg, out.Err)
	}
	if m.bus != nil && out.OpID != "" {
		m.bus.Publish(events.SyncEvent{
			OpID:     out.OpID,
			State:    out.State.String(),
			Reason:   out.Reason(),
			Duration: out.Duration,
			Err:      out.Err,
		})
	}
	return out
}

func (m *Manager) emit(op string, entryID int, summary string) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.MutationEvent{
		Op:      op,
		EntryID: entryID,
		Summary: summary,
		Records: m.store.Len(),
	})
}
