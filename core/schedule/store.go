package schedule

import (
	"errors"
	"sync"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/model"
)

// ErrNotFound reports a mutation aimed at an id the store does not hold.
var ErrNotFound = errors.New("reservation not found")

// FilterAll is the selector wildcard: a dimension containing it matches
// every record.
const FilterAll = "All"

// Store owns the authoritative in-memory reservation set. After every
// mutation ids are reassigned densely, so an entry's id always equals its
// position in the snapshot.
type Store struct {
	mu    sync.RWMutex
	items []model.Reservation
}

// NewStore returns an empty Store.
func NewStore() *Store { return &Store{} }

// Replace swaps the whole collection and renumbers ids. Used when loading
// the table file from disk.
func (s *Store) Replace(items []model.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]model.Reservation, len(items))
	for i, r := range items {
		s.items[i] = r.Clone()
	}
	s.renumber()
}

// Create validates f and appends the resulting record.
func (s *Store) Create(f Fields, reg Registries) (model.Reservation, error) {
	rec, err := Normalize(f, reg)
	if err != nil {
		return model.Reservation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec)
	s.renumber()
	return s.items[len(s.items)-1].Clone(), nil
}

// CreateBulk applies one field template to every span. All spans are
// validated before any record is appended, so an invalid template leaves the
// store untouched.
func (s *Store) CreateBulk(f Fields, spans []DateSpan, reg Registries) ([]model.Reservation, error) {
	if len(spans) == 0 {
		return nil, nil
	}
	recs := make([]model.Reservation, 0, len(spans))
	for _, span := range spans {
		tf := f
		tf.CheckoutDate = span.From
		tf.ReturnDate = span.To
		rec, err := Normalize(tf, reg)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, recs...)
	s.renumber()
	out := make([]model.Reservation, len(recs))
	base := len(s.items) - len(recs)
	for i := range recs {
		out[i] = s.items[base+i].Clone()
	}
	return out, nil
}

// Get returns the record with the given id.
func (s *Store) Get(id int) (model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.items) {
		return model.Reservation{}, ErrNotFound
	}
	return s.items[id].Clone(), nil
}

// Update re-validates f and overwrites the record with the given id. Ids are
// not reassigned.
func (s *Store) Update(id int, f Fields, reg Registries) (model.Reservation, error) {
	rec, err := Normalize(f, reg)
	if err != nil {
		return model.Reservation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.items) {
		return model.Reservation{}, ErrNotFound
	}
	rec.ID = id
	s.items[id] = rec
	return rec.Clone(), nil
}

// Delete removes one record and renumbers the rest. The removed record is
// returned so callers can describe it after the fact.
func (s *Store) Delete(id int) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.items) {
		return model.Reservation{}, ErrNotFound
	}
	removed := s.items[id]
	s.items = append(s.items[:id], s.items[id+1:]...)
	s.renumber()
	return removed, nil
}

// DeleteWhere removes every record matching pred, renumbers and returns the
// number removed.
func (s *Store) DeleteWhere(pred func(model.Reservation) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	removed := 0
	for _, r := range s.items {
		if pred(r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.items = kept
	if removed > 0 {
		s.renumber()
	}
	return removed
}

// ReturnedBy is the purge predicate: true when the record's return date falls
// on or before the cutoff day. The cutoff is widened to 23:59 so returns on
// the cutoff day itself are included.
func ReturnedBy(cutoff time.Time) func(model.Reservation) bool {
	end := model.EndOfDay(cutoff)
	return func(r model.Reservation) bool { return !r.ReturnDate.After(end) }
}

// FilterSpec selects records along three dimensions. An empty dimension, or
// one containing FilterAll, matches everything.
type FilterSpec struct {
	Types     []string
	Assignees []string
	Statuses  []string
}

// Matches reports whether r passes every dimension.
func (f FilterSpec) Matches(r model.Reservation) bool {
	if !dimensionMatches(f.Types, r.VehicleType) {
		return false
	}
	if !dimensionMatches(f.Assignees, r.AssignedTo) {
		return false
	}
	return dimensionMatches(f.Statuses, string(r.Status))
}

func dimensionMatches(sel []string, v string) bool {
	if len(sel) == 0 {
		return true
	}
	for _, s := range sel {
		if s == FilterAll || s == v {
			return true
		}
	}
	return false
}

// Filter returns matching records in snapshot order. It never mutates the
// store or reassigns ids.
func (s *Store) Filter(spec FilterSpec) []model.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Reservation, 0, len(s.items))
	for _, r := range s.items {
		if spec.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Snapshot returns a copy of every record ordered by ascending id.
func (s *Store) Snapshot() []model.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Reservation, len(s.items))
	for i, r := range s.items {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// renumber reassigns ids to slice positions. Callers hold the write lock.
func (s *Store) renumber() {
	for i := range s.items {
		s.items[i].ID = i
	}
}
