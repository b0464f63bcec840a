package timeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/model"
)

// Cache memoizes the last projection, keyed by a fingerprint of the snapshot,
// the window and the day. The board redraws far more often than it changes.
type Cache struct {
	mu   sync.Mutex
	key  [sha256.Size]byte
	proj Projection
	full bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Project returns the cached projection when the inputs are unchanged, or
// recomputes and stores it. The second return reports a cache hit. Callers
// must treat the returned projection as read-only: hits share slices.
func (c *Cache) Project(snapshot []model.Reservation, w Window, now time.Time) (Projection, bool) {
	key := fingerprint(snapshot, w, now)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full && key == c.key {
		return c.proj, true
	}
	c.proj = Project(snapshot, w, now)
	c.key = key
	c.full = true
	return c.proj, false
}

// Invalidate drops the cached projection.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.full = false
	c.mu.Unlock()
}

func fingerprint(snapshot []model.Reservation, w Window, now time.Time) [sha256.Size]byte {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%d\n", model.StartOfDay(now).Unix(), w.Start.Unix(), w.End.Unix())
	for _, r := range snapshot {
		fmt.Fprintf(h, "%d|%s|%d|%s|%s|%d|%d|%s|%s\n",
			r.ID, r.VehicleType, r.VehicleNumber, r.AssignedTo, r.Status,
			r.CheckoutDate.Unix(), r.ReturnDate.Unix(), r.DriversList(), r.Notes)
	}
	var key [sha256.Size]byte
	h.Sum(key[:0])
	return key
}
