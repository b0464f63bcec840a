// Package registry manages the controlled vocabularies behind the schedule
// selectors: vehicle types, assignees and authorized drivers. Each registry
// is a flat text file with one value per line, kept sorted on disk.
package registry

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/forestryvehicleadmin/motorpool/core/logger"
)

// ErrAlreadyExists reports a value already present in a registry. Matching is
// case-insensitive.
var ErrAlreadyExists = errors.New("value already exists")

// Registry is one controlled vocabulary backed by a text file.
type Registry struct {
	name string
	path string
	log  logger.Logger

	mu     sync.RWMutex
	values []string
	sum    [sha256.Size]byte
	loaded bool
}

// New returns a Registry stored at path. Call Load before first use.
func New(name, path string, log logger.Logger) *Registry {
	return &Registry{name: name, path: path, log: log}
}

// Name returns the registry identifier, e.g. "types".
func (r *Registry) Name() string { return r.name }

// Path returns the backing file location.
func (r *Registry) Path() string { return r.path }

// Filename returns the base name of the backing file, as used in commit
// messages.
func (r *Registry) Filename() string {
	if i := strings.LastIndexByte(r.path, '/'); i >= 0 {
		return r.path[i+1:]
	}
	return r.path
}

// Load reads the backing file. Blank lines are skipped, surrounding
// whitespace is trimmed and values are sorted. A missing file loads as an
// empty registry. Reloading an unchanged file is a no-op, detected through a
// hash of the raw bytes.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.values = nil
			r.sum = sha256.Sum256(nil)
			r.loaded = true
			return nil
		}
		return fmt.Errorf("registry %s: %w", r.name, err)
	}
	sum := sha256.Sum256(raw)
	if r.loaded && sum == r.sum {
		return nil
	}
	var values []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			values = append(values, line)
		}
	}
	sortValues(values)
	r.values = values
	r.sum = sum
	r.loaded = true
	if r.log != nil {
		r.log.Debugf("registry %s: loaded %d values", r.name, len(values))
	}
	return nil
}

// Values returns a sorted copy of the registry contents.
func (r *Registry) Values() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.values...)
}

// Len returns the number of values.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}

// Contains reports whether v is present. Matching is case-insensitive, same
// as the duplicate check in Append.
func (r *Registry) Contains(v string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, have := range r.values {
		if strings.EqualFold(have, v) {
			return true
		}
	}
	return false
}

// Append adds v and persists the file sorted. Values equal to an existing one
// under case folding are rejected with ErrAlreadyExists, leaving both file
// and memory untouched.
func (r *Registry) Append(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("registry %s: empty value", r.name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.values {
		if strings.EqualFold(have, v) {
			return fmt.Errorf("registry %s: %q: %w", r.name, v, ErrAlreadyExists)
		}
	}
	values := append(append([]string(nil), r.values...), v)
	sortValues(values)
	data := []byte(strings.Join(values, "\n") + "\n")
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("registry %s: %w", r.name, err)
	}
	r.values = values
	r.sum = sha256.Sum256(data)
	return nil
}

// sortValues orders case-insensitively with a byte-order tiebreak so the
// on-disk order is total and stable across hosts.
func sortValues(vals []string) {
	sort.SliceStable(vals, func(i, j int) bool {
		a, b := strings.ToLower(vals[i]), strings.ToLower(vals[j])
		if a == b {
			return vals[i] < vals[j]
		}
		return a < b
	})
}
