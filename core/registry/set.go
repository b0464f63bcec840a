package registry

import (
	"os"

	"github.com/forestryvehicleadmin/motorpool/core/logger"
)

// Well-known registry identifiers.
const (
	KindTypes     = "types"
	KindAssignees = "assignees"
	KindDrivers   = "drivers"
)

// Set bundles the three registries the schedule depends on.
type Set struct {
	Types     *Registry
	Assignees *Registry
	Drivers   *Registry
}

// NewSet builds the standard registries from their file paths.
func NewSet(typesPath, assigneesPath, driversPath string, log logger.Logger) *Set {
	return &Set{
		Types:     New(KindTypes, typesPath, log),
		Assignees: New(KindAssignees, assigneesPath, log),
		Drivers:   New(KindDrivers, driversPath, log),
	}
}

// All returns the registries in a fixed order.
func (s *Set) All() []*Registry {
	return []*Registry{s.Types, s.Assignees, s.Drivers}
}

// Load loads every registry in the set.
func (s *Set) Load() error {
	for _, r := range s.All() {
		if err := r.Load(); err != nil {
			return err
		}
	}
	return nil
}

// EnsureFiles creates any missing backing files so a fresh data directory
// starts with empty registries instead of load errors on first append.
// It reports whether any file was created.
func (s *Set) EnsureFiles() (bool, error) {
	created := false
	for _, r := range s.All() {
		if _, err := os.Stat(r.Path()); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return created, err
		}
		if err := os.WriteFile(r.Path(), nil, 0o644); err != nil {
			return created, err
		}
		created = true
	}
	return created, nil
}

// ByName returns the registry with the given identifier.
func (s *Set) ByName(name string) (*Registry, bool) {
	switch name {
	case KindTypes:
		return s.Types, true
	case KindAssignees:
		return s.Assignees, true
	case KindDrivers:
		return s.Drivers, true
	}
	return nil, false
}

// Membership checks used by the schedule normalizer.

func (s *Set) TypeExists(v string) bool     { return s.Types.Contains(v) }
func (s *Set) AssigneeExists(v string) bool { return s.Assignees.Contains(v) }
func (s *Set) DriverExists(v string) bool   { return s.Drivers.Contains(v) }
