// Package model holds the domain types shared by the schedule, timeline and
// publish components.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status tells whether an entry firmly blocks a vehicle or only pencils it in.
type Status string

const (
	// StatusConfirmed marks a firm checkout.
	StatusConfirmed Status = "Confirmed"
	// StatusReserved marks a tentative hold that a confirmed entry may draw over.
	StatusReserved Status = "Reserved"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusConfirmed || s == StatusReserved
}

// Reservation is a single row of the checkout board. IDs are dense: after
// every mutation an entry's ID equals its position in the store.
type Reservation struct {
	ID                int       `json:"id"`
	VehicleType       string    `json:"vehicle_type"`
	VehicleNumber     int       `json:"vehicle_number"`
	AssignedTo        string    `json:"assigned_to"`
	Status            Status    `json:"status"`
	CheckoutDate      time.Time `json:"checkout_date"`
	ReturnDate        time.Time `json:"return_date"`
	AuthorizedDrivers []string  `json:"authorized_drivers,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

// ErrMalformedVehicleCode reports a vehicle type whose leading segment is not
// numeric.
var ErrMalformedVehicleCode = errors.New("vehicle code has no numeric prefix")

// ParseVehicleNumber extracts the fleet number from a vehicle type code such
// as "12 - Crew Cab": the segment before the first dash, trimmed.
func ParseVehicleNumber(vehicleType string) (int, error) {
	head, _, _ := strings.Cut(vehicleType, "-")
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedVehicleCode, vehicleType)
	}
	return n, nil
}

// VehicleNumberOf is ParseVehicleNumber with the fallback applied when
// storing entries: codes without a numeric prefix map to number 0.
func VehicleNumberOf(vehicleType string) int {
	n, err := ParseVehicleNumber(vehicleType)
	if err != nil {
		return 0
	}
	return n
}

// StartOfDay normalizes t to 00:00:00 in its location. Checkout dates carry
// this time of day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay normalizes t to 23:59:00 in its location. Return dates carry this
// time of day so a single-day entry keeps a positive span.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 0, 0, t.Location())
}

// DriversList renders the authorized drivers the way the table file stores
// them.
func (r Reservation) DriversList() string {
	return strings.Join(r.AuthorizedDrivers, ", ")
}

// SplitDrivers parses a comma separated driver list, dropping empty names.
func SplitDrivers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Clone returns a copy that does not share the drivers slice, so stores can
// hand out snapshots safely.
func (r Reservation) Clone() Reservation {
	if r.AuthorizedDrivers != nil {
		r.AuthorizedDrivers = append([]string(nil), r.AuthorizedDrivers...)
	}
	return r
}

// Summary is the short label used in commit messages and selection lists,
// e.g. "12 - Alice (2024-06-03 -> 2024-06-05)".
func (r Reservation) Summary() string {
	return fmt.Sprintf("%d - %s (%s -> %s)", r.VehicleNumber, r.AssignedTo,
		r.CheckoutDate.Format("2006-01-02"), r.ReturnDate.Format("2006-01-02"))
}
