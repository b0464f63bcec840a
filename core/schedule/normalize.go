// Package schedule implements the reservation board: field validation, the
// dense-ID store, bulk span expansion, the table file codec and the manager
// tying mutations to publishing.
package schedule

import (
	"fmt"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/model"
)

// ValidationKind classifies why a mutation was refused.
type ValidationKind string

const (
	// MissingRequiredField covers empty selectors and values absent from
	// their registry.
	MissingRequiredField ValidationKind = "missing_required_field"
	// InvalidDateRange means the checkout date lies after the return date.
	InvalidDateRange ValidationKind = "invalid_date_range"
)

// ValidationError reports a refused mutation. The record is never partially
// applied.
type ValidationError struct {
	Kind  ValidationKind
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s %q", e.Kind, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Field)
}

// Registries is the membership view the normalizer needs. *registry.Set
// satisfies it.
type Registries interface {
	TypeExists(v string) bool
	AssigneeExists(v string) bool
	DriverExists(v string) bool
}

// Fields carries the raw user input for one reservation. Dates may carry any
// time of day; Normalize pins them to the day boundaries.
type Fields struct {
	VehicleType       string
	AssignedTo        string
	Status            model.Status
	CheckoutDate      time.Time
	ReturnDate        time.Time
	AuthorizedDrivers []string
	Notes             string
}

// Normalize validates f against the registries and returns the canonical
// record, without an ID. Checkout is pinned to 00:00 and return to 23:59 of
// their calendar days. Vehicle codes without a numeric prefix keep number 0
// rather than failing the whole record.
func Normalize(f Fields, reg Registries) (model.Reservation, error) {
	if f.VehicleType == "" || !reg.TypeExists(f.VehicleType) {
		return model.Reservation{}, &ValidationError{Kind: MissingRequiredField, Field: "vehicle_type", Value: f.VehicleType}
	}
	if f.AssignedTo == "" || !reg.AssigneeExists(f.AssignedTo) {
		return model.Reservation{}, &ValidationError{Kind: MissingRequiredField, Field: "assigned_to", Value: f.AssignedTo}
	}
	status := f.Status
	if status == "" {
		status = model.StatusConfirmed
	}
	if !status.Valid() {
		return model.Reservation{}, &ValidationError{Kind: MissingRequiredField, Field: "status", Value: string(f.Status)}
	}
	for _, d := range f.AuthorizedDrivers {
		if !reg.DriverExists(d) {
			return model.Reservation{}, &ValidationError{Kind: MissingRequiredField, Field: "authorized_drivers", Value: d}
		}
	}
	checkout := model.StartOfDay(f.CheckoutDate)
	ret := model.EndOfDay(f.ReturnDate)
	if model.StartOfDay(f.ReturnDate).Before(checkout) {
		return model.Reservation{}, &ValidationError{Kind: InvalidDateRange, Field: "checkout_date"}
	}
	rec := model.Reservation{
		VehicleType:       f.VehicleType,
		VehicleNumber:     model.VehicleNumberOf(f.VehicleType),
		AssignedTo:        f.AssignedTo,
		Status:            status,
		CheckoutDate:      checkout,
		ReturnDate:        ret,
		AuthorizedDrivers: append([]string(nil), f.AuthorizedDrivers...),
		Notes:             f.Notes,
	}
	if len(rec.AuthorizedDrivers) == 0 {
		rec.AuthorizedDrivers = nil
	}
	return rec, nil
}
