package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/model"
)

type fakeRegistries struct {
	types     []string
	assignees []string
	drivers   []string
}

func (f fakeRegistries) TypeExists(v string) bool     { return inList(f.types, v) }
func (f fakeRegistries) AssigneeExists(v string) bool { return inList(f.assignees, v) }
func (f fakeRegistries) DriverExists(v string) bool   { return inList(f.drivers, v) }

func inList(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func testRegistries() fakeRegistries {
	return fakeRegistries{
		types:     []string{"12 - Truck", "14 - Flatbed", "Gator"},
		assignees: []string{"Alice", "Bob"},
		drivers:   []string{"Dana", "Lee"},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validFields() Fields {
	return Fields{
		VehicleType:  "12 - Truck",
		AssignedTo:   "Alice",
		Status:       model.StatusConfirmed,
		CheckoutDate: day(2024, 6, 3),
		ReturnDate:   day(2024, 6, 5),
	}
}

func TestNormalizeValid(t *testing.T) {
	rec, err := Normalize(validFields(), testRegistries())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if rec.VehicleNumber != 12 {
		t.Fatalf("expected vehicle number 12 got %d", rec.VehicleNumber)
	}
	if rec.CheckoutDate.Hour() != 0 || rec.CheckoutDate.Minute() != 0 {
		t.Fatalf("checkout not pinned to 00:00: %v", rec.CheckoutDate)
	}
	if rec.ReturnDate.Hour() != 23 || rec.ReturnDate.Minute() != 59 {
		t.Fatalf("return not pinned to 23:59: %v", rec.ReturnDate)
	}
}

func TestNormalizeUnknownType(t *testing.T) {
	f := validFields()
	f.VehicleType = "99 - Unknown"
	_, err := Normalize(f, testRegistries())
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Kind != MissingRequiredField || verr.Field != "vehicle_type" {
		t.Fatalf("expected missing_required_field on vehicle_type, got %v", err)
	}
}

func TestNormalizeEmptyAssignee(t *testing.T) {
	f := validFields()
	f.AssignedTo = ""
	_, err := Normalize(f, testRegistries())
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Kind != MissingRequiredField || verr.Field != "assigned_to" {
		t.Fatalf("expected missing_required_field on assigned_to, got %v", err)
	}
}

func TestNormalizeUnknownDriver(t *testing.T) {
	f := validFields()
	f.AuthorizedDrivers = []string{"Dana", "Mallory"}
	_, err := Normalize(f, testRegistries())
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "authorized_drivers" {
		t.Fatalf("expected failure on authorized_drivers, got %v", err)
	}
}

func TestNormalizeCheckoutAfterReturn(t *testing.T) {
	f := validFields()
	f.CheckoutDate = day(2024, 6, 6)
	f.ReturnDate = day(2024, 6, 5)
	_, err := Normalize(f, testRegistries())
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Kind != InvalidDateRange {
		t.Fatalf("expected invalid_date_range, got %v", err)
	}
}

func TestNormalizeSameDayByDateNotClock(t *testing.T) {
	// The range check compares calendar days. A checkout entered late in the
	// day with a return entered early the same day is still a valid one-day
	// entry.
	f := validFields()
	f.CheckoutDate = time.Date(2024, 6, 3, 18, 30, 0, 0, time.UTC)
	f.ReturnDate = time.Date(2024, 6, 3, 3, 0, 0, 0, time.UTC)
	rec, err := Normalize(f, testRegistries())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !rec.ReturnDate.After(rec.CheckoutDate) {
		t.Fatalf("single day span must stay positive: %v .. %v", rec.CheckoutDate, rec.ReturnDate)
	}
}

func TestNormalizeMalformedVehicleCodeDefaultsToZero(t *testing.T) {
	f := validFields()
	f.VehicleType = "Gator"
	rec, err := Normalize(f, testRegistries())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if rec.VehicleNumber != 0 {
		t.Fatalf("expected fallback number 0 got %d", rec.VehicleNumber)
	}
}

func TestNormalizeStatusDefaultsToConfirmed(t *testing.T) {
	f := validFields()
	f.Status = ""
	rec, err := Normalize(f, testRegistries())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if rec.Status != model.StatusConfirmed {
		t.Fatalf("expected Confirmed got %q", rec.Status)
	}
	f.Status = "Pending"
	if _, err := Normalize(f, testRegistries()); err == nil {
		t.Fatalf("unknown status must be rejected")
	}
}
