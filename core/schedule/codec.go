package schedule

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/model"
)

// tableHeader is the column layout of the persisted reservation table. Other
// tools consume this file, so order and spelling are fixed.
var tableHeader = []string{
	"Unique ID", "Type", "Vehicle #", "Assigned to", "Status",
	"Checkout Date", "Return Date", "Authorized Drivers", "Notes",
}

// dateLayouts are accepted when parsing timestamps. Writes always use the
// first; the others tolerate hand-edited files.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// WriteTable writes recs as the canonical CSV table.
func WriteTable(w io.Writer, recs []model.Reservation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			strconv.Itoa(r.ID),
			r.VehicleType,
			strconv.Itoa(r.VehicleNumber),
			r.AssignedTo,
			string(r.Status),
			r.CheckoutDate.Format(time.RFC3339),
			r.ReturnDate.Format(time.RFC3339),
			r.DriversList(),
			r.Notes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTable parses the CSV table. Ids found in the file are discarded and
// reassigned densely, and dates are pinned back to the day boundaries, so a
// reload always satisfies the store invariants no matter what the file says.
func ReadTable(r io.Reader) ([]model.Reservation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var recs []model.Reservation
	for i, row := range rows[1:] {
		if len(row) < len(tableHeader) {
			return nil, fmt.Errorf("read table: row %d has %d columns, want %d", i+2, len(row), len(tableHeader))
		}
		checkout, err := parseDate(row[5])
		if err != nil {
			return nil, fmt.Errorf("read table: row %d checkout date: %w", i+2, err)
		}
		ret, err := parseDate(row[6])
		if err != nil {
			return nil, fmt.Errorf("read table: row %d return date: %w", i+2, err)
		}
		number, err := strconv.Atoi(row[2])
		if err != nil {
			number = model.VehicleNumberOf(row[1])
		}
		recs = append(recs, model.Reservation{
			ID:                len(recs),
			VehicleType:       row[1],
			VehicleNumber:     number,
			AssignedTo:        row[3],
			Status:            model.Status(row[4]),
			CheckoutDate:      model.StartOfDay(checkout),
			ReturnDate:        model.EndOfDay(ret),
			AuthorizedDrivers: model.SplitDrivers(row[7]),
			Notes:             row[8],
		})
	}
	return recs, nil
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// WriteTableFile serializes recs to path.
func WriteTableFile(path string, recs []model.Reservation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTable(f, recs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadTableFile loads the table at path. A missing file is an empty board,
// not an error, matching the registry loading behavior.
func ReadTableFile(path string) ([]model.Reservation, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadTable(f)
}
