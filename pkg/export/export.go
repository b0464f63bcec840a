// Package export renders board snapshots for people outside the board:
// CSV in the on-disk table dialect, JSON for scripts, PDF for the
// clipboard on the garage wall.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/forestryvehicleadmin/motorpool/core/model"
	"github.com/forestryvehicleadmin/motorpool/core/schedule"
)

const dayLayout = "2006-01-02"

// WriteJSON writes the entries to w as a JSON array.
func WriteJSON(w io.Writer, entries []model.Reservation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteCSV writes the entries to w in the same dialect as the stored table,
// so an export can be re-read by the board.
func WriteCSV(w io.Writer, entries []model.Reservation) error {
	return schedule.WriteTable(w, entries)
}

// WritePDF writes a printable one-table rendering of the entries to w.
func WritePDF(w io.Writer, entries []model.Reservation) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Vehicle Checkout Board", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Vehicle Checkout Board")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s, %d entries", time.Now().Format("2006-01-02 15:04"), len(entries)))
	pdf.Ln(10)

	widths := []float64{12, 50, 48, 40, 26, 48, 53}
	headers := []string{"ID", "Dates", "Vehicle Type", "Assigned To", "Status", "Authorized Drivers", "Notes"}

	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.Cell(widths[i], 7, h)
	}
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 9)
	for _, e := range entries {
		cols := []string{
			fmt.Sprintf("%d", e.ID),
			fmt.Sprintf("%s to %s", e.CheckoutDate.Format(dayLayout), e.ReturnDate.Format(dayLayout)),
			e.VehicleType,
			e.AssignedTo,
			string(e.Status),
			strings.Join(e.AuthorizedDrivers, ", "),
			e.Notes,
		}
		for i, c := range cols {
			pdf.Cell(widths[i], 6, clip(c, 34))
		}
		pdf.Ln(6)
	}
	if len(entries) == 0 {
		pdf.Cell(0, 6, "No entries on the board.")
		pdf.Ln(6)
	}

	return pdf.Output(w)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
