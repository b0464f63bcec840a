// Package timeline projects the reservation snapshot into the drawable
// intervals behind the board's gantt view.
package timeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/model"
)

// palette is the fixed 24-color cycle assigned to assignees by first
// appearance in the snapshot.
var palette = []string{
	"#353850", "#3A565A", "#3E654C", "#557042", "#7C7246", "#884C49",
	"#944C7F", "#7B4FA1", "#503538", "#5A3A56", "#4C3E65", "#425570",
	"#467C72", "#49884C", "#80944C", "#A1794F", "#395035", "#575A3A",
	"#654B3E", "#704255", "#72467C", "#4C4988", "#4C8094", "#4FA179",
}

// Layer hints order overlapping bars within a row: lower draws beneath.
const (
	LayerReserved  = 0
	LayerConfirmed = 1
)

// View names accepted by WindowFor.
const (
	ViewDesktop = "desktop"
	ViewMobile  = "mobile"
)

// Window is the visible date range of a view.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DesktopWindow spans two weeks back and four weeks forward of now's day.
func DesktopWindow(now time.Time) Window {
	today := model.StartOfDay(now)
	return Window{Start: today.AddDate(0, 0, -14), End: today.AddDate(0, 0, 28)}
}

// MobileWindow spans two days back and five days forward of now's day.
func MobileWindow(now time.Time) Window {
	today := model.StartOfDay(now)
	return Window{Start: today.AddDate(0, 0, -2), End: today.AddDate(0, 0, 5)}
}

// WindowFor maps a view name to its window. Unknown names fall back to the
// desktop view.
func WindowFor(view string, now time.Time) Window {
	if strings.EqualFold(view, ViewMobile) {
		return MobileWindow(now)
	}
	return DesktopWindow(now)
}

// Interval is one drawable bar.
type Interval struct {
	EntryID int          `json:"entry_id"`
	Row     string       `json:"row"`
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
	Label   string       `json:"label"`
	Color   string       `json:"color"`
	Status  model.Status `json:"status"`
	Layer   int          `json:"layer"`
}

// Row is one y-axis category. Short is the 3-character label used on narrow
// screens.
type Row struct {
	Key   string `json:"key"`
	Short string `json:"short"`
}

// Projection is everything a renderer needs for one view. Intervals outside
// the window are included; the window only tells the renderer what to frame.
type Projection struct {
	Window    Window     `json:"window"`
	Today     time.Time  `json:"today"`
	Rows      []Row      `json:"rows"`
	Intervals []Interval `json:"intervals"`
}

// Project maps a snapshot to drawable intervals. Reserved bars sort before
// Confirmed ones so tentative holds render beneath firm checkouts, a fixed
// tie-break independent of creation order; everything else keeps the stable
// snapshot order. Colors cycle through the palette by an assignee's first
// appearance, so they are stable within one projection only. Rows are the
// distinct vehicle types, ascending. Today is pinned to the start of now's
// calendar day.
func Project(snapshot []model.Reservation, w Window, now time.Time) Projection {
	proj := Projection{Window: w, Today: model.StartOfDay(now)}
	colors := make(map[string]string)
	rowSeen := make(map[string]bool)
	for _, r := range snapshot {
		if _, ok := colors[r.AssignedTo]; !ok {
			colors[r.AssignedTo] = palette[len(colors)%len(palette)]
		}
		if !rowSeen[r.VehicleType] {
			rowSeen[r.VehicleType] = true
			proj.Rows = append(proj.Rows, Row{Key: r.VehicleType, Short: shortLabel(r.VehicleType)})
		}
		iv := Interval{
			EntryID: r.ID,
			Row:     r.VehicleType,
			Start:   r.CheckoutDate,
			End:     r.ReturnDate,
			Color:   colors[r.AssignedTo],
			Status:  r.Status,
			Layer:   LayerConfirmed,
		}
		if r.Status == model.StatusReserved {
			iv.Layer = LayerReserved
		} else {
			iv.Label = fmt.Sprintf("%d - %s", r.VehicleNumber, r.AssignedTo)
		}
		proj.Intervals = append(proj.Intervals, iv)
	}
	sort.Slice(proj.Rows, func(i, j int) bool {
		return proj.Rows[i].Key < proj.Rows[j].Key
	})
	sort.SliceStable(proj.Intervals, func(i, j int) bool {
		return proj.Intervals[i].Layer < proj.Intervals[j].Layer
	})
	return proj
}

func shortLabel(s string) string {
	r := []rune(s)
	if len(r) <= 3 {
		return s
	}
	return string(r[:3])
}
