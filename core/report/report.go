// Package report computes fleet utilization summaries from a reservation
// snapshot.
package report

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/forestryvehicleadmin/motorpool/core/model"
)

// TypeUsage summarizes one vehicle type's bookings inside a window.
type TypeUsage struct {
	VehicleType string  `json:"vehicle_type"`
	Records     int     `json:"records"`
	BookedDays  int     `json:"booked_days"`
	Utilization float64 `json:"utilization"`
}

// Summary aggregates the whole board for a window. Utilization is booked
// vehicle-days over window days, so overlapping bookings of one type can push
// it past 1.
type Summary struct {
	From            time.Time   `json:"from"`
	To              time.Time   `json:"to"`
	Days            int         `json:"days"`
	Records         int         `json:"records"`
	ByType          []TypeUsage `json:"by_type"`
	MeanUtilization float64     `json:"mean_utilization"`
	StdDevUtil      float64     `json:"stddev_utilization"`
	PeakConcurrency int         `json:"peak_concurrency"`
	PeakDay         time.Time   `json:"peak_day,omitempty"`
}

// Build computes a summary for the inclusive day range [from, to]. Both
// statuses count: a tentative hold blocks the vehicle the same as a firm
// checkout. Records that never touch the window contribute nothing.
func Build(snapshot []model.Reservation, from, to time.Time) Summary {
	from = model.StartOfDay(from)
	to = model.StartOfDay(to)
	if to.Before(from) {
		from, to = to, from
	}

	s := Summary{From: from, To: to, Days: daysBetween(from, to)}

	byType := make(map[string]*TypeUsage)
	var order []string
	for _, r := range snapshot {
		start, end, ok := clamp(r, from, to)
		if !ok {
			continue
		}
		u := byType[r.VehicleType]
		if u == nil {
			u = &TypeUsage{VehicleType: r.VehicleType}
			byType[r.VehicleType] = u
			order = append(order, r.VehicleType)
		}
		u.Records++
		u.BookedDays += daysBetween(start, end)
		s.Records++
	}

	utils := make([]float64, 0, len(order))
	for _, name := range order {
		u := byType[name]
		u.Utilization = float64(u.BookedDays) / float64(s.Days)
		utils = append(utils, u.Utilization)
		s.ByType = append(s.ByType, *u)
	}
	sort.Slice(s.ByType, func(i, j int) bool {
		if s.ByType[i].BookedDays != s.ByType[j].BookedDays {
			return s.ByType[i].BookedDays > s.ByType[j].BookedDays
		}
		return s.ByType[i].VehicleType < s.ByType[j].VehicleType
	})

	if len(utils) > 0 {
		s.MeanUtilization = stat.Mean(utils, nil)
	}
	if len(utils) > 1 {
		s.StdDevUtil = stat.StdDev(utils, nil)
	}

	s.PeakConcurrency, s.PeakDay = peak(snapshot, from, to)
	return s
}

// peak walks the window day by day and returns the highest count of
// simultaneously active records with the first day it occurs. Window spans are
// a few weeks, so the quadratic scan stays cheap.
func peak(snapshot []model.Reservation, from, to time.Time) (int, time.Time) {
	best := 0
	var bestDay time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		n := 0
		for _, r := range snapshot {
			if !model.StartOfDay(r.CheckoutDate).After(d) && !model.StartOfDay(r.ReturnDate).Before(d) {
				n++
			}
		}
		if n > best {
			best = n
			bestDay = d
		}
	}
	return best, bestDay
}

// clamp intersects a record's day span with the window.
func clamp(r model.Reservation, from, to time.Time) (time.Time, time.Time, bool) {
	start := model.StartOfDay(r.CheckoutDate)
	end := model.StartOfDay(r.ReturnDate)
	if start.Before(from) {
		start = from
	}
	if end.After(to) {
		end = to
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// daysBetween counts calendar days in the inclusive span [a, b]. Stepping by
// AddDate keeps the count right across DST shifts.
func daysBetween(a, b time.Time) int {
	n := 0
	for d := model.StartOfDay(a); !d.After(model.StartOfDay(b)); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}
