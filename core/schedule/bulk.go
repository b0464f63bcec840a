package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/model"
)

// DateSpan is one checkout/return window produced by bulk expansion. Both
// ends are calendar days.
type DateSpan struct {
	From time.Time
	To   time.Time
}

// WeekdaySpans expands [from, to] into one span per consecutive run of
// matching weekdays. Adjacent matching days collapse into a single span
// instead of one row per day; a single non-matching day splits runs. An
// empty weekday set yields no spans.
func WeekdaySpans(from, to time.Time, weekdays []time.Weekday) []DateSpan {
	if len(weekdays) == 0 {
		return nil
	}
	match := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		match[d] = true
	}
	var spans []DateSpan
	var inRun bool
	var start, last time.Time
	end := model.StartOfDay(to)
	for day := model.StartOfDay(from); !day.After(end); day = day.AddDate(0, 0, 1) {
		if !match[day.Weekday()] {
			if inRun {
				spans = append(spans, DateSpan{From: start, To: last})
				inRun = false
			}
			continue
		}
		if !inRun {
			start = day
			inRun = true
		}
		last = day
	}
	if inRun {
		spans = append(spans, DateSpan{From: start, To: last})
	}
	return spans
}

// ParseWeekday resolves a day name such as "Monday" or "mon".
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue", "tues":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu", "thur", "thurs":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// ParseWeekdays resolves a list of day names, preserving order.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
