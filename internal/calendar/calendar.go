// Package calendar fixes the day and week conventions shared by the analysis
// and aggregation engines. Weeks are ISO weeks starting Monday 00:00 in the
// location of the timestamp being bucketed.
package calendar

import "time"

// DayLabelLayout renders day buckets as "Jan 2".
const DayLabelLayout = "Jan 2"

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns Monday 00:00 of t's ISO week in t's location.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// SameWeek reports whether a and b fall in the same ISO week. b is compared in
// a's location.
func SameWeek(a, b time.Time) bool {
	return StartOfWeek(a).Equal(StartOfWeek(b.In(a.Location())))
}

// DayLabel formats t's day for chart labels.
func DayLabel(t time.Time) string {
	return t.Format(DayLabelLayout)
}

// WindowStart returns the instant days days before now.
func WindowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
