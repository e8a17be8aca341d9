package types

import (
	"time"
)

// All calendar arithmetic in this file is done in UTC. Billing phases are aligned to
// UTC month starts so the provider can express them as whole-month durations.

// StartOfMonth returns the first instant of the given UTC month.
// Out-of-range months are normalised, so month 13 is January of the next year.
func StartOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// NextMonthStart returns the first instant of the month after the one containing t
func NextMonthStart(t time.Time) time.Time {
	u := t.UTC()
	return StartOfMonth(u.Year(), u.Month()+1)
}

// IsMonthStart reports whether t is exactly midnight UTC on the first of a month
func IsMonthStart(t time.Time) bool {
	u := t.UTC()
	return u.Equal(StartOfMonth(u.Year(), u.Month()))
}

// MonthStartOnOrAfter returns t itself when it is a month start, otherwise the next month start.
// This is the billing anchor for a reference time.
func MonthStartOnOrAfter(t time.Time) time.Time {
	if IsMonthStart(t) {
		return t.UTC()
	}
	return NextMonthStart(t)
}

// MonthStartsBetween lists every UTC month start m with a < m < b, ascending.
// It returns nil when a >= b.
func MonthStartsBetween(a, b time.Time) []time.Time {
	if !a.Before(b) {
		return nil
	}

	var starts []time.Time
	for m := NextMonthStart(a); m.Before(b); m = NextMonthStart(m) {
		starts = append(starts, m)
	}
	return starts
}

// MonthCount is the number of month starts strictly between a and b
func MonthCount(a, b time.Time) int {
	return len(MonthStartsBetween(a, b))
}

// WholeMonths reports how many whole calendar months [a, b) spans. It is only
// defined when both ends fall on month starts; otherwise ok is false and the
// interval needs an explicit end date.
func WholeMonths(a, b time.Time) (months int, ok bool) {
	if !a.Before(b) || !IsMonthStart(a) || !IsMonthStart(b) {
		return 0, false
	}
	return MonthCount(a, b) + 1, true
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, value, time.UTC)
}
