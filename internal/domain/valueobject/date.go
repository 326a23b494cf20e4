package valueobject

import "time"

// StartOfDay returns midnight UTC of t's calendar day as seen in t's own
// location. Due dates and accrual reference dates are compared as calendar days.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from a to b; negative when b < a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}
