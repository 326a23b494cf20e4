package valueobject

import (
	"fmt"
	"strings"
	"time"
)

// RecurrencePeriod is the spacing between consecutive installment due dates.
type RecurrencePeriod struct {
	value string
}

const (
	recurrenceDaily    = "DAILY"
	recurrenceWeekly   = "WEEKLY"
	recurrenceBiweekly = "BIWEEKLY"
	recurrenceMonthly  = "MONTHLY"
)

var (
	RecurrenceDaily    = RecurrencePeriod{value: recurrenceDaily}
	RecurrenceWeekly   = RecurrencePeriod{value: recurrenceWeekly}
	RecurrenceBiweekly = RecurrencePeriod{value: recurrenceBiweekly}
	RecurrenceMonthly  = RecurrencePeriod{value: recurrenceMonthly}
)

var validRecurrencePeriods = map[string]RecurrencePeriod{
	recurrenceDaily:    RecurrenceDaily,
	recurrenceWeekly:   RecurrenceWeekly,
	recurrenceBiweekly: RecurrenceBiweekly,
	recurrenceMonthly:  RecurrenceMonthly,
}

// NewRecurrencePeriod parses a period name.
func NewRecurrencePeriod(s string) (RecurrencePeriod, error) {
	v, ok := validRecurrencePeriods[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return RecurrencePeriod{}, fmt.Errorf("invalid recurrence period: %q", s)
	}
	return v, nil
}

func (p RecurrencePeriod) String() string { return p.value }

func (p RecurrencePeriod) IsZero() bool { return p.value == "" }

func (p RecurrencePeriod) Equal(other RecurrencePeriod) bool { return p.value == other.value }

// Advance returns the date n periods after start. Monthly steps are taken
// from start itself, not chained, and clamp to the last day of the target
// month: Jan 31 advances to Feb 28/29, Mar 31, Apr 30.
func (p RecurrencePeriod) Advance(start time.Time, n int) time.Time {
	start = StartOfDay(start)
	switch p.value {
	case recurrenceDaily:
		return start.AddDate(0, 0, n)
	case recurrenceWeekly:
		return start.AddDate(0, 0, 7*n)
	case recurrenceBiweekly:
		return start.AddDate(0, 0, 14*n)
	default:
		return addMonthsClamped(start, n)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, t.Location())
}
