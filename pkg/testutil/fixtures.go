package testutil

import (
	"time"

	"github.com/google/uuid"
)

// Fixed identifiers for deterministic testing.
var (
	TestCreditorID  = uuid.MustParse("00000000-0000-0000-0000-000000000001").String()
	TestCreditorID2 = uuid.MustParse("00000000-0000-0000-0000-000000000002").String()
	TestClientID    = uuid.MustParse("00000000-0000-0000-0000-000000000010").String()
	TestAccountID   = uuid.MustParse("00000000-0000-0000-0000-000000000020").String()
)

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
