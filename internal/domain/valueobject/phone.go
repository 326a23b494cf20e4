package valueobject

import (
	"fmt"

	"github.com/ttacon/libphonenumber"
)

// DefaultPhoneRegion is used when a number has no country prefix.
const DefaultPhoneRegion = "BR"

// Phone is a WhatsApp contact normalised to E.164.
type Phone struct {
	e164 string
}

// NewPhone parses and validates a phone number, assuming region when the
// number carries no international prefix.
func NewPhone(raw, region string) (Phone, error) {
	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return Phone{}, fmt.Errorf("invalid phone %q: %w", raw, err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return Phone{}, fmt.Errorf("invalid phone %q: not a valid number for %s", raw, region)
	}
	return Phone{e164: libphonenumber.Format(num, libphonenumber.E164)}, nil
}

// String returns the E.164 form, e.g. +5511987654321.
func (p Phone) String() string { return p.e164 }

func (p Phone) IsZero() bool { return p.e164 == "" }
