package valueobject

import (
	"fmt"
	"strings"
)

// CPF is a Brazilian individual taxpayer number, stored as 11 digits.
type CPF struct {
	digits string
}

// NewCPF strips punctuation and validates length and both check digits.
func NewCPF(raw string) (CPF, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == ' ':
		default:
			return CPF{}, fmt.Errorf("invalid CPF %q: unexpected character %q", raw, r)
		}
	}
	digits := b.String()
	if len(digits) != 11 {
		return CPF{}, fmt.Errorf("invalid CPF %q: must have 11 digits", raw)
	}
	if strings.Count(digits, digits[:1]) == 11 {
		return CPF{}, fmt.Errorf("invalid CPF %q: repeated digits", raw)
	}
	if cpfCheckDigit(digits[:9]) != digits[9] || cpfCheckDigit(digits[:10]) != digits[10] {
		return CPF{}, fmt.Errorf("invalid CPF %q: check digits do not match", raw)
	}
	return CPF{digits: digits}, nil
}

func cpfCheckDigit(prefix string) byte {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * weight
		weight--
	}
	rem := (sum * 10) % 11
	if rem == 10 {
		rem = 0
	}
	return byte('0' + rem)
}

// String returns the bare 11 digits.
func (c CPF) String() string { return c.digits }

// Formatted renders the conventional 000.000.000-00 mask.
func (c CPF) Formatted() string {
	if len(c.digits) != 11 {
		return c.digits
	}
	return c.digits[0:3] + "." + c.digits[3:6] + "." + c.digits[6:9] + "-" + c.digits[9:]
}

func (c CPF) IsZero() bool { return c.digits == "" }
