package money

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Scale is the number of fractional digits persisted and displayed for amounts.
const Scale = 2

// Currency is an ISO 4217 currency code.
type Currency struct {
	code   string
	symbol string
}

// NewCurrency creates a Currency after validating the code is exactly 3 uppercase letters.
func NewCurrency(code, symbol string) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	if symbol == "" {
		symbol = code
	}
	return Currency{code: code, symbol: symbol}, nil
}

// MustCurrency creates a Currency and panics on error. Intended for package-level variable
// initialization only.
func MustCurrency(code, symbol string) Currency {
	c, err := NewCurrency(code, symbol)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string { return c.code }

// Symbol returns the display symbol, e.g. "R$".
func (c Currency) Symbol() string { return c.symbol }

// String returns the currency code.
func (c Currency) String() string { return c.code }

// BRL is the only currency the ledger books in.
var BRL = MustCurrency("BRL", "R$")

// Money represents an immutable monetary amount with currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New creates a Money value from a decimal amount and currency.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// NewFromString parses an amount string into a Money value.
func NewFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return Money{amount: d, currency: currency}, nil
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency.
func (m Money) Currency() Currency { return m.currency }

// Rounded returns m rounded to two decimal places.
func (m Money) Rounded() Money {
	return Money{amount: Round(m.amount), currency: m.currency}
}

// Add returns the sum of m and other. Returns an error if the currencies do not match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: cannot add %s to %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Equal returns true if both the amount and currency of m and other are equal.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String formats the value for receipts and statements, for example "R$ 1234.50".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.currency.Symbol(), m.amount.StringFixed(Scale))
}

// ---------------------------------------------------------------------------
// Decimal helpers
// ---------------------------------------------------------------------------

// Round rounds d half away from zero to two decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// IsCents reports whether d is a whole number of cents.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}

// Split divides total into parts shares of whole cents. Every share but the
// last is total/parts truncated to cents; the last absorbs the remainder so the
// shares always sum to total rounded to cents.
func Split(total decimal.Decimal, parts int) []decimal.Decimal {
	if parts <= 0 {
		return nil
	}
	total = Round(total)
	share := total.Div(decimal.NewFromInt(int64(parts))).Truncate(Scale)

	out := make([]decimal.Decimal, parts)
	allocated := decimal.Zero
	for i := 0; i < parts-1; i++ {
		out[i] = share
		allocated = allocated.Add(share)
	}
	out[parts-1] = total.Sub(allocated)
	return out
}

// Sum adds the given amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
