package valueobject

import (
	"fmt"
	"strings"
)

// InterestModel selects the per-installment formula.
//
//	SimpleInterest:       P/n + P*(r/100)
//	PercentageOfInterest: P*(1 + r/100)/n
type InterestModel struct {
	value string
}

const (
	interestModelSimple     = "SIMPLE_INTEREST"
	interestModelPercentage = "PERCENTAGE_OF_INTEREST"
)

var (
	InterestModelSimple     = InterestModel{value: interestModelSimple}
	InterestModelPercentage = InterestModel{value: interestModelPercentage}
)

// Legacy labels still found in imported data.
var interestModelAliases = map[string]InterestModel{
	interestModelSimple:     InterestModelSimple,
	interestModelPercentage: InterestModelPercentage,
	"JUROSSIMPLES":          InterestModelSimple,
	"PERCENTUALDOSJUROS":    InterestModelPercentage,
}

// NewInterestModel parses a model name. Unknown names are rejected.
func NewInterestModel(s string) (InterestModel, error) {
	v, ok := interestModelAliases[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return InterestModel{}, fmt.Errorf("unsupported interest model: %q", s)
	}
	return v, nil
}

// UnknownInterestModel carries a raw model name that failed to parse, so the
// schedule generator can reject it with its own error kind.
func UnknownInterestModel(raw string) InterestModel {
	return InterestModel{value: raw}
}

func (m InterestModel) String() string { return m.value }

func (m InterestModel) IsZero() bool { return m.value == "" }

func (m InterestModel) Equal(other InterestModel) bool { return m.value == other.value }

// IsSupported reports whether the model has a known formula.
func (m InterestModel) IsSupported() bool {
	return m.value == interestModelSimple || m.value == interestModelPercentage
}
