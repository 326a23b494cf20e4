package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	"github.com/bibbank/lenderledger/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// ---------------------------------------------------------------------------
// Schedule generation
// ---------------------------------------------------------------------------

// ScheduleRequest describes the installment plan of a new loan.
type ScheduleRequest struct {
	LoanID       string
	LoanCode     string
	Principal    decimal.Decimal
	Count        int
	FirstDueDate time.Time
	Period       valueobject.RecurrencePeriod
	Model        valueobject.InterestModel
	// Rate is a percentage; a null rate is treated as zero.
	Rate decimal.NullDecimal
}

// GenerateSchedule builds Count Pending installments spaced by Period from
// FirstDueDate. Codes are "<loanCode>-<n>", 1-based.
func GenerateSchedule(req ScheduleRequest, now time.Time) ([]model.Installment, error) {
	if req.Count <= 0 {
		return nil, apperror.New(apperror.KindInvalidSchedule, "installment count must be positive, got %d", req.Count)
	}
	if !req.Principal.IsPositive() {
		return nil, apperror.New(apperror.KindInvalidSchedule, "principal must be positive, got %s", req.Principal)
	}
	if req.Period.IsZero() {
		return nil, apperror.New(apperror.KindInvalidSchedule, "recurrence period is required")
	}

	rate := decimal.Zero
	if req.Rate.Valid {
		rate = req.Rate.Decimal
	}
	value, err := InstallmentValue(req.Model, req.Principal, rate, req.Count)
	if err != nil {
		return nil, err
	}

	out := make([]model.Installment, 0, req.Count)
	for n := 0; n < req.Count; n++ {
		inst, err := model.NewInstallment(
			req.LoanID,
			fmt.Sprintf("%s-%d", req.LoanCode, n+1),
			value,
			req.Period.Advance(req.FirstDueDate, n),
			now,
		)
		if err != nil {
			return nil, fmt.Errorf("installment %d: %w", n+1, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// InstallmentValue computes the per-installment obligation for principal
// spread over count installments, rounded to cents.
//
//	SimpleInterest:       principal/count + principal*(rate/100)
//	PercentageOfInterest: principal*(1 + rate/100)/count
func InstallmentValue(m valueobject.InterestModel, principal, rate decimal.Decimal, count int) (decimal.Decimal, error) {
	if count <= 0 {
		return decimal.Zero, apperror.New(apperror.KindInvalidSchedule, "installment count must be positive, got %d", count)
	}
	n := decimal.NewFromInt(int64(count))
	pct := rate.Div(hundred)

	switch {
	case m.Equal(valueobject.InterestModelSimple):
		return money.Round(principal.Div(n).Add(principal.Mul(pct))), nil
	case m.Equal(valueobject.InterestModelPercentage):
		return money.Round(principal.Mul(decimal.NewFromInt(1).Add(pct)).Div(n)), nil
	default:
		return decimal.Zero, apperror.New(apperror.KindUnsupportedModel, "interest model %q is not supported", m.String())
	}
}
