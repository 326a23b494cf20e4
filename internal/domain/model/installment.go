package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	"github.com/bibbank/lenderledger/pkg/money"
)

// ---------------------------------------------------------------------------
// Installment entity
// ---------------------------------------------------------------------------

// Installment is one scheduled obligation of a loan. It is immutable;
// transitions return a new copy.
//
// originalDueValue is captured the first time a fine is applied and is never
// overwritten, so accrual always recomputes from the same base.
type Installment struct {
	id               string
	loanID           string
	code             string
	dueValue         decimal.Decimal
	originalDueValue decimal.NullDecimal
	paidValue        decimal.Decimal
	status           valueobject.InstallmentStatus
	dueDate          time.Time
	daysLate         int
	totalFine        decimal.Decimal
	paidAt           *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// InstallmentSnapshot is the persisted shape of an Installment.
type InstallmentSnapshot struct {
	ID               string
	LoanID           string
	Code             string
	DueValue         decimal.Decimal
	OriginalDueValue decimal.NullDecimal
	PaidValue        decimal.Decimal
	Status           valueobject.InstallmentStatus
	DueDate          time.Time
	DaysLate         int
	TotalFine        decimal.Decimal
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewInstallment creates a Pending installment with nothing paid.
func NewInstallment(loanID, code string, dueValue decimal.Decimal, dueDate, now time.Time) (Installment, error) {
	if loanID == "" {
		return Installment{}, apperror.Validation("loan ID is required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Installment{}, apperror.Validation("installment code is required")
	}
	if dueValue.IsNegative() {
		return Installment{}, apperror.Validation("installment %s due value must not be negative", code)
	}
	if dueDate.IsZero() {
		return Installment{}, apperror.Validation("installment %s due date is required", code)
	}

	return Installment{
		id:        uuid.New().String(),
		loanID:    loanID,
		code:      code,
		dueValue:  money.Round(dueValue),
		paidValue: decimal.Zero,
		status:    valueobject.InstallmentStatusPending,
		dueDate:   valueobject.StartOfDay(dueDate),
		totalFine: decimal.Zero,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructInstallment rebuilds an Installment from persistence.
func ReconstructInstallment(s InstallmentSnapshot) Installment {
	return Installment{
		id:               s.ID,
		loanID:           s.LoanID,
		code:             s.Code,
		dueValue:         s.DueValue,
		originalDueValue: s.OriginalDueValue,
		paidValue:        s.PaidValue,
		status:           s.Status,
		dueDate:          s.DueDate,
		daysLate:         s.DaysLate,
		totalFine:        s.TotalFine,
		paidAt:           s.PaidAt,
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// MarkPaid records the cash collected for this installment and discharges it.
// amount may be below dueValue; the caller spreads the shortfall.
func (i Installment) MarkPaid(amount decimal.Decimal, paidAt, now time.Time) (Installment, error) {
	if !i.status.IsOpen() {
		return i, transitionError("installment %s is already %s", i.code, i.status)
	}
	if !amount.IsPositive() {
		return i, apperror.Validation("amount paid must be positive")
	}

	at := paidAt
	next := i
	next.status = valueobject.InstallmentStatusPaid
	next.paidValue = amount
	next.paidAt = &at
	next.updatedAt = now
	return next, nil
}

// AddDilution raises the obligation by a share of another installment's
// shortfall. Only Pending installments absorb dilution.
func (i Installment) AddDilution(amount decimal.Decimal, now time.Time) (Installment, error) {
	if !i.status.Equal(valueobject.InstallmentStatusPending) {
		return i, transitionError("installment %s is %s and cannot absorb a shortfall", i.code, i.status)
	}
	if amount.IsNegative() {
		return i, apperror.Validation("dilution must not be negative")
	}

	next := i
	next.dueValue = i.dueValue.Add(amount)
	next.updatedAt = now
	return next, nil
}

// AccrueFine recomputes the late fine as of asOf. daysLate is derived from
// asOf each time, never accumulated, so repeated runs on the same day produce
// the same values. changed is false when the installment is not late or the
// recomputation left every field as it was.
func (i Installment) AccrueFine(asOf time.Time, dailyFine decimal.Decimal, now time.Time) (next Installment, changed bool, err error) {
	if !i.status.IsOpen() {
		return i, false, transitionError("installment %s is %s", i.code, i.status)
	}
	daysLate := valueobject.DaysBetween(i.dueDate, asOf)
	if daysLate <= 0 || !dailyFine.IsPositive() {
		return i, false, nil
	}

	base := i.dueValue
	if i.originalDueValue.Valid {
		base = i.originalDueValue.Decimal
	}
	totalFine := money.Round(dailyFine.Mul(decimal.NewFromInt(int64(daysLate))))

	next = i
	next.status = valueobject.InstallmentStatusOverdue
	next.daysLate = daysLate
	next.totalFine = totalFine
	next.dueValue = base.Add(totalFine)
	if !i.originalDueValue.Valid {
		next.originalDueValue = decimal.NewNullDecimal(base)
	}

	changed = !i.status.Equal(next.status) ||
		i.daysLate != next.daysLate ||
		!i.totalFine.Equal(next.totalFine) ||
		!i.dueValue.Equal(next.dueValue) ||
		i.originalDueValue.Valid != next.originalDueValue.Valid
	if !changed {
		return i, false, nil
	}
	next.updatedAt = now
	return next, true, nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// IsPending reports whether the installment is Pending (not yet late).
func (i Installment) IsPending() bool {
	return i.status.Equal(valueobject.InstallmentStatusPending)
}

// IsPaid reports whether the installment has been discharged.
func (i Installment) IsPaid() bool {
	return i.status.Equal(valueobject.InstallmentStatusPaid)
}

// Snapshot returns the persisted shape of the installment.
func (i Installment) Snapshot() InstallmentSnapshot {
	return InstallmentSnapshot{
		ID:               i.id,
		LoanID:           i.loanID,
		Code:             i.code,
		DueValue:         i.dueValue,
		OriginalDueValue: i.originalDueValue,
		PaidValue:        i.paidValue,
		Status:           i.status,
		DueDate:          i.dueDate,
		DaysLate:         i.daysLate,
		TotalFine:        i.totalFine,
		PaidAt:           i.paidAt,
		CreatedAt:        i.createdAt,
		UpdatedAt:        i.updatedAt,
	}
}

func (i Installment) ID() string                            { return i.id }
func (i Installment) LoanID() string                        { return i.loanID }
func (i Installment) Code() string                          { return i.code }
func (i Installment) DueValue() decimal.Decimal             { return i.dueValue }
func (i Installment) OriginalDueValue() decimal.NullDecimal { return i.originalDueValue }
func (i Installment) PaidValue() decimal.Decimal            { return i.paidValue }
func (i Installment) Status() valueobject.InstallmentStatus { return i.status }
func (i Installment) DueDate() time.Time                    { return i.dueDate }
func (i Installment) DaysLate() int                         { return i.daysLate }
func (i Installment) TotalFine() decimal.Decimal            { return i.totalFine }
func (i Installment) PaidAt() *time.Time                    { return i.paidAt }
func (i Installment) CreatedAt() time.Time                  { return i.createdAt }
func (i Installment) UpdatedAt() time.Time                  { return i.updatedAt }
