package service

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/pkg/money"
)

// RecalculationMode selects how the loan balance follows a new principal.
type RecalculationMode int

const (
	// ModeAmortization decrements the balance by the principal removed.
	ModeAmortization RecalculationMode = iota + 1
	// ModePrincipalEdit nets everything already paid out of the new principal.
	ModePrincipalEdit
)

func (m RecalculationMode) String() string {
	switch m {
	case ModeAmortization:
		return "amortization"
	case ModePrincipalEdit:
		return "principal_edit"
	default:
		return "unknown"
	}
}

const (
	recalcSuffix = "-RECALC"
	editSuffix   = "-ED"
)

var regeneratedSuffix = regexp.MustCompile(`(-RECALC\d*|-ED\d+(\.\d+)?)$`)

// Recalculation is the result of regenerating a loan's pending schedule.
// Callers delete Removed, insert Created and save Loan.
type Recalculation struct {
	Loan           model.Loan
	Removed        []model.Installment
	Created        []model.Installment
	PerInstallment decimal.Decimal
}

// Amortize applies an early principal paydown of extra and regenerates the
// pending schedule. extra equal to the whole principal is allowed.
func Amortize(loan model.Loan, schedule []model.Installment, extra decimal.Decimal, now time.Time) (Recalculation, error) {
	if err := loan.EnsureOpen(); err != nil {
		return Recalculation{}, err
	}
	if _, err := loan.RequireRate(); err != nil {
		return Recalculation{}, err
	}
	if !extra.IsPositive() {
		return Recalculation{}, apperror.Validation("amortization amount must be positive")
	}
	if !money.IsCents(extra) {
		return Recalculation{}, apperror.Validation("amortization amount %s has more than %d decimal places", extra, money.Scale)
	}
	newPrincipal := loan.LoanedValue().Sub(extra)
	if newPrincipal.IsNegative() {
		return Recalculation{}, apperror.New(apperror.KindNegativeAmortization,
			"amortization of %s exceeds principal %s", extra.StringFixed(2), loan.LoanedValue().StringFixed(2))
	}
	return RegenerateSchedule(loan, schedule, newPrincipal, ModeAmortization, now)
}

// RegenerateSchedule discards every Pending installment of schedule and
// replaces it with one recomputed from newPrincipal under the loan's
// interest model, keeping the original due dates.
//
// ModeAmortization requires a rate and decrements the balance by
// loanedValue - newPrincipal. ModePrincipalEdit treats a missing rate as zero
// and sets the balance to newPrincipal minus everything already paid.
func RegenerateSchedule(
	loan model.Loan,
	schedule []model.Installment,
	newPrincipal decimal.Decimal,
	mode RecalculationMode,
	now time.Time,
) (Recalculation, error) {
	if err := loan.EnsureOpen(); err != nil {
		return Recalculation{}, err
	}
	if newPrincipal.IsNegative() {
		return Recalculation{}, apperror.New(apperror.KindNegativeAmortization, "principal would become %s", newPrincipal.StringFixed(2))
	}

	rate := decimal.Zero
	if r := loan.InterestRate(); r.Valid {
		rate = r.Decimal
	} else if mode == ModeAmortization {
		return Recalculation{}, apperror.New(apperror.KindMissingRate, "loan %s has no interest rate", loan.Code())
	}

	var pending []model.Installment
	for _, inst := range schedule {
		if inst.IsPending() {
			pending = append(pending, inst)
		}
	}
	if len(pending) == 0 {
		return Recalculation{}, apperror.New(apperror.KindNoPendingInstallments, "loan %s has no pending installments to recalculate", loan.Code())
	}
	SortByDueDate(pending)

	perInstallment, err := InstallmentValue(loan.InterestModel(), newPrincipal, rate, len(pending))
	if err != nil {
		return Recalculation{}, err
	}

	taken := make(map[string]bool, len(schedule))
	for _, inst := range schedule {
		if !inst.IsPending() {
			taken[inst.Code()] = true
		}
	}
	created := make([]model.Installment, 0, len(pending))
	for i, old := range pending {
		code := regeneratedCode(old.Code(), mode, i+1, taken)
		inst, err := model.NewInstallment(loan.ID(), code, perInstallment, old.DueDate(), now)
		if err != nil {
			return Recalculation{}, fmt.Errorf("regenerate %s: %w", old.Code(), err)
		}
		created = append(created, inst)
	}

	var newBalance decimal.Decimal
	switch mode {
	case ModeAmortization:
		newBalance = loan.LoanBalance().Sub(loan.LoanedValue().Sub(newPrincipal))
	case ModePrincipalEdit:
		newBalance = newPrincipal.Sub(TotalPaid(schedule))
	default:
		return Recalculation{}, fmt.Errorf("unknown recalculation mode %d", mode)
	}

	updated, err := loan.ChangePrincipal(newPrincipal, newBalance, mode.String(), now)
	if err != nil {
		return Recalculation{}, err
	}

	return Recalculation{
		Loan:           updated,
		Removed:        pending,
		Created:        created,
		PerInstallment: perInstallment,
	}, nil
}

// TotalPaid sums paidValue over the Paid installments of schedule.
func TotalPaid(schedule []model.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range schedule {
		if inst.IsPaid() {
			total = total.Add(inst.PaidValue())
		}
	}
	return total
}

// regeneratedCode strips a trailing recalculation suffix so codes do not grow
// on every edit, then marks the new generation. A candidate already carried by
// a kept installment gets a generation number until it is free.
func regeneratedCode(code string, mode RecalculationMode, seq int, taken map[string]bool) string {
	base := code
	for {
		next := regeneratedSuffix.ReplaceAllString(base, "")
		if next == base || next == "" {
			break
		}
		base = next
	}

	candidate := base + recalcSuffix
	if mode == ModePrincipalEdit {
		candidate = fmt.Sprintf("%s%s%d", base, editSuffix, seq)
	}
	for gen := 2; taken[candidate]; gen++ {
		if mode == ModePrincipalEdit {
			candidate = fmt.Sprintf("%s%s%d.%d", base, editSuffix, seq, gen)
		} else {
			candidate = fmt.Sprintf("%s%s%d", base, recalcSuffix, gen)
		}
	}
	taken[candidate] = true
	return candidate
}
