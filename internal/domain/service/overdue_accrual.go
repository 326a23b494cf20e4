package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/domain/event"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

// AccrualCandidate is a late installment together with the loan terms the
// fine depends on.
type AccrualCandidate struct {
	Installment    model.Installment
	CreditorID     string
	DailyFineValue decimal.NullDecimal
}

// AccrualResult lists the installments an accrual run changed. Fined counts
// every candidate carrying a fine as of the run date, including those a
// same-day run had already brought up to date.
type AccrualResult struct {
	Updated []model.Installment
	Fined   int
	Skipped int
	Events  []event.DomainEvent
}

// AccrueOverdue recomputes fines for every candidate as of asOf. Candidates
// that are no longer open, not yet late, or whose loan has no positive daily
// fine are skipped.
func AccrueOverdue(asOf time.Time, candidates []AccrualCandidate, now time.Time) (AccrualResult, error) {
	asOf = valueobject.StartOfDay(asOf)

	var res AccrualResult
	for _, c := range candidates {
		inst := c.Installment
		if !inst.Status().IsOpen() || !c.DailyFineValue.Valid || !c.DailyFineValue.Decimal.IsPositive() {
			res.Skipped++
			continue
		}

		next, changed, err := inst.AccrueFine(asOf, c.DailyFineValue.Decimal, now)
		if err != nil {
			return AccrualResult{}, fmt.Errorf("accrue %s: %w", inst.Code(), err)
		}
		res.Fined++
		if !changed {
			continue
		}

		res.Updated = append(res.Updated, next)
		res.Events = append(res.Events, event.NewInstallmentFineAccrued(
			next.ID(), next.LoanID(), c.CreditorID, next.DaysLate(), next.TotalFine(), next.DueValue(), now,
		))
	}
	return res, nil
}
