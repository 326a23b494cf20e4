package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/event"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/pkg/money"
)

// PaymentType classifies how a payment was applied.
type PaymentType string

const (
	PaymentTypeFull           PaymentType = "full_payment"
	PaymentTypeDilution       PaymentType = "amortization_dilution"
	PaymentTypeNewInstallment PaymentType = "amortization_new_installment"
)

// RemainderSuffix marks the installment created when a shortfall has no
// pending installment to spread into.
const RemainderSuffix = "-RESTANTE"

// ---------------------------------------------------------------------------
// PaymentProcessor – applies a payment to one installment of a loan
// ---------------------------------------------------------------------------

// PaymentOutcome is everything a payment changed. Callers persist Loan, Paid,
// every Diluted installment and Remainder (when set).
type PaymentOutcome struct {
	Type      PaymentType
	Loan      model.Loan
	Paid      model.Installment
	Shortfall decimal.Decimal
	Diluted   []model.Installment
	Remainder *model.Installment
	Events    []event.DomainEvent
}

// PaymentProcessor settles installments and spreads partial-payment
// shortfalls over the rest of the schedule.
type PaymentProcessor struct{}

// NewPaymentProcessor returns a new processor.
func NewPaymentProcessor() *PaymentProcessor {
	return &PaymentProcessor{}
}

// Apply pays target with amount. schedule holds the loan's installments and
// may include target itself.
//
// amount >= dueValue settles target outright. A smaller amount still marks
// target Paid with the cash collected; the shortfall is spread evenly over
// the other Pending installments, or becomes a single new installment due one
// period after target when none are left. The loan balance drops by amount.
func (p *PaymentProcessor) Apply(
	loan model.Loan,
	target model.Installment,
	schedule []model.Installment,
	amount decimal.Decimal,
	paidAt, now time.Time,
) (PaymentOutcome, error) {
	if err := loan.EnsureOpen(); err != nil {
		return PaymentOutcome{}, err
	}
	if target.LoanID() != loan.ID() {
		return PaymentOutcome{}, apperror.NotFound("installment", target.ID())
	}
	if !amount.IsPositive() {
		return PaymentOutcome{}, apperror.Validation("amount paid must be positive")
	}
	if !money.IsCents(amount) {
		return PaymentOutcome{}, apperror.Validation("amount paid %s has more than %d decimal places", amount, money.Scale)
	}

	dueValue := target.DueValue()
	paid, err := target.MarkPaid(amount, paidAt, now)
	if err != nil {
		return PaymentOutcome{}, err
	}

	out := PaymentOutcome{
		Type:      PaymentTypeFull,
		Paid:      paid,
		Shortfall: decimal.Zero,
	}
	out.Events = append(out.Events, event.NewInstallmentPaid(
		paid.ID(), loan.ID(), loan.CreditorID(), paid.Code(), dueValue, amount, now,
	))

	if amount.LessThan(dueValue) {
		out.Shortfall = dueValue.Sub(amount)
		if err := p.spreadShortfall(&out, loan, target, schedule, now); err != nil {
			return PaymentOutcome{}, err
		}
	}

	out.Loan, err = loan.ReduceBalance(amount, string(out.Type), now)
	if err != nil {
		return PaymentOutcome{}, fmt.Errorf("reduce loan balance: %w", err)
	}
	return out, nil
}

func (p *PaymentProcessor) spreadShortfall(
	out *PaymentOutcome,
	loan model.Loan,
	target model.Installment,
	schedule []model.Installment,
	now time.Time,
) error {
	others := OtherPending(schedule, target.ID())
	if len(others) == 0 {
		remainder, err := model.NewInstallment(
			loan.ID(),
			target.Code()+RemainderSuffix,
			out.Shortfall,
			loan.Recurrence().Advance(target.DueDate(), 1),
			now,
		)
		if err != nil {
			return fmt.Errorf("create remainder installment: %w", err)
		}
		out.Type = PaymentTypeNewInstallment
		out.Remainder = &remainder
		return nil
	}

	shares := money.Split(out.Shortfall, len(others))
	out.Diluted = make([]model.Installment, 0, len(others))
	for i, inst := range others {
		diluted, err := inst.AddDilution(shares[i], now)
		if err != nil {
			return fmt.Errorf("dilute into %s: %w", inst.Code(), err)
		}
		out.Diluted = append(out.Diluted, diluted)
	}
	out.Type = PaymentTypeDilution
	return nil
}

// OtherPending returns the Pending installments of schedule except excludeID,
// ordered by due date then code.
func OtherPending(schedule []model.Installment, excludeID string) []model.Installment {
	var out []model.Installment
	for _, inst := range schedule {
		if inst.ID() == excludeID || !inst.IsPending() {
			continue
		}
		out = append(out, inst)
	}
	SortByDueDate(out)
	return out
}

// SortByDueDate orders installments by due date, breaking ties by code.
func SortByDueDate(list []model.Installment) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].DueDate().Equal(list[j].DueDate()) {
			return list[i].DueDate().Before(list[j].DueDate())
		}
		return list[i].Code() < list[j].Code()
	})
}
