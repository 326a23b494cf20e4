package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/event"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Loan aggregate root
// ---------------------------------------------------------------------------

// Loan is an immutable aggregate. Mutations return a new copy.
//
// loanBalance starts at loanedValue and only goes down: payments and
// amortizations subtract the cash received. Once it reaches zero or below the
// loan is Settled and never reopens.
type Loan struct {
	id                   string
	creditorID           string
	clientID             string
	code                 string
	title                string
	loanedValue          decimal.Decimal
	loanBalance          decimal.Decimal
	interestRate         decimal.NullDecimal
	interestModel        valueobject.InterestModel
	installmentsQuantity int
	recurrence           valueobject.RecurrencePeriod
	dailyFineValue       decimal.NullDecimal
	status               valueobject.LoanStatus
	loanDate             time.Time
	description          string
	version              int
	createdAt            time.Time
	updatedAt            time.Time
	domainEvents         []event.DomainEvent
}

// LoanParams carries the caller-supplied fields of a new loan.
type LoanParams struct {
	CreditorID           string
	ClientID             string
	Code                 string
	Title                string
	LoanedValue          decimal.Decimal
	InterestRate         decimal.NullDecimal
	InterestModel        valueobject.InterestModel
	InstallmentsQuantity int
	Recurrence           valueobject.RecurrencePeriod
	DailyFineValue       decimal.NullDecimal
	LoanDate             time.Time
	Description          string
}

// LoanSnapshot is the persisted shape of a Loan.
type LoanSnapshot struct {
	ID                   string
	CreditorID           string
	ClientID             string
	Code                 string
	Title                string
	LoanedValue          decimal.Decimal
	LoanBalance          decimal.Decimal
	InterestRate         decimal.NullDecimal
	InterestModel        valueobject.InterestModel
	InstallmentsQuantity int
	Recurrence           valueobject.RecurrencePeriod
	DailyFineValue       decimal.NullDecimal
	Status               valueobject.LoanStatus
	LoanDate             time.Time
	Description          string
	Version              int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewLoan books an Open loan whose balance equals the loaned value.
func NewLoan(p LoanParams, now time.Time) (Loan, error) {
	switch {
	case p.CreditorID == "":
		return Loan{}, apperror.Validation("creditor ID is required")
	case p.ClientID == "":
		return Loan{}, apperror.Validation("client ID is required")
	case strings.TrimSpace(p.Code) == "":
		return Loan{}, apperror.Validation("loan code is required")
	case strings.TrimSpace(p.Title) == "":
		return Loan{}, apperror.Validation("loan title is required")
	case !p.LoanedValue.IsPositive():
		return Loan{}, apperror.Validation("loaned value must be positive")
	case p.InstallmentsQuantity <= 0:
		return Loan{}, apperror.Validation("installments quantity must be positive")
	case p.Recurrence.IsZero():
		return Loan{}, apperror.Validation("recurrence period is required")
	}
	if p.InterestRate.Valid && p.InterestRate.Decimal.IsNegative() {
		return Loan{}, apperror.Validation("interest rate must not be negative")
	}
	if p.DailyFineValue.Valid && p.DailyFineValue.Decimal.IsNegative() {
		return Loan{}, apperror.Validation("daily fine must not be negative")
	}

	id := uuid.New().String()
	loan := Loan{
		id:                   id,
		creditorID:           p.CreditorID,
		clientID:             p.ClientID,
		code:                 strings.TrimSpace(p.Code),
		title:                strings.TrimSpace(p.Title),
		loanedValue:          p.LoanedValue,
		loanBalance:          p.LoanedValue,
		interestRate:         p.InterestRate,
		interestModel:        p.InterestModel,
		installmentsQuantity: p.InstallmentsQuantity,
		recurrence:           p.Recurrence,
		dailyFineValue:       p.DailyFineValue,
		status:               valueobject.LoanStatusOpen,
		loanDate:             valueobject.StartOfDay(p.LoanDate),
		description:          p.Description,
		version:              1,
		createdAt:            now,
		updatedAt:            now,
	}

	loan.domainEvents = append(loan.domainEvents, event.NewLoanCreated(
		id, p.CreditorID, p.ClientID, loan.code, p.LoanedValue, p.InstallmentsQuantity, now,
	))

	return loan, nil
}

// ReconstructLoan rebuilds a Loan aggregate from persistence.
func ReconstructLoan(s LoanSnapshot) Loan {
	return Loan{
		id:                   s.ID,
		creditorID:           s.CreditorID,
		clientID:             s.ClientID,
		code:                 s.Code,
		title:                s.Title,
		loanedValue:          s.LoanedValue,
		loanBalance:          s.LoanBalance,
		interestRate:         s.InterestRate,
		interestModel:        s.InterestModel,
		installmentsQuantity: s.InstallmentsQuantity,
		recurrence:           s.Recurrence,
		dailyFineValue:       s.DailyFineValue,
		status:               s.Status,
		loanDate:             s.LoanDate,
		description:          s.Description,
		version:              s.Version,
		createdAt:            s.CreatedAt,
		updatedAt:            s.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// Guards
// ---------------------------------------------------------------------------

// EnsureOpen fails with an invalid-state error unless the loan is Open.
func (l Loan) EnsureOpen() error {
	if !l.status.Equal(valueobject.LoanStatusOpen) {
		return transitionError("loan %s is %s", l.code, l.status)
	}
	return nil
}

// transitionError is an invalid-state error that also matches
// valueobject.ErrInvalidStatusTransition.
func transitionError(format string, args ...any) *apperror.Error {
	return apperror.Wrap(apperror.KindInvalidState, valueobject.ErrInvalidStatusTransition, fmt.Sprintf(format, args...))
}

// RequireRate returns the interest rate or a missing-rate error.
func (l Loan) RequireRate() (decimal.Decimal, error) {
	if !l.interestRate.Valid {
		return decimal.Zero, apperror.New(apperror.KindMissingRate, "loan %s has no interest rate", l.code)
	}
	return l.interestRate.Decimal, nil
}

// OwnedBy reports whether creditorID owns the loan.
func (l Loan) OwnedBy(creditorID string) bool { return l.creditorID == creditorID }

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// ReduceBalance subtracts cash received from the balance, settling the loan
// the first time the balance reaches zero or below.
func (l Loan) ReduceBalance(amount decimal.Decimal, reason string, now time.Time) (Loan, error) {
	if err := l.EnsureOpen(); err != nil {
		return l, err
	}
	if !amount.IsPositive() {
		return l, apperror.Validation("amount must be positive")
	}

	next := l
	next.loanBalance = l.loanBalance.Sub(amount)
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanBalanceReduced(
		l.id, l.creditorID, amount, next.loanBalance, reason, now,
	))
	return next.settleIfPaid(now), nil
}

// ChangePrincipal records a recalculated principal and balance. mode names
// the recalculation that produced them.
func (l Loan) ChangePrincipal(newPrincipal, newBalance decimal.Decimal, mode string, now time.Time) (Loan, error) {
	if err := l.EnsureOpen(); err != nil {
		return l, err
	}
	if newPrincipal.IsNegative() {
		return l, apperror.New(apperror.KindNegativeAmortization, "principal would become %s", newPrincipal.StringFixed(2))
	}

	next := l
	next.loanedValue = newPrincipal
	next.loanBalance = newBalance
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanPrincipalChanged(
		l.id, l.creditorID, l.loanedValue, newPrincipal, newBalance, mode, now,
	))
	return next.settleIfPaid(now), nil
}

// Retitle changes the display title only.
func (l Loan) Retitle(title string, now time.Time) (Loan, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return l, apperror.Validation("loan title is required")
	}
	next := l
	next.title = title
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	return next, nil
}

func (l Loan) settleIfPaid(now time.Time) Loan {
	if l.loanBalance.IsPositive() || !l.status.Equal(valueobject.LoanStatusOpen) {
		return l
	}
	l.status = valueobject.LoanStatusSettled
	l.domainEvents = append(l.domainEvents, event.NewLoanSettled(l.id, l.creditorID, l.loanBalance, now))
	return l
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l Loan) ID() string                               { return l.id }
func (l Loan) CreditorID() string                       { return l.creditorID }
func (l Loan) ClientID() string                         { return l.clientID }
func (l Loan) Code() string                             { return l.code }
func (l Loan) Title() string                            { return l.title }
func (l Loan) LoanedValue() decimal.Decimal             { return l.loanedValue }
func (l Loan) LoanBalance() decimal.Decimal             { return l.loanBalance }
func (l Loan) InterestRate() decimal.NullDecimal        { return l.interestRate }
func (l Loan) InterestModel() valueobject.InterestModel { return l.interestModel }
func (l Loan) InstallmentsQuantity() int                { return l.installmentsQuantity }
func (l Loan) Recurrence() valueobject.RecurrencePeriod { return l.recurrence }
func (l Loan) DailyFineValue() decimal.NullDecimal      { return l.dailyFineValue }
func (l Loan) Status() valueobject.LoanStatus           { return l.status }
func (l Loan) LoanDate() time.Time                      { return l.loanDate }
func (l Loan) Description() string                      { return l.description }
func (l Loan) Version() int                             { return l.version }
func (l Loan) CreatedAt() time.Time                     { return l.createdAt }
func (l Loan) UpdatedAt() time.Time                     { return l.updatedAt }
func (l Loan) DomainEvents() []event.DomainEvent        { return l.domainEvents }

// Snapshot returns the persisted shape of the loan.
func (l Loan) Snapshot() LoanSnapshot {
	return LoanSnapshot{
		ID:                   l.id,
		CreditorID:           l.creditorID,
		ClientID:             l.clientID,
		Code:                 l.code,
		Title:                l.title,
		LoanedValue:          l.loanedValue,
		LoanBalance:          l.loanBalance,
		InterestRate:         l.interestRate,
		InterestModel:        l.interestModel,
		InstallmentsQuantity: l.installmentsQuantity,
		Recurrence:           l.recurrence,
		DailyFineValue:       l.dailyFineValue,
		Status:               l.status,
		LoanDate:             l.loanDate,
		Description:          l.description,
		Version:              l.version,
		CreatedAt:            l.createdAt,
		UpdatedAt:            l.updatedAt,
	}
}

// AccruesFines reports whether overdue installments of this loan accrue a
// daily fine.
func (l Loan) AccruesFines() bool {
	return l.dailyFineValue.Valid && l.dailyFineValue.Decimal.IsPositive()
}

// ClearEvents returns a copy with an empty event list.
func (l Loan) ClearEvents() Loan {
	next := l
	next.domainEvents = nil
	return next
}

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if src == nil {
		return nil
	}
	dst := make([]event.DomainEvent, len(src))
	copy(dst, src)
	return dst
}
