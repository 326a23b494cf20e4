package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const (
	aggregateLoan        = "Loan"
	aggregateInstallment = "Installment"
	aggregateAccount     = "Account"
)

// ---------------------------------------------------------------------------
// Loan events
// ---------------------------------------------------------------------------

// LoanCreated is raised when a loan and its schedule are booked.
type LoanCreated struct {
	events.BaseEvent
	ClientID             string          `json:"client_id"`
	Code                 string          `json:"code"`
	LoanedValue          decimal.Decimal `json:"loaned_value"`
	InstallmentsQuantity int             `json:"installments_quantity"`
}

func NewLoanCreated(loanID, creditorID, clientID, code string, loanedValue decimal.Decimal, installments int, at time.Time) LoanCreated {
	return LoanCreated{
		BaseEvent:            events.NewBaseEventAt("lending.loan.created", loanID, aggregateLoan, creditorID, at),
		ClientID:             clientID,
		Code:                 code,
		LoanedValue:          loanedValue,
		InstallmentsQuantity: installments,
	}
}

// LoanBalanceReduced is raised whenever cash reduces the outstanding balance.
type LoanBalanceReduced struct {
	events.BaseEvent
	Amount      decimal.Decimal `json:"amount"`
	LoanBalance decimal.Decimal `json:"loan_balance"`
	Reason      string          `json:"reason"`
}

func NewLoanBalanceReduced(loanID, creditorID string, amount, balance decimal.Decimal, reason string, at time.Time) LoanBalanceReduced {
	return LoanBalanceReduced{
		BaseEvent:   events.NewBaseEventAt("lending.loan.balance_reduced", loanID, aggregateLoan, creditorID, at),
		Amount:      amount,
		LoanBalance: balance,
		Reason:      reason,
	}
}

// LoanSettled is raised once, when the balance first reaches zero or below.
type LoanSettled struct {
	events.BaseEvent
	FinalBalance decimal.Decimal `json:"final_balance"`
}

func NewLoanSettled(loanID, creditorID string, finalBalance decimal.Decimal, at time.Time) LoanSettled {
	return LoanSettled{
		BaseEvent:    events.NewBaseEventAt("lending.loan.settled", loanID, aggregateLoan, creditorID, at),
		FinalBalance: finalBalance,
	}
}

// LoanPrincipalChanged is raised when the principal is amortized or edited
// and the pending schedule regenerated.
type LoanPrincipalChanged struct {
	events.BaseEvent
	PreviousPrincipal decimal.Decimal `json:"previous_principal"`
	NewPrincipal      decimal.Decimal `json:"new_principal"`
	LoanBalance       decimal.Decimal `json:"loan_balance"`
	Mode              string          `json:"mode"`
}

func NewLoanPrincipalChanged(loanID, creditorID string, previous, next, balance decimal.Decimal, mode string, at time.Time) LoanPrincipalChanged {
	return LoanPrincipalChanged{
		BaseEvent:         events.NewBaseEventAt("lending.loan.principal_changed", loanID, aggregateLoan, creditorID, at),
		PreviousPrincipal: previous,
		NewPrincipal:      next,
		LoanBalance:       balance,
		Mode:              mode,
	}
}

// ---------------------------------------------------------------------------
// Installment events
// ---------------------------------------------------------------------------

// InstallmentPaid is raised when an installment is settled, fully or partially.
type InstallmentPaid struct {
	events.BaseEvent
	LoanID    string          `json:"loan_id"`
	Code      string          `json:"code"`
	DueValue  decimal.Decimal `json:"due_value"`
	PaidValue decimal.Decimal `json:"paid_value"`
}

func NewInstallmentPaid(installmentID, loanID, creditorID, code string, dueValue, paidValue decimal.Decimal, at time.Time) InstallmentPaid {
	return InstallmentPaid{
		BaseEvent: events.NewBaseEventAt("lending.installment.paid", installmentID, aggregateInstallment, creditorID, at),
		LoanID:    loanID,
		Code:      code,
		DueValue:  dueValue,
		PaidValue: paidValue,
	}
}

// InstallmentFineAccrued is raised when an accrual run changes an installment.
type InstallmentFineAccrued struct {
	events.BaseEvent
	LoanID    string          `json:"loan_id"`
	DaysLate  int             `json:"days_late"`
	TotalFine decimal.Decimal `json:"total_fine"`
	DueValue  decimal.Decimal `json:"due_value"`
}

func NewInstallmentFineAccrued(installmentID, loanID, creditorID string, daysLate int, totalFine, dueValue decimal.Decimal, at time.Time) InstallmentFineAccrued {
	return InstallmentFineAccrued{
		BaseEvent: events.NewBaseEventAt("lending.installment.fine_accrued", installmentID, aggregateInstallment, creditorID, at),
		LoanID:    loanID,
		DaysLate:  daysLate,
		TotalFine: totalFine,
		DueValue:  dueValue,
	}
}

// ---------------------------------------------------------------------------
// Account events
// ---------------------------------------------------------------------------

// AccountCredited is raised for every inflow booked on an account.
type AccountCredited struct {
	events.BaseEvent
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	Category      string          `json:"category"`
}

func NewAccountCredited(accountID, creditorID, transactionID string, amount, balance decimal.Decimal, category string, at time.Time) AccountCredited {
	return AccountCredited{
		BaseEvent:     events.NewBaseEventAt("lending.account.credited", accountID, aggregateAccount, creditorID, at),
		TransactionID: transactionID,
		Amount:        amount,
		Balance:       balance,
		Category:      category,
	}
}
