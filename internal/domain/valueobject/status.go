package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// LoanStatus – immutable value object
// ---------------------------------------------------------------------------

// LoanStatus represents the lifecycle stage of a loan. Open loans accept
// payments and recalculations; Settled is terminal.
type LoanStatus struct {
	value string
}

const (
	loanStatusOpen    = "OPEN"
	loanStatusSettled = "SETTLED"
)

var (
	LoanStatusOpen    = LoanStatus{value: loanStatusOpen}
	LoanStatusSettled = LoanStatus{value: loanStatusSettled}
)

var validLoanStatuses = map[string]LoanStatus{
	loanStatusOpen:    LoanStatusOpen,
	loanStatusSettled: LoanStatusSettled,
}

// NewLoanStatus creates a LoanStatus from a raw string.
func NewLoanStatus(s string) (LoanStatus, error) {
	v, ok := validLoanStatuses[s]
	if !ok {
		return LoanStatus{}, fmt.Errorf("invalid loan status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s LoanStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s LoanStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s LoanStatus) Equal(other LoanStatus) bool { return s.value == other.value }

// ---------------------------------------------------------------------------
// InstallmentStatus – immutable value object
// ---------------------------------------------------------------------------

// InstallmentStatus represents where an installment stands. Paid is terminal.
type InstallmentStatus struct {
	value string
}

const (
	installmentStatusPending = "PENDING"
	installmentStatusPaid    = "PAID"
	installmentStatusOverdue = "OVERDUE"
)

var (
	InstallmentStatusPending = InstallmentStatus{value: installmentStatusPending}
	InstallmentStatusPaid    = InstallmentStatus{value: installmentStatusPaid}
	InstallmentStatusOverdue = InstallmentStatus{value: installmentStatusOverdue}
)

var validInstallmentStatuses = map[string]InstallmentStatus{
	installmentStatusPending: InstallmentStatusPending,
	installmentStatusPaid:    InstallmentStatusPaid,
	installmentStatusOverdue: InstallmentStatusOverdue,
}

// NewInstallmentStatus creates an InstallmentStatus from a raw string.
func NewInstallmentStatus(s string) (InstallmentStatus, error) {
	v, ok := validInstallmentStatuses[s]
	if !ok {
		return InstallmentStatus{}, fmt.Errorf("invalid installment status: %q", s)
	}
	return v, nil
}

func (s InstallmentStatus) String() string { return s.value }

func (s InstallmentStatus) IsZero() bool { return s.value == "" }

func (s InstallmentStatus) Equal(other InstallmentStatus) bool { return s.value == other.value }

// IsOpen reports whether the installment still has money owed on it.
func (s InstallmentStatus) IsOpen() bool {
	return s.value == installmentStatusPending || s.value == installmentStatusOverdue
}

// ---------------------------------------------------------------------------
// TransactionType / TransactionCategory
// ---------------------------------------------------------------------------

// TransactionType is the direction of cash on an account.
type TransactionType struct {
	value string
}

var (
	TransactionTypeInflow  = TransactionType{value: "INFLOW"}
	TransactionTypeOutflow = TransactionType{value: "OUTFLOW"}
)

// NewTransactionType creates a TransactionType from a raw string.
func NewTransactionType(s string) (TransactionType, error) {
	switch s {
	case TransactionTypeInflow.value:
		return TransactionTypeInflow, nil
	case TransactionTypeOutflow.value:
		return TransactionTypeOutflow, nil
	}
	return TransactionType{}, fmt.Errorf("invalid transaction type: %q", s)
}

func (t TransactionType) String() string { return t.value }

func (t TransactionType) Equal(other TransactionType) bool { return t.value == other.value }

// TransactionCategory tags why cash moved.
type TransactionCategory struct {
	value string
}

var (
	TransactionCategoryPayment      = TransactionCategory{value: "PAYMENT"}
	TransactionCategoryAmortization = TransactionCategory{value: "AMORTIZATION"}
)

// NewTransactionCategory creates a TransactionCategory from a raw string.
func NewTransactionCategory(s string) (TransactionCategory, error) {
	switch s {
	case TransactionCategoryPayment.value:
		return TransactionCategoryPayment, nil
	case TransactionCategoryAmortization.value:
		return TransactionCategoryAmortization, nil
	}
	return TransactionCategory{}, fmt.Errorf("invalid transaction category: %q", s)
}

func (c TransactionCategory) String() string { return c.value }

func (c TransactionCategory) Equal(other TransactionCategory) bool { return c.value == other.value }

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

// ErrInvalidStatusTransition is wrapped by every rejected loan or installment
// status change.
var ErrInvalidStatusTransition = errors.New("invalid status transition")
