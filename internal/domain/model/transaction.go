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

// Transaction is an append-only cash movement on an account.
type Transaction struct {
	id                string
	accountID         string
	title             string
	value             decimal.Decimal
	txType            valueobject.TransactionType
	category          valueobject.TransactionCategory
	date              time.Time
	description       string
	externalReference string
	createdAt         time.Time
}

// TransactionParams describes a new transaction.
type TransactionParams struct {
	AccountID         string
	Title             string
	Value             decimal.Decimal
	Type              valueobject.TransactionType
	Category          valueobject.TransactionCategory
	Date              time.Time
	Description       string
	ExternalReference string
}

// TransactionSnapshot is the persisted shape of a Transaction.
type TransactionSnapshot struct {
	ID                string
	AccountID         string
	Title             string
	Value             decimal.Decimal
	Type              valueobject.TransactionType
	Category          valueobject.TransactionCategory
	Date              time.Time
	Description       string
	ExternalReference string
	CreatedAt         time.Time
}

// NewTransaction validates and creates a transaction record.
func NewTransaction(p TransactionParams, now time.Time) (Transaction, error) {
	switch {
	case p.AccountID == "":
		return Transaction{}, apperror.Validation("account ID is required")
	case strings.TrimSpace(p.Title) == "":
		return Transaction{}, apperror.Validation("transaction title is required")
	case !p.Value.IsPositive():
		return Transaction{}, apperror.Validation("transaction value must be positive")
	case p.Date.IsZero():
		return Transaction{}, apperror.Validation("transaction date is required")
	}
	return Transaction{
		id:                uuid.New().String(),
		accountID:         p.AccountID,
		title:             strings.TrimSpace(p.Title),
		value:             money.Round(p.Value),
		txType:            p.Type,
		category:          p.Category,
		date:              p.Date.UTC(),
		description:       p.Description,
		externalReference: strings.TrimSpace(p.ExternalReference),
		createdAt:         now,
	}, nil
}

// ReconstructTransaction rebuilds a Transaction from persistence.
func ReconstructTransaction(s TransactionSnapshot) Transaction {
	return Transaction{
		id:                s.ID,
		accountID:         s.AccountID,
		title:             s.Title,
		value:             s.Value,
		txType:            s.Type,
		category:          s.Category,
		date:              s.Date,
		description:       s.Description,
		externalReference: s.ExternalReference,
		createdAt:         s.CreatedAt,
	}
}

// SignedValue is the value as it affects the account balance.
func (t Transaction) SignedValue() decimal.Decimal {
	if t.txType.Equal(valueobject.TransactionTypeOutflow) {
		return t.value.Neg()
	}
	return t.value
}

// Snapshot returns the persisted shape of the transaction.
func (t Transaction) Snapshot() TransactionSnapshot {
	return TransactionSnapshot{
		ID:                t.id,
		AccountID:         t.accountID,
		Title:             t.title,
		Value:             t.value,
		Type:              t.txType,
		Category:          t.category,
		Date:              t.date,
		Description:       t.description,
		ExternalReference: t.externalReference,
		CreatedAt:         t.createdAt,
	}
}

func (t Transaction) ID() string                                { return t.id }
func (t Transaction) AccountID() string                         { return t.accountID }
func (t Transaction) Title() string                             { return t.title }
func (t Transaction) Value() decimal.Decimal                    { return t.value }
func (t Transaction) Type() valueobject.TransactionType         { return t.txType }
func (t Transaction) Category() valueobject.TransactionCategory { return t.category }
func (t Transaction) Date() time.Time                           { return t.date }
func (t Transaction) Description() string                       { return t.description }
func (t Transaction) ExternalReference() string                 { return t.externalReference }
func (t Transaction) CreatedAt() time.Time                      { return t.createdAt }
