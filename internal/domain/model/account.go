package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/event"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

// Account is a creditor's cash account. Its balance only moves through
// Credit, and every credit is booked with a matching Transaction.
type Account struct {
	id           string
	creditorID   string
	name         string
	balance      decimal.Decimal
	profit       decimal.Decimal
	createdAt    time.Time
	updatedAt    time.Time
	domainEvents []event.DomainEvent
}

// AccountSnapshot is the persisted shape of an Account.
type AccountSnapshot struct {
	ID         string
	CreditorID string
	Name       string
	Balance    decimal.Decimal
	Profit     decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewAccount opens an empty account.
func NewAccount(creditorID, name string, now time.Time) (Account, error) {
	name = strings.TrimSpace(name)
	if creditorID == "" {
		return Account{}, apperror.Validation("creditor ID is required")
	}
	if name == "" {
		return Account{}, apperror.Validation("account name is required")
	}
	return Account{
		id:         uuid.New().String(),
		creditorID: creditorID,
		name:       name,
		balance:    decimal.Zero,
		profit:     decimal.Zero,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructAccount rebuilds an Account from persistence.
func ReconstructAccount(s AccountSnapshot) Account {
	return Account{
		id:         s.ID,
		creditorID: s.CreditorID,
		name:       s.Name,
		balance:    s.Balance,
		profit:     s.Profit,
		createdAt:  s.CreatedAt,
		updatedAt:  s.UpdatedAt,
	}
}

// Credit adds the value of an inflow transaction to the balance.
func (a Account) Credit(tx Transaction, now time.Time) (Account, error) {
	if tx.AccountID() != a.id {
		return a, apperror.Validation("transaction %s does not belong to account %s", tx.ID(), a.id)
	}
	if !tx.Type().Equal(valueobject.TransactionTypeInflow) {
		return a, apperror.InvalidState("account %s only accepts inflows", a.id)
	}
	if !tx.Value().IsPositive() {
		return a, apperror.Validation("credit amount must be positive")
	}

	next := a
	next.balance = a.balance.Add(tx.Value())
	next.updatedAt = now
	next.domainEvents = copyEvents(a.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewAccountCredited(
		a.id, a.creditorID, tx.ID(), tx.Value(), next.balance, tx.Category().String(), now,
	))
	return next, nil
}

// OwnedBy reports whether creditorID owns the account.
func (a Account) OwnedBy(creditorID string) bool { return a.creditorID == creditorID }

// Snapshot returns the persisted shape of the account.
func (a Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		ID:         a.id,
		CreditorID: a.creditorID,
		Name:       a.name,
		Balance:    a.balance,
		Profit:     a.profit,
		CreatedAt:  a.createdAt,
		UpdatedAt:  a.updatedAt,
	}
}

func (a Account) ID() string                        { return a.id }
func (a Account) CreditorID() string                { return a.creditorID }
func (a Account) Name() string                      { return a.name }
func (a Account) Balance() decimal.Decimal          { return a.balance }
func (a Account) Profit() decimal.Decimal           { return a.profit }
func (a Account) CreatedAt() time.Time              { return a.createdAt }
func (a Account) UpdatedAt() time.Time              { return a.updatedAt }
func (a Account) DomainEvents() []event.DomainEvent { return a.domainEvents }

// ClearEvents returns a copy with an empty event list.
func (a Account) ClearEvents() Account {
	next := a
	next.domainEvents = nil
	return next
}
