package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
)

// Inflow describes cash received on an account.
type Inflow struct {
	Title             string
	Amount            decimal.Decimal
	Category          valueobject.TransactionCategory
	Date              time.Time
	Description       string
	ExternalReference string
}

// PostInflow books an inflow transaction and credits the account with it.
// Both records must be persisted in the same unit of work.
func PostInflow(account model.Account, in Inflow, now time.Time) (model.Account, model.Transaction, error) {
	tx, err := model.NewTransaction(model.TransactionParams{
		AccountID:         account.ID(),
		Title:             in.Title,
		Value:             in.Amount,
		Type:              valueobject.TransactionTypeInflow,
		Category:          in.Category,
		Date:              in.Date,
		Description:       in.Description,
		ExternalReference: in.ExternalReference,
	}, now)
	if err != nil {
		return account, model.Transaction{}, fmt.Errorf("new transaction: %w", err)
	}

	credited, err := account.Credit(tx, now)
	if err != nil {
		return account, model.Transaction{}, fmt.Errorf("credit account: %w", err)
	}
	return credited, tx, nil
}
