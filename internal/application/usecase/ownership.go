package usecase

import (
	"context"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/event"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/pkg/events"
)

// Records owned by another creditor are reported exactly like missing ones.

func lockOwnedLoan(ctx context.Context, repos port.Repositories, creditorID, loanID string) (model.Loan, error) {
	loan, err := repos.Loans.FindByIDForUpdate(ctx, loanID)
	if err != nil {
		return model.Loan{}, err
	}
	if !loan.OwnedBy(creditorID) {
		return model.Loan{}, apperror.NotFound("loan", loanID)
	}
	return loan, nil
}

func findOwnedLoan(ctx context.Context, repos port.Repositories, creditorID, loanID string) (model.Loan, error) {
	loan, err := repos.Loans.FindByID(ctx, loanID)
	if err != nil {
		return model.Loan{}, err
	}
	if !loan.OwnedBy(creditorID) {
		return model.Loan{}, apperror.NotFound("loan", loanID)
	}
	return loan, nil
}

func lockOwnedAccount(ctx context.Context, repos port.Repositories, creditorID, accountID string) (model.Account, error) {
	acc, err := repos.Accounts.FindByIDForUpdate(ctx, accountID)
	if err != nil {
		return model.Account{}, err
	}
	if !acc.OwnedBy(creditorID) {
		return model.Account{}, apperror.NotFound("account", accountID)
	}
	return acc, nil
}

func findOwnedAccount(ctx context.Context, repos port.Repositories, creditorID, accountID string) (model.Account, error) {
	acc, err := repos.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return model.Account{}, err
	}
	if !acc.OwnedBy(creditorID) {
		return model.Account{}, apperror.NotFound("account", accountID)
	}
	return acc, nil
}

func findOwnedClient(ctx context.Context, repos port.Repositories, creditorID, clientID string) (model.Client, error) {
	c, err := repos.Clients.FindByID(ctx, clientID)
	if err != nil {
		return model.Client{}, err
	}
	if !c.OwnedBy(creditorID) {
		return model.Client{}, apperror.NotFound("client", clientID)
	}
	return c, nil
}

// storeEvents writes evts to the outbox of the current unit of work.
func storeEvents(ctx context.Context, outbox events.OutboxRepository, evts ...event.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}
	entries, err := events.NewOutboxEntries(evts...)
	if err != nil {
		return err
	}
	return outbox.Store(ctx, entries)
}
