// Package memory is an in-process implementation of the persistence ports.
// It backs the tests and the "memory" store mode of the server.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/pkg/events"
)

type state struct {
	loans          map[string]model.Loan
	installments   map[string]model.Installment
	accounts       map[string]model.Account
	transactions   []model.Transaction
	references     map[string]string
	creditors      map[string]model.Creditor
	clients        map[string]model.Client
	providerEvents map[string]model.ProviderEvent
	outbox         []events.OutboxEntry
}

func newState() *state {
	return &state{
		loans:          map[string]model.Loan{},
		installments:   map[string]model.Installment{},
		accounts:       map[string]model.Account{},
		references:     map[string]string{},
		creditors:      map[string]model.Creditor{},
		clients:        map[string]model.Client{},
		providerEvents: map[string]model.ProviderEvent{},
	}
}

// clone copies the maps and slices. Aggregates are immutable values, so a
// shallow copy is enough to isolate a unit of work.
func (s *state) clone() *state {
	return &state{
		loans:          maps.Clone(s.loans),
		installments:   maps.Clone(s.installments),
		accounts:       maps.Clone(s.accounts),
		transactions:   append([]model.Transaction(nil), s.transactions...),
		references:     maps.Clone(s.references),
		creditors:      maps.Clone(s.creditors),
		clients:        maps.Clone(s.clients),
		providerEvents: maps.Clone(s.providerEvents),
		outbox:         append([]events.OutboxEntry(nil), s.outbox...),
	}
}

// Store holds the whole ledger in memory. Units of work run one at a time
// against a private copy that replaces the committed state only when fn
// succeeds.
type Store struct {
	mu      sync.Mutex
	current *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{current: newState()}
}

// Do implements port.UnitOfWork.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.current.clone()
	if err := fn(ctx, repositoriesFor(work)); err != nil {
		return err
	}
	s.current = work
	return nil
}

// Outbox returns an outbox repository over the committed state, for the
// relay that runs outside any unit of work.
func (s *Store) Outbox() events.OutboxRepository {
	return &committedOutbox{store: s}
}

func repositoriesFor(st *state) port.Repositories {
	return port.Repositories{
		Loans:          &loanRepo{st: st},
		Installments:   &installmentRepo{st: st},
		Accounts:       &accountRepo{st: st},
		Transactions:   &transactionRepo{st: st},
		Creditors:      &creditorRepo{st: st},
		Clients:        &clientRepo{st: st},
		ProviderEvents: &providerEventRepo{st: st},
		Outbox:         &outboxRepo{st: st},
	}
}

var _ port.UnitOfWork = (*Store)(nil)
