package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/internal/domain/valueobject"
	"github.com/bibbank/lenderledger/internal/infrastructure/memory"
	"github.com/bibbank/lenderledger/pkg/events"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTx(t *testing.T, accountID, ref string) model.Transaction {
	t.Helper()
	tx, err := model.NewTransaction(model.TransactionParams{
		AccountID:         accountID,
		Title:             "Payment",
		Value:             decimal.NewFromInt(50),
		Type:              valueobject.TransactionTypeInflow,
		Category:          valueobject.TransactionCategoryPayment,
		Date:              now,
		ExternalReference: ref,
	}, now)
	require.NoError(t, err)
	return tx
}

func TestStore_CommitsOnSuccess(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	acc, err := model.NewAccount("creditor-1", "Main", now)
	require.NoError(t, err)

	require.NoError(t, store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		return repos.Accounts.Save(ctx, acc)
	}))

	err = store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		got, err := repos.Accounts.FindByID(ctx, acc.ID())
		require.NoError(t, err)
		assert.Equal(t, "Main", got.Name())
		assert.Empty(t, got.DomainEvents())
		return nil
	})
	require.NoError(t, err)
}

func TestStore_RollsBackOnError(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	acc, err := model.NewAccount("creditor-1", "Main", now)
	require.NoError(t, err)
	boom := errors.New("boom")

	err = store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		require.NoError(t, repos.Accounts.Save(ctx, acc))
		require.NoError(t, repos.Transactions.Append(ctx, newTx(t, acc.ID(), "ref-1")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		_, err := repos.Accounts.FindByID(ctx, acc.ID())
		assert.True(t, errors.Is(err, apperror.ErrNotFound))

		// the reference was rolled back too
		return repos.Transactions.Append(ctx, newTx(t, acc.ID(), "ref-1"))
	})
	require.NoError(t, err)
}

func TestStore_DuplicateReference(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		return repos.Transactions.Append(ctx, newTx(t, "acc-1", "ref-1"))
	}))
	err := store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		return repos.Transactions.Append(ctx, newTx(t, "acc-1", "ref-1"))
	})
	assert.Equal(t, apperror.KindDuplicatePayment, apperror.KindOf(err))

	// transactions without a reference never collide
	require.NoError(t, store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := repos.Transactions.Append(ctx, newTx(t, "acc-1", "")); err != nil {
			return err
		}
		return repos.Transactions.Append(ctx, newTx(t, "acc-1", ""))
	}))
}

func TestStore_CanceledContext(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Do(ctx, func(context.Context, port.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStore_Outbox(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	outbox := store.Outbox()

	entries := []events.OutboxEntry{{ID: "e1", EventType: "x"}, {ID: "e2", EventType: "y"}}
	require.NoError(t, outbox.Store(ctx, entries))

	pending, err := outbox.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, outbox.MarkPublished(ctx, []string{"e1"}))
	pending, err = outbox.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "e2", pending[0].ID)
}

func TestStore_DuplicateInstallmentCode(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	first, err := model.NewInstallment("loan-1", "L-2-RECALC", decimal.NewFromInt(100), now, now)
	require.NoError(t, err)
	dup, err := model.NewInstallment("loan-1", "L-2-RECALC", decimal.NewFromInt(100), now, now)
	require.NoError(t, err)
	otherLoan, err := model.NewInstallment("loan-2", "L-2-RECALC", decimal.NewFromInt(100), now, now)
	require.NoError(t, err)

	require.NoError(t, store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		return repos.Installments.SaveAll(ctx, []model.Installment{first, otherLoan})
	}))
	err = store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		return repos.Installments.Save(ctx, dup)
	})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	// re-saving the same row is an update, not a collision
	require.NoError(t, store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		return repos.Installments.Save(ctx, first)
	}))
}
