package postgres

import (
	"context"
	"fmt"

	"github.com/bibbank/lenderledger/pkg/events"
	pgutil "github.com/bibbank/lenderledger/pkg/postgres"
)

// OutboxRepo implements events.OutboxRepository.
type OutboxRepo struct {
	q pgutil.Querier
}

// NewOutboxRepo creates an outbox repository over q.
func NewOutboxRepo(q pgutil.Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

func (r *OutboxRepo) Store(ctx context.Context, entries []events.OutboxEntry) error {
	const query = `
		INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, tenant_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, e := range entries {
		if _, err := r.q.Exec(ctx, query,
			e.ID, e.AggregateID, e.AggregateType, e.EventType, e.TenantID, e.Payload, e.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert outbox entry %s: %w", e.EventType, err)
		}
	}
	return nil
}

func (r *OutboxRepo) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, tenant_id, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1`, batchSize)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	return collect(rows, func(row rowScanner) (events.OutboxEntry, error) {
		var e events.OutboxEntry
		err := row.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.TenantID, &e.Payload, &e.CreatedAt)
		return e, err
	})
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.q.Exec(ctx,
		`UPDATE outbox SET published_at = NOW() WHERE id = ANY($1::uuid[])`, ids); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
