package memory

import (
	"context"
	"time"

	"github.com/bibbank/lenderledger/internal/domain/port"
	"github.com/bibbank/lenderledger/pkg/events"
)

type outboxRepo struct{ st *state }

func (r *outboxRepo) Store(_ context.Context, entries []events.OutboxEntry) error {
	r.st.outbox = append(r.st.outbox, entries...)
	return nil
}

func (r *outboxRepo) FetchUnpublished(_ context.Context, batchSize int) ([]events.OutboxEntry, error) {
	var out []events.OutboxEntry
	for _, e := range r.st.outbox {
		if e.PublishedAt != nil {
			continue
		}
		out = append(out, e)
		if batchSize > 0 && len(out) == batchSize {
			break
		}
	}
	return out, nil
}

func (r *outboxRepo) MarkPublished(_ context.Context, ids []string) error {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	now := time.Now().UTC()
	for i := range r.st.outbox {
		if _, ok := set[r.st.outbox[i].ID]; ok && r.st.outbox[i].PublishedAt == nil {
			r.st.outbox[i].PublishedAt = &now
		}
	}
	return nil
}

// committedOutbox runs each outbox call in its own unit of work.
type committedOutbox struct{ store *Store }

func (o *committedOutbox) Store(ctx context.Context, entries []events.OutboxEntry) error {
	return o.store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		return repos.Outbox.Store(ctx, entries)
	})
}

func (o *committedOutbox) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	var out []events.OutboxEntry
	err := o.store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		out, err = repos.Outbox.FetchUnpublished(ctx, batchSize)
		return err
	})
	return out, err
}

func (o *committedOutbox) MarkPublished(ctx context.Context, ids []string) error {
	return o.store.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		return repos.Outbox.MarkPublished(ctx, ids)
	})
}
