// Package kafka connects the ledger to its Kafka topics: committed domain
// events flow out through the outbox relay, and payment-provider
// notifications flow in through the provider consumer.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/lenderledger/pkg/events"
	pkgkafka "github.com/bibbank/lenderledger/pkg/kafka"
)

const defaultBatchSize = 100

// Publisher sends messages to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// OutboxRelay polls committed outbox entries and publishes them. Delivery is
// at least once: an entry whose publish succeeded but whose mark failed is
// sent again, and consumers dedupe on the event_id header.
type OutboxRelay struct {
	outbox    events.OutboxRepository
	publisher Publisher
	topic     string
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewOutboxRelay creates a relay. outbox must operate outside any unit of
// work so each fetch sees committed rows only.
func NewOutboxRelay(outbox events.OutboxRepository, publisher Publisher, topic string, interval time.Duration, logger *slog.Logger) *OutboxRelay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxRelay{
		outbox:    outbox,
		publisher: publisher,
		topic:     topic,
		interval:  interval,
		batchSize: defaultBatchSize,
		logger:    logger,
	}
}

// Run relays on every tick until ctx is canceled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	r.logger.Info("outbox relay starting", "topic", r.topic, "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopping")
			return nil
		case <-ticker.C:
			for {
				n, err := r.RelayOnce(ctx)
				if err != nil {
					r.logger.Error("outbox relay failed", "error", err)
					break
				}
				// Drain a backlog without waiting for the next tick.
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries it sent.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.outbox.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	messages := make([]pkgkafka.Message, 0, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, pkgkafka.Message{
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"event_type":     e.EventType,
				"event_id":       e.ID,
				"aggregate_type": e.AggregateType,
				"tenant_id":      e.TenantID,
			},
		})
		ids = append(ids, e.ID)
	}

	if err := r.publisher.Publish(ctx, r.topic, messages...); err != nil {
		return 0, err
	}
	if err := r.outbox.MarkPublished(ctx, ids); err != nil {
		return 0, fmt.Errorf("mark outbox published: %w", err)
	}
	r.logger.Debug("outbox entries published", "count", len(entries), "topic", r.topic)
	return len(entries), nil
}
