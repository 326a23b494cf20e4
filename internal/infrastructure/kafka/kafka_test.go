package kafka_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/internal/infrastructure/kafka"
	"github.com/bibbank/lenderledger/internal/infrastructure/memory"
	"github.com/bibbank/lenderledger/pkg/events"
	pkgkafka "github.com/bibbank/lenderledger/pkg/kafka"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockPublisher struct {
	publishFunc func(ctx context.Context, topic string, messages ...pkgkafka.Message) error
	sent        []pkgkafka.Message
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error {
	if m.publishFunc != nil {
		if err := m.publishFunc(ctx, topic, messages...); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, messages...)
	return nil
}

func seedOutbox(t *testing.T, outbox events.OutboxRepository, n int) {
	t.Helper()
	entries := make([]events.OutboxEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, events.OutboxEntry{
			ID:            string(rune('a'+i)) + "-event",
			AggregateID:   "loan-1",
			AggregateType: "Loan",
			EventType:     "lending.payment.registered",
			TenantID:      "cred-1",
			Payload:       []byte(`{}`),
			CreatedAt:     time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
		})
	}
	require.NoError(t, outbox.Store(context.Background(), entries))
}

func TestOutboxRelayOnce(t *testing.T) {
	ctx := context.Background()
	outbox := memory.NewStore().Outbox()
	seedOutbox(t, outbox, 2)

	pub := &mockPublisher{publishFunc: func(_ context.Context, topic string, _ ...pkgkafka.Message) error {
		assert.Equal(t, "ledger-events", topic)
		return nil
	}}
	relay := kafka.NewOutboxRelay(outbox, pub, "ledger-events", time.Second, discard)

	n, err := relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, pub.sent, 2)
	assert.Equal(t, []byte("loan-1"), pub.sent[0].Key)
	assert.Equal(t, "a-event", pub.sent[0].Headers["event_id"])
	assert.Equal(t, "lending.payment.registered", pub.sent[0].Headers["event_type"])

	n, err = relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "published entries are not sent again")
}

func TestOutboxRelayKeepsEntriesOnPublishFailure(t *testing.T) {
	ctx := context.Background()
	outbox := memory.NewStore().Outbox()
	seedOutbox(t, outbox, 1)

	failing := &mockPublisher{publishFunc: func(context.Context, string, ...pkgkafka.Message) error {
		return errors.New("broker down")
	}}
	_, err := kafka.NewOutboxRelay(outbox, failing, "t", time.Second, discard).RelayOnce(ctx)
	require.Error(t, err)

	pending, err := outbox.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

type recorderFunc func(ctx context.Context, payload []byte) (dto.ProviderEventResponse, error)

func (f recorderFunc) Execute(ctx context.Context, payload []byte) (dto.ProviderEventResponse, error) {
	return f(ctx, payload)
}

func TestProviderEventHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantErr    bool
		wantPoison bool
	}{
		{name: "recorded", err: nil},
		{name: "malformed payload", err: apperror.Validation("unknown event"), wantErr: true, wantPoison: true},
		{name: "unknown installment", err: apperror.NotFound("installment", "x"), wantErr: true, wantPoison: true},
		{name: "settled loan", err: apperror.InvalidState("loan is settled"), wantErr: true, wantPoison: true},
		{name: "database down", err: apperror.Wrap(apperror.KindPersistence, errors.New("io"), "commit failed"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []byte
			handler := kafka.ProviderEventHandler(recorderFunc(func(_ context.Context, payload []byte) (dto.ProviderEventResponse, error) {
				got = payload
				return dto.ProviderEventResponse{EventID: "e1"}, tt.err
			}), discard)

			err := handler(context.Background(), pkgkafka.Message{Value: []byte(`{"event":"pix.paid"}`)})
			assert.Equal(t, `{"event":"pix.paid"}`, string(got))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantPoison, errors.Is(err, pkgkafka.ErrPoison))
		})
	}
}
