package events

import (
	"encoding/json"
	"testing"
	"time"
)

type paymentTaken struct {
	BaseEvent
	Amount string `json:"amount"`
}

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewBaseEvent("lending.loan.created", "loan-1", "Loan", "creditor-1")
	after := time.Now().UTC()

	if event.EventID() == "" {
		t.Error("expected non-empty event ID")
	}
	if event.EventType() != "lending.loan.created" {
		t.Errorf("expected event type %q, got %q", "lending.loan.created", event.EventType())
	}
	if event.AggregateID() != "loan-1" {
		t.Errorf("expected aggregate ID %q, got %q", "loan-1", event.AggregateID())
	}
	if event.AggregateType() != "Loan" {
		t.Errorf("expected aggregate type %q, got %q", "Loan", event.AggregateType())
	}
	if event.TenantID() != "creditor-1" {
		t.Errorf("expected tenant ID %q, got %q", "creditor-1", event.TenantID())
	}
	if event.OccurredAt().Before(before) || event.OccurredAt().After(after) {
		t.Errorf("expected occurredAt between %v and %v, got %v", before, after, event.OccurredAt())
	}
}

func TestNewBaseEventAt(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	event := NewBaseEventAt("x", "a", "A", "t", at)

	if !event.OccurredAt().Equal(at) {
		t.Errorf("expected %v, got %v", at, event.OccurredAt())
	}
	if event.OccurredAt().Location() != time.UTC {
		t.Error("expected occurredAt normalised to UTC")
	}
}

func TestNewOutboxEntry(t *testing.T) {
	event := paymentTaken{
		BaseEvent: NewBaseEvent("lending.installment.paid", "inst-1", "Installment", "creditor-1"),
		Amount:    "50.00",
	}

	entry, err := NewOutboxEntry(event)
	if err != nil {
		t.Fatalf("NewOutboxEntry() error = %v", err)
	}

	if entry.ID != event.EventID() {
		t.Errorf("expected outbox ID %v, got %v", event.EventID(), entry.ID)
	}
	if entry.AggregateID != "inst-1" || entry.AggregateType != "Installment" {
		t.Errorf("unexpected aggregate %s/%s", entry.AggregateType, entry.AggregateID)
	}
	if entry.TenantID != "creditor-1" {
		t.Errorf("expected tenant %q, got %q", "creditor-1", entry.TenantID)
	}

	var parsed map[string]any
	if err := json.Unmarshal(entry.Payload, &parsed); err != nil {
		t.Fatalf("expected valid JSON payload, got error: %v", err)
	}
	if parsed["amount"] != "50.00" {
		t.Errorf("expected payload amount 50.00, got %v", parsed["amount"])
	}
	if entry.PublishedAt != nil {
		t.Error("expected published at to be nil")
	}
}

func TestNewOutboxEntries(t *testing.T) {
	e1 := NewBaseEvent("a", "1", "X", "")
	e2 := NewBaseEvent("b", "2", "X", "")

	entries, err := NewOutboxEntries(e1, e2)
	if err != nil {
		t.Fatalf("NewOutboxEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].EventType != "b" {
		t.Errorf("expected second entry type %q, got %q", "b", entries[1].EventType)
	}
}

func TestEventCollectorRecord(t *testing.T) {
	collector := &EventCollector{}

	collector.Record(NewBaseEvent("Event1", "agg", "Aggregate", ""))
	collector.Record(NewBaseEvent("Event2", "agg", "Aggregate", ""))

	events := collector.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType() != "Event1" || events[1].EventType() != "Event2" {
		t.Errorf("unexpected order: %s, %s", events[0].EventType(), events[1].EventType())
	}
}

func TestEventCollectorRecordAll(t *testing.T) {
	collector := &EventCollector{}
	collector.RecordAll([]DomainEvent{
		NewBaseEvent("Event1", "agg", "Aggregate", ""),
		NewBaseEvent("Event2", "agg", "Aggregate", ""),
	})

	if len(collector.Events()) != 2 {
		t.Fatalf("expected 2 events, got %d", len(collector.Events()))
	}
}

func TestEventCollectorClearEvents(t *testing.T) {
	collector := &EventCollector{}
	collector.Record(NewBaseEvent("Event1", "agg", "Aggregate", ""))
	collector.Record(NewBaseEvent("Event2", "agg", "Aggregate", ""))

	cleared := collector.ClearEvents()

	if len(cleared) != 2 {
		t.Fatalf("expected ClearEvents to return 2 events, got %d", len(cleared))
	}
	if len(collector.Events()) != 0 {
		t.Errorf("expected internal slice to be empty after ClearEvents, got %d events", len(collector.Events()))
	}
	if (&EventCollector{}).ClearEvents() != nil {
		t.Error("expected nil from ClearEvents on empty collector")
	}
}
