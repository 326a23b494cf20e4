package kafka

import (
	"testing"
)

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(Config{
		Brokers: []string{"localhost:9092", "localhost:9093"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %d", len(p.brokers))
	}
	if p.transport != nil {
		t.Error("expected default transport without TLS or SASL")
	}
	if len(p.writers) != 0 {
		t.Errorf("expected empty writers map, got %d entries", len(p.writers))
	}
}

func TestNewProducerWithSASL(t *testing.T) {
	p, err := NewProducer(Config{
		Brokers:       []string{"kafka:9092"},
		TLS:           true,
		SASLEnabled:   true,
		SASLMechanism: "SCRAM-SHA-512",
		SASLUsername:  "ledger",
		SASLPassword:  "secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.transport == nil || p.transport.SASL == nil || p.transport.TLS == nil {
		t.Fatal("expected transport with TLS and SASL")
	}
	if w := p.getOrCreateWriter("topic-a"); w.Transport == nil {
		t.Error("expected writer to use the configured transport")
	}
}

func TestNewProducerUnknownMechanism(t *testing.T) {
	_, err := NewProducer(Config{SASLEnabled: true, SASLMechanism: "GSSAPI"})
	if err == nil {
		t.Fatal("expected error for unsupported mechanism")
	}
}

func TestGetOrCreateWriter(t *testing.T) {
	p, _ := NewProducer(Config{Brokers: []string{"localhost:9092"}})

	w1 := p.getOrCreateWriter("topic-a")
	if w1 != p.getOrCreateWriter("topic-a") {
		t.Error("expected same writer instance for same topic")
	}
	if w1 == p.getOrCreateWriter("topic-b") {
		t.Error("expected different writer instance for different topic")
	}
	if len(p.writers) != 2 {
		t.Errorf("expected 2 writers, got %d", len(p.writers))
	}
}

func TestProducerClose(t *testing.T) {
	p, _ := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	_ = p.getOrCreateWriter("topic-a")
	_ = p.getOrCreateWriter("topic-b")

	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error on close: %v", err)
	}
	if len(p.writers) != 0 {
		t.Errorf("expected 0 writers after close, got %d", len(p.writers))
	}
}
