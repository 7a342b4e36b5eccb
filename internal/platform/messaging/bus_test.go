package messaging

import (
	"context"
	"testing"
	"time"

	"fanvault/internal/shared/events"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	bus.Subscribe(ctx, "fanvault.onboarding", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	})

	if err := bus.Publish(ctx, "fanvault.onboarding", events.Envelope{EventID: "e1", EventType: "creator.kyc_approved"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := bus.Publish(ctx, "other.topic", events.Envelope{EventID: "e2"}); err != nil {
		t.Fatalf("publish other: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "e1" {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}
	select {
	case event := <-received:
		t.Fatalf("unexpected delivery from other topic: %+v", event)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestNewKafkaRequiresBrokers(t *testing.T) {
	if _, err := NewKafka(nil, nil); err == nil {
		t.Fatalf("expected error without brokers")
	}
	k, err := NewKafka([]string{"localhost:9092"}, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	if err := k.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
