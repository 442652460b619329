package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcher_PublishInvokesHandlersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventNewTicket, func(context.Context, Event) error {
		calls = append(calls, "first")
		return nil
	})
	d.Subscribe(EventNewTicket, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.SubscribeAll(func(context.Context, Event) error {
		calls = append(calls, "all")
		return nil
	})
	d.Subscribe(EventStatusUpdate, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventNewTicket}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(calls) != 3 || calls[0] != "first" || calls[1] != "second" || calls[2] != "all" {
		t.Errorf("Unexpected call order: %v", calls)
	}
}

func TestDispatcher_PublishContinuesPastErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	reached := false
	d.Subscribe(EventCustomerMessage, func(context.Context, Event) error { return boom })
	d.Subscribe(EventCustomerMessage, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventCustomerMessage})
	if !errors.Is(err, boom) {
		t.Errorf("Expected joined error to contain boom, got %v", err)
	}
	if !reached {
		t.Error("Expected second handler to run")
	}
}
