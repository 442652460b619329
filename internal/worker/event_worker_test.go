package worker

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/support-console/internal/events"
)

type recordingRouter struct {
	seen []events.EventType
}

func (r *recordingRouter) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventNewTicket, func(_ context.Context, ev events.Event) error {
		r.seen = append(r.seen, ev.Type)
		return nil
	})
}

func TestStartEventWorker_RegistersRouter(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	router := &recordingRouter{}

	StartEventWorker(dispatcher, router, nil)

	ev, err := events.ParseFrame([]byte(`{"type":"new_ticket","data":{"id":"T-1"}}`), time.Now())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := dispatcher.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(router.seen) != 1 || router.seen[0] != events.EventNewTicket {
		t.Errorf("Expected router to receive new_ticket, got %v", router.seen)
	}
}

func TestStartEventWorker_NilDispatcher(t *testing.T) {
	router := &recordingRouter{}
	StartEventWorker(nil, router, nil)
	if len(router.seen) != 0 {
		t.Error("Expected nothing registered")
	}
}
