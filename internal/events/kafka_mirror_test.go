package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/support-console/internal/config"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	block  chan struct{}
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestNewKafkaMirror_DisabledWithoutBrokers(t *testing.T) {
	if m := NewKafkaMirror(config.KafkaConfig{Topic: "t"}, zap.NewNop()); m != nil {
		t.Error("Expected nil mirror without brokers")
	}
	var m *KafkaMirror
	m.Attach(NewInMemoryDispatcher())
	if err := m.Close(); err != nil {
		t.Errorf("Expected nil close on disabled mirror, got %v", err)
	}
}

func TestKafkaMirror_WritesEveryEvent(t *testing.T) {
	w := &fakeWriter{}
	m := newKafkaMirror(w, zap.NewNop(), 8)
	d := NewInMemoryDispatcher()
	m.Attach(d)

	ev, _ := ParseFrame([]byte(`{"type":"new_ticket","data":{"id":"t1"}}`), time.Now())
	if err := d.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "new_ticket" {
		t.Fatalf("Unexpected messages %+v", w.msgs)
	}
	var decoded Event
	if err := json.Unmarshal(w.msgs[0].Value, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID != ev.ID {
		t.Errorf("Expected id %s, got %s", ev.ID, decoded.ID)
	}
	if !w.closed {
		t.Error("Expected writer to be closed")
	}
}

func TestKafkaMirror_SlowBrokerDoesNotDelayDispatch(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	m := newKafkaMirror(w, zap.NewNop(), 8)
	d := NewInMemoryDispatcher()
	m.Attach(d)

	var handled []EventType
	d.Subscribe(EventStatusUpdate, func(_ context.Context, ev Event) error {
		handled = append(handled, ev.Type)
		return nil
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		ev, _ := ParseFrame([]byte(`{"type":"status_update","agent_id":"a1","status":"busy"}`), time.Now())
		if err := d.Publish(context.Background(), ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Expected dispatch not to wait on the writer, took %v", elapsed)
	}
	if len(handled) != 3 {
		t.Errorf("Expected 3 frames handled while writer is blocked, got %d", len(handled))
	}

	close(w.block)
	_ = m.Close()
	if len(w.msgs) != 3 {
		t.Errorf("Expected queued events written on close, got %d", len(w.msgs))
	}
}

func TestKafkaMirror_LogsWriteErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := &fakeWriter{err: errors.New("broker down")}
	m := newKafkaMirror(w, zap.New(core), 8)

	if err := m.Handle(context.Background(), Event{Type: EventStatusUpdate}); err != nil {
		t.Errorf("Expected write failures to stay off the dispatch path, got %v", err)
	}
	_ = m.Close()
	if logs.FilterMessage("mirror event failed").Len() != 1 {
		t.Error("Expected write failure to be logged")
	}
	if err := m.Handle(context.Background(), Event{Type: EventStatusUpdate}); err != nil {
		t.Errorf("Expected handle after close to be a no-op, got %v", err)
	}
}

func TestKafkaMirror_FullQueueDrops(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := &fakeWriter{block: make(chan struct{})}
	m := newKafkaMirror(w, zap.New(core), 1)

	// One message is held by the blocked writer, one fills the queue, the rest are dropped.
	for i := 0; i < 5; i++ {
		_ = m.Handle(context.Background(), Event{Type: EventNewTicket})
		time.Sleep(5 * time.Millisecond)
	}
	if logs.FilterMessage("mirror queue full; event dropped").Len() == 0 {
		t.Error("Expected dropped events to be logged")
	}
	close(w.block)
	_ = m.Close()
}
