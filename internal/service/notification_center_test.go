package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/domain"
)

type chanPlayer struct {
	played chan struct{}
	err    error
}

func (p chanPlayer) Play(context.Context) error {
	p.played <- struct{}{}
	return p.err
}

func newTestCenter(sched *manualScheduler, sink *recordingSink, sound SoundPlayer, logger *zap.Logger) *NotificationCenter {
	cfg := config.NotificationConfig{Display: 5 * time.Second, ExitGrace: 300 * time.Millisecond}
	return NewNotificationCenter(cfg, NotificationDependencies{
		Sink:     sink,
		Sound:    sound,
		Schedule: sched.schedule,
		Logger:   logger,
	})
}

func TestNotify_LifecycleDisplayThenGrace(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	center := newTestCenter(sched, sink, nil, nil)

	n := center.Notify(context.Background(), domain.Notification{Kind: domain.NotificationNewTicket, Title: "New Ticket Available"})
	if n.ID == "" || n.CreatedAt.IsZero() {
		t.Fatalf("Expected id and timestamp, got %+v", n)
	}
	if got := sched.pending(); len(got) != 1 || got[0] != 5*time.Second {
		t.Fatalf("Expected display timer of 5s, got %v", got)
	}

	sched.fireAll()
	active := center.Active()
	if len(active) != 1 || active[0].Phase != PhaseExiting {
		t.Fatalf("Expected exiting notification, got %+v", active)
	}
	if got := sched.pending(); len(got) != 1 || got[0] != 300*time.Millisecond {
		t.Fatalf("Expected grace timer of 300ms, got %v", got)
	}

	sched.fireAll()
	if len(center.Active()) != 0 {
		t.Error("Expected notification removed after grace")
	}
	if len(sink.shown) != 1 || len(sink.exited) != 1 || len(sink.removed) != 1 {
		t.Errorf("Unexpected sink calls show=%d exit=%d remove=%d", len(sink.shown), len(sink.exited), len(sink.removed))
	}
}

func TestDismiss_IsIdempotentAndCancelsTimer(t *testing.T) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	center := newTestCenter(sched, sink, nil, nil)

	n := center.Notify(context.Background(), domain.Notification{Title: "one"})
	if !center.Dismiss(n.ID) {
		t.Fatal("Expected first dismiss to remove")
	}
	if center.Dismiss(n.ID) {
		t.Error("Expected second dismiss to be a no-op")
	}
	if len(sched.pending()) != 0 {
		t.Error("Expected pending timer cancelled")
	}
	sched.fireAll()
	if len(sink.removed) != 1 {
		t.Errorf("Expected exactly one removal, got %d", len(sink.removed))
	}
}

func TestActive_OrderedOldestFirst(t *testing.T) {
	sched := &manualScheduler{}
	center := newTestCenter(sched, &recordingSink{}, nil, nil)
	ctx := context.Background()

	first := center.Notify(ctx, domain.Notification{Title: "first"})
	second := center.Notify(ctx, domain.Notification{Title: "second"})
	third := center.Notify(ctx, domain.Notification{Title: "third"})
	center.Dismiss(second.ID)

	active := center.Active()
	if len(active) != 2 || active[0].ID != first.ID || active[1].ID != third.ID {
		t.Errorf("Unexpected order %+v", active)
	}
}

func TestNotify_SoundFailureIsLoggedOnly(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	played := make(chan struct{}, 1)
	center := newTestCenter(&manualScheduler{}, &recordingSink{}, chanPlayer{played: played, err: errors.New("no audio device")}, zap.New(core))

	center.Notify(context.Background(), domain.Notification{Title: "ping"})
	select {
	case <-played:
	case <-time.After(time.Second):
		t.Fatal("Expected sound to be played")
	}

	deadline := time.Now().Add(time.Second)
	for logs.FilterMessage("notification sound failed").Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected sound failure to be logged")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(center.Active()) != 1 {
		t.Error("Expected notification to stay visible after sound failure")
	}
}
