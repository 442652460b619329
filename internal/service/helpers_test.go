package service

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/events"
)

type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	delay    time.Duration
	fn       func()
	canceled bool
	fired    bool
}

func (s *manualScheduler) schedule(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &manualTimer{delay: d, fn: fn}
	s.timers = append(s.timers, timer)
	return func() {
		s.mu.Lock()
		timer.canceled = true
		s.mu.Unlock()
	}
}

// fireAll runs every pending timer once, in scheduling order.
func (s *manualScheduler) fireAll() {
	s.mu.Lock()
	var due []*manualTimer
	for _, timer := range s.timers {
		if !timer.canceled && !timer.fired {
			timer.fired = true
			due = append(due, timer)
		}
	}
	s.mu.Unlock()
	for _, timer := range due {
		timer.fn()
	}
}

func (s *manualScheduler) pending() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Duration
	for _, timer := range s.timers {
		if !timer.canceled && !timer.fired {
			out = append(out, timer.delay)
		}
	}
	return out
}

type recordingSender struct {
	mu    sync.Mutex
	state domain.ConnectionState
	sent  []events.OutboundEvent
}

func (s *recordingSender) Send(_ context.Context, ev events.OutboundEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateOpen {
		return false
	}
	s.sent = append(s.sent, ev)
	return true
}

func (s *recordingSender) State() domain.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

type recordingSink struct {
	mu      sync.Mutex
	shown   []domain.Notification
	exited  []string
	removed []string
}

func (s *recordingSink) Show(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, n)
}

func (s *recordingSink) Exit(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exited = append(s.exited, id)
}

func (s *recordingSink) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, id)
}

func fixedIdentity(id string) IdentityFunc {
	return func(context.Context) string { return id }
}
