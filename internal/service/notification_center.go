package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/realtime"
)

// NotificationSink renders notification lifecycle changes.
type NotificationSink interface {
	Show(n domain.Notification)
	Exit(id string)
	Remove(id string)
}

// LogSink renders notifications as log lines.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Show(n domain.Notification) {
	s.Logger.Info("notification", zap.String("id", n.ID), zap.String("kind", string(n.Kind)), zap.String("title", n.Title), zap.String("body", n.Body))
}

func (s LogSink) Exit(id string) {
	s.Logger.Debug("notification exiting", zap.String("id", id))
}

func (s LogSink) Remove(id string) {
	s.Logger.Debug("notification removed", zap.String("id", id))
}

// NotificationDependencies wires collaborators for NotificationCenter.
type NotificationDependencies struct {
	Sink     NotificationSink
	Sound    SoundPlayer
	Schedule realtime.Scheduler
	Logger   *zap.Logger
	Now      func() time.Time
}

// NotificationPhase is where a notification is in its lifecycle.
type NotificationPhase string

const (
	PhaseVisible NotificationPhase = "visible"
	PhaseExiting NotificationPhase = "exiting"
)

type activeNotification struct {
	notification domain.Notification
	phase        NotificationPhase
	cancel       func()
	seq          uint64
}

// ActiveNotification is a notification still on screen.
type ActiveNotification struct {
	domain.Notification
	Phase NotificationPhase `json:"phase"`
}

// NotificationCenter shows transient alerts that remove themselves.
type NotificationCenter struct {
	display  time.Duration
	grace    time.Duration
	sink     NotificationSink
	sound    SoundPlayer
	schedule realtime.Scheduler
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	active map[string]*activeNotification
	seq    uint64
}

// NewNotificationCenter creates the center.
func NewNotificationCenter(cfg config.NotificationConfig, deps NotificationDependencies) *NotificationCenter {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Sink == nil {
		deps.Sink = LogSink{Logger: deps.Logger}
	}
	if deps.Sound == nil {
		deps.Sound = NopPlayer{}
	}
	if deps.Schedule == nil {
		deps.Schedule = realtime.AfterFunc
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &NotificationCenter{
		display:  cfg.Display,
		grace:    cfg.ExitGrace,
		sink:     deps.Sink,
		sound:    deps.Sound,
		schedule: deps.Schedule,
		logger:   deps.Logger,
		now:      deps.Now,
		active:   make(map[string]*activeNotification),
	}
}

// Notify shows an alert, schedules its removal and plays the audio cue.
func (c *NotificationCenter) Notify(ctx context.Context, n domain.Notification) domain.Notification {
	n.ID = uuid.NewString()
	n.CreatedAt = c.now()

	c.mu.Lock()
	c.seq++
	entry := &activeNotification{notification: n, phase: PhaseVisible, seq: c.seq}
	c.active[n.ID] = entry
	entry.cancel = c.schedule(c.display, func() { c.beginExit(n.ID) })
	c.mu.Unlock()

	c.sink.Show(n)
	go c.playSound(context.WithoutCancel(ctx))
	return n
}

// Dismiss removes a notification immediately. It reports whether anything was removed.
func (c *NotificationCenter) Dismiss(id string) bool {
	c.mu.Lock()
	entry, ok := c.active[id]
	if ok {
		entry.cancel()
		delete(c.active, id)
	}
	c.mu.Unlock()

	if ok {
		c.sink.Remove(id)
	}
	return ok
}

// Active lists notifications on screen, oldest first.
func (c *NotificationCenter) Active() []ActiveNotification {
	c.mu.Lock()
	entries := make([]*activeNotification, 0, len(c.active))
	for _, entry := range c.active {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]ActiveNotification, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ActiveNotification{Notification: entry.notification, Phase: entry.phase})
	}
	c.mu.Unlock()
	return out
}

func (c *NotificationCenter) beginExit(id string) {
	c.mu.Lock()
	entry, ok := c.active[id]
	if !ok || entry.phase != PhaseVisible {
		c.mu.Unlock()
		return
	}
	entry.phase = PhaseExiting
	entry.cancel = c.schedule(c.grace, func() { c.remove(id) })
	c.mu.Unlock()

	c.sink.Exit(id)
}

func (c *NotificationCenter) remove(id string) {
	c.mu.Lock()
	_, ok := c.active[id]
	delete(c.active, id)
	c.mu.Unlock()

	if ok {
		c.sink.Remove(id)
	}
}

func (c *NotificationCenter) playSound(ctx context.Context) {
	if err := c.sound.Play(ctx); err != nil {
		c.logger.Debug("notification sound failed", zap.Error(err))
	}
}
