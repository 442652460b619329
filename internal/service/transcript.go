package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/repository"
)

// TranscriptChangeKind describes what changed in a transcript.
type TranscriptChangeKind string

const (
	TranscriptAppended     TranscriptChangeKind = "appended"
	TranscriptTypingShown  TranscriptChangeKind = "typing_shown"
	TranscriptTypingHidden TranscriptChangeKind = "typing_hidden"
	TranscriptScrolled     TranscriptChangeKind = "scrolled"
)

// TranscriptChange is delivered to transcript observers.
type TranscriptChange struct {
	Kind    TranscriptChangeKind
	Message *domain.Message
	Scroll  ScrollState
}

// ScrollState is the view position within the transcript.
type ScrollState struct {
	// Position is the index of the bottom-most visible message, -1 when empty.
	Position   int  `json:"position"`
	FollowTail bool `json:"follow_tail"`
}

// TranscriptDependencies wires collaborators for Transcript.
type TranscriptDependencies struct {
	Archive repository.TranscriptRepository
	Logger  *zap.Logger
	Now     func() time.Time
}

// Transcript is the ordered, append-only message history of one conversation.
type Transcript struct {
	archive repository.TranscriptRepository
	logger  *zap.Logger
	now     func() time.Time

	mu             sync.RWMutex
	conversationID string
	messages       []domain.Message
	typing         int
	scroll         ScrollState
	observers      []func(TranscriptChange)
}

// NewTranscript creates an empty transcript that follows the tail.
func NewTranscript(deps TranscriptDependencies) *Transcript {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Transcript{
		archive: deps.Archive,
		logger:  deps.Logger,
		now:     deps.Now,
		scroll:  ScrollState{Position: -1, FollowTail: true},
	}
}

// Observe registers a renderer callback. Callbacks run outside the transcript lock.
func (t *Transcript) Observe(fn func(TranscriptChange)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, fn)
}

// Append adds a message at the tail and archives it when an archive is configured.
func (t *Transcript) Append(ctx context.Context, sender domain.SenderRole, text string) domain.Message {
	t.mu.Lock()
	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: t.conversationID,
		Sender:         sender,
		Text:           text,
		Timestamp:      t.now(),
	}
	t.messages = append(t.messages, msg)
	if t.scroll.FollowTail {
		t.scroll.Position = len(t.messages) - 1
	}
	change := TranscriptChange{Kind: TranscriptAppended, Message: &msg, Scroll: t.scroll}
	observers := append([]func(TranscriptChange){}, t.observers...)
	t.mu.Unlock()

	for _, fn := range observers {
		fn(change)
	}

	if t.archive != nil {
		if err := t.archive.Append(ctx, msg); err != nil {
			t.logger.Warn("archive transcript message", zap.String("id", msg.ID), zap.Error(err))
		}
	}
	return msg
}

// Messages returns a copy of the transcript in arrival order.
func (t *Transcript) Messages() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.Message(nil), t.messages...)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// ConversationID returns the server-assigned conversation id, empty until known.
func (t *Transcript) ConversationID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conversationID
}

// SetConversationID records id. Empty ids are ignored so the field never reverts to absent.
func (t *Transcript) SetConversationID(id string) bool {
	if id == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conversationID == id {
		return false
	}
	t.conversationID = id
	return true
}

// ShowTyping shows the typing indicator and returns a remover that acts once.
func (t *Transcript) ShowTyping() func() {
	t.mu.Lock()
	t.typing++
	observers := append([]func(TranscriptChange){}, t.observers...)
	t.mu.Unlock()
	for _, fn := range observers {
		fn(TranscriptChange{Kind: TranscriptTypingShown})
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			t.typing--
			observers := append([]func(TranscriptChange){}, t.observers...)
			t.mu.Unlock()
			for _, fn := range observers {
				fn(TranscriptChange{Kind: TranscriptTypingHidden})
			}
		})
	}
}

// Typing reports whether any typing indicator is visible.
func (t *Transcript) Typing() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.typing > 0
}

// ScrollTo moves the view. Scrolling to the last message resumes following the tail.
func (t *Transcript) ScrollTo(position int) ScrollState {
	t.mu.Lock()
	last := len(t.messages) - 1
	if position < 0 {
		position = 0
	}
	if position >= last {
		t.scroll = ScrollState{Position: last, FollowTail: true}
	} else {
		t.scroll = ScrollState{Position: position, FollowTail: false}
	}
	state := t.scroll
	observers := append([]func(TranscriptChange){}, t.observers...)
	t.mu.Unlock()

	for _, fn := range observers {
		fn(TranscriptChange{Kind: TranscriptScrolled, Scroll: state})
	}
	return state
}

// Scroll returns the current view position.
func (t *Transcript) Scroll() ScrollState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scroll
}
