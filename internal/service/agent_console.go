package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/events"
	"github.com/spec-kit/support-console/internal/realtime"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

const previewLength = 50

// AgentConsoleDependencies wires collaborators for AgentConsole.
type AgentConsoleDependencies struct {
	Channel       realtime.Sender
	Notifications *NotificationCenter
	Queue         *QueueBoard
	Roster        *AgentRoster
	Identity      IdentityFunc
	// NewTransport builds the outbound transport for agent replies.
	NewTransport func() Transport
	Transcripts  TranscriptDependencies
	Logger       *zap.Logger
}

// AgentConsole routes inbound realtime events and owns the agent's active conversation.
type AgentConsole struct {
	channel       realtime.Sender
	notifications *NotificationCenter
	queue         *QueueBoard
	roster        *AgentRoster
	identity      IdentityFunc
	newTransport  func() Transport
	transcripts   TranscriptDependencies
	logger        *zap.Logger

	mu       sync.RWMutex
	active   string
	sessions map[string]*ChatSession
}

// NewAgentConsole creates the console.
func NewAgentConsole(deps AgentConsoleDependencies) *AgentConsole {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Identity == nil {
		deps.Identity = func(context.Context) string { return domain.UnknownAgent }
	}
	if deps.Transcripts.Logger == nil {
		deps.Transcripts.Logger = deps.Logger
	}
	return &AgentConsole{
		channel:       deps.Channel,
		notifications: deps.Notifications,
		queue:         deps.Queue,
		roster:        deps.Roster,
		identity:      deps.Identity,
		newTransport:  deps.NewTransport,
		transcripts:   deps.Transcripts,
		logger:        deps.Logger,
		sessions:      make(map[string]*ChatSession),
	}
}

// RegisterHandlers subscribes to inbound realtime events.
func (a *AgentConsole) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventNewTicket, a.handleNewTicket)
	dispatcher.Subscribe(events.EventCustomerMessage, a.handleCustomerMessage)
	dispatcher.Subscribe(events.EventTicketAssigned, a.handleTicketAssigned)
	dispatcher.Subscribe(events.EventStatusUpdate, a.handleStatusUpdate)
}

// SetActiveConversation makes conversationID the conversation shown in the chat view.
func (a *AgentConsole) SetActiveConversation(conversationID string) (*ChatSession, error) {
	if conversationID == "" {
		return nil, apperrors.NewValidationError("conversation id is required", nil)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	session, ok := a.sessions[conversationID]
	if !ok {
		transcript := NewTranscript(a.transcripts)
		transcript.SetConversationID(conversationID)
		session = NewChatSession(ChatSessionDependencies{
			Transcript: transcript,
			Transport:  a.newTransport(),
			Sender:     domain.SenderAgent,
			Responder:  domain.SenderCustomer,
			Logger:     a.logger,
		})
		a.sessions[conversationID] = session
	}
	a.active = conversationID
	return session, nil
}

// ActiveSession returns the chat session in view, if any.
func (a *AgentConsole) ActiveSession() (*ChatSession, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	session, ok := a.sessions[a.active]
	return session, ok
}

// UpdateStatus records the agent's availability and announces it on the channel.
// The value reports whether the announcement was transmitted.
func (a *AgentConsole) UpdateStatus(ctx context.Context, status domain.AgentStatus) Result[bool] {
	if !status.Valid() {
		return Fail[bool](apperrors.NewValidationError("unknown agent status", map[string]any{"status": status}))
	}
	a.roster.Update(a.identity(ctx), status)
	sent := a.channel.Send(ctx, events.StatusUpdate(status))
	return Ok(sent)
}

func (a *AgentConsole) handleNewTicket(ctx context.Context, event events.Event) error {
	var payload events.NewTicketPayload
	if err := event.Decode(&payload); err != nil {
		return err
	}
	a.queue.Add(domain.Ticket{ID: payload.Key(), Subject: payload.Subject, Priority: payload.Priority})
	a.notifications.Notify(ctx, domain.Notification{
		Kind:    domain.NotificationNewTicket,
		Title:   "New Ticket Available",
		Body:    fmt.Sprintf("%s (Priority: %s)", payload.Subject, payload.Priority),
		Link:    "/agent/queue",
		Payload: payload,
	})
	return nil
}

func (a *AgentConsole) handleCustomerMessage(ctx context.Context, event events.Event) error {
	var payload events.CustomerMessagePayload
	if err := event.Decode(&payload); err != nil {
		return err
	}

	a.mu.RLock()
	session, active := a.sessions[payload.ConversationID]
	active = active && a.active == payload.ConversationID
	a.mu.RUnlock()

	if active {
		session.Transcript().Append(ctx, domain.SenderCustomer, payload.Message)
		return nil
	}

	name := payload.CustomerName
	if name == "" {
		name = "Customer"
	}
	a.notifications.Notify(ctx, domain.Notification{
		Kind:    domain.NotificationCustomerMessage,
		Title:   "New Message",
		Body:    name + ": " + preview(payload.Message),
		Link:    "/agent/chat/" + url.PathEscape(payload.ConversationID),
		Payload: payload,
	})
	return nil
}

func (a *AgentConsole) handleTicketAssigned(ctx context.Context, event events.Event) error {
	var payload events.TicketAssignedPayload
	if err := event.Decode(&payload); err != nil {
		return err
	}
	self := a.identity(ctx)
	agentID := payload.AgentID
	if agentID == "" {
		agentID = self
	}
	a.queue.MarkAssigned(payload.TicketID, agentID)
	assignee := "you"
	if agentID != self {
		assignee = agentID
	}
	a.notifications.Notify(ctx, domain.Notification{
		Kind:    domain.NotificationTicketAssigned,
		Title:   "Ticket Assigned",
		Body:    "Ticket #" + payload.TicketID + " assigned to " + assignee,
		Link:    "/agent/ticket/" + url.PathEscape(payload.TicketID),
		Payload: payload,
	})
	return nil
}

func (a *AgentConsole) handleStatusUpdate(_ context.Context, event events.Event) error {
	if !a.roster.Update(event.AgentID, domain.AgentStatus(event.Status)) {
		a.logger.Debug("ignoring status update", zap.String("agent_id", event.AgentID), zap.String("status", event.Status))
	}
	return nil
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
