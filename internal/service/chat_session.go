package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/backend"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/events"
	"github.com/spec-kit/support-console/internal/realtime"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

// ConnectErrorText is shown when the backend cannot be reached.
const ConnectErrorText = "Sorry, there was an error connecting to our servers. Please try again later."

// Outgoing is one message handed to a transport.
type Outgoing struct {
	ConversationID string
	Text           string
}

// Reply is what a transport learned from delivering a message.
type Reply struct {
	ConversationID string
	Text           string
}

// Transport delivers chat messages to the other side of the conversation.
type Transport interface {
	Deliver(ctx context.Context, msg Outgoing) (Reply, error)
}

// ChatSessionDependencies wires collaborators for ChatSession.
type ChatSessionDependencies struct {
	Transcript *Transcript
	Transport  Transport
	// Sender is the role of the local user; Responder authors replies.
	Sender    domain.SenderRole
	Responder domain.SenderRole
	Logger    *zap.Logger
}

// ChatSession coordinates one conversation's message exchange.
type ChatSession struct {
	transcript *Transcript
	transport  Transport
	sender     domain.SenderRole
	responder  domain.SenderRole
	logger     *zap.Logger
}

// NewChatSession creates the session.
func NewChatSession(deps ChatSessionDependencies) *ChatSession {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Transcript == nil {
		deps.Transcript = NewTranscript(TranscriptDependencies{Logger: deps.Logger})
	}
	return &ChatSession{
		transcript: deps.Transcript,
		transport:  deps.Transport,
		sender:     deps.Sender,
		responder:  deps.Responder,
		logger:     deps.Logger,
	}
}

// Transcript exposes the session's transcript.
func (s *ChatSession) Transcript() *Transcript {
	return s.transcript
}

// SubmitUserMessage appends text optimistically and delivers it.
// Blank text is a no-op that yields an OK result with a nil message.
func (s *ChatSession) SubmitUserMessage(ctx context.Context, text string) Result[*domain.Message] {
	text = strings.TrimSpace(text)
	if text == "" {
		return Ok[*domain.Message](nil)
	}

	msg := s.transcript.Append(ctx, s.sender, text)
	hideTyping := s.transcript.ShowTyping()
	defer hideTyping()

	reply, err := s.transport.Deliver(ctx, Outgoing{
		ConversationID: s.transcript.ConversationID(),
		Text:           text,
	})
	hideTyping()

	if err != nil {
		s.logger.Warn("chat delivery failed", zap.String("message_id", msg.ID), zap.Error(err))
		s.transcript.Append(ctx, domain.SenderSystem, FailureText(err))
		return Fail[*domain.Message](err)
	}

	if s.transcript.SetConversationID(reply.ConversationID) {
		s.logger.Debug("conversation id assigned", zap.String("conversation_id", reply.ConversationID))
	}
	if reply.Text != "" {
		s.transcript.Append(ctx, s.responder, reply.Text)
	}
	return Ok(&msg)
}

// FailureText maps a delivery error to the system message shown in the transcript.
func FailureText(err error) string {
	switch {
	case apperrors.HasCode(err, apperrors.CodeRequest),
		apperrors.HasCode(err, apperrors.CodeLogical),
		apperrors.HasCode(err, apperrors.CodeValidation):
		return apperrors.ToDomainError(err).Message
	}
	return ConnectErrorText
}

// CustomerTransport sends customer messages through the backend's request/response endpoint.
type CustomerTransport struct {
	Client     *backend.Client
	CustomerID IdentityFunc
}

// Deliver implements Transport.
func (t CustomerTransport) Deliver(ctx context.Context, msg Outgoing) (Reply, error) {
	reply, err := t.Client.SendCustomerMessage(ctx, backend.CustomerMessage{
		CustomerID:     t.CustomerID(ctx),
		Message:        msg.Text,
		ConversationID: msg.ConversationID,
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{ConversationID: reply.ConversationID, Text: reply.Text}, nil
}

// AgentRealtimeTransport pushes agent replies over the realtime channel, at most once.
type AgentRealtimeTransport struct {
	Channel realtime.Sender
	Logger  *zap.Logger
}

// Deliver implements Transport. A dropped send is not reported as an error.
func (t AgentRealtimeTransport) Deliver(ctx context.Context, msg Outgoing) (Reply, error) {
	if msg.ConversationID == "" {
		return Reply{}, apperrors.NewValidationError("no active conversation", nil)
	}
	if !t.Channel.Send(ctx, events.AgentMessage(msg.ConversationID, msg.Text)) && t.Logger != nil {
		t.Logger.Debug("agent message not transmitted", zap.String("conversation_id", msg.ConversationID))
	}
	return Reply{}, nil
}

// AgentHTTPTransport posts agent replies to the backend.
type AgentHTTPTransport struct {
	Client  *backend.Client
	AgentID IdentityFunc
	Action  string
}

// Deliver implements Transport.
func (t AgentHTTPTransport) Deliver(ctx context.Context, msg Outgoing) (Reply, error) {
	if msg.ConversationID == "" {
		return Reply{}, apperrors.NewValidationError("no active conversation", nil)
	}
	err := t.Client.SendAgentMessage(ctx, msg.ConversationID, backend.AgentMessage{
		AgentID: t.AgentID(ctx),
		Message: msg.Text,
		Action:  t.Action,
	})
	return Reply{}, err
}
