package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/api/dto"
	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/service"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

// ChatHandler exposes the chat session in view.
// Customer consoles have one session; agent consoles use the active conversation.
type ChatHandler struct {
	mode     config.Mode
	customer *service.ChatSession
	console  *service.AgentConsole
}

// NewChatHandler constructs handler.
func NewChatHandler(mode config.Mode, customer *service.ChatSession, console *service.AgentConsole) *ChatHandler {
	return &ChatHandler{mode: mode, customer: customer, console: console}
}

// Submit handles POST /api/chat/messages.
func (h *ChatHandler) Submit(c *fiber.Ctx) error {
	session, err := h.session()
	if err != nil {
		return err
	}
	var req dto.SubmitMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	res := session.SubmitUserMessage(c.UserContext(), req.Message)
	if !res.OK {
		return res.Err
	}
	var view *dto.MessageView
	if res.Value != nil {
		v := messageView(*res.Value)
		view = &v
	}
	return respond(c, http.StatusOK, service.Ok(view))
}

// Transcript handles GET /api/chat/transcript.
func (h *ChatHandler) Transcript(c *fiber.Ctx) error {
	session, err := h.session()
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, service.Ok(transcriptView(session.Transcript())))
}

// Scroll handles POST /api/chat/scroll.
func (h *ChatHandler) Scroll(c *fiber.Ctx) error {
	session, err := h.session()
	if err != nil {
		return err
	}
	var req dto.ScrollRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	return respond(c, http.StatusOK, service.Ok(session.Transcript().ScrollTo(req.Position)))
}

func (h *ChatHandler) session() (*service.ChatSession, error) {
	if h.mode == config.ModeCustomer {
		return h.customer, nil
	}
	if session, ok := h.console.ActiveSession(); ok {
		return session, nil
	}
	return nil, apperrors.NewConflict("no active conversation", nil)
}

func transcriptView(t *service.Transcript) dto.TranscriptView {
	msgs := t.Messages()
	scroll := t.Scroll()
	view := dto.TranscriptView{
		ConversationID: t.ConversationID(),
		Messages:       make([]dto.MessageView, 0, len(msgs)),
		Typing:         t.Typing(),
		ScrollPosition: scroll.Position,
		FollowTail:     scroll.FollowTail,
	}
	for _, msg := range msgs {
		view.Messages = append(view.Messages, messageView(msg))
	}
	return view
}

func messageView(msg domain.Message) dto.MessageView {
	return dto.MessageView{ID: msg.ID, Sender: string(msg.Sender), Text: msg.Text, Timestamp: msg.Timestamp}
}
