package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/api/dto"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/service"
)

// AgentDependencies wires the agent-side view models.
type AgentDependencies struct {
	Console       *service.AgentConsole
	Queue         *service.QueueBoard
	Roster        *service.AgentRoster
	Notifications *service.NotificationCenter
}

// AgentHandler manages the agent queue, status and conversations.
type AgentHandler struct {
	deps AgentDependencies
}

// NewAgentHandler constructs handler.
func NewAgentHandler(deps AgentDependencies) *AgentHandler {
	return &AgentHandler{deps: deps}
}

// Queue handles GET /api/agent/queue.
func (h *AgentHandler) Queue(c *fiber.Ctx) error {
	return respond(c, http.StatusOK, service.Ok(h.deps.Queue.Render()))
}

// Assign handles POST /api/agent/queue/:id/assign.
func (h *AgentHandler) Assign(c *fiber.Ctx) error {
	return respond(c, http.StatusOK, h.deps.Queue.Assign(c.UserContext(), c.Params("id")))
}

// UpdateStatus handles POST /api/agent/status.
func (h *AgentHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	res := h.deps.Console.UpdateStatus(c.UserContext(), domain.AgentStatus(req.Status))
	if !res.OK {
		return res.Err
	}
	return respond(c, http.StatusOK, service.Ok(fiber.Map{"status": req.Status, "transmitted": res.Value}))
}

// Roster handles GET /api/agent/roster.
func (h *AgentHandler) Roster(c *fiber.Ctx) error {
	return respond(c, http.StatusOK, service.Ok(h.deps.Roster.List()))
}

// OpenConversation handles POST /api/agent/conversations/:id/open.
func (h *AgentHandler) OpenConversation(c *fiber.Ctx) error {
	session, err := h.deps.Console.SetActiveConversation(c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, service.Ok(transcriptView(session.Transcript())))
}

// Notifications handles GET /api/notifications.
func (h *AgentHandler) Notifications(c *fiber.Ctx) error {
	return respond(c, http.StatusOK, service.Ok(h.deps.Notifications.Active()))
}

// DismissNotification handles DELETE /api/notifications/:id. Dismissing twice is not an error.
func (h *AgentHandler) DismissNotification(c *fiber.Ctx) error {
	removed := h.deps.Notifications.Dismiss(c.Params("id"))
	return respond(c, http.StatusOK, service.Ok(fiber.Map{"removed": removed}))
}
