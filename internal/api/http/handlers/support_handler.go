package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/api/dto"
	"github.com/spec-kit/support-console/internal/backend"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/service"
)

// SupportHandler exposes tickets, knowledge search, feedback and admin provider actions.
type SupportHandler struct {
	desk *service.SupportDesk
}

// NewSupportHandler constructs handler.
func NewSupportHandler(desk *service.SupportDesk) *SupportHandler {
	return &SupportHandler{desk: desk}
}

// CreateTicket handles POST /api/tickets.
func (h *SupportHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	res := h.desk.CreateTicket(c.UserContext(), domain.TicketDraft{
		Subject:     req.Subject,
		Category:    req.Category,
		Description: req.Description,
	})
	if !res.OK {
		return res.Err
	}
	return respond(c, http.StatusCreated, service.Ok(fiber.Map{"ticket_id": res.Value}))
}

// SearchKnowledge handles GET /api/knowledge/search.
func (h *SupportHandler) SearchKnowledge(c *fiber.Ctx) error {
	return respond(c, http.StatusOK, h.desk.SearchKnowledge(c.UserContext(), c.Query("query"), c.Query("category")))
}

// SubmitFeedback handles POST /api/feedback.
func (h *SupportHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	return respond(c, http.StatusOK, h.desk.SubmitFeedback(c.UserContext(), domain.Feedback{
		Rating:   req.Rating,
		Category: req.Category,
		Message:  req.Message,
		Email:    req.Email,
	}))
}

// ProviderAction handles POST /api/admin/integrations/:provider/:action.
func (h *SupportHandler) ProviderAction(c *fiber.Ctx) error {
	action := backend.ProviderAction(c.Params("action"))
	if action != backend.ProviderTest && action != backend.ProviderToggle {
		return fiber.NewError(http.StatusNotFound, "unknown provider action")
	}
	return respond(c, http.StatusOK, h.desk.RunProviderAction(c.UserContext(), c.Params("provider"), action))
}
