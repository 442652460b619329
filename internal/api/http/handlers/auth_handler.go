package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/api/dto"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/service"
)

// AuthHandler exposes the session provider.
type AuthHandler struct {
	sessions *service.SessionProvider
}

// NewAuthHandler constructs handler.
func NewAuthHandler(sessions *service.SessionProvider) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// SignIn handles POST /auth/sign-in.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	res := h.sessions.SignIn(c.UserContext(), req.Email, req.Password)
	if !res.OK {
		return res.Err
	}
	return respond(c, http.StatusOK, service.Ok(sessionView(res.Value)))
}

// SignUp handles POST /auth/sign-up.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	res := h.sessions.SignUp(c.UserContext(), req.Email, req.Password, req.ConfirmPassword)
	if !res.OK {
		return res.Err
	}
	value := fiber.Map{"verification_pending": res.Value.VerificationPending}
	if res.Value.Session != nil {
		value["session"] = sessionView(res.Value.Session)
	}
	return respond(c, http.StatusCreated, service.Ok(value))
}

// SignOut handles POST /auth/sign-out.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	return respond(c, http.StatusOK, h.sessions.SignOut(c.UserContext()))
}

// Session handles GET /auth/session. A signed-out console yields a null value.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	session, err := h.sessions.CurrentSession(c.UserContext())
	if err != nil {
		return err
	}
	if session == nil {
		return respond(c, http.StatusOK, service.Ok[*dto.SessionView](nil))
	}
	view := sessionView(session)
	return respond(c, http.StatusOK, service.Ok(&view))
}

func sessionView(s *domain.Session) dto.SessionView {
	view := dto.SessionView{UserID: s.UserID, Email: s.Email}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt
		view.ExpiresAt = &exp
	}
	return view
}
