package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/domain"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

const principalKey = "auth_principal"

// SessionSource yields the console's current session, or nil when signed out.
type SessionSource interface {
	CurrentSession(ctx context.Context) (*domain.Session, error)
}

// Principal represents the signed-in console user.
type Principal struct {
	Mode    config.Mode
	Session *domain.Session
}

// Identity returns the principal's user id or email.
func (p *Principal) Identity() string {
	if p == nil {
		return ""
	}
	return p.Session.Identity()
}

// SessionMiddleware requires a live session for protected adapter routes.
type SessionMiddleware struct {
	sessions SessionSource
	mode     config.Mode
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(sessions SessionSource, mode config.Mode) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, mode: mode}
}

// Handle loads the current session and stores the principal.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	session, err := m.sessions.CurrentSession(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	if session == nil {
		return apperrors.NewUnauthorized("sign in required")
	}
	c.Locals(principalKey, &Principal{Mode: m.mode, Session: session})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
