package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/config"
)

// RequireMode ensures the console runs in the given mode.
func RequireMode(mode config.Mode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Mode != mode {
			return fiber.NewError(http.StatusForbidden, string(mode)+" console required")
		}
		return c.Next()
	}
}

// RequireAnySession ensures a principal was loaded.
func RequireAnySession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
