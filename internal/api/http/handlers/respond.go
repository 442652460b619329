package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/service"
)

// respond writes a command result. Failures are left to the error middleware.
func respond[T any](c *fiber.Ctx, status int, res service.Result[T]) error {
	if !res.OK {
		return res.Err
	}
	return c.Status(status).JSON(fiber.Map{"ok": true, "value": res.Value})
}

func invalidPayload() error {
	return fiber.NewError(http.StatusBadRequest, "invalid payload")
}
