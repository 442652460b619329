package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/observability"
	"github.com/spec-kit/support-console/internal/persistence"
)

// ChannelState reports the realtime connection state.
type ChannelState interface {
	State() domain.ConnectionState
}

// HealthDependencies wires the probes.
type HealthDependencies struct {
	ServiceName string
	Version     string
	Postgres    *persistence.Postgres
	Redis       *persistence.Redis
	Channel     ChannelState
	Metrics     *observability.Metrics
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	deps HealthDependencies
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.deps.ServiceName,
		"version": h.deps.Version,
	})
}

// Ready reports the optional stores, the channel state and the counters.
// Stores that are not configured are reported as disabled and never fail readiness.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if h.deps.Postgres == nil {
		depStatus["postgres"] = "disabled"
	} else if err := h.deps.Postgres.Ping(ctx); err != nil {
		depStatus["postgres"] = err.Error()
		ready = false
	} else {
		depStatus["postgres"] = "ok"
	}

	if h.deps.Redis == nil {
		depStatus["redis"] = "disabled"
	} else if err := h.deps.Redis.Ping(ctx); err != nil {
		depStatus["redis"] = err.Error()
		ready = false
	} else {
		depStatus["redis"] = "ok"
	}

	if h.deps.Channel != nil {
		depStatus["realtime"] = h.deps.Channel.State().String()
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
			"metrics":      h.deps.Metrics.Snapshot(),
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"ok": false,
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
