package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/config"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/queue", fiber.MethodGet, 200, time.Millisecond)
	m.RecordRequest("/api/queue", fiber.MethodGet, 200, time.Millisecond)
	m.RecordError("/api/queue", fiber.MethodPost, "CONFLICT")
	m.RecordFrame("new_ticket", "dispatched")
	m.RecordReconnect()
	m.RecordDroppedSend()

	snap := m.Snapshot()
	if snap.Requests["/api/queue|GET|200"] != 2 {
		t.Errorf("Expected 2 requests, got %v", snap.Requests)
	}
	if snap.Errors["/api/queue|POST|CONFLICT"] != 1 || snap.Frames["new_ticket|dispatched"] != 1 {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
	if snap.Reconnects != 1 || snap.DroppedSends != 1 {
		t.Errorf("Unexpected counters %+v", snap)
	}

	snap.Requests["/api/queue|GET|200"] = 99
	if m.Snapshot().Requests["/api/queue|GET|200"] != 2 {
		t.Error("Expected snapshot to be a copy")
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordReconnect()
	m.RecordFrame("x", "y")
	if snap := m.Snapshot(); snap.Reconnects != 0 {
		t.Errorf("Expected empty snapshot, got %+v", snap)
	}
}

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if logger.Core().Enabled(zap.DebugLevel) {
		t.Error("Expected debug disabled for unknown level")
	}
	if !logger.Core().Enabled(zap.InfoLevel) {
		t.Error("Expected info enabled")
	}
}

func TestRequestLogger_RecordsRoute(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if m.Snapshot().Requests["/ping|GET|200"] != 1 {
		t.Errorf("Expected request recorded, got %v", m.Snapshot().Requests)
	}
}
