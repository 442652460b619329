package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONSOLE_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Realtime.ReconnectDelay != 5*time.Second {
		t.Errorf("Expected 5s reconnect delay, got %v", cfg.Realtime.ReconnectDelay)
	}
	if cfg.Notification.Display != 5*time.Second || cfg.Notification.ExitGrace != 300*time.Millisecond {
		t.Errorf("Unexpected notification timings: %+v", cfg.Notification)
	}
	if cfg.Session.CookieMaxAge != 7*24*time.Hour {
		t.Errorf("Expected 7 day cookie, got %v", cfg.Session.CookieMaxAge)
	}
	if cfg.App.Mode != ModeAgent {
		t.Errorf("Expected agent mode, got %s", cfg.App.Mode)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	body := []byte(`
app:
  mode: customer
backend:
  base_url: http://backend.test
realtime:
  reconnect_delay: 2s
kafka:
  brokers: [a:9092]
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONSOLE_CONFIG_FILE", path)
	t.Setenv("REALTIME_RECONNECT_DELAY", "7s")
	t.Setenv("KAFKA_BROKERS", "b:9092, c:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Mode != ModeCustomer {
		t.Errorf("Expected customer mode from yaml, got %s", cfg.App.Mode)
	}
	if cfg.Backend.BaseURL != "http://backend.test" {
		t.Errorf("Expected yaml base url, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Realtime.ReconnectDelay != 7*time.Second {
		t.Errorf("Expected env override 7s, got %v", cfg.Realtime.ReconnectDelay)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "c:9092" {
		t.Errorf("Unexpected brokers %v", cfg.Kafka.Brokers)
	}
}

func TestValidate_RejectsUnknownMode(t *testing.T) {
	cfg := Default()
	cfg.App.Mode = "kiosk"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected error for unknown mode")
	}
}
