package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Mode selects which side of the conversation the console runs.
type Mode string

const (
	ModeAgent    Mode = "agent"
	ModeCustomer Mode = "customer"
)

// AgentTransport selects how agent replies leave the console.
type AgentTransport string

const (
	AgentTransportRealtime AgentTransport = "realtime"
	AgentTransportHTTP     AgentTransport = "http"
)

// Config aggregates runtime configuration for the console.
type Config struct {
	App          AppConfig          `yaml:"app"`
	Backend      BackendConfig      `yaml:"backend"`
	Identity     IdentityConfig     `yaml:"identity"`
	Realtime     RealtimeConfig     `yaml:"realtime"`
	Notification NotificationConfig `yaml:"notification"`
	Session      SessionConfig      `yaml:"session"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	Redis        RedisConfig        `yaml:"redis"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Logger       LoggerConfig       `yaml:"logger"`
}

// AppConfig controls the local UI adapter.
type AppConfig struct {
	Name                  string `yaml:"name"`
	Env                   string `yaml:"env"`
	Host                  string `yaml:"host"`
	Port                  string `yaml:"port"`
	Version               string `yaml:"version"`
	Mode                  Mode   `yaml:"mode"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// BackendConfig points at the ticket backend.
type BackendConfig struct {
	BaseURL        string         `yaml:"base_url"`
	AuthHeader     string         `yaml:"auth_header"`
	AgentTransport AgentTransport `yaml:"agent_transport"`
}

// IdentityConfig holds identity backend settings and optional auto sign-in credentials.
type IdentityConfig struct {
	URL        string `yaml:"url"`
	AnonKey    string `yaml:"anon_key"`
	JWTSecret  string `yaml:"jwt_secret"`
	Email      string `yaml:"email"`
	Password   string `yaml:"password"`
	CustomerID string `yaml:"customer_id"`
}

// RealtimeConfig controls the agent channel.
type RealtimeConfig struct {
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// NotificationConfig controls transient alerts.
type NotificationConfig struct {
	Display      time.Duration `yaml:"display"`
	ExitGrace    time.Duration `yaml:"exit_grace"`
	SoundCommand string        `yaml:"sound_command"`
}

// SessionConfig names the two session copies.
type SessionConfig struct {
	StorageKey   string        `yaml:"storage_key"`
	CookieName   string        `yaml:"cookie_name"`
	CookieMaxAge time.Duration `yaml:"cookie_max_age"`
}

// PostgresConfig holds the transcript archive connection values.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConns       int32  `yaml:"max_conns"`
	MinConns       int32  `yaml:"min_conns"`
	RunMigrations  bool   `yaml:"run_migrations"`
	ConnMaxIdleSec int32  `yaml:"conn_max_idle_seconds"`
	ConnMaxLifeSec int32  `yaml:"conn_max_life_seconds"`
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig enables mirroring inbound realtime events. No brokers disables it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:                  "support-console",
			Env:                   "development",
			Host:                  "127.0.0.1",
			Port:                  "8090",
			Version:               "dev",
			Mode:                  ModeAgent,
			RequestTimeoutSeconds: 0,
		},
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8000",
			AuthHeader:     "X-Supabase-Auth",
			AgentTransport: AgentTransportRealtime,
		},
		Identity: IdentityConfig{
			CustomerID: "guest",
		},
		Realtime: RealtimeConfig{
			ReconnectDelay: 5 * time.Second,
		},
		Notification: NotificationConfig{
			Display:   5 * time.Second,
			ExitGrace: 300 * time.Millisecond,
		},
		Session: SessionConfig{
			StorageKey:   "supabase.auth.token",
			CookieName:   "supabase-auth-token",
			CookieMaxAge: 7 * 24 * time.Hour,
		},
		Postgres: PostgresConfig{
			MaxConns:       10,
			MinConns:       2,
			RunMigrations:  true,
			ConnMaxIdleSec: 30,
			ConnMaxLifeSec: 300,
		},
		Kafka: KafkaConfig{
			Topic: "support-console-events",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file, then environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path := getEnv("CONSOLE_CONFIG_FILE", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnv("APP_PORT", cfg.App.Port)
	cfg.App.Version = getEnv("APP_VERSION", cfg.App.Version)
	cfg.App.Mode = Mode(strings.ToLower(getEnv("CONSOLE_MODE", string(cfg.App.Mode))))
	cfg.App.RequestTimeoutSeconds = getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", cfg.App.RequestTimeoutSeconds)

	cfg.Backend.BaseURL = getEnv("BACKEND_BASE_URL", cfg.Backend.BaseURL)
	cfg.Backend.AuthHeader = getEnv("BACKEND_AUTH_HEADER", cfg.Backend.AuthHeader)
	cfg.Backend.AgentTransport = AgentTransport(strings.ToLower(getEnv("AGENT_MESSAGE_TRANSPORT", string(cfg.Backend.AgentTransport))))

	cfg.Identity.URL = getEnv("IDENTITY_URL", cfg.Identity.URL)
	cfg.Identity.AnonKey = getEnv("IDENTITY_ANON_KEY", cfg.Identity.AnonKey)
	cfg.Identity.JWTSecret = getEnv("IDENTITY_JWT_SECRET", cfg.Identity.JWTSecret)
	cfg.Identity.Email = getEnv("IDENTITY_EMAIL", cfg.Identity.Email)
	cfg.Identity.Password = getEnv("IDENTITY_PASSWORD", cfg.Identity.Password)
	cfg.Identity.CustomerID = getEnv("CUSTOMER_ID", cfg.Identity.CustomerID)

	var err error
	if cfg.Realtime.ReconnectDelay, err = getEnvAsDuration("REALTIME_RECONNECT_DELAY", cfg.Realtime.ReconnectDelay); err != nil {
		return err
	}
	if cfg.Notification.Display, err = getEnvAsDuration("NOTIFY_DISPLAY", cfg.Notification.Display); err != nil {
		return err
	}
	if cfg.Notification.ExitGrace, err = getEnvAsDuration("NOTIFY_EXIT_GRACE", cfg.Notification.ExitGrace); err != nil {
		return err
	}
	cfg.Notification.SoundCommand = getEnv("NOTIFY_SOUND_COMMAND", cfg.Notification.SoundCommand)

	cfg.Session.StorageKey = getEnv("SESSION_STORAGE_KEY", cfg.Session.StorageKey)
	cfg.Session.CookieName = getEnv("SESSION_COOKIE_NAME", cfg.Session.CookieName)

	cfg.Postgres.DSN = getEnv("POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Postgres.MaxConns = int32(getEnvAsInt("POSTGRES_MAX_CONNS", int(cfg.Postgres.MaxConns)))
	cfg.Postgres.MinConns = int32(getEnvAsInt("POSTGRES_MIN_CONNS", int(cfg.Postgres.MinConns)))
	cfg.Postgres.RunMigrations = getEnvAsBool("POSTGRES_RUN_MIGRATIONS", cfg.Postgres.RunMigrations)
	cfg.Postgres.ConnMaxIdleSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", int(cfg.Postgres.ConnMaxIdleSec)))
	cfg.Postgres.ConnMaxLifeSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", int(cfg.Postgres.ConnMaxLifeSec)))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", strconv.Itoa(cfg.Redis.DB)))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.Redis.DB = redisDB

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)
	return nil
}

// Validate checks that required fields hold usable values.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL cannot be empty")
	}
	switch c.App.Mode {
	case ModeAgent, ModeCustomer:
	default:
		return fmt.Errorf("unsupported CONSOLE_MODE %q", c.App.Mode)
	}
	switch c.Backend.AgentTransport {
	case AgentTransportRealtime, AgentTransportHTTP:
	default:
		return fmt.Errorf("unsupported AGENT_MESSAGE_TRANSPORT %q", c.Backend.AgentTransport)
	}
	if c.Realtime.ReconnectDelay <= 0 {
		return errors.New("REALTIME_RECONNECT_DELAY must be > 0")
	}
	if c.Notification.Display <= 0 {
		return errors.New("NOTIFY_DISPLAY must be > 0")
	}
	if c.Session.CookieName == "" || c.Session.StorageKey == "" {
		return errors.New("session storage key and cookie name are required")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
