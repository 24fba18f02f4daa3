package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Zay2006/Slacking-Capstone/core/db"
)

type Config struct {
	OTel        OTelConfig
	Slack       SlackConfig
	LLM         LLMConfig
	Reminders   ReminderConfig
	Supervisor  SupervisorConfig
	Env         string
	LogLevel    string
	Port        string
	RedisURL    string
	AdminAPIKey string
	// SnowflakeNode is the id generator's node, -1 when unset so the
	// hostname decides.
	SnowflakeNode int64
	DB            db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type SlackConfig struct {
	BotToken      string
	AppToken      string
	SigningSecret string
	Debug         bool
}

type LLMConfig struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int
}

type ReminderConfig struct {
	Backend  string // "timer" or "platform"
	Timezone string
}

type SupervisorConfig struct {
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	RestartDelay      time.Duration
}

const (
	ReminderBackendTimer    = "timer"
	ReminderBackendPlatform = "platform"
)

// Load loads configuration from environment variables.
// In development, it also reads a local .env file if one exists.
//
// Missing credentials never fail the load: each feature degrades on its own
// (no LLM key → fallback replies, no DATABASE_URL → roadmap commands report
// the database as unavailable). Only malformed values are rejected.
func Load() (Config, error) {
	if getEnv("APP_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	healthInterval, err := getEnvDuration("DB_HEALTH_INTERVAL", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	heartbeatInterval, err := getEnvDuration("HEARTBEAT_INTERVAL", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	heartbeatTimeout, err := getEnvDuration("HEARTBEAT_TIMEOUT", 45*time.Second)
	if err != nil {
		return Config{}, err
	}
	restartDelay, err := getEnvDuration("RESTART_DELAY", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	snowflakeNode, err := getEnvNode("SNOWFLAKE_NODE")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:           getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", ""),
		Port:          getEnv("PORT", "3000"),
		RedisURL:      getEnv("REDIS_URL", ""),
		AdminAPIKey:   getEnv("ADMIN_API_KEY", ""),
		SnowflakeNode: snowflakeNode,
		DB: db.Config{
			DSN:            getEnv("DATABASE_URL", ""),
			MaxConns:       getEnvInt32("DB_MAX_CONNS", 10),
			MinConns:       getEnvInt32("DB_MIN_CONNS", 0),
			HealthInterval: healthInterval,
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "slackbot"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Slack: SlackConfig{
			BotToken:      getEnv("SLACK_BOT_TOKEN", ""),
			AppToken:      getEnv("SLACK_APP_TOKEN", ""),
			SigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
			Debug:         getEnv("SLACK_DEBUG", "") == "true",
		},
		LLM: LLMConfig{
			Provider:  getEnv("LLM_PROVIDER", "openai"),
			APIKey:    getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", "")),
			BaseURL:   getEnv("LLM_BASE_URL", ""),
			Model:     getEnv("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 1500),
		},
		Reminders: ReminderConfig{
			Backend:  getEnv("REMINDER_BACKEND", ReminderBackendTimer),
			Timezone: getEnv("BOT_TIMEZONE", "UTC"),
		},
		Supervisor: SupervisorConfig{
			HeartbeatInterval: heartbeatInterval,
			HeartbeatTimeout:  heartbeatTimeout,
			RestartDelay:      restartDelay,
		},
	}

	switch cfg.Reminders.Backend {
	case ReminderBackendTimer, ReminderBackendPlatform:
	default:
		return Config{}, fmt.Errorf("REMINDER_BACKEND must be %q or %q, got %q",
			ReminderBackendTimer, ReminderBackendPlatform, cfg.Reminders.Backend)
	}

	if _, err := time.LoadLocation(cfg.Reminders.Timezone); err != nil {
		return Config{}, fmt.Errorf("BOT_TIMEZONE: %w", err)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

func (c SlackConfig) SocketModeEnabled() bool {
	return c.BotToken != "" && c.AppToken != ""
}

func (c ReminderConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// maxSnowflakeNode is the largest node id a 10-bit snowflake node field holds.
const maxSnowflakeNode = 1023

func getEnvNode(key string) (int64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return -1, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 || n > maxSnowflakeNode {
		return 0, fmt.Errorf("%s must be between 0 and %d, got %q", key, maxSnowflakeNode, value)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
