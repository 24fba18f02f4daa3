package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Zay2006/Slacking-Capstone/common/id"
	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/common/logger"
	"github.com/Zay2006/Slacking-Capstone/common/otel"
	"github.com/Zay2006/Slacking-Capstone/core/config"
	"github.com/Zay2006/Slacking-Capstone/core/db"
	"github.com/Zay2006/Slacking-Capstone/internal/http/handler"
)

const shutdownTimeout = 10 * time.Second

// app holds the process-wide dependencies. Everything optional is nil when
// not configured.
type app struct {
	cfg       config.Config
	telemetry *otel.Telemetry
	database  *db.DB
	redis     *redis.Client
	gateway   llm.Gateway
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		return nil, err
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg)
	if err != nil {
		// Can't use slog yet: OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		return nil, err
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "slackbot starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	nodeID := id.ResolveNode(cfg.SnowflakeNode)
	if err := id.Init(nodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err, "node", nodeID)
		return nil, err
	}
	slog.DebugContext(ctx, "snowflake id generator ready", "node", nodeID)

	a := &app{cfg: cfg, telemetry: telemetry}

	a.gateway, err = llm.New(llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm gateway", "error", err)
		return nil, err
	}
	if a.gateway.Available() {
		slog.InfoContext(ctx, "llm gateway ready", "provider", cfg.LLM.Provider, "model", a.gateway.Model())
	} else {
		slog.WarnContext(ctx, "no LLM API key configured, replies will use fallback text")
	}

	a.connectDatabase(ctx)
	a.connectRedis(ctx)

	return a, nil
}

// connectDatabase leaves a.database nil when the database is not configured;
// roadmap features then report it as unavailable. An unreachable database is
// kept: the pool re-dials on use and the database keepalive job migrates it
// once it answers.
func (a *app) connectDatabase(ctx context.Context) {
	database, err := db.New(ctx, a.cfg.DB)
	if errors.Is(err, db.ErrNotConfigured) {
		slog.WarnContext(ctx, "DATABASE_URL not set, roadmap and audit commands are disabled")
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "invalid database config, continuing without it", "error", err)
		return
	}
	a.database = database

	if h := database.Check(ctx); !h.Healthy {
		slog.ErrorContext(ctx, "database unreachable, will retry in the background", "error", h.Error)
		return
	}
	slog.InfoContext(ctx, "database connected")

	if err := database.EnsureMigrated(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
	}
}

// connectRedis enables shared in-flight de-duplication across replicas.
func (a *app) connectRedis(ctx context.Context) {
	if a.cfg.RedisURL == "" {
		return
	}

	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url, using in-memory de-duplication", "error", err)
		return
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis, using in-memory de-duplication", "error", err)
		_ = client.Close()
		return
	}
	slog.InfoContext(ctx, "redis connected")
	a.redis = client
}

// healthChecker returns the database as a health checker, or nil without one.
func (a *app) healthChecker() handler.HealthChecker {
	if a.database == nil {
		return nil
	}
	return a.database
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.database != nil {
		a.database.Close()
	}
	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "otel shutdown error", "error", err)
		}
	}
	slog.InfoContext(ctx, "shutdown complete")
}

func requireSlack(cfg config.Config, socket bool) error {
	if cfg.Slack.BotToken == "" {
		return errors.New("SLACK_BOT_TOKEN is required")
	}
	if socket && cfg.Slack.AppToken == "" {
		return errors.New("SLACK_APP_TOKEN is required for socket mode")
	}
	return nil
}
