// Package bot is the transport-agnostic core: every front door (socket mode,
// HTTP, supervised worker) converts its native payloads into model types and
// calls a Handler.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/common/logger"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/platform"
	"github.com/Zay2006/Slacking-Capstone/internal/service"
)

// Handler is what transports dispatch to. Errors are already reported to the
// user where possible; transports only log them.
type Handler interface {
	HandleCommand(ctx context.Context, cmd model.Command) error
	HandleMessage(ctx context.Context, msg model.Message) error
	HandleAction(ctx context.Context, action model.Action) error
}

// handlerTimeout caps one asynchronous handler run, model calls included.
const handlerTimeout = 3 * time.Minute

type Config struct {
	Client    platform.Client
	Gateway   llm.Gateway
	Roadmaps  service.RoadmapGateway
	Audit     service.AuditService
	Reminders service.ReminderService
	Intents   *service.IntentClassifier
	Inflight  Inflight
	BotUserID string
}

type Bot struct {
	client    platform.Client
	gateway   llm.Gateway
	roadmaps  service.RoadmapGateway
	audit     service.AuditService
	reminders service.ReminderService
	intents   *service.IntentClassifier
	inflight  Inflight
	botUserID string

	commands map[string]commandFunc
}

var _ Handler = (*Bot)(nil)

func New(cfg Config) *Bot {
	if cfg.Intents == nil {
		cfg.Intents = service.NewIntentClassifier(nil)
	}
	if cfg.Inflight == nil {
		cfg.Inflight = NewMemoryInflight(DefaultInflightTTL, nil)
	}

	b := &Bot{
		client:    cfg.Client,
		gateway:   cfg.Gateway,
		roadmaps:  cfg.Roadmaps,
		audit:     cfg.Audit,
		reminders: cfg.Reminders,
		intents:   cfg.Intents,
		inflight:  cfg.Inflight,
		botUserID: cfg.BotUserID,
	}
	b.commands = map[string]commandFunc{
		"/audit":    b.handleAudit,
		"/draft":    b.handleDraft,
		"/task":     b.handleTask,
		"/convo":    b.handleConvo,
		"/describe": b.handleDescribe,
		"/reminder": b.handleReminder,
	}
	return b
}

// Go runs fn in its own goroutine, detached from the caller's cancellation
// but bounded by handlerTimeout. A panic is logged instead of crashing the
// process.
func Go(ctx context.Context, what string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(ctx, "handler panicked",
					"what", what,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()))
			}
		}()
		if err := fn(ctx); err != nil {
			slog.ErrorContext(ctx, "handler failed", "what", what, "error", err)
		}
	}()
}

// reply tracks one response: an optional placeholder that is later replaced.
type reply struct {
	channelID string
	userID    string
	threadTS  string
	ts        string
	ephemeral bool
}

// start posts a placeholder. When it can't be posted the final answer falls
// back to an ephemeral message.
func (b *Bot) start(ctx context.Context, r *reply, text string) {
	ts, err := b.client.PostMessage(ctx, r.channelID, platform.Message{Text: text, ThreadTS: r.threadTS})
	if err != nil {
		slog.WarnContext(ctx, "failed to post placeholder", "error", err)
		return
	}
	r.ts = ts
}

// finish delivers msg, replacing the placeholder when there is one.
func (b *Bot) finish(ctx context.Context, r *reply, msg platform.Message) error {
	msg.ThreadTS = r.threadTS

	if r.ts != "" {
		err := b.client.UpdateMessage(ctx, r.channelID, r.ts, msg)
		if err == nil {
			return nil
		}
		slog.WarnContext(ctx, "failed to update placeholder, posting instead", "error", err)
	}

	if r.ephemeral && r.userID != "" {
		return b.client.PostEphemeral(ctx, r.channelID, r.userID, msg)
	}
	if _, err := b.client.PostMessage(ctx, r.channelID, msg); err != nil {
		if r.userID == "" {
			return err
		}
		slog.WarnContext(ctx, "failed to post reply, falling back to ephemeral", "error", err)
		return b.client.PostEphemeral(ctx, r.channelID, r.userID, msg)
	}
	return nil
}

// tell sends a plain-text ephemeral message to the user.
func (b *Bot) tell(ctx context.Context, channelID, userID, text string) error {
	return b.client.PostEphemeral(ctx, channelID, userID, platform.Message{Text: text})
}

func (b *Bot) footer() string {
	if b.gateway == nil || !b.gateway.Available() {
		return "Language model unavailable, showing a fallback answer"
	}
	return "Generated by " + b.gateway.Model()
}

func withComponent(ctx context.Context, component string) context.Context {
	return logger.WithLogFields(ctx, logger.LogFields{Component: component})
}
