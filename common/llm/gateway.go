package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	defaultMaxTokens = 1500
	fallbackWords    = 8
)

type gateway struct {
	provider  Provider
	status    *statusTracker
	maxTokens int
}

// NewGateway wraps a provider with the stream → retry → fallback policy.
func NewGateway(provider Provider, maxTokens int) Gateway {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &gateway{
		provider:  provider,
		status:    newStatusTracker(true),
		maxTokens: maxTokens,
	}
}

func (g *gateway) Complete(ctx context.Context, task Task, prompt string) string {
	text, ok := g.complete(ctx, task, prompt)
	if !ok {
		return text
	}
	return CleanText(text)
}

func (g *gateway) CompleteRaw(ctx context.Context, task Task, prompt string) string {
	text, _ := g.complete(ctx, task, prompt)
	return text
}

// complete runs stream → retry → fallback. ok is false when the text is the
// fallback reply.
func (g *gateway) complete(ctx context.Context, task Task, prompt string) (string, bool) {
	task = task.Normalize()
	req := Request{
		SystemPrompt: SystemPrompt(task),
		UserPrompt:   prompt,
		MaxTokens:    g.maxTokens,
	}

	start := time.Now()

	g.status.attempt()
	text, err := g.provider.Stream(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyCompletion
	}
	if err != nil {
		g.status.failure(err)
		slog.WarnContext(ctx, "streaming completion failed, retrying without streaming",
			"task", task,
			"model", g.provider.Model(),
			"error", err)

		g.status.attempt()
		text, err = g.provider.Complete(ctx, req)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errEmptyCompletion
		}
	}
	if err != nil {
		g.status.failure(err)
		slog.ErrorContext(ctx, "completion failed, using fallback reply",
			"task", task,
			"model", g.provider.Model(),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return Fallback(task, prompt), false
	}

	g.status.success()
	slog.DebugContext(ctx, "completion finished",
		"task", task,
		"model", g.provider.Model(),
		"duration_ms", time.Since(start).Milliseconds(),
		"chars", len(text))

	return text, true
}

func (g *gateway) Available() bool {
	return true
}

func (g *gateway) Status() Status {
	return g.status.snapshot()
}

func (g *gateway) Model() string {
	return g.provider.Model()
}

type unavailableGateway struct {
	status *statusTracker
}

// Unavailable is the gateway used when no credentials are configured. Every
// call yields the fallback reply.
func Unavailable() Gateway {
	t := newStatusTracker(false)
	t.failure(ErrUnavailable)
	return &unavailableGateway{status: t}
}

func (g *unavailableGateway) Complete(ctx context.Context, task Task, prompt string) string {
	g.status.attempt()
	slog.DebugContext(ctx, "language model unavailable, using fallback reply", "task", task.Normalize())
	return Fallback(task, prompt)
}

func (g *unavailableGateway) CompleteRaw(ctx context.Context, task Task, prompt string) string {
	return g.Complete(ctx, task, prompt)
}

func (g *unavailableGateway) Available() bool {
	return false
}

func (g *unavailableGateway) Status() Status {
	return g.status.snapshot()
}

func (g *unavailableGateway) Model() string {
	return ""
}

// Fallback is the deterministic reply used when no completion could be
// obtained. It names the task and quotes the first words of the prompt.
func Fallback(task Task, prompt string) string {
	task = task.Normalize()

	words := strings.Fields(prompt)
	excerpt := "your message"
	if len(words) > 0 {
		n := min(len(words), fallbackWords)
		excerpt = "\"" + strings.Join(words[:n], " ")
		if len(words) > fallbackWords {
			excerpt += "…"
		}
		excerpt += "\""
	}

	return fmt.Sprintf("Sorry, I couldn't reach my language model to handle your %s about %s. Please try again in a few minutes.",
		task.Label(), excerpt)
}
