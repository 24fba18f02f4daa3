package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/Zay2006/Slacking-Capstone/internal/http/middleware"
	"github.com/Zay2006/Slacking-Capstone/internal/transport"
)

// CommandAck is the immediate ephemeral reply to a slash command; the real
// answer follows asynchronously.
const CommandAck = "⏳ Working on it…"

// SlackHandler is the HTTP front door for Events API callbacks, slash
// commands and interactive components. Every route answers within Slack's
// three second window and hands the work to the dispatcher.
type SlackHandler struct {
	dispatcher *transport.Dispatcher
}

func NewSlackHandler(dispatcher *transport.Dispatcher) *SlackHandler {
	return &SlackHandler{dispatcher: dispatcher}
}

func (h *SlackHandler) Events(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var envelope struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if envelope.Type == slackevents.URLVerification {
		c.String(http.StatusOK, envelope.Challenge)
		return
	}

	// Slack retries when it did not see a timely 200. The first delivery is
	// already being worked on.
	if retry := c.GetHeader(middleware.SlackRetryHeader); retry != "" {
		slog.InfoContext(ctx, "acknowledging slack retry without reprocessing",
			"retry_num", retry, "reason", c.GetHeader("X-Slack-Retry-Reason"))
		c.Status(http.StatusOK)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		slog.WarnContext(ctx, "failed to parse slack event", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
		return
	}

	if !h.dispatcher.Event(ctx, event) {
		slog.DebugContext(ctx, "ignoring unhandled slack event", "type", event.InnerEvent.Type)
	}
	c.Status(http.StatusOK)
}

func (h *SlackHandler) Commands(c *gin.Context) {
	cmd, err := slack.SlashCommandParse(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slash command"})
		return
	}

	h.dispatcher.Command(c.Request.Context(), cmd)
	c.JSON(http.StatusOK, gin.H{
		"response_type": "ephemeral",
		"text":          CommandAck,
	})
}

func (h *SlackHandler) Interactive(c *gin.Context) {
	payload := c.PostForm("payload")
	if payload == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing payload"})
		return
	}

	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &cb); err != nil {
		slog.WarnContext(c.Request.Context(), "failed to parse interaction payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	h.dispatcher.Interaction(c.Request.Context(), cb)
	c.Status(http.StatusOK)
}
