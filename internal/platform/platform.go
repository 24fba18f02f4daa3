// Package platform is the bot's view of the chat platform: the handful of
// Web API calls the handlers make, behind an interface so they can be faked.
package platform

import (
	"context"
	"errors"
	"time"

	"github.com/slack-go/slack"
)

var ErrNotConfigured = errors.New("chat platform client not configured")

// Message is an outgoing message. Text doubles as the notification fallback
// when Blocks are set.
type Message struct {
	Text     string
	Blocks   []slack.Block
	ThreadTS string
}

// ScheduledMessage is a message queued on the platform for later delivery.
type ScheduledMessage struct {
	ID        string
	ChannelID string
	Text      string
	PostAt    time.Time
}

// HistoryMessage is one entry of a channel's history.
type HistoryMessage struct {
	UserID string
	BotID  string
	Text   string
	TS     string
}

// Identity is the authenticated bot.
type Identity struct {
	UserID string
	BotID  string
	TeamID string
	Team   string
}

// Client is the subset of the platform Web API the bot uses.
type Client interface {
	PostMessage(ctx context.Context, channelID string, msg Message) (string, error)
	UpdateMessage(ctx context.Context, channelID, ts string, msg Message) error
	PostEphemeral(ctx context.Context, channelID, userID string, msg Message) error
	ScheduleMessage(ctx context.Context, channelID string, at time.Time, text string) (string, error)
	DeleteScheduledMessage(ctx context.Context, channelID, id string) error
	ListScheduledMessages(ctx context.Context, channelID string) ([]ScheduledMessage, error)
	History(ctx context.Context, channelID string, limit int) ([]HistoryMessage, error)
	UserName(ctx context.Context, userID string) (string, error)
	AuthTest(ctx context.Context) (*Identity, error)
}
