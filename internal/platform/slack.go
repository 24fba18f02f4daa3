package platform

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/slack-go/slack"
)

type slackClient struct {
	api *slack.Client
}

// NewSlackClient wraps an authenticated slack-go client.
func NewSlackClient(api *slack.Client) Client {
	return &slackClient{api: api}
}

// NewAPI builds the slack-go client shared by the platform client and the
// socket-mode transport. The app-level token is only needed for socket mode.
func NewAPI(botToken, appToken string, debug bool) (*slack.Client, error) {
	if botToken == "" {
		return nil, ErrNotConfigured
	}
	opts := []slack.Option{slack.OptionDebug(debug)}
	if appToken != "" {
		opts = append(opts, slack.OptionAppLevelToken(appToken))
	}
	return slack.New(botToken, opts...), nil
}

func (c *slackClient) PostMessage(ctx context.Context, channelID string, msg Message) (string, error) {
	_, ts, err := c.api.PostMessageContext(ctx, channelID, msgOptions(msg)...)
	if err != nil {
		return "", fmt.Errorf("posting message: %w", err)
	}
	return ts, nil
}

func (c *slackClient) UpdateMessage(ctx context.Context, channelID, ts string, msg Message) error {
	opts := []slack.MsgOption{slack.MsgOptionText(msg.Text, false)}
	if len(msg.Blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(msg.Blocks...))
	}
	if _, _, _, err := c.api.UpdateMessageContext(ctx, channelID, ts, opts...); err != nil {
		return fmt.Errorf("updating message: %w", err)
	}
	return nil
}

func (c *slackClient) PostEphemeral(ctx context.Context, channelID, userID string, msg Message) error {
	if _, err := c.api.PostEphemeralContext(ctx, channelID, userID, msgOptions(msg)...); err != nil {
		return fmt.Errorf("posting ephemeral message: %w", err)
	}
	return nil
}

func (c *slackClient) ScheduleMessage(ctx context.Context, channelID string, at time.Time, text string) (string, error) {
	postAt := strconv.FormatInt(at.Unix(), 10)
	_, scheduledID, err := c.api.ScheduleMessageContext(ctx, channelID, postAt, slack.MsgOptionText(text, false))
	if err != nil {
		return "", fmt.Errorf("scheduling message: %w", err)
	}
	return scheduledID, nil
}

func (c *slackClient) DeleteScheduledMessage(ctx context.Context, channelID, id string) error {
	_, err := c.api.DeleteScheduledMessageContext(ctx, &slack.DeleteScheduledMessageParameters{
		Channel:            channelID,
		ScheduledMessageID: id,
	})
	if err != nil {
		return fmt.Errorf("deleting scheduled message: %w", err)
	}
	return nil
}

func (c *slackClient) ListScheduledMessages(ctx context.Context, channelID string) ([]ScheduledMessage, error) {
	var (
		out    []ScheduledMessage
		cursor string
	)
	for {
		msgs, next, err := c.api.GetScheduledMessagesContext(ctx, &slack.GetScheduledMessagesParameters{
			Channel: channelID,
			Cursor:  cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("listing scheduled messages: %w", err)
		}
		for _, m := range msgs {
			out = append(out, ScheduledMessage{
				ID:        m.ID,
				ChannelID: m.Channel,
				Text:      m.Text,
				PostAt:    time.Unix(int64(m.PostAt), 0),
			})
		}
		if next == "" {
			return out, nil
		}
		cursor = next
	}
}

// History returns up to limit messages, oldest first.
func (c *slackClient) History(ctx context.Context, channelID string, limit int) ([]HistoryMessage, error) {
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching channel history: %w", err)
	}

	// The API returns newest first.
	out := make([]HistoryMessage, 0, len(resp.Messages))
	for i := len(resp.Messages) - 1; i >= 0; i-- {
		m := resp.Messages[i]
		out = append(out, HistoryMessage{
			UserID: m.User,
			BotID:  m.BotID,
			Text:   m.Text,
			TS:     m.Timestamp,
		})
	}
	return out, nil
}

func (c *slackClient) UserName(ctx context.Context, userID string) (string, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("fetching user info: %w", err)
	}
	switch {
	case user.Profile.DisplayName != "":
		return user.Profile.DisplayName, nil
	case user.RealName != "":
		return user.RealName, nil
	default:
		return user.Name, nil
	}
}

func (c *slackClient) AuthTest(ctx context.Context) (*Identity, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth test: %w", err)
	}
	return &Identity{
		UserID: resp.UserID,
		BotID:  resp.BotID,
		TeamID: resp.TeamID,
		Team:   resp.Team,
	}, nil
}

func msgOptions(msg Message) []slack.MsgOption {
	opts := []slack.MsgOption{slack.MsgOptionText(msg.Text, false)}
	if len(msg.Blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(msg.Blocks...))
	}
	if msg.ThreadTS != "" {
		opts = append(opts, slack.MsgOptionTS(msg.ThreadTS))
	}
	return opts
}
