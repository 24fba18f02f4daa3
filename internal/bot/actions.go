package bot

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zay2006/Slacking-Capstone/common/logger"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/platform"
	"github.com/Zay2006/Slacking-Capstone/internal/service"
)

func (b *Bot) HandleAction(ctx context.Context, action model.Action) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TeamID:    logger.Ptr(action.TeamID),
		ChannelID: logger.Ptr(action.ChannelID),
		UserID:    logger.Ptr(action.UserID),
		Component: "slackbot.bot.actions",
	})

	sc := logger.StartSpan(ctx, "bot.action", attribute.String("action_id", action.ActionID))
	defer sc.End()
	ctx = sc.Context()

	var err error
	switch action.ActionID {
	case model.ActionTryBot:
		msg := gettingStartedMessage(action.UserID)
		if _, err = b.client.PostMessage(ctx, action.ChannelID, msg); err != nil {
			err = b.client.PostEphemeral(ctx, action.ChannelID, action.UserID, msg)
		}
	case model.ActionHelp:
		err = b.client.PostEphemeral(ctx, action.ChannelID, action.UserID, platform.Message{Text: service.Capabilities})
	case model.ActionDeleteReminder:
		err = b.deleteReminder(ctx, action.UserID, action.ChannelID, action.Value)
	default:
		slog.WarnContext(ctx, "unknown action", "action_id", action.ActionID)
		return nil
	}

	if err != nil {
		sc.RecordError(err)
		return fmt.Errorf("handling action %s: %w", action.ActionID, err)
	}
	return nil
}
