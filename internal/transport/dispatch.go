// Package transport adapts native platform payloads to the bot's model types
// and dispatches them asynchronously, so every front door acknowledges first
// and works afterwards.
package transport

import (
	"context"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/Zay2006/Slacking-Capstone/common/logger"
	"github.com/Zay2006/Slacking-Capstone/internal/bot"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
)

// CommandFromSlash converts a slash command payload.
func CommandFromSlash(cmd slack.SlashCommand) model.Command {
	return model.Command{
		Name:        cmd.Command,
		Text:        cmd.Text,
		UserID:      cmd.UserID,
		UserName:    cmd.UserName,
		ChannelID:   cmd.ChannelID,
		TeamID:      cmd.TeamID,
		ResponseURL: cmd.ResponseURL,
		TriggerID:   cmd.TriggerID,
	}
}

// MessageFromEvent converts message and app_mention callbacks. Other events
// report false.
func MessageFromEvent(event slackevents.EventsAPIEvent) (model.Message, bool) {
	if event.Type != slackevents.CallbackEvent {
		return model.Message{}, false
	}

	var eventID string
	if cb, ok := event.Data.(*slackevents.EventsAPICallbackEvent); ok {
		eventID = cb.EventID
	}

	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		kind := model.MessageKindChannel
		if ev.ChannelType == "im" {
			kind = model.MessageKindDirect
		}
		return model.Message{
			EventID:   eventID,
			Kind:      kind,
			Text:      ev.Text,
			UserID:    ev.User,
			BotID:     ev.BotID,
			SubType:   ev.SubType,
			ChannelID: ev.Channel,
			TeamID:    event.TeamID,
			TS:        ev.TimeStamp,
			ThreadTS:  ev.ThreadTimeStamp,
		}, true

	case *slackevents.AppMentionEvent:
		return model.Message{
			EventID:   eventID,
			Kind:      model.MessageKindMention,
			Text:      ev.Text,
			UserID:    ev.User,
			BotID:     ev.BotID,
			ChannelID: ev.Channel,
			TeamID:    event.TeamID,
			TS:        ev.TimeStamp,
			ThreadTS:  ev.ThreadTimeStamp,
		}, true
	}

	return model.Message{}, false
}

// ActionsFromCallback converts the block actions of an interaction.
func ActionsFromCallback(cb slack.InteractionCallback) []model.Action {
	if cb.Type != slack.InteractionTypeBlockActions {
		return nil
	}
	actions := make([]model.Action, 0, len(cb.ActionCallback.BlockActions))
	for _, a := range cb.ActionCallback.BlockActions {
		actions = append(actions, model.Action{
			ActionID:    a.ActionID,
			Value:       a.Value,
			UserID:      cb.User.ID,
			ChannelID:   cb.Channel.ID,
			TeamID:      cb.Team.ID,
			MessageTS:   cb.Message.Timestamp,
			ResponseURL: cb.ResponseURL,
		})
	}
	return actions
}

// Dispatcher hands converted payloads to the bot on their own goroutines.
type Dispatcher struct {
	handler   bot.Handler
	transport string
}

func NewDispatcher(handler bot.Handler, transport string) *Dispatcher {
	return &Dispatcher{handler: handler, transport: transport}
}

func (d *Dispatcher) context(ctx context.Context) context.Context {
	return logger.WithLogFields(ctx, logger.LogFields{Transport: d.transport})
}

func (d *Dispatcher) Command(ctx context.Context, cmd slack.SlashCommand) {
	c := CommandFromSlash(cmd)
	bot.Go(d.context(ctx), "command "+c.Name, func(ctx context.Context) error {
		return d.handler.HandleCommand(ctx, c)
	})
}

// Event dispatches an Events API callback. It reports false for events the
// bot does not handle.
func (d *Dispatcher) Event(ctx context.Context, event slackevents.EventsAPIEvent) bool {
	msg, ok := MessageFromEvent(event)
	if !ok {
		return false
	}
	bot.Go(d.context(ctx), "message", func(ctx context.Context) error {
		return d.handler.HandleMessage(ctx, msg)
	})
	return true
}

func (d *Dispatcher) Interaction(ctx context.Context, cb slack.InteractionCallback) {
	for _, a := range ActionsFromCallback(cb) {
		bot.Go(d.context(ctx), "action "+a.ActionID, func(ctx context.Context) error {
			return d.handler.HandleAction(ctx, a)
		})
	}
}
