package bot

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/common/logger"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/platform"
)

var mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+(\|[^>]*)?>`)

const thinkingText = "🤔 Thinking…"

// HandleMessage answers direct messages and mentions. Plain channel chatter,
// the bot's own posts and edits/joins (any subtype) are ignored.
func (b *Bot) HandleMessage(ctx context.Context, msg model.Message) error {
	if b.ignore(msg) {
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TeamID:    logger.Ptr(msg.TeamID),
		ChannelID: logger.Ptr(msg.ChannelID),
		UserID:    logger.Ptr(msg.UserID),
		EventID:   logger.Ptr(msg.DedupeKey()),
		Component: "slackbot.bot.messages",
	})

	key := msg.DedupeKey()
	if !b.inflight.Acquire(ctx, key) {
		slog.InfoContext(ctx, "duplicate event skipped")
		return nil
	}
	defer b.inflight.Release(ctx, key)

	sc := logger.StartSpan(ctx, "bot.message", attribute.String("kind", string(msg.Kind)))
	defer sc.End()
	ctx = sc.Context()

	text := StripMentions(msg.Text)
	r := &reply{channelID: msg.ChannelID}
	task := llm.TaskDirect
	if msg.Kind == model.MessageKindMention {
		task = llm.TaskMention
		r.threadTS = msg.ThreadTS
		if r.threadTS == "" {
			r.threadTS = msg.TS
		}
	}

	if rule, answer, ok := b.intents.Match(text); ok {
		slog.InfoContext(ctx, "intent matched", "rule", rule)
		_, err := b.client.PostMessage(ctx, r.channelID, platform.Message{Text: answer, ThreadTS: r.threadTS})
		if err != nil {
			sc.RecordError(err)
		}
		return err
	}

	if text == "" {
		text = "Hi!"
	}

	b.start(ctx, r, thinkingText)
	answer := b.gateway.Complete(ctx, task, text)
	if err := b.finish(ctx, r, platform.Message{Text: answer}); err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "failed to deliver answer", "error", err)
		return err
	}
	return nil
}

func (b *Bot) ignore(msg model.Message) bool {
	switch {
	case msg.Kind == model.MessageKindChannel:
		return true
	case msg.BotID != "" || msg.SubType != "":
		return true
	case b.botUserID != "" && msg.UserID == b.botUserID:
		return true
	case strings.TrimSpace(msg.Text) == "":
		return true
	}
	return false
}

// StripMentions removes user mentions such as <@U123> or <@U123|name>.
func StripMentions(text string) string {
	return strings.Join(strings.Fields(mentionPattern.ReplaceAllString(text, " ")), " ")
}
