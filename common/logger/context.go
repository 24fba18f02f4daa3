package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to the context once at the edge (transport, command
// handler, reminder timer) and then appear on every log line below it.
type LogFields struct {
	TeamID     *string
	ChannelID  *string
	UserID     *string
	Command    *string // e.g. "/reminder"
	EventID    *string // Events API event id, or channel:ts
	ReminderID *string
	Transport  string // "socket", "http" or "supervised"
	Component  string // e.g. "slackbot.bot.commands"
}

// WithLogFields merges fields into the ones already on ctx; set values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	return context.WithValue(ctx, logFieldsKey, GetLogFields(ctx).merge(fields))
}

func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func (f LogFields) merge(next LogFields) LogFields {
	f.TeamID = pick(f.TeamID, next.TeamID)
	f.ChannelID = pick(f.ChannelID, next.ChannelID)
	f.UserID = pick(f.UserID, next.UserID)
	f.Command = pick(f.Command, next.Command)
	f.EventID = pick(f.EventID, next.EventID)
	f.ReminderID = pick(f.ReminderID, next.ReminderID)
	if next.Transport != "" {
		f.Transport = next.Transport
	}
	if next.Component != "" {
		f.Component = next.Component
	}
	return f
}

func pick(old, next *string) *string {
	if next != nil {
		return next
	}
	return old
}

func (f LogFields) attrs() []slog.Attr {
	var attrs []slog.Attr
	add := func(key string, v *string) {
		if v != nil {
			attrs = append(attrs, slog.String(key, *v))
		}
	}
	add("team_id", f.TeamID)
	add("channel_id", f.ChannelID)
	add("user_id", f.UserID)
	add("command", f.Command)
	add("event_id", f.EventID)
	add("reminder_id", f.ReminderID)
	if f.Transport != "" {
		attrs = append(attrs, slog.String("transport", f.Transport))
	}
	if f.Component != "" {
		attrs = append(attrs, slog.String("component", f.Component))
	}
	return attrs
}

// Ptr returns a pointer to v, for inline LogFields literals.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate shortens s to at most maxLen runes for logging, marking the cut.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
