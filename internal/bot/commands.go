package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/common/logger"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/service"
)

const (
	DefaultConvoLimit = 50
	MaxConvoLimit     = 100
)

type commandFunc func(ctx context.Context, cmd model.Command) error

func (b *Bot) HandleCommand(ctx context.Context, cmd model.Command) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TeamID:    logger.Ptr(cmd.TeamID),
		ChannelID: logger.Ptr(cmd.ChannelID),
		UserID:    logger.Ptr(cmd.UserID),
		Command:   logger.Ptr(cmd.Name),
		Component: "slackbot.bot.commands",
	})

	sc := logger.StartSpan(ctx, "bot.command", attribute.String("command", cmd.Name))
	defer sc.End()
	ctx = sc.Context()

	slog.InfoContext(ctx, "command received", "text", logger.Truncate(cmd.Text, 200))

	handle, ok := b.commands[cmd.Name]
	if !ok {
		return b.tell(ctx, cmd.ChannelID, cmd.UserID, fmt.Sprintf("Unknown command: %s", cmd.Name))
	}

	cmd.Text = strings.TrimSpace(cmd.Text)
	if err := handle(ctx, cmd); err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "command failed", "error", err)
		if tellErr := b.tell(ctx, cmd.ChannelID, cmd.UserID, "Sorry, something went wrong handling "+cmd.Name+"."); tellErr != nil {
			slog.ErrorContext(ctx, "failed to report command error", "error", tellErr)
		}
		return err
	}
	return nil
}

func commandReply(cmd model.Command) *reply {
	return &reply{channelID: cmd.ChannelID, userID: cmd.UserID}
}

func (b *Bot) handleAudit(ctx context.Context, cmd model.Command) error {
	projectID := firstField(cmd.Text)
	r := commandReply(cmd)

	if projectID == "" {
		b.start(ctx, r, "🔍 Auditing the issue backlog…")
		audit, err := b.audit.AuditIssues(ctx)
		switch {
		case errors.Is(err, service.ErrDatabaseUnavailable):
			return b.finish(ctx, r, plain("The issue database isn't configured right now, so I can't run the backlog audit."))
		case err != nil:
			return b.finish(ctx, r, plain(fmt.Sprintf("I couldn't run the backlog audit: %v", err)))
		case len(audit.Findings) == 0:
			return b.finish(ctx, r, plain("No issues need attention. Every issue has a description and a theme. 🎉"))
		}
		return b.finish(ctx, r, issueAuditMessage(audit))
	}

	b.start(ctx, r, fmt.Sprintf("🔍 Auditing the roadmap for `%s`…", projectID))
	audit, err := b.audit.AuditRoadmap(ctx, projectID)
	if msg, handled := roadmapError(projectID, err); handled {
		return b.finish(ctx, r, plain(msg))
	}
	return b.finish(ctx, r, resultMessage("Roadmap audit: "+audit.Title(), audit.Text, b.footer()))
}

func (b *Bot) handleDraft(ctx context.Context, cmd model.Command) error {
	if cmd.Text == "" {
		return b.tell(ctx, cmd.ChannelID, cmd.UserID, "Usage: /draft <what you need written>, e.g. `/draft a thank-you email to the design team`")
	}

	r := commandReply(cmd)
	b.start(ctx, r, "✍️ Working on your draft…")

	draft := b.gateway.Complete(ctx, llm.TaskDraft, "Write the following: "+cmd.Text)
	return b.finish(ctx, r, resultMessage("Draft", draft, fmt.Sprintf("Requested by <@%s> · %s", cmd.UserID, b.footer())))
}

// handleTask runs two passes: an analysis of the request, then a breakdown
// generated from that analysis.
func (b *Bot) handleTask(ctx context.Context, cmd model.Command) error {
	if cmd.Text == "" {
		return b.tell(ctx, cmd.ChannelID, cmd.UserID, "Usage: /task <description of the work>")
	}

	r := commandReply(cmd)
	b.start(ctx, r, "🧩 Breaking down your task…")

	analysis := b.gateway.Complete(ctx, llm.TaskDefault, fmt.Sprintf(
		"Analyze this piece of work before it is planned. Identify the goal, constraints, unknowns "+
			"and dependencies. Be brief.\n\nWork: %s", cmd.Text))

	breakdown := b.gateway.Complete(ctx, llm.TaskDefault, fmt.Sprintf(
		"Using the analysis below, break the work into a numbered list of concrete tasks. "+
			"Give each task a one-line description and a rough estimate.\n\nWork: %s\n\nAnalysis:\n%s",
		cmd.Text, analysis))

	return b.finish(ctx, r, resultMessage("Task breakdown", breakdown, b.footer()))
}

// ParseConvoLimit reads the /convo argument: missing, non-numeric or
// non-positive values give the default; large values are capped.
func ParseConvoLimit(arg string) int {
	n, err := strconv.Atoi(firstField(arg))
	if err != nil || n <= 0 {
		return DefaultConvoLimit
	}
	if n > MaxConvoLimit {
		return MaxConvoLimit
	}
	return n
}

func (b *Bot) handleConvo(ctx context.Context, cmd model.Command) error {
	limit := ParseConvoLimit(cmd.Text)
	r := commandReply(cmd)
	r.ephemeral = true
	b.start(ctx, r, fmt.Sprintf("📚 Reading the last %d messages…", limit))

	history, err := b.client.History(ctx, cmd.ChannelID, limit)
	if err != nil {
		slog.WarnContext(ctx, "failed to read channel history", "error", err)
		return b.finish(ctx, r, plain(fmt.Sprintf("I couldn't read this channel's history: %v. Make sure I've been added to the channel.", err)))
	}

	names := make(map[string]string)
	var transcript strings.Builder
	count := 0
	for _, m := range history {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&transcript, "%s: %s\n", b.authorName(ctx, m.UserID, m.BotID, names), text)
		count++
	}

	if count == 0 {
		return b.finish(ctx, r, plain("There's nothing to summarize here yet."))
	}

	summary := b.gateway.Complete(ctx, llm.TaskDefault,
		"Summarize this conversation. Use four short sections: Topics, Decisions, Action items "+
			"(with owners when known) and Open questions.\n\n"+transcript.String())

	return b.finish(ctx, r, resultMessage("Conversation summary", summary,
		fmt.Sprintf("Based on the last %d messages · %s", count, b.footer())))
}

// authorName resolves a display name once per request; lookups that fail
// fall back to the raw id.
func (b *Bot) authorName(ctx context.Context, userID, botID string, cache map[string]string) string {
	if userID == "" {
		if botID != "" {
			return "bot"
		}
		return "someone"
	}
	if name, ok := cache[userID]; ok {
		return name
	}
	name, err := b.client.UserName(ctx, userID)
	if err != nil || name == "" {
		name = userID
	}
	cache[userID] = name
	return name
}

func (b *Bot) handleDescribe(ctx context.Context, cmd model.Command) error {
	projectID := firstField(cmd.Text)
	if projectID == "" {
		var projects []model.RoadmapSummary
		if b.roadmaps.Available() {
			projects = b.roadmaps.List(ctx)
		}
		return b.client.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID, overviewMessage(projects))
	}

	r := commandReply(cmd)
	b.start(ctx, r, fmt.Sprintf("📖 Reading up on `%s`…", projectID))
	description, err := b.audit.DescribeRoadmap(ctx, projectID)
	if msg, handled := roadmapError(projectID, err); handled {
		return b.finish(ctx, r, plain(msg))
	}
	return b.finish(ctx, r, resultMessage("About "+description.Title(), description.Text, b.footer()))
}

func (b *Bot) handleReminder(ctx context.Context, cmd model.Command) error {
	sub, rest, _ := strings.Cut(cmd.Text, " ")
	rest = strings.TrimSpace(rest)

	switch {
	case cmd.Text == "":
		return b.tell(ctx, cmd.ChannelID, cmd.UserID,
			"Usage: /reminder <what> <when> | list | delete <id>, e.g. `/reminder submit report tomorrow at 3pm`")

	case strings.EqualFold(sub, "list") && rest == "":
		list, err := b.reminders.List(ctx, cmd.UserID, cmd.ChannelID)
		if err != nil {
			return b.tell(ctx, cmd.ChannelID, cmd.UserID, fmt.Sprintf("I couldn't load your reminders: %v", err))
		}
		if len(list) == 0 {
			return b.tell(ctx, cmd.ChannelID, cmd.UserID, "You have no pending reminders.")
		}
		return b.client.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID, reminderList(list))

	case strings.EqualFold(sub, "delete"):
		reminderID := firstField(rest)
		if reminderID == "" {
			return b.tell(ctx, cmd.ChannelID, cmd.UserID, "Usage: /reminder delete <id>. Use `/reminder list` to see ids.")
		}
		return b.deleteReminder(ctx, cmd.UserID, cmd.ChannelID, reminderID)
	}

	result, err := b.reminders.Create(ctx, cmd.UserID, cmd.ChannelID, cmd.Text)
	switch {
	case errors.Is(err, service.ErrReminderInPast):
		return b.tell(ctx, cmd.ChannelID, cmd.UserID, "That time is in the past. Please pick a time in the future.")
	case err != nil:
		slog.WarnContext(ctx, "failed to schedule reminder", "error", err)
		return b.tell(ctx, cmd.ChannelID, cmd.UserID, fmt.Sprintf("I couldn't schedule that reminder: %v", err))
	case result.Reminder == nil:
		return b.tell(ctx, cmd.ChannelID, cmd.UserID,
			"I couldn't find a time in your request, so nothing was scheduled.\n\n"+result.Advice)
	}

	slog.InfoContext(logger.WithLogFields(ctx, logger.LogFields{ReminderID: logger.Ptr(result.Reminder.ID)}),
		"reminder created", "reminder_time", result.Reminder.ReminderTime)
	return b.client.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID, reminderConfirmation(result.Reminder))
}

// deleteReminder is shared by "/reminder delete" and the delete button.
func (b *Bot) deleteReminder(ctx context.Context, userID, channelID, reminderID string) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{ReminderID: logger.Ptr(reminderID)})
	if err := b.reminders.Delete(ctx, userID, channelID, reminderID); err != nil {
		slog.InfoContext(ctx, "reminder delete refused", "error", err)
		return b.tell(ctx, channelID, userID, fmt.Sprintf("Couldn't delete reminder `%s`: %v", reminderID, err))
	}
	return b.tell(ctx, channelID, userID, fmt.Sprintf("🗑️ Reminder `%s` deleted.", reminderID))
}

// roadmapError maps roadmap lookups to user-facing text.
func roadmapError(projectID string, err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, service.ErrRoadmapNotFound):
		return fmt.Sprintf("No roadmap data found for project `%s`.", projectID), true
	case errors.Is(err, service.ErrDatabaseUnavailable):
		return "The roadmap database isn't configured right now, so I can't look up projects.", true
	default:
		return fmt.Sprintf("I couldn't load the roadmap for `%s`: %v", projectID, err), true
	}
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
