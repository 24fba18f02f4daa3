package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/common/logger"
)

// ErrNoTimeFound means the model's answer carried no usable time.
var ErrNoTimeFound = errors.New("no time found in reminder request")

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*?\}`)

// reminderTimeLayouts are tried in order; zone-less layouts are read in the
// bot's location.
var reminderTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 3:04 PM",
	"2006-01-02 3:04PM",
	"2006-01-02 3PM",
	"January 2, 2006 at 3:04 PM",
	"January 2, 2006 3:04 PM",
}

type reminderExtraction struct {
	Time string `json:"time" jsonschema:"description=Absolute local date and time of the reminder formatted as YYYY-MM-DD HH:MM (24-hour)"`
	Text string `json:"text" jsonschema:"description=What to remind the user about with all time expressions removed"`
}

// ParsedReminder is a reminder request with its time resolved.
type ParsedReminder struct {
	Time time.Time
	Text string
}

// TimeParser delegates natural-language time extraction to the language
// model and validates what comes back.
type TimeParser struct {
	gateway  llm.Gateway
	location *time.Location
	now      func() time.Time
}

func NewTimeParser(gateway llm.Gateway, location *time.Location, now func() time.Time) *TimeParser {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &TimeParser{gateway: gateway, location: location, now: now}
}

// Parse asks the model for {time, text} and resolves the time. A time that is
// already past is moved forward by one day, so "at 9am" said at 10am means
// tomorrow.
func (p *TimeParser) Parse(ctx context.Context, input string) (ParsedReminder, error) {
	now := p.now().In(p.location)
	prompt := fmt.Sprintf(
		"Current date and time: %s (%s, timezone %s).\n"+
			"Extract the reminder time and the reminder text from the request below.\n"+
			"Answer with one JSON object matching this schema and nothing else:\n%s\n\n"+
			"Request: %s",
		now.Format("2006-01-02 15:04"), now.Weekday(), p.location, llm.SchemaFor[reminderExtraction](), input,
	)

	reply := p.gateway.CompleteRaw(ctx, llm.TaskReminder, prompt)

	raw := jsonObjectPattern.FindString(reply)
	if raw == "" {
		slog.InfoContext(ctx, "no JSON object in reminder extraction", "reply_preview", logger.Truncate(reply, 120))
		return ParsedReminder{}, ErrNoTimeFound
	}

	var extracted reminderExtraction
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil {
		slog.InfoContext(ctx, "malformed reminder extraction", "error", err)
		return ParsedReminder{}, ErrNoTimeFound
	}

	t, err := p.parseTime(extracted.Time)
	if err != nil {
		slog.InfoContext(ctx, "unparseable reminder time", "error", err, "time", extracted.Time)
		return ParsedReminder{}, ErrNoTimeFound
	}

	if t.Before(now) {
		t = t.Add(24 * time.Hour)
	}

	text := strings.TrimSpace(extracted.Text)
	if text == "" {
		text = strings.TrimSpace(input)
	}

	return ParsedReminder{Time: t, Text: text}, nil
}

// Advice asks the model for a qualitative estimate of when the task should
// happen. Used when no time could be extracted.
func (p *TimeParser) Advice(ctx context.Context, input string) string {
	prompt := fmt.Sprintf(
		"I couldn't find a specific time in this reminder request: %q\n"+
			"Suggest, in two or three sentences, when the user should plan to do it and how long it might take. "+
			"End by showing how to ask again with an explicit time, for example \"/reminder %s tomorrow at 3pm\".",
		input, strings.TrimSpace(input),
	)
	return p.gateway.Complete(ctx, llm.TaskReminder, prompt)
}

func (p *TimeParser) parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty time")
	}
	for _, layout := range reminderTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, p.location); err == nil {
			return t.In(p.location), nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matches %q", value)
}
