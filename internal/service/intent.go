package service

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

// Capabilities is the fixed answer to "what do you do".
const Capabilities = "Here's what I can do:\n" +
	"• /audit <project-id> reviews a project roadmap for gaps and risks (no id audits the issue backlog)\n" +
	"• /draft <request> writes emails, announcements and letters\n" +
	"• /task <description> breaks work down into concrete tasks\n" +
	"• /convo [limit] summarizes the recent conversation in this channel\n" +
	"• /describe [project-id] explains a project, or shows this overview\n" +
	"• /reminder <what> <when> schedules a reminder (also: list, delete <id>)\n" +
	"• Mention me or send me a direct message to ask anything"

var limitationReplies = []string{
	"I can't make coffee, attend your meetings, or pretend that deadline was realistic.",
	"Things I can't do: read minds, fix your Wi-Fi, or make Monday shorter.",
	"I can't approve your PTO. Believe me, I've asked.",
	"I don't do interpretive dance. Roadmaps, drafts and reminders are more my speed.",
	"I can't remember your last conversation with me. Each message is a fresh start, like a goldfish with a keyboard.",
	"I can't browse the internet, so if it happened after my training, I'll nod politely.",
	"I can't move meetings out of your calendar. I can remind you to, though.",
	"I can't take credit for your work. You're welcome to take credit for mine.",
	"I can't guarantee I'm right about everything. Trust, but verify.",
}

// IntentRule answers a recognizable question without calling the model.
type IntentRule struct {
	Name    string
	Pattern *regexp.Regexp
	Respond func() string
}

// IntentClassifier checks rules in order; the first match wins.
type IntentClassifier struct {
	rules []IntentRule
}

// NewIntentClassifier builds the default rule chain. pick chooses an index in
// [0, n); nil uses math/rand.
func NewIntentClassifier(pick func(n int) int) *IntentClassifier {
	if pick == nil {
		pick = rand.IntN
	}
	return &IntentClassifier{
		rules: []IntentRule{
			{
				Name:    "limitations",
				Pattern: regexp.MustCompile(`(?i)\bwhat\s+(can[’']?t|cannot|can\s+not)\s+you\s+do\b|\bwhat\s+are\s+your\s+limitations\b`),
				Respond: func() string { return limitationReplies[pick(len(limitationReplies))] },
			},
			{
				Name:    "purpose",
				Pattern: regexp.MustCompile(`(?i)\bwhat\s+(do\s+you\s+do|is\s+your\s+purpose|can\s+you\s+do)\b`),
				Respond: func() string { return Capabilities },
			},
		},
	}
}

// Match returns the canned reply of the first matching rule.
func (c *IntentClassifier) Match(text string) (rule string, reply string, ok bool) {
	text = strings.TrimSpace(text)
	for _, r := range c.rules {
		if r.Pattern.MatchString(text) {
			return r.Name, r.Respond(), true
		}
	}
	return "", "", false
}

// LimitationReplies exposes the canned limitation answers.
func LimitationReplies() []string {
	return append([]string(nil), limitationReplies...)
}
