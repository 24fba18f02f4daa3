package model

// Command is a slash command invocation, independent of the transport that
// delivered it.
type Command struct {
	Name        string // including the leading slash, e.g. "/draft"
	Text        string
	UserID      string
	UserName    string
	ChannelID   string
	TeamID      string
	ResponseURL string
	TriggerID   string
}

type MessageKind string

const (
	MessageKindDirect  MessageKind = "direct"
	MessageKindMention MessageKind = "mention"
	MessageKindChannel MessageKind = "channel"
)

// Message is a free-text message addressed to the bot.
type Message struct {
	EventID   string
	Kind      MessageKind
	Text      string
	UserID    string
	BotID     string
	SubType   string
	ChannelID string
	TeamID    string
	TS        string
	ThreadTS  string
}

// DedupeKey identifies the inbound event for in-flight de-duplication.
func (m Message) DedupeKey() string {
	if m.EventID != "" {
		return m.EventID
	}
	return m.ChannelID + ":" + m.TS
}

const (
	ActionTryBot         = "try_bot"
	ActionHelp           = "help_button"
	ActionDeleteReminder = "delete_reminder"
)

// Action is an interactive component callback (button click).
type Action struct {
	ActionID    string
	Value       string
	UserID      string
	ChannelID   string
	TeamID      string
	MessageTS   string
	ResponseURL string
}
