package model

import "time"

type ReminderStatus string

const (
	ReminderStatusScheduled ReminderStatus = "scheduled"
	ReminderStatusFired     ReminderStatus = "fired"
	ReminderStatusDeleted   ReminderStatus = "deleted"
)

// Reminder is a one-shot message to be posted back to ChannelID at
// ReminderTime, tagging UserID. ID is a snowflake for the timer backend and
// the platform's scheduled message id for the platform backend.
type Reminder struct {
	ID           string
	UserID       string
	ChannelID    string
	Content      string
	ReminderTime time.Time
	Status       ReminderStatus
	Completed    bool
	CreatedAt    time.Time
}

// DisplayTimeLayout renders reminder times the way confirmations show them.
const DisplayTimeLayout = "Monday, January 2, 2006 at 3:04 PM"

func (r Reminder) DisplayTime() string {
	return r.ReminderTime.Format(DisplayTimeLayout)
}
