package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Zay2006/Slacking-Capstone/internal/model"
)

// Unavailable returns stores that fail every call with ErrUnavailable. It
// stands in for a database that is not configured, so callers check
// Available() or errors.Is(err, ErrUnavailable) instead of nil pointers.
func Unavailable() *Stores {
	return &Stores{}
}

type unavailableRoadmaps struct{}

func (unavailableRoadmaps) Get(context.Context, string) (*model.Roadmap, error) {
	return nil, ErrUnavailable
}

func (unavailableRoadmaps) List(context.Context) ([]model.RoadmapSummary, error) {
	return nil, ErrUnavailable
}

func (unavailableRoadmaps) Exists(context.Context, string) (bool, error) {
	return false, ErrUnavailable
}

func (unavailableRoadmaps) Insert(context.Context, string, json.RawMessage) (*model.Roadmap, error) {
	return nil, ErrUnavailable
}

func (unavailableRoadmaps) Update(context.Context, string, json.RawMessage) (*model.Roadmap, error) {
	return nil, ErrUnavailable
}

type unavailableReminders struct{}

func (unavailableReminders) Create(context.Context, *model.Reminder) error {
	return ErrUnavailable
}

func (unavailableReminders) Get(context.Context, int64) (*model.Reminder, error) {
	return nil, ErrUnavailable
}

func (unavailableReminders) ListScheduled(context.Context) ([]model.Reminder, error) {
	return nil, ErrUnavailable
}

func (unavailableReminders) ListScheduledByUser(context.Context, string) ([]model.Reminder, error) {
	return nil, ErrUnavailable
}

func (unavailableReminders) ListDue(context.Context, time.Time) ([]model.Reminder, error) {
	return nil, ErrUnavailable
}

func (unavailableReminders) Transition(context.Context, int64, model.ReminderStatus) (bool, error) {
	return false, ErrUnavailable
}

type unavailableIssueAudit struct{}

func (unavailableIssueAudit) FindIncomplete(context.Context, int) ([]model.IssueFinding, error) {
	return nil, ErrUnavailable
}
