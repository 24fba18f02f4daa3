package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Zay2006/Slacking-Capstone/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUnavailable is returned by every store when no database is configured
// or it could not be reached at startup.
var ErrUnavailable = errors.New("database unavailable")

// RoadmapStore defines the contract for roadmap data access
type RoadmapStore interface {
	Get(ctx context.Context, projectID string) (*model.Roadmap, error)
	List(ctx context.Context) ([]model.RoadmapSummary, error)
	Exists(ctx context.Context, projectID string) (bool, error)
	Insert(ctx context.Context, projectID string, data json.RawMessage) (*model.Roadmap, error)
	Update(ctx context.Context, projectID string, data json.RawMessage) (*model.Roadmap, error)
}

// ReminderStore defines the contract for reminder persistence
type ReminderStore interface {
	Create(ctx context.Context, r *model.Reminder) error
	Get(ctx context.Context, id int64) (*model.Reminder, error)
	ListScheduled(ctx context.Context) ([]model.Reminder, error)
	ListScheduledByUser(ctx context.Context, userID string) ([]model.Reminder, error)
	ListDue(ctx context.Context, before time.Time) ([]model.Reminder, error)
	// Transition moves a scheduled reminder to status. It reports false when
	// the reminder is missing or no longer scheduled.
	Transition(ctx context.Context, id int64, status model.ReminderStatus) (bool, error)
}

// IssueAuditStore reads the issue-tracking schema (issues, pillars, themes,
// workspaces). It never writes.
type IssueAuditStore interface {
	FindIncomplete(ctx context.Context, limit int) ([]model.IssueFinding, error)
}
