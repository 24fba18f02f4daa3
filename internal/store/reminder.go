package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Zay2006/Slacking-Capstone/common/id"
	"github.com/Zay2006/Slacking-Capstone/core/db"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
)

const reminderColumns = `id, user_id, channel_id, content, reminder_time, status, completed, created_at`

const (
	createReminderSQL = `
INSERT INTO reminders (id, user_id, channel_id, content, reminder_time, status, completed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, false, now(), now())
RETURNING created_at`

	getReminderSQL = `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`

	listScheduledSQL = `
SELECT ` + reminderColumns + `
FROM reminders
WHERE status = 'scheduled'
ORDER BY reminder_time`

	listScheduledByUserSQL = `
SELECT ` + reminderColumns + `
FROM reminders
WHERE status = 'scheduled' AND user_id = $1
ORDER BY reminder_time`

	listDueSQL = `
SELECT ` + reminderColumns + `
FROM reminders
WHERE status = 'scheduled' AND reminder_time <= $1
ORDER BY reminder_time`

	transitionReminderSQL = `
UPDATE reminders
SET status = $2, completed = ($2 = 'fired'), updated_at = now()
WHERE id = $1 AND status = 'scheduled'`
)

type reminderStore struct {
	conn db.DBTX
}

func newReminderStore(conn db.DBTX) ReminderStore {
	return &reminderStore{conn: conn}
}

func (s *reminderStore) Create(ctx context.Context, r *model.Reminder) error {
	reminderID, err := id.Parse(r.ID)
	if err != nil {
		return err
	}
	if r.Status == "" {
		r.Status = model.ReminderStatusScheduled
	}
	return s.conn.QueryRow(ctx, createReminderSQL,
		reminderID, r.UserID, r.ChannelID, r.Content, r.ReminderTime, string(r.Status),
	).Scan(&r.CreatedAt)
}

func (s *reminderStore) Get(ctx context.Context, reminderID int64) (*model.Reminder, error) {
	rows, err := s.conn.Query(ctx, getReminderSQL, reminderID)
	if err != nil {
		return nil, err
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanReminder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *reminderStore) ListScheduled(ctx context.Context) ([]model.Reminder, error) {
	return s.list(ctx, listScheduledSQL)
}

func (s *reminderStore) ListScheduledByUser(ctx context.Context, userID string) ([]model.Reminder, error) {
	return s.list(ctx, listScheduledByUserSQL, userID)
}

func (s *reminderStore) ListDue(ctx context.Context, before time.Time) ([]model.Reminder, error) {
	return s.list(ctx, listDueSQL, before)
}

func (s *reminderStore) Transition(ctx context.Context, reminderID int64, status model.ReminderStatus) (bool, error) {
	tag, err := s.conn.Exec(ctx, transitionReminderSQL, reminderID, string(status))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *reminderStore) list(ctx context.Context, query string, args ...any) ([]model.Reminder, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanReminder)
}

func scanReminder(row pgx.CollectableRow) (model.Reminder, error) {
	var (
		r          model.Reminder
		reminderID int64
		status     string
	)
	err := row.Scan(&reminderID, &r.UserID, &r.ChannelID, &r.Content, &r.ReminderTime, &status, &r.Completed, &r.CreatedAt)
	r.ID = id.Format(reminderID)
	r.Status = model.ReminderStatus(status)
	return r, err
}
