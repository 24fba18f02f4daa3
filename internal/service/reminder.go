package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Zay2006/Slacking-Capstone/common/id"
	"github.com/Zay2006/Slacking-Capstone/common/logger"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/platform"
	"github.com/Zay2006/Slacking-Capstone/internal/store"
)

var (
	ErrReminderInPast   = errors.New("reminder time is in the past")
	ErrReminderNotFound = errors.New("reminder not found or already handled")
)

// Scheduler arms and cancels reminders on one backend.
type Scheduler interface {
	Schedule(ctx context.Context, r model.Reminder) (*model.Reminder, error)
	Cancel(ctx context.Context, userID, channelID, reminderID string) error
	List(ctx context.Context, userID, channelID string) ([]model.Reminder, error)
}

// ReminderText is what gets posted when a reminder fires.
func ReminderText(r model.Reminder) string {
	return fmt.Sprintf("<@%s> Reminder: %s", r.UserID, r.Content)
}

// TimerScheduler fires reminders from in-process timers. With a reminder
// store the schedule is persisted, so Restore can re-arm it after a restart
// and Sweep can deliver anything a dead process missed. Without one it keeps
// reminders in memory only.
type TimerScheduler struct {
	client    platform.Client
	reminders store.ReminderStore
	now       func() time.Time

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]model.Reminder
}

// NewTimerScheduler builds a timer scheduler. reminders may be nil.
func NewTimerScheduler(client platform.Client, reminders store.ReminderStore, now func() time.Time) *TimerScheduler {
	if now == nil {
		now = time.Now
	}
	return &TimerScheduler{
		client:    client,
		reminders: reminders,
		now:       now,
		timers:    make(map[string]*time.Timer),
		pending:   make(map[string]model.Reminder),
	}
}

func (s *TimerScheduler) durable() bool {
	return s.reminders != nil
}

func (s *TimerScheduler) Schedule(ctx context.Context, r model.Reminder) (*model.Reminder, error) {
	if r.ReminderTime.Before(s.now()) {
		return nil, ErrReminderInPast
	}

	r.ID = id.Format(id.New())
	r.Status = model.ReminderStatusScheduled
	r.CreatedAt = s.now()

	if s.durable() {
		if err := s.reminders.Create(ctx, &r); err != nil {
			return nil, fmt.Errorf("saving reminder: %w", err)
		}
	}

	s.arm(r)

	slog.InfoContext(logger.WithLogFields(ctx, logger.LogFields{ReminderID: logger.Ptr(r.ID)}),
		"reminder scheduled",
		"reminder_time", r.ReminderTime,
		"durable", s.durable())

	return &r, nil
}

func (s *TimerScheduler) Cancel(ctx context.Context, userID, _ string, reminderID string) error {
	s.mu.Lock()
	r, tracked := s.pending[reminderID]
	s.mu.Unlock()

	if s.durable() {
		numericID, err := id.Parse(reminderID)
		if err != nil {
			return ErrReminderNotFound
		}
		stored, err := s.reminders.Get(ctx, numericID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrReminderNotFound
			}
			return fmt.Errorf("loading reminder: %w", err)
		}
		if stored.UserID != userID {
			return ErrReminderNotFound
		}
		changed, err := s.reminders.Transition(ctx, numericID, model.ReminderStatusDeleted)
		if err != nil {
			return fmt.Errorf("deleting reminder: %w", err)
		}
		if !changed {
			return ErrReminderNotFound
		}
	} else if !tracked || r.UserID != userID {
		return ErrReminderNotFound
	}

	s.disarm(reminderID)

	slog.InfoContext(logger.WithLogFields(ctx, logger.LogFields{ReminderID: logger.Ptr(reminderID)}),
		"reminder deleted")
	return nil
}

func (s *TimerScheduler) List(ctx context.Context, userID, _ string) ([]model.Reminder, error) {
	if s.durable() {
		list, err := s.reminders.ListScheduledByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("listing reminders: %w", err)
		}
		return list, nil
	}

	s.mu.Lock()
	var list []model.Reminder
	for _, r := range s.pending {
		if r.UserID == userID {
			list = append(list, r)
		}
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].ReminderTime.Before(list[j].ReminderTime)
	})
	return list, nil
}

// Restore re-arms every scheduled reminder in the store. Reminders already
// due fire immediately.
func (s *TimerScheduler) Restore(ctx context.Context) (int, error) {
	if !s.durable() {
		return 0, nil
	}
	list, err := s.reminders.ListScheduled(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading scheduled reminders: %w", err)
	}
	for _, r := range list {
		s.arm(r)
	}
	if len(list) > 0 {
		slog.InfoContext(ctx, "reminders restored", "count", len(list))
	}
	return len(list), nil
}

// Sweep fires every reminder whose time has passed. Each reminder is
// delivered at most once even when a timer fires concurrently.
func (s *TimerScheduler) Sweep(ctx context.Context) int {
	now := s.now()

	var due []model.Reminder
	if s.durable() {
		list, err := s.reminders.ListDue(ctx, now)
		if err != nil {
			slog.ErrorContext(ctx, "failed to list due reminders", "error", err)
			return 0
		}
		due = list
	} else {
		s.mu.Lock()
		for _, r := range s.pending {
			if !r.ReminderTime.After(now) {
				due = append(due, r)
			}
		}
		s.mu.Unlock()
	}

	fired := 0
	for _, r := range due {
		if s.fire(ctx, r) {
			fired++
		}
	}
	return fired
}

// Stop disarms all timers. Persisted reminders stay scheduled.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for reminderID, t := range s.timers {
		t.Stop()
		delete(s.timers, reminderID)
	}
}

func (s *TimerScheduler) arm(r model.Reminder) {
	delay := r.ReminderTime.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[r.ID]; ok {
		t.Stop()
	}
	s.pending[r.ID] = r
	s.timers[r.ID] = time.AfterFunc(delay, func() {
		s.fire(context.Background(), r)
	})
}

// disarm stops the reminder's timer and reports whether it was still
// pending. Only one caller ever sees true for a given arming.
func (s *TimerScheduler) disarm(reminderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[reminderID]; ok {
		t.Stop()
		delete(s.timers, reminderID)
	}
	_, tracked := s.pending[reminderID]
	delete(s.pending, reminderID)
	return tracked
}

// fire claims the reminder and posts it. The store transition is the claim
// for durable reminders; removal from the pending map is the claim otherwise.
func (s *TimerScheduler) fire(ctx context.Context, r model.Reminder) bool {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ReminderID: logger.Ptr(r.ID),
		UserID:     logger.Ptr(r.UserID),
		ChannelID:  logger.Ptr(r.ChannelID),
		Component:  "slackbot.reminders",
	})

	tracked := s.disarm(r.ID)

	if s.durable() {
		numericID, err := id.Parse(r.ID)
		if err != nil {
			slog.ErrorContext(ctx, "invalid reminder id", "error", err)
			return false
		}
		changed, err := s.reminders.Transition(ctx, numericID, model.ReminderStatusFired)
		if err != nil {
			slog.ErrorContext(ctx, "failed to mark reminder fired", "error", err)
			return false
		}
		if !changed {
			return false
		}
	} else if !tracked {
		return false
	}

	if _, err := s.client.PostMessage(ctx, r.ChannelID, platform.Message{Text: ReminderText(r)}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver reminder", "error", err)
		return false
	}

	slog.InfoContext(ctx, "reminder fired")
	return true
}

// PlatformScheduler hands reminders to the platform's scheduled-message API.
// The platform holds the only copy; the reminder ID is the scheduled message
// id it returns.
type PlatformScheduler struct {
	client platform.Client
	now    func() time.Time
}

func NewPlatformScheduler(client platform.Client, now func() time.Time) *PlatformScheduler {
	if now == nil {
		now = time.Now
	}
	return &PlatformScheduler{client: client, now: now}
}

func (s *PlatformScheduler) Schedule(ctx context.Context, r model.Reminder) (*model.Reminder, error) {
	if r.ReminderTime.Before(s.now()) {
		return nil, ErrReminderInPast
	}

	scheduledID, err := s.client.ScheduleMessage(ctx, r.ChannelID, r.ReminderTime, ReminderText(r))
	if err != nil {
		return nil, err
	}

	r.ID = scheduledID
	r.Status = model.ReminderStatusScheduled
	r.CreatedAt = s.now()

	slog.InfoContext(logger.WithLogFields(ctx, logger.LogFields{ReminderID: logger.Ptr(r.ID)}),
		"reminder scheduled on platform", "reminder_time", r.ReminderTime)
	return &r, nil
}

func (s *PlatformScheduler) Cancel(ctx context.Context, userID, channelID, reminderID string) error {
	list, err := s.List(ctx, userID, channelID)
	if err != nil {
		return err
	}

	found := false
	for _, r := range list {
		if r.ID == reminderID {
			found = true
			break
		}
	}
	if !found {
		return ErrReminderNotFound
	}

	return s.client.DeleteScheduledMessage(ctx, channelID, reminderID)
}

// List returns the user's reminders still queued in channelID. Ownership is
// recovered from the mention the reminder text starts with.
func (s *PlatformScheduler) List(ctx context.Context, userID, channelID string) ([]model.Reminder, error) {
	scheduled, err := s.client.ListScheduledMessages(ctx, channelID)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("<@%s> Reminder: ", userID)
	var list []model.Reminder
	for _, m := range scheduled {
		content, ok := strings.CutPrefix(m.Text, prefix)
		if !ok {
			continue
		}
		list = append(list, model.Reminder{
			ID:           m.ID,
			UserID:       userID,
			ChannelID:    m.ChannelID,
			Content:      content,
			ReminderTime: m.PostAt,
			Status:       model.ReminderStatusScheduled,
		})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].ReminderTime.Before(list[j].ReminderTime)
	})
	return list, nil
}

// ReminderResult is the outcome of a reminder request: either a scheduled
// reminder or, when no time could be found, advice text.
type ReminderResult struct {
	Reminder *model.Reminder
	Advice   string
}

// ReminderService drives a reminder from free text to a scheduled message.
type ReminderService interface {
	Create(ctx context.Context, userID, channelID, input string) (*ReminderResult, error)
	List(ctx context.Context, userID, channelID string) ([]model.Reminder, error)
	Delete(ctx context.Context, userID, channelID, reminderID string) error
	Location() *time.Location
}

type reminderService struct {
	parser    *TimeParser
	scheduler Scheduler
	location  *time.Location
}

func NewReminderService(parser *TimeParser, scheduler Scheduler, location *time.Location) ReminderService {
	if location == nil {
		location = time.UTC
	}
	return &reminderService{parser: parser, scheduler: scheduler, location: location}
}

func (s *reminderService) Location() *time.Location {
	return s.location
}

func (s *reminderService) Create(ctx context.Context, userID, channelID, input string) (*ReminderResult, error) {
	parsed, err := s.parser.Parse(ctx, input)
	if errors.Is(err, ErrNoTimeFound) {
		return &ReminderResult{Advice: s.parser.Advice(ctx, input)}, nil
	}
	if err != nil {
		return nil, err
	}

	r, err := s.scheduler.Schedule(ctx, model.Reminder{
		UserID:       userID,
		ChannelID:    channelID,
		Content:      parsed.Text,
		ReminderTime: parsed.Time.In(s.location),
	})
	if err != nil {
		return nil, err
	}
	r.ReminderTime = r.ReminderTime.In(s.location)
	return &ReminderResult{Reminder: r}, nil
}

func (s *reminderService) List(ctx context.Context, userID, channelID string) ([]model.Reminder, error) {
	list, err := s.scheduler.List(ctx, userID, channelID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].ReminderTime = list[i].ReminderTime.In(s.location)
	}
	return list, nil
}

func (s *reminderService) Delete(ctx context.Context, userID, channelID, reminderID string) error {
	return s.scheduler.Cancel(ctx, userID, channelID, reminderID)
}
