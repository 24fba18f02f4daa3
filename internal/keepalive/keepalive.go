// Package keepalive runs the bot's periodic housekeeping on a cron schedule.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/Zay2006/Slacking-Capstone/common/logger"
	"github.com/Zay2006/Slacking-Capstone/core/db"
)

const (
	DatabaseSpec = "@every 1m"
	PingSpec     = "@every 30s"
	SweepSpec    = "@every 1m"
)

// Job is one periodic task. Run errors are logged; they never stop the
// schedule.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	jobs []Job

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New() *Scheduler {
	l := cronLogger{}
	return &Scheduler{
		cron: cron.New(cron.WithLogger(l), cron.WithChain(
			cron.Recover(l),
			cron.SkipIfStillRunning(l),
		)),
	}
}

// Add registers a job. It must be called before Start.
func (s *Scheduler) Add(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %q: no run function", job.Name)
	}
	if _, err := cron.ParseStandard(job.Spec); err != nil {
		return fmt.Errorf("job %q: %w", job.Name, err)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.Name)
	}
	return names
}

// Start schedules every registered job. Jobs run with a context derived from
// ctx, which Stop cancels.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	for _, job := range s.jobs {
		jobCtx := logger.WithLogFields(ctx, logger.LogFields{Component: "slackbot.keepalive." + job.Name})
		if _, err := s.cron.AddFunc(job.Spec, func() { runJob(jobCtx, job) }); err != nil {
			cancel()
			return fmt.Errorf("scheduling %s: %w", job.Name, err)
		}
	}

	s.cron.Start()
	slog.InfoContext(ctx, "keepalive started", "jobs", s.Jobs())
	return nil
}

// Stop halts the schedule and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func runJob(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	if err := job.Run(ctx); err != nil {
		slog.WarnContext(ctx, "keepalive job failed", "job", job.Name, "error", err)
		return
	}
	slog.DebugContext(ctx, "keepalive job ok", "job", job.Name)
}

// Database is satisfied by *db.DB.
type Database interface {
	Check(ctx context.Context) db.Health
	EnsureMigrated(ctx context.Context) error
}

var errUnhealthy = errors.New("database unhealthy")

// DatabaseJob checks the database and, once it answers, applies any
// migrations that could not run while it was unreachable.
func DatabaseJob(database Database) Job {
	var down atomic.Bool
	return Job{
		Name: "database",
		Spec: DatabaseSpec,
		Run: func(ctx context.Context) error {
			h := database.Check(ctx)
			if !h.Healthy {
				down.Store(true)
				return fmt.Errorf("%w: %s", errUnhealthy, h.Error)
			}
			if down.Swap(false) {
				slog.InfoContext(ctx, "database reachable again")
			}
			if err := database.EnsureMigrated(ctx); err != nil {
				return fmt.Errorf("applying migrations: %w", err)
			}
			return nil
		},
	}
}

// Pinger is satisfied by the socket runner.
type Pinger interface {
	Ping(ctx context.Context) error
}

func PingJob(p Pinger) Job {
	return Job{Name: "ping", Spec: PingSpec, Run: p.Ping}
}

// Sweeper is satisfied by the timer reminder scheduler.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

func SweepJob(s Sweeper) Job {
	return Job{
		Name: "sweep",
		Spec: SweepSpec,
		Run: func(ctx context.Context) error {
			if n := s.Sweep(ctx); n > 0 {
				slog.InfoContext(ctx, "fired overdue reminders", "count", n)
			}
			return nil
		},
	}
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
