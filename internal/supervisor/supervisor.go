// Package supervisor runs the bot inside a restartable worker and watches its
// heartbeat, so a wedged connection or a crashed worker is replaced without
// restarting the process.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Zay2006/Slacking-Capstone/common/logger"
)

var (
	ErrNotRunning    = errors.New("supervisor is not running")
	ErrUnknownAction = errors.New("unknown controller action")
)

type State string

const (
	StateStopped    State = "stopped"
	StateStarting   State = "starting"
	StateRunning    State = "running"
	StateRestarting State = "restarting"
)

// Worker is one generation of the bot. Run blocks until ctx is cancelled or
// the worker fails, calling beat while it is healthy.
type Worker interface {
	Handler() http.Handler
	Run(ctx context.Context, beat func()) error
}

// Factory builds a fresh worker, with its own clients and state, for a new
// generation.
type Factory func(ctx context.Context, generation string) (Worker, error)

type Config struct {
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	RestartDelay      time.Duration
}

// stopTimeout bounds how long a stop waits for a worker to return.
const stopTimeout = 10 * time.Second

type Status struct {
	State         State     `json:"state"`
	Generation    string    `json:"generation,omitempty"`
	StartedAt     time.Time `json:"started_at,omitzero"`
	LastHeartbeat time.Time `json:"last_heartbeat,omitzero"`
	Restarts      int       `json:"restarts"`
	LastError     string    `json:"last_error,omitempty"`
}

type generation struct {
	id        string
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	lastBeat  atomic.Int64
	worker    atomic.Pointer[Worker]
	err       error
}

func (g *generation) beatAt(t time.Time) {
	g.lastBeat.Store(t.UnixNano())
}

func (g *generation) wait(timeout time.Duration) bool {
	select {
	case <-g.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

type Supervisor struct {
	factory Factory
	cfg     Config
	now     func() time.Time

	mu       sync.Mutex
	root     context.Context
	current  *generation
	state    State
	wanted   bool
	restarts int
	lastErr  string

	exits chan *generation
}

func New(factory Factory, cfg Config) *Supervisor {
	return &Supervisor{
		factory: factory,
		cfg:     cfg,
		now:     time.Now,
		state:   StateStopped,
		wanted:  true,
		exits:   make(chan *generation, 4),
	}
}

// Run starts the first worker and supervises until ctx is cancelled, then
// stops the current worker.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "slackbot.supervisor"})

	s.mu.Lock()
	s.root = ctx
	if s.wanted {
		s.spawnLocked()
	}
	s.mu.Unlock()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			g := s.detachLocked(StateStopped)
			s.mu.Unlock()
			s.shutdown(g)
			return nil

		case g := <-s.exits:
			s.mu.Lock()
			if s.current != g {
				// Stopped on purpose.
				s.mu.Unlock()
				continue
			}
			reason := "worker exited"
			if g.err != nil {
				reason = g.err.Error()
			}
			s.detachLocked(StateRestarting)
			s.noteFailureLocked(reason)
			s.mu.Unlock()

			slog.WarnContext(ctx, "worker exited unexpectedly, restarting", "generation", g.id, "reason", reason)
			s.restartAfterDelay(ctx)

		case <-ticker.C:
			s.mu.Lock()
			g := s.current
			if g == nil || s.now().Sub(time.Unix(0, g.lastBeat.Load())) <= s.cfg.HeartbeatTimeout {
				s.mu.Unlock()
				continue
			}
			s.detachLocked(StateRestarting)
			s.noteFailureLocked("heartbeat timeout")
			s.mu.Unlock()

			slog.WarnContext(ctx, "worker heartbeat is stale, restarting", "generation", g.id)
			s.shutdown(g)
			s.restartAfterDelay(ctx)
		}
	}
}

func (s *Supervisor) restartAfterDelay(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.RestartDelay):
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wanted && s.current == nil {
		s.spawnLocked()
	}
}

func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root == nil {
		return ErrNotRunning
	}
	s.wanted = true
	if s.current == nil {
		s.spawnLocked()
	}
	return nil
}

func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if s.root == nil {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.wanted = false
	g := s.detachLocked(StateStopped)
	s.mu.Unlock()

	s.shutdown(g)
	return nil
}

func (s *Supervisor) Restart() error {
	s.mu.Lock()
	if s.root == nil {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.wanted = true
	g := s.detachLocked(StateRestarting)
	s.mu.Unlock()

	s.shutdown(g)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		s.spawnLocked()
	}
	return nil
}

// Do applies a controller action: start, stop or restart.
func (s *Supervisor) Do(action string) error {
	switch action {
	case "start":
		return s.Start()
	case "stop":
		return s.Stop()
	case "restart":
		return s.Restart()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{State: s.state, Restarts: s.restarts, LastError: s.lastErr}
	if g := s.current; g != nil {
		st.Generation = g.id
		st.StartedAt = g.startedAt
		st.LastHeartbeat = time.Unix(0, g.lastBeat.Load())
	}
	return st
}

// ServeHTTP forwards to the current worker's handler, or answers 503 while no
// worker is serving.
func (s *Supervisor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	g := s.current
	s.mu.Unlock()

	if g != nil {
		if wp := g.worker.Load(); wp != nil {
			(*wp).Handler().ServeHTTP(w, r)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`{"error":"bot worker is not running"}`))
}

func (s *Supervisor) spawnLocked() {
	ctx, cancel := context.WithCancel(s.root)
	g := &generation{
		id:        uuid.NewString(),
		startedAt: s.now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	g.beatAt(g.startedAt)
	s.current = g
	s.state = StateStarting

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "slackbot.worker"})
	slog.InfoContext(ctx, "starting worker", "generation", g.id)

	go s.runGeneration(ctx, g)
}

func (s *Supervisor) runGeneration(ctx context.Context, g *generation) {
	defer func() {
		if rec := recover(); rec != nil {
			g.err = fmt.Errorf("worker panic: %v", rec)
			slog.ErrorContext(ctx, "worker panicked", "generation", g.id, "error", rec, "stack", string(debug.Stack()))
		}
		close(g.done)
		select {
		case s.exits <- g:
		case <-s.root.Done():
		}
	}()

	worker, err := s.factory(ctx, g.id)
	if err != nil {
		g.err = fmt.Errorf("building worker: %w", err)
		return
	}
	g.worker.Store(&worker)

	s.mu.Lock()
	if s.current == g {
		s.state = StateRunning
	}
	s.mu.Unlock()

	g.err = worker.Run(ctx, func() { g.beatAt(s.now()) })
}

// detachLocked clears the current generation and cancels it. The caller
// waits for it with shutdown after releasing the lock.
func (s *Supervisor) detachLocked(next State) *generation {
	g := s.current
	s.current = nil
	s.state = next
	if g != nil {
		g.cancel()
	}
	return g
}

func (s *Supervisor) noteFailureLocked(reason string) {
	s.restarts++
	s.lastErr = reason
}

func (s *Supervisor) shutdown(g *generation) {
	if g == nil {
		return
	}
	if !g.wait(stopTimeout) {
		slog.Warn("worker did not stop in time, abandoning it", "generation", g.id)
	}
}

// Beat calls beat every interval while healthy reports true, until ctx is
// done. Workers run it alongside their main loop.
func Beat(ctx context.Context, interval time.Duration, healthy func() bool, beat func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if healthy == nil || healthy() {
			beat()
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
