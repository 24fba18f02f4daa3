package llm

import (
	"sync"
	"time"
)

// Status is a snapshot of the gateway's view of upstream reachability. It is
// informational only; nothing branches on it.
type Status struct {
	Available   bool      `json:"available"`
	Attempts    int64     `json:"attempts"`
	LastAttempt time.Time `json:"last_attempt,omitzero"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
}

type statusTracker struct {
	mu     sync.Mutex
	status Status
	now    func() time.Time
}

func newStatusTracker(available bool) *statusTracker {
	return &statusTracker{
		status: Status{Available: available},
		now:    time.Now,
	}
}

func (t *statusTracker) attempt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Attempts++
	t.status.LastAttempt = t.now()
}

func (t *statusTracker) success() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Available = true
	t.status.LastSuccess = t.now()
	t.status.LastError = ""
}

func (t *statusTracker) failure(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Available = false
	if err != nil {
		t.status.LastError = err.Error()
	}
}

func (t *statusTracker) snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}
