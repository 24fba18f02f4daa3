package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultInflightTTL bounds how long an event id is remembered when its
// handler never releases it.
const DefaultInflightTTL = 60 * time.Second

// Inflight suppresses concurrent handling of the same inbound event.
// Acquire reports false when the key is already being handled.
type Inflight interface {
	Acquire(ctx context.Context, key string) bool
	Release(ctx context.Context, key string)
}

type memoryInflight struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryInflight tracks keys in this process only. now may be nil.
func NewMemoryInflight(ttl time.Duration, now func() time.Time) Inflight {
	if ttl <= 0 {
		ttl = DefaultInflightTTL
	}
	if now == nil {
		now = time.Now
	}
	return &memoryInflight{ttl: ttl, now: now, entries: make(map[string]time.Time)}
}

func (m *memoryInflight) Acquire(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, started := range m.entries {
		if now.Sub(started) >= m.ttl {
			delete(m.entries, k)
		}
	}

	if _, busy := m.entries[key]; busy {
		return false
	}
	m.entries[key] = now
	return true
}

func (m *memoryInflight) Release(_ context.Context, key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

type redisInflight struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisInflight shares the in-flight set across replicas with SET NX.
// Redis errors fail open: the event is handled rather than dropped.
func NewRedisInflight(client *redis.Client, prefix string, ttl time.Duration) Inflight {
	if ttl <= 0 {
		ttl = DefaultInflightTTL
	}
	if prefix == "" {
		prefix = "slackbot:inflight:"
	}
	return &redisInflight{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisInflight) Acquire(ctx context.Context, key string) bool {
	ok, err := r.client.SetNX(ctx, r.prefix+key, 1, r.ttl).Result()
	if err != nil {
		slog.WarnContext(ctx, "inflight check failed, handling event anyway", "error", err, "key", key)
		return true
	}
	return ok
}

func (r *redisInflight) Release(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		slog.WarnContext(ctx, "failed to release inflight key", "error", err, "key", key)
	}
}
