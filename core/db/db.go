package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConfigured is returned by New when no DSN is set.
var ErrNotConfigured = errors.New("database not configured")

const pingTimeout = 5 * time.Second

// DBTX is satisfied by both the pool and a transaction, so stores can run
// inside or outside WithTx without caring which.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps a pgxpool.Pool and provides transaction support and a throttled
// health check.
type DB struct {
	pool           *pgxpool.Pool
	healthInterval time.Duration

	mu        sync.Mutex
	lastCheck time.Time
	healthy   bool
	lastErr   error

	migrateMu sync.Mutex
	migrated  bool
}

type Config struct {
	DSN string

	MaxConns int32

	MinConns int32

	// HealthInterval is the minimum time between two pings issued by Healthy.
	HealthInterval time.Duration
}

// Health is a snapshot of the last health check.
type Health struct {
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// New creates a new DB instance with the given configuration. Only a missing
// or unparseable DSN is an error: an unreachable server leaves the pool in
// place, reported through Check, and pgxpool dials again on the next use.
func New(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, ErrNotConfigured
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	interval := cfg.HealthInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	pingErr := pool.Ping(pingCtx)
	cancel()
	if pingErr != nil {
		pingErr = fmt.Errorf("pinging database: %w", pingErr)
	}

	return &DB{
		pool:           pool,
		healthInterval: interval,
		lastCheck:      time.Now(),
		healthy:        pingErr == nil,
		lastErr:        pingErr,
	}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// Conn returns the pool as a DBTX for non-transactional operations.
func (db *DB) Conn() DBTX {
	return db.pool
}

// Pool exposes the underlying pool for callers that need pgx specifics.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// WithTx executes the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (db *DB) WithTx(ctx context.Context, fn func(q DBTX) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	// Always attempt rollback on defer - it's a no-op if already committed
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Healthy reports whether the database answered its last ping. A new ping is
// only issued once HealthInterval has passed since the previous one; in
// between, the cached result is returned. The pool re-dials on its own, so a
// failed check simply stays failed until a later ping succeeds.
func (db *DB) Healthy(ctx context.Context) bool {
	return db.Check(ctx).Healthy
}

// Check is Healthy with the full snapshot.
func (db *DB) Check(ctx context.Context) Health {
	db.mu.Lock()
	defer db.mu.Unlock()

	if time.Since(db.lastCheck) >= db.healthInterval {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := db.pool.Ping(pingCtx)
		cancel()

		db.lastCheck = time.Now()
		db.healthy = err == nil
		db.lastErr = err
	}

	h := Health{Healthy: db.healthy, CheckedAt: db.lastCheck}
	if db.lastErr != nil {
		h.Error = db.lastErr.Error()
	}
	return h
}
