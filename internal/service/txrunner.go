package service

import (
	"context"

	"github.com/Zay2006/Slacking-Capstone/core/db"
	"github.com/Zay2006/Slacking-Capstone/internal/store"
)

// StoreProvider exposes only the stores needed by a transactional operation.
type StoreProvider interface {
	Roadmaps() store.RoadmapStore
	Reminders() store.ReminderStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB. A nil DB yields a
// runner that fails every transaction with store.ErrUnavailable.
func NewTxRunner(database *db.DB) TxRunner {
	if database == nil {
		return unavailableTxRunner{}
	}
	return &dbTxRunner{db: database}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q db.DBTX) error {
		return fn(store.NewStores(q))
	})
}

type unavailableTxRunner struct{}

func (unavailableTxRunner) WithTx(context.Context, func(StoreProvider) error) error {
	return store.ErrUnavailable
}
