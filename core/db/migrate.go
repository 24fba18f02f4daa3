package db

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded goose migrations.
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.pool)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// EnsureMigrated runs Migrate until it succeeds once; later calls are no-ops.
func (db *DB) EnsureMigrated(ctx context.Context) error {
	db.migrateMu.Lock()
	defer db.migrateMu.Unlock()

	if db.migrated {
		return nil
	}
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	db.migrated = true
	return nil
}
