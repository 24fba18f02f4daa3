package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Zay2006/Slacking-Capstone/common/logger"
	"github.com/Zay2006/Slacking-Capstone/core/config"
	"github.com/Zay2006/Slacking-Capstone/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			slog.ErrorContext(ctx, "failed to load config", "error", err)
			return err
		}
		logger.Setup(cfg)

		database, err := db.New(ctx, cfg.DB)
		if errors.Is(err, db.ErrNotConfigured) {
			slog.ErrorContext(ctx, "DATABASE_URL is required for migrate")
			return err
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			return err
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			slog.ErrorContext(ctx, "migration failed", "error", err)
			return err
		}
		slog.InfoContext(ctx, "migrations applied")
		return nil
	},
}
