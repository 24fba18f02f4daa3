package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve Slack events, commands and interactions over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := requireSlack(a.cfg, false); err != nil {
			slog.ErrorContext(ctx, "invalid slack configuration", "error", err)
			return err
		}
		if a.cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}

		rt, err := a.newRuntime(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to start bot", "error", err)
			return err
		}
		defer rt.stop()

		jobs, err := a.keepaliveJobs(rt, nil)
		if err != nil {
			return err
		}
		if err := jobs.Start(ctx); err != nil {
			return err
		}
		defer jobs.Stop()

		return serve(ctx, a.cfg.Port, a.engine(rt, "http"))
	},
}

// serve runs an HTTP server until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, port string, handler http.Handler) error {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(ctx, "http server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "http server error", "error", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.InfoContext(ctx, "shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}
