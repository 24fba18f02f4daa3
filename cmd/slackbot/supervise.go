package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httprouter "github.com/Zay2006/Slacking-Capstone/internal/http/router"
	"github.com/Zay2006/Slacking-Capstone/internal/supervisor"
)

var superviseCmd = &cobra.Command{
	Use:   "supervise",
	Short: "Run the bot in a supervised worker with a controller endpoint",
	Long: "Runs the bot in a restartable worker. The worker serves Slack over HTTP, and " +
		"also holds a socket-mode connection when SLACK_APP_TOKEN is set. A stale heartbeat " +
		"or a crash replaces the worker after RESTART_DELAY.",
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

		sup := supervisor.New(a.newWorker, supervisor.Config{
			HeartbeatInterval: a.cfg.Supervisor.HeartbeatInterval,
			HeartbeatTimeout:  a.cfg.Supervisor.HeartbeatTimeout,
			RestartDelay:      a.cfg.Supervisor.RestartDelay,
		})

		serviceName := ""
		if a.cfg.OTel.Enabled() {
			serviceName = a.cfg.OTel.ServiceName
		}
		engine := httprouter.NewEngine(serviceName)
		sup.RegisterRoutes(engine)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return sup.Run(gctx) })
		g.Go(func() error { return serve(gctx, a.cfg.Port, engine) })
		return g.Wait()
	},
}

// worker is one supervised generation of the bot.
type worker struct {
	app     *app
	rt      *runtime
	handler http.Handler
}

func (a *app) newWorker(ctx context.Context, generation string) (supervisor.Worker, error) {
	rt, err := a.newRuntime(ctx)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "worker ready", "generation", generation)
	return &worker{app: a, rt: rt, handler: a.engine(rt, "supervised")}, nil
}

func (w *worker) Handler() http.Handler {
	return w.handler
}

func (w *worker) Run(ctx context.Context, beat func()) error {
	defer w.rt.stop()

	if w.app.cfg.Slack.SocketModeEnabled() {
		return w.app.runSocket(ctx, w.rt, beat)
	}

	jobs, err := w.app.keepaliveJobs(w.rt, nil)
	if err != nil {
		return err
	}
	if err := jobs.Start(ctx); err != nil {
		return err
	}
	defer jobs.Stop()

	heartbeat(ctx, w.app.cfg.Supervisor.HeartbeatInterval, nil, beat)
	return nil
}

func heartbeat(ctx context.Context, interval time.Duration, healthy func() bool, beat func()) {
	supervisor.Beat(ctx, interval, healthy, beat)
}
