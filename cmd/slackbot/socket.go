package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Zay2006/Slacking-Capstone/internal/transport"
	"github.com/Zay2006/Slacking-Capstone/internal/transport/socket"
)

var socketCmd = &cobra.Command{
	Use:   "socket",
	Short: "Run the bot over a socket-mode connection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := requireSlack(a.cfg, true); err != nil {
			slog.ErrorContext(ctx, "invalid slack configuration", "error", err)
			return err
		}

		rt, err := a.newRuntime(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to start bot", "error", err)
			return err
		}
		defer rt.stop()

		return a.runSocket(ctx, rt, nil)
	},
}

// runSocket runs the socket-mode transport and its keepalive jobs until ctx
// is done. beat, when set, is called while the socket is connected.
func (a *app) runSocket(ctx context.Context, rt *runtime, beat func()) error {
	runner := socket.NewRunner(rt.api, transport.NewDispatcher(rt.bot, "socket"), a.cfg.Slack.Debug)

	jobs, err := a.keepaliveJobs(rt, runner)
	if err != nil {
		return err
	}
	if err := jobs.Start(ctx); err != nil {
		return err
	}
	defer jobs.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(ctx) })
	if beat != nil {
		g.Go(func() error {
			heartbeat(ctx, a.cfg.Supervisor.HeartbeatInterval, runner.Connected, beat)
			return nil
		})
	}

	err = g.Wait()
	slog.InfoContext(context.WithoutCancel(ctx), "socket mode stopped")
	return err
}
