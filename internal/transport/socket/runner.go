// Package socket is the long-lived socket-mode front door.
package socket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/Zay2006/Slacking-Capstone/common/logger"
	"github.com/Zay2006/Slacking-Capstone/internal/transport"
)

const (
	minBackoff = 1 * time.Second
	maxBackoff = 30 * time.Second
)

// errSessionEnded ends a retry run after a session that did connect, so the
// next reconnect starts again from the minimum backoff.
var errSessionEnded = errors.New("socket session ended")

// Runner keeps one socket-mode session alive, rebuilding the client and
// reconnecting with capped exponential backoff whenever it drops.
type Runner struct {
	api        *slack.Client
	dispatcher *transport.Dispatcher
	debug      bool

	connected atomic.Bool
	sessions  atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewRunner(api *slack.Client, dispatcher *transport.Dispatcher, debug bool) *Runner {
	return &Runner{api: api, dispatcher: dispatcher, debug: debug}
}

// Connected reports whether the current session has completed its handshake.
func (r *Runner) Connected() bool {
	return r.connected.Load()
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Transport: "socket", Component: "slackbot.socket"})

	for ctx.Err() == nil {
		backoff := retry.WithCappedDuration(maxBackoff, retry.NewExponential(minBackoff))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			wasConnected, err := r.session(ctx)
			if ctx.Err() != nil {
				return nil
			}
			if wasConnected {
				slog.WarnContext(ctx, "socket session dropped, reconnecting", "error", err)
				return errSessionEnded
			}
			slog.WarnContext(ctx, "socket connection failed, retrying", "error", err)
			return retry.RetryableError(fmt.Errorf("socket session: %w", err))
		})
		if err != nil && !errors.Is(err, errSessionEnded) && ctx.Err() == nil {
			return err
		}
	}
	return nil
}

// Reconnect drops the current session; Run then builds a new one.
func (r *Runner) Reconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Ping checks the bot token with auth.test. A failed ping while the socket
// claims to be connected forces a reconnect.
func (r *Runner) Ping(ctx context.Context) error {
	_, err := r.api.AuthTestContext(ctx)
	if err != nil {
		if r.Connected() {
			slog.WarnContext(ctx, "keepalive ping failed, forcing reconnect", "error", err)
			r.Reconnect()
		}
		return fmt.Errorf("keepalive ping: %w", err)
	}
	return nil
}

// session runs one socket-mode client until it stops, reporting whether it
// ever connected.
func (r *Runner) session(parent context.Context) (bool, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	n := r.sessions.Add(1)
	client := socketmode.New(r.api, socketmode.OptionDebug(r.debug))

	var everConnected atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.events(ctx, client, &everConnected)
	}()

	slog.InfoContext(ctx, "socket session starting", "session", n)
	err := client.RunContext(ctx)
	r.connected.Store(false)
	cancel()
	<-done

	return everConnected.Load(), err
}

func (r *Runner) events(ctx context.Context, client *socketmode.Client, everConnected *atomic.Bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-client.Events:
			if !ok {
				return
			}
			r.handle(ctx, client, evt, everConnected)
		}
	}
}

func (r *Runner) handle(ctx context.Context, client *socketmode.Client, evt socketmode.Event, everConnected *atomic.Bool) {
	ack := func() {
		if evt.Request != nil {
			client.Ack(*evt.Request)
		}
	}

	switch evt.Type {
	case socketmode.EventTypeConnecting:
		slog.InfoContext(ctx, "socket mode connecting")

	case socketmode.EventTypeConnected:
		r.connected.Store(true)
		everConnected.Store(true)
		slog.InfoContext(ctx, "socket mode connected")

	case socketmode.EventTypeInvalidAuth:
		r.connected.Store(false)
		slog.ErrorContext(ctx, "socket mode rejected the app token")

	case socketmode.EventTypeConnectionError, socketmode.EventTypeIncomingError:
		r.connected.Store(false)
		slog.ErrorContext(ctx, "socket mode connection error", "data", fmt.Sprint(evt.Data))

	case socketmode.EventTypeDisconnect:
		r.connected.Store(false)
		slog.WarnContext(ctx, "socket mode disconnect requested")

	case socketmode.EventTypeEventsAPI:
		event, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		ack()
		r.dispatcher.Event(ctx, event)

	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		ack()
		r.dispatcher.Command(ctx, cmd)

	case socketmode.EventTypeInteractive:
		cb, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return
		}
		ack()
		r.dispatcher.Interaction(ctx, cb)
	}
}
