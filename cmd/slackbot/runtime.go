package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"

	"github.com/Zay2006/Slacking-Capstone/core/config"
	"github.com/Zay2006/Slacking-Capstone/internal/bot"
	"github.com/Zay2006/Slacking-Capstone/internal/http/handler"
	httprouter "github.com/Zay2006/Slacking-Capstone/internal/http/router"
	"github.com/Zay2006/Slacking-Capstone/internal/keepalive"
	"github.com/Zay2006/Slacking-Capstone/internal/platform"
	"github.com/Zay2006/Slacking-Capstone/internal/service"
	"github.com/Zay2006/Slacking-Capstone/internal/store"
	"github.com/Zay2006/Slacking-Capstone/internal/transport"
)

const inflightPrefix = "slackbot:inflight:"

// runtime is one fully wired bot: platform client, services, scheduler and
// handler. The supervisor builds a fresh one per worker generation.
type runtime struct {
	api      *slack.Client
	bot      *bot.Bot
	services *service.Services
	timer    *service.TimerScheduler
}

func (a *app) newRuntime(ctx context.Context) (*runtime, error) {
	api, err := platform.NewAPI(a.cfg.Slack.BotToken, a.cfg.Slack.AppToken, a.cfg.Slack.Debug)
	if err != nil {
		return nil, fmt.Errorf("creating slack client: %w", err)
	}
	client := platform.NewSlackClient(api)

	identity, err := client.AuthTest(ctx)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "authenticated with slack", "bot_user_id", identity.UserID, "team", identity.Team)

	stores := store.Unavailable()
	if a.database != nil {
		stores = store.NewStores(a.database.Conn())
	}

	rt := &runtime{api: api}

	var scheduler service.Scheduler
	switch a.cfg.Reminders.Backend {
	case config.ReminderBackendPlatform:
		scheduler = service.NewPlatformScheduler(client, nil)
	default:
		var reminders store.ReminderStore
		if stores.Available() {
			reminders = stores.Reminders()
		} else {
			slog.WarnContext(ctx, "no database, reminders are kept in memory and lost on restart")
		}
		rt.timer = service.NewTimerScheduler(client, reminders, nil)
		if n, err := rt.timer.Restore(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to restore pending reminders", "error", err)
		} else if n > 0 {
			slog.InfoContext(ctx, "restored pending reminders", "count", n)
		}
		scheduler = rt.timer
	}

	rt.services = service.NewServices(stores, service.NewTxRunner(a.database), a.gateway, scheduler, a.cfg.Reminders.Location(), nil)

	var inflight bot.Inflight
	if a.redis != nil {
		inflight = bot.NewRedisInflight(a.redis, inflightPrefix, bot.DefaultInflightTTL)
	}

	rt.bot = bot.New(bot.Config{
		Client:    client,
		Gateway:   a.gateway,
		Roadmaps:  rt.services.Roadmaps(),
		Audit:     rt.services.Audit(),
		Reminders: rt.services.Reminders(),
		Inflight:  inflight,
		BotUserID: identity.UserID,
	})

	return rt, nil
}

// engine builds the HTTP routes for this runtime.
func (a *app) engine(rt *runtime, transportName string) *gin.Engine {
	serviceName := ""
	if a.cfg.OTel.Enabled() {
		serviceName = a.cfg.OTel.ServiceName
	}

	engine := httprouter.NewEngine(serviceName)
	httprouter.SetupRoutes(engine, httprouter.Handlers{
		Slack:    handler.NewSlackHandler(transport.NewDispatcher(rt.bot, transportName)),
		Health:   handler.NewHealthHandler(a.gateway, a.healthChecker()),
		Roadmaps: handler.NewRoadmapHandler(rt.services.Roadmaps()),
	}, httprouter.RouterConfig{
		SigningSecret: a.cfg.Slack.SigningSecret,
		AdminAPIKey:   a.cfg.AdminAPIKey,
	})
	return engine
}

// keepaliveJobs builds the periodic jobs that apply to this runtime. pinger may
// be nil outside socket mode.
func (a *app) keepaliveJobs(rt *runtime, pinger keepalive.Pinger) (*keepalive.Scheduler, error) {
	jobs := keepalive.New()

	if a.database != nil {
		if err := jobs.Add(keepalive.DatabaseJob(a.database)); err != nil {
			return nil, err
		}
	}
	if pinger != nil {
		if err := jobs.Add(keepalive.PingJob(pinger)); err != nil {
			return nil, err
		}
	}
	if rt.timer != nil {
		if err := jobs.Add(keepalive.SweepJob(rt.timer)); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func (rt *runtime) stop() {
	if rt.timer != nil {
		rt.timer.Stop()
	}
}
