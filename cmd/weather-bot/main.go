package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/internal/broker"
	httpv1 "github.com/emeersman/design-for-iot/internal/controllers/http/v1"
	mqttv1 "github.com/emeersman/design-for-iot/internal/controllers/mqtt/v1"
	"github.com/emeersman/design-for-iot/internal/repositories"
	"github.com/emeersman/design-for-iot/internal/services/climate"
	"github.com/emeersman/design-for-iot/pkg/httpserver"
	"github.com/emeersman/design-for-iot/pkg/logger"
	"github.com/emeersman/design-for-iot/pkg/observe"
)

// @title Weather bot history API
// @version 1.0.0
// @description Read-only view of the daily high temperatures collected by the weather bot.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http

// @tag.name History
// @tag.description Stored daily highs per month-day
func main() {
	ctx, cancel := context.WithCancel(context.Background())

	cnf := config.NewConfig()

	hook := observe.NewSentryHook(cnf.App.Env, cnf.App.Name, 0, cnf.Sentry.Debug, cnf.Sentry.DSN)
	l := logger.NewZapLogger(cnf.App.Name, os.Stdout, hook).WithZone(cnf.App.Env)
	hook.SetLogger(l)

	store, err := repositories.InitHistoryRepository(cnf, l)
	if err != nil {
		l.Fatal("cannot open history store", map[string]any{"err": err.Error()})
	}

	poster, err := repositories.InitPosterRepository(cnf, l)
	if err != nil {
		l.Fatal("cannot init poster", map[string]any{"err": err.Error()})
	}

	client := broker.NewClient(cnf.MQTT, []string{
		cnf.Topics.Location,
		cnf.Topics.Daily,
		cnf.Topics.Query,
	}, l.Named("broker"))

	renderer := climate.NewRenderer(cnf.Render, l)
	orch := climate.NewOrchestrator(
		store,
		renderer,
		climate.NewPublisher(client, poster, cnf.Topics.History, l),
		cnf.History.DefaultLocation,
		l.Named("orchestrator"),
	)

	loop := mqttv1.NewEventLoop(l.Named("loop"))
	mqttv1.NewWeatherController(orch, cnf.Topics, l).Register(loop)

	if err := client.Connect(); err != nil {
		l.Fatal("cannot connect to the broker", map[string]any{"err": err.Error()})
	}

	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx, client.Messages())
		close(loopDone)
	}()

	var scheduler *cron.Cron
	if cnf.Schedule.QueryCron != "" {
		scheduler = cron.New(cron.WithLogger(cron.PrintfLogger(l)))
		if _, err := scheduler.AddFunc(cnf.Schedule.QueryCron, func() {
			if err := loop.Inject(ctx, broker.Message{Topic: cnf.Topics.Query}); err != nil {
				l.Warning("scheduled query skipped", map[string]any{"err": err.Error()})
			}
		}); err != nil {
			l.Fatal("invalid query schedule", map[string]any{"spec": cnf.Schedule.QueryCron, "err": err.Error()})
		}
		scheduler.Start()
	}

	app := httpserver.InitFiberServer(cnf.App.Name, client.IsConnected)
	if cnf.Server.Enabled {
		httpv1.NewRouter(app, store, renderer, cnf.History.DefaultLocation, l)

		go func() {
			if err := app.Listen(":" + cnf.Server.Port); err != nil {
				l.Fatal("cannot run the server", map[string]any{"err": err.Error()})
			}
		}()
	}

	l.Info("application started successfully", map[string]any{
		"version":  cnf.App.Version,
		"store":    store.Name(),
		"poster":   poster.Name(),
		"location": cnf.History.DefaultLocation,
		"server":   cnf.Server.Enabled,
	})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		if cnf.Server.Enabled {
			_ = app.ShutdownWithContext(shutdownCtx)
		}
		cancel()
		<-loopDone
		client.Disconnect()
		if err := store.Close(); err != nil {
			l.Error(err)
		}
		hook.Flush()
		_ = l.Stop()
	}()

	select {
	case sig := <-sigCh:
		l.Info("received shutdown signal", map[string]any{"signal": sig.String()})
	case <-ctx.Done():
		l.Info("context cancelled")
	}
}
