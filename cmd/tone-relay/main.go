package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/internal/broker"
	mqttv1 "github.com/emeersman/design-for-iot/internal/controllers/mqtt/v1"
	"github.com/emeersman/design-for-iot/internal/repositories"
	"github.com/emeersman/design-for-iot/internal/services/sentiment"
	"github.com/emeersman/design-for-iot/pkg/logger"
	"github.com/emeersman/design-for-iot/pkg/observe"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	cnf := config.NewConfig()

	hook := observe.NewSentryHook(cnf.App.Env, cnf.App.Name+"-tone-relay", 0, cnf.Sentry.Debug, cnf.Sentry.DSN)
	l := logger.NewZapLogger(cnf.App.Name+"-tone-relay", os.Stdout, hook).WithZone(cnf.App.Env)
	hook.SetLogger(l)

	tone, err := repositories.InitToneRepository(cnf, l)
	if err != nil {
		l.Fatal("cannot init tone analyzer", map[string]any{"err": err.Error()})
	}

	twitter, err := repositories.NewTwitterRepository(cnf.Twitter, cnf.Remote, l)
	if err != nil {
		l.Fatal("cannot init twitter client", map[string]any{"err": err.Error()})
	}

	client := broker.NewClient(cnf.MQTT, []string{cnf.Topics.TwitterQuery}, l.Named("broker"))

	service := sentiment.NewService(twitter, tone, client, cnf.Topics.TwitterSentiment, cnf.Twitter.TweetsPerQuery, l)

	loop := mqttv1.NewEventLoop(l.Named("loop"))
	mqttv1.NewSentimentController(service, cnf.Topics.TwitterQuery).Register(loop)

	if err := client.Connect(); err != nil {
		l.Fatal("cannot connect to the broker", map[string]any{"err": err.Error()})
	}

	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx, client.Messages())
		close(loopDone)
	}()

	l.Info("application started successfully", map[string]any{
		"version":  cnf.App.Version,
		"provider": tone.Name(),
		"query":    cnf.Topics.TwitterQuery,
	})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		cancel()
		<-loopDone
		client.Disconnect()
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
