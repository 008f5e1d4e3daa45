package main

import (
	"context"
	"errors"

	"github.com/angelmondragon/souq-backend/pkg/bootstrap"
	"github.com/angelmondragon/souq-backend/pkg/outbox"
	"github.com/angelmondragon/souq-backend/pkg/outbox/registry"
	"github.com/angelmondragon/souq-backend/pkg/pubsub"
)

func main() {
	proc := bootstrap.Start("outbox-publisher")
	defer proc.Shutdown()
	cfg := proc.Config
	boot := context.Background()

	dbClient := proc.Database(boot)

	pubsubClient, err := pubsub.NewClient(boot, cfg.GCP, cfg.PubSub, proc.Logger)
	proc.Must(boot, "failed to bootstrap pubsub", err)
	proc.Closer("pubsub client", pubsubClient.Close)

	events, err := registry.NewEventRegistry(cfg.PubSub)
	proc.Must(boot, "failed to build event registry", err)

	relay, err := NewRelay(RelayParams{
		Outbox:      cfg.Outbox,
		Logger:      proc.Logger,
		DB:          dbClient,
		PubSub:      pubsubClient,
		Events:      outbox.NewRepository(dbClient.DB()),
		DeadLetters: outbox.NewDLQRepository(dbClient.DB()),
		Registry:    events,
	})
	proc.Must(boot, "failed to create outbox publisher", err)

	ctx, stop := proc.SignalContext(nil)
	defer stop()

	proc.Logger.Info(ctx, "starting outbox publisher")
	if err := relay.Run(ctx); !errors.Is(err, context.Canceled) {
		proc.Must(ctx, "outbox publisher stopped unexpectedly", err)
	}
	proc.Logger.Info(ctx, "outbox publisher shutting down gracefully")
}
