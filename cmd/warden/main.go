package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"warden/pkg/api/discord"
	"warden/pkg/api/events"
	"warden/pkg/config"
	"warden/pkg/log"
	"warden/pkg/metrics"
	"warden/pkg/moderation"
)

const defaultConfigFilename = "config.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configFilename := defaultConfigFilename
	if len(os.Args) > 1 {
		configFilename = os.Args[1]
	}

	cfg, err := config.ReadConfig(configFilename)
	if err != nil {
		panic(err)
	}

	if err = cfg.Validate(); err != nil {
		panic(err)
	}

	initializeLogger(ctx, cfg)
	defer log.Logger().Close()

	s := initializeStore(ctx, cfg)
	defer s.Close()

	q := initializeQueue(ctx, cfg)
	defer q.Close()

	metrics.Init()
	if len(cfg.Metrics.Address) > 0 {
		go metrics.Serve(ctx, cfg.Metrics.Address)
	}

	svc := discord.NewDiscord()
	if err = svc.Connect(cfg); err != nil {
		panic(err)
	}
	defer svc.Disconnect()

	engine := moderation.NewEngine(ctx, cfg, svc, s, q)
	defer engine.Close()

	if err = engine.Boot(ctx); err != nil {
		panic(err)
	}

	ech := make(chan *discord.Event)
	go svc.Listen(ech)

	h := events.NewHandler(cfg, svc, engine)
	for {
		select {
		case e := <-ech:
			h.Handle(ctx, e)
		case <-ctx.Done():
			log.Logger().Infof(nil, "shutting down, %d reversals left for the next boot", engine.Pending())
			return
		}
	}
}
