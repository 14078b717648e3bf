package main

import (
	"context"
	"fmt"
	"warden/pkg/config"
	"warden/pkg/log"
	"warden/pkg/queue"
	"warden/pkg/store"
	"warden/pkg/store/firestore"
	"warden/pkg/store/redis"
	"warden/pkg/store/sqlite"
)

func initializeLogger(ctx context.Context, cfg *config.Config) {
	if cfg.Logging.Driver != config.LoggingDriverGCP {
		severity := log.ParseSeverity(cfg.Logging.Level)
		log.InitializeConsoleLogger(severity).Debugf(nil, "logging to console at %s", severity)
		return
	}

	_, err := log.InitializeGCPLogger(ctx, cfg, cfg.Logging.LogID)
	if err != nil {
		panic(fmt.Errorf("error initializing logger, %s", err))
	}
}

func initializeStore(ctx context.Context, cfg *config.Config) store.Store {
	var s store.Store
	var err error

	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		s, err = redis.Open(ctx, cfg.Store.Redis.Address, cfg.Store.Redis.Password, cfg.Store.Redis.DB, cfg.Store.Redis.Prefix)
	case config.StoreDriverFirestore:
		s, err = firestore.Open(ctx, cfg.GoogleCloud.ProjectID, cfg.GoogleCloud.ServiceAccountFilename, cfg.Discord.GuildID)
	default:
		s, err = sqlite.Open(ctx, cfg.Store.SQLite.Path)
	}

	if err != nil {
		panic(fmt.Errorf("error initializing %s store, %s", cfg.Store.Driver, err))
	}

	log.Logger().Infof(nil, "using %s store", cfg.Store.Driver)
	return s
}

func initializeQueue(ctx context.Context, cfg *config.Config) queue.Queue {
	q, err := queue.Initialize(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("error initializing queue, %s", err))
	}
	return q
}
