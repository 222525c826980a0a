package commands

import (
	"context"
	"fmt"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/notify"
	"github.com/wonny/symptrack/internal/prediction"
	"github.com/wonny/symptrack/internal/scenario"
	"github.com/wonny/symptrack/internal/scheduler/jobs"
	"github.com/wonny/symptrack/internal/storage"
	"github.com/wonny/symptrack/internal/tracker"
	"github.com/wonny/symptrack/pkg/config"
	"github.com/wonny/symptrack/pkg/database"
	"github.com/wonny/symptrack/pkg/logger"
	"github.com/wonny/symptrack/pkg/redis"
)

const keyPrefix = "symptrack"

// app holds the wired tracking components shared by api and simulate
type app struct {
	cfg *config.Config
	log *logger.Logger

	db     *database.DB         // postgres backend only
	sqlite *storage.SQLiteStore // sqlite backend only
	redis  *redis.Client

	store      contracts.WindowStore
	lister     jobs.CompleteLister // nil for the memory backend
	hub        *notify.Hub
	bus        *notify.RedisBus // nil when Redis is disabled
	dispatcher *prediction.Dispatcher
	generator  *scenario.Generator
	registry   *tracker.Registry
}

// newApp builds every component from configuration
func newApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	// 1. Scenario generator
	gen := scenario.NewGenerator(cfg.Tracking.ScenarioSeed)
	if cfg.Tracking.ScenarioFile != "" {
		table, err := scenario.LoadTable(cfg.Tracking.ScenarioFile)
		if err != nil {
			return nil, fmt.Errorf("load scenario profiles: %w", err)
		}
		gen = gen.WithTable(table)
		log.WithField("file", cfg.Tracking.ScenarioFile).Info("Scenario profiles loaded")
	}
	a.generator = gen

	// 2. Redis (disabled client is a no-op)
	rc, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc
	cache := redis.NewCache(rc, keyPrefix)

	// 3. Window store
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		db, err := database.New(cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		pg := storage.NewPostgresStore(db.Pool)
		a.store = pg
		a.lister = pg
		log.Info("Connected to database")
	case config.StorageSQLite:
		st, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.sqlite = st
		a.store = st
		a.lister = st
		log.WithField("path", cfg.SQLitePath).Info("Opened sqlite store")
	default:
		a.store = storage.NewMemoryStore()
	}
	if rc.Enabled() {
		a.store = storage.NewCachedStore(a.store, cache, cfg.Redis.CacheTTL, log.Zerolog())
	}

	// 4. Notifications
	a.hub = notify.NewHub(log.Zerolog())
	notifiers := notify.Multi{notify.NewLogNotifier(log.Zerolog())}
	if rc.Enabled() {
		bus, err := notify.NewRedisBus(rc, cfg.Redis.Channel, log.Zerolog())
		if err != nil {
			a.Close()
			return nil, err
		}
		a.bus = bus
		// the forwarder feeds the local hub, including our own events
		notifiers = append(notifiers, bus)
	} else {
		notifiers = append(notifiers, a.hub)
	}

	// 5. Prediction trigger
	opts := []prediction.Option{prediction.WithNotifier(notifiers)}
	if rc.Enabled() {
		opts = append(opts, prediction.WithCache(cache))
	}
	a.dispatcher = prediction.NewDispatcher(log.Zerolog(), opts...)

	// 6. Tracker registry
	a.registry = tracker.NewRegistry(tracker.Deps{
		Store:     a.store,
		Notifier:  notifiers,
		Trigger:   a.dispatcher,
		Generator: gen,
		Logger:    log.Zerolog(),
	})

	return a, nil
}

// startForwarder relays events published by any instance to the local hub
func (a *app) startForwarder(ctx context.Context) error {
	if a.bus == nil {
		return nil
	}
	return a.bus.StartForwarder(ctx, a.hub.Deliver)
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.sqlite != nil {
		_ = a.sqlite.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
