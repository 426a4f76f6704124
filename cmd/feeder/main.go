package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/dirtyfeed/api/handlers"
	"github.com/angelmondragon/dirtyfeed/api/routes"
	"github.com/angelmondragon/dirtyfeed/internal/cron"
	"github.com/angelmondragon/dirtyfeed/internal/feed"
	"github.com/angelmondragon/dirtyfeed/internal/ledger"
	"github.com/angelmondragon/dirtyfeed/pkg/bigquery"
	"github.com/angelmondragon/dirtyfeed/pkg/catalog"
	"github.com/angelmondragon/dirtyfeed/pkg/config"
	"github.com/angelmondragon/dirtyfeed/pkg/db"
	"github.com/angelmondragon/dirtyfeed/pkg/instance"
	"github.com/angelmondragon/dirtyfeed/pkg/logger"
	"github.com/angelmondragon/dirtyfeed/pkg/metrics"
	"github.com/angelmondragon/dirtyfeed/pkg/migrate"
	"github.com/angelmondragon/dirtyfeed/pkg/redis"
)

const serviceName = "feeder"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"worker_id": instance.GetID(),
		"sink":      cfg.Sink.Kind,
	})

	if cfg.App.IsProd() && cfg.Sink.Kind == config.SinkKindMemory {
		logg.Warn(ctx, "memory sink in prod: artifacts are dropped on exit")
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logg.Error(ctx, "failed to load catalog", err)
		os.Exit(1)
	}

	sink, err := openSink(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap sink", err)
		os.Exit(1)
	}

	pingers := map[string]handlers.Pinger{}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		pingers["redis"] = redisClient
	}

	var ledgerSvc ledger.Service
	if cfg.DB.Enabled() {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()
		if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}
		ledgerSvc, err = ledger.NewService(ledger.NewRepository(dbClient.DB()), instance.GetID())
		if err != nil {
			logg.Error(ctx, "failed to create run ledger", err)
			os.Exit(1)
		}
		pingers["db"] = dbClient
	}

	var mirror feed.Mirror
	if cfg.FeatureFlags.Mirror {
		bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		defer func() {
			if err := bq.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery", err)
			}
		}()
		mirror = bq
		pingers["bigquery"] = bq
	}

	notifier, err := openNotifier(ctx, cfg, logg, pingers)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap notifier", err)
		os.Exit(1)
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			logg.Error(context.Background(), "error closing notifier", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	feedMetrics := metrics.NewFeedMetrics(reg)

	params := feed.PublisherParams{
		Sink:     sink,
		Logger:   logg,
		Metrics:  feedMetrics,
		Mirror:   mirror,
		Notifier: notifier,
	}
	if ledgerSvc != nil {
		params.Ledger = feed.LedgerRecorder(ledgerSvc)
	}
	publisher, err := feed.NewPublisher(params)
	if err != nil {
		logg.Error(ctx, "failed to create publisher", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg, cat, publisher, feedMetrics, time.Now)
	if err != nil {
		logg.Error(ctx, "failed to register feed jobs", err)
		os.Exit(1)
	}

	lock, err := newPassLock(cfg, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create pass lock", err)
		os.Exit(1)
	}

	serviceParams := cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(reg),
		Interval: cfg.Feed.Interval,
		RunOnce:  cfg.Feed.RunOnce,
	}
	if redisClient != nil {
		serviceParams.Recorder = redisClient
	}
	service, err := cron.NewService(serviceParams)
	if err != nil {
		logg.Error(ctx, "failed to create feed scheduler", err)
		os.Exit(1)
	}

	var opsServer *http.Server
	if cfg.Ops.Addr != "" && !cfg.Feed.RunOnce {
		opsServer = &http.Server{
			Addr:              cfg.Ops.Addr,
			Handler:           routes.NewRouter(cfg, logg, routes.Deps{Gatherer: reg, Pingers: pingers, Ledger: ledgerSvc}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logg.Info(logg.WithField(ctx, "addr", cfg.Ops.Addr), "ops server listening")
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "ops server stopped", err)
			}
		}()
	}

	logg.Info(logg.WithField(ctx, "jobs", registry.Names()), "starting feeder")
	runErr := service.Run(ctx)

	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "ops server shutdown failed", err)
		}
		cancel()
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logg.Error(ctx, "feeder stopped with errors", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "feeder shutting down gracefully")
}
