package main

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/dirtyfeed/api/handlers"
	"github.com/angelmondragon/dirtyfeed/internal/cron"
	"github.com/angelmondragon/dirtyfeed/internal/feed"
	"github.com/angelmondragon/dirtyfeed/internal/generator"
	"github.com/angelmondragon/dirtyfeed/internal/notify"
	"github.com/angelmondragon/dirtyfeed/pkg/catalog"
	"github.com/angelmondragon/dirtyfeed/pkg/config"
	"github.com/angelmondragon/dirtyfeed/pkg/instance"
	"github.com/angelmondragon/dirtyfeed/pkg/kafka"
	"github.com/angelmondragon/dirtyfeed/pkg/logger"
	"github.com/angelmondragon/dirtyfeed/pkg/metrics"
	"github.com/angelmondragon/dirtyfeed/pkg/pubsub"
	"github.com/angelmondragon/dirtyfeed/pkg/redis"
	"github.com/angelmondragon/dirtyfeed/pkg/storage"
	"github.com/angelmondragon/dirtyfeed/pkg/storage/gcs"
	"github.com/angelmondragon/dirtyfeed/pkg/storage/local"
	"github.com/angelmondragon/dirtyfeed/pkg/storage/s3"
)

const passLockName = "pass"

func openSink(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Sink, error) {
	switch cfg.Sink.Kind {
	case config.SinkKindGCS:
		return gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	case config.SinkKindS3:
		return s3.NewClient(ctx, cfg.AWS, logg)
	case config.SinkKindLocal:
		return local.New(cfg.Local.Dir)
	case config.SinkKindMemory:
		return storage.NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Sink.Kind)
	}
}

func openNotifier(ctx context.Context, cfg *config.Config, logg *logger.Logger, pingers map[string]handlers.Pinger) (notify.Notifier, error) {
	switch cfg.Notify.Kind {
	case config.NotifyKindPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, err
		}
		pingers["pubsub"] = client
		return &closingNotifier{Notifier: notify.NewPubSub(client.ArtifactPublisher()), closeFn: client.Close}, nil
	case config.NotifyKindKafka:
		writer, err := kafka.NewWriter(ctx, cfg.Kafka, logg)
		if err != nil {
			return nil, err
		}
		return notify.NewKafka(writer), nil
	default:
		return notify.Noop{}, nil
	}
}

// closingNotifier also shuts down the client that owns the publisher.
type closingNotifier struct {
	notify.Notifier
	closeFn func() error
}

func (c *closingNotifier) Close() error {
	err := c.Notifier.Close()
	if closeErr := c.closeFn(); err == nil {
		err = closeErr
	}
	return err
}

func newPassLock(cfg *config.Config, redisClient *redis.Client) (cron.Lock, error) {
	if redisClient == nil {
		return cron.NewLocalLock(), nil
	}
	return cron.NewRedisLock(redisClient, redisClient.LockKey(passLockName), cfg.Redis.LockTTL, instance.GetID())
}

// buildRegistry creates one generator per enabled job, in the configured order.
func buildRegistry(cfg *config.Config, cat *catalog.Catalog, pub *feed.Publisher, m *metrics.FeedMetrics, clock func() time.Time) (*cron.Registry, error) {
	settings := feed.SettingsFromConfig(cfg)
	rules := generator.NewRules(cfg.Corruption)

	registry, err := cron.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, name := range cfg.Feed.Jobs {
		gen, err := generator.NewGenerator(cat, generator.NewSource(feed.SeedFor(cfg.Feed.Seed, name), clock), rules)
		if err != nil {
			return nil, err
		}
		var job cron.Job
		switch name {
		case feed.JobCustomers:
			job = feed.NewCustomersJob(gen, pub, m, settings)
		case feed.JobInventory:
			job = feed.NewInventoryJob(gen, pub, m, settings)
		case feed.JobCatalog:
			job = feed.NewCatalogJob(gen, pub, m, settings)
		default:
			return nil, fmt.Errorf("unknown feed job %q", name)
		}
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
