package main

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dirtyfeed/api/handlers"
	"github.com/angelmondragon/dirtyfeed/internal/cron"
	"github.com/angelmondragon/dirtyfeed/internal/feed"
	"github.com/angelmondragon/dirtyfeed/internal/notify"
	"github.com/angelmondragon/dirtyfeed/pkg/catalog"
	"github.com/angelmondragon/dirtyfeed/pkg/config"
	"github.com/angelmondragon/dirtyfeed/pkg/logger"
	"github.com/angelmondragon/dirtyfeed/pkg/metrics"
	"github.com/angelmondragon/dirtyfeed/pkg/storage"
	"github.com/angelmondragon/dirtyfeed/pkg/storage/local"
)

func testConfig(jobs ...string) *config.Config {
	return &config.Config{
		Feed: config.FeedConfig{
			Jobs:       jobs,
			Seed:       7,
			Customers:  3,
			Inventory:  4,
			Providers:  2,
			JSONPrefix: "data/json/",
			CSVPrefix:  "data/csv/",
		},
		Corruption: config.CorruptionConfig{ReceiptDriftMin: 0.9, ReceiptDriftMax: 1.1},
		Sink:       config.SinkConfig{Kind: config.SinkKindMemory},
		Notify:     config.NotifyConfig{Kind: config.NotifyKindNone},
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(map[string][]string{
		"Tools":  {"Hammer", "Wrench"},
		"Office": {"Stapler"},
	})
	require.NoError(t, err)
	return cat
}

func TestOpenSinkByKind(t *testing.T) {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "test"})

	cfg := testConfig()
	sink, err := openSink(ctx, cfg, logg)
	require.NoError(t, err)
	assert.IsType(t, &storage.MemorySink{}, sink)

	cfg.Sink.Kind = config.SinkKindLocal
	cfg.Local.Dir = t.TempDir()
	sink, err = openSink(ctx, cfg, logg)
	require.NoError(t, err)
	assert.IsType(t, &local.Sink{}, sink)

	cfg.Sink.Kind = "ftp"
	_, err = openSink(ctx, cfg, logg)
	assert.Error(t, err)
}

func TestOpenNotifierDefaultsToNoop(t *testing.T) {
	pingers := map[string]handlers.Pinger{}
	n, err := openNotifier(context.Background(), testConfig(), logger.New(logger.Options{}), pingers)
	require.NoError(t, err)
	assert.Equal(t, notify.Noop{}, n)
	assert.Empty(t, pingers)
}

func TestNewPassLockFallsBackToLocal(t *testing.T) {
	lock, err := newPassLock(testConfig(), nil)
	require.NoError(t, err)
	assert.IsType(t, &cron.LocalLock{}, lock)
}

func TestBuildRegistryKeepsConfiguredOrder(t *testing.T) {
	cfg := testConfig(feed.JobCatalog, feed.JobCustomers)
	sink := storage.NewMemorySink()
	m := metrics.NewFeedMetrics(prometheus.NewRegistry())
	pub, err := feed.NewPublisher(feed.PublisherParams{Sink: sink, Logger: logger.New(logger.Options{}), Metrics: m})
	require.NoError(t, err)

	registry, err := buildRegistry(cfg, testCatalog(t), pub, m, time.Now)
	require.NoError(t, err)
	assert.Equal(t, []string{feed.JobCatalog, feed.JobCustomers}, registry.Names())

	for _, job := range registry.Jobs() {
		require.NoError(t, job.Run(context.Background()))
	}
	assert.Contains(t, sink.Names(), "data/json/products.json")
	assert.Contains(t, sink.Names(), "data/json/customers.json")
	assert.NotContains(t, sink.Names(), "data/json/inventories.json")
}

func TestBuildRegistryRejectsUnknownJob(t *testing.T) {
	m := metrics.NewFeedMetrics(prometheus.NewRegistry())
	pub, err := feed.NewPublisher(feed.PublisherParams{Sink: storage.NewMemorySink(), Logger: logger.New(logger.Options{}), Metrics: m})
	require.NoError(t, err)

	_, err = buildRegistry(testConfig("billing"), testCatalog(t), pub, m, time.Now)
	assert.Error(t, err)
}
