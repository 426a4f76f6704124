package feed

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/angelmondragon/dirtyfeed/internal/artifacts"
	"github.com/angelmondragon/dirtyfeed/internal/generator"
	"github.com/angelmondragon/dirtyfeed/pkg/catalog"
	"github.com/angelmondragon/dirtyfeed/pkg/config"
	pkgerrors "github.com/angelmondragon/dirtyfeed/pkg/errors"
	"github.com/angelmondragon/dirtyfeed/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

var fixedNow = time.Date(2026, 6, 15, 12, 30, 0, 0, time.UTC)

func testGenerator(t *testing.T, seed uint64) *generator.Generator {
	t.Helper()
	cat, err := catalog.New(map[string][]string{
		"Electronics": {"Phone", "Laptop"},
		"Groceries":   {"Coffee", "Rice", "Tea"},
	})
	require.NoError(t, err)
	gen, err := generator.NewGenerator(cat, generator.NewSource(seed, func() time.Time { return fixedNow }), generator.NewRules(config.CorruptionConfig{
		ProductCase:     0.1,
		Quantity:        0.15,
		LastUpdated:     0.05,
		ReceiptAmount:   0.1,
		ReceiptDriftMin: 0.9,
		ReceiptDriftMax: 1.1,
		ReceiptNoteRate: 0.2,
	}))
	require.NoError(t, err)
	return gen
}

func testSettings() Settings {
	return Settings{
		Customers:  12,
		Inventory:  20,
		Providers:  7,
		JSONPrefix: "data/json/",
		CSVPrefix:  "data/csv/",
		Mirror:     true,
		Tables: config.BigQueryConfig{
			InventoriesTable: "inventories",
			ReceiptsTable:    "receipts",
			InvoicesTable:    "invoices",
			ProvidersTable:   "providers",
		},
	}
}

func sampleTransactions() []generator.Transaction {
	line := func(name string, cents int64) generator.ProductLine {
		return generator.ProductLine{ProductName: name, Category: "Electronics", Amount: generator.AmountFromCents(cents)}
	}
	return []generator.Transaction{
		{TransactionID: "t1", CustomerID: "c1", Products: []generator.ProductLine{line("Phone", 1000), line("Laptop", 2000)}, TotalAmount: generator.AmountFromCents(3000)},
		{TransactionID: "t2", CustomerID: "c2", Products: []generator.ProductLine{line("Phone", 500)}, TotalAmount: generator.AmountFromCents(500)},
	}
}

func TestCustomersJobPublishesEveryArtifact(t *testing.T) {
	sink := newFlakySink()
	mirror := &fakeMirror{}
	reg := prometheus.NewRegistry()
	fm := metrics.NewFeedMetrics(reg)
	pub, _ := newTestPublisher(t, sink, PublisherParams{Mirror: mirror, Metrics: fm})

	job := NewCustomersJob(testGenerator(t, 7), pub, fm, testSettings())
	require.Equal(t, JobCustomers, job.Name())
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []string{
		"data/csv/transactions.csv",
		"data/json/customers.json",
		"data/json/invoices.json",
		"data/json/receipts.json",
	}, sink.Names())
	assert.Equal(t, 12, storedCount(t, sink, "data/json/customers.json"))
	assert.Equal(t, 12, storedCount(t, sink, "data/json/receipts.json"))

	obj, _ := sink.Object("data/csv/transactions.csv")
	lines, err := artifacts.CountCSV(obj.Payload)
	require.NoError(t, err)
	assert.Equal(t, lines, storedCount(t, sink, "data/json/invoices.json"), "one invoice per transaction line")
	assert.Equal(t, lines, mirror.tables["invoices"])
	assert.Equal(t, 12, mirror.tables["receipts"])
}

func TestCustomersJobMergesAcrossPasses(t *testing.T) {
	sink := newFlakySink()
	pub, _ := newTestPublisher(t, sink, PublisherParams{})
	job := NewCustomersJob(testGenerator(t, 7), pub, nil, testSettings())

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 24, storedCount(t, sink, "data/json/customers.json"))
}

func TestJobContinuesPastFailedArtifact(t *testing.T) {
	sink := newFlakySink()
	sink.failPut["data/json/customers.json"] = true
	sink.failPut["data/json/receipts.json"] = true
	pub, _ := newTestPublisher(t, sink, PublisherParams{})

	job := NewCustomersJob(testGenerator(t, 3), pub, nil, testSettings())
	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	for _, e := range multierr.Errors(err) {
		assert.Equal(t, pkgerrors.CodeSinkWrite, pkgerrors.CodeOf(e))
	}
	assert.Equal(t, []string{
		"data/json/customers.json",
		"data/csv/transactions.csv",
		"data/json/invoices.json",
		"data/json/receipts.json",
	}, sink.puts)
	_, ok := sink.Object("data/json/invoices.json")
	assert.True(t, ok)
}

func TestInventoryJobLinksReceiptsToTransactions(t *testing.T) {
	sink := newFlakySink()
	mirror := &fakeMirror{}
	pub, _ := newTestPublisher(t, sink, PublisherParams{Mirror: mirror})

	job := NewInventoryJob(testGenerator(t, 11), pub, nil, testSettings())
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 20, storedCount(t, sink, "data/json/inventories.json"))
	txs := storedCount(t, sink, "data/json/transactions.json")
	assert.LessOrEqual(t, txs, 20)
	assert.Equal(t, txs, storedCount(t, sink, "data/json/receipts.json"))
	assert.Equal(t, 20, mirror.tables["inventories"])
	assert.Equal(t, txs, mirror.tables["receipts"])
}

func TestCatalogJobPricesEveryProduct(t *testing.T) {
	sink := newFlakySink()
	mirror := &fakeMirror{}
	settings := testSettings()
	settings.Mirror = false
	pub, _ := newTestPublisher(t, sink, PublisherParams{Mirror: mirror})

	job := NewCatalogJob(testGenerator(t, 5), pub, nil, settings)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 5, storedCount(t, sink, "data/json/products.json"))
	obj, ok := sink.Object("data/csv/providers.csv")
	require.True(t, ok)
	rows, err := artifacts.CountCSV(obj.Payload)
	require.NoError(t, err)
	assert.Equal(t, 7, rows)
	assert.Empty(t, mirror.tables, "mirror disabled")
}

func TestCatalogJobRejectsNegativeProviderCount(t *testing.T) {
	sink := newFlakySink()
	settings := testSettings()
	settings.Providers = -1
	pub, _ := newTestPublisher(t, sink, PublisherParams{})

	err := NewCatalogJob(testGenerator(t, 5), pub, nil, settings).Run(context.Background())
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Empty(t, sink.Names(), "nothing published")
}

func TestSeedFor(t *testing.T) {
	assert.Zero(t, SeedFor(0, JobInventory))
	assert.Equal(t, uint64(10), SeedFor(10, JobCustomers))
	assert.Equal(t, uint64(11), SeedFor(10, JobInventory))
	assert.Equal(t, uint64(12), SeedFor(10, JobCatalog))
}

func TestSeedForNeverWrapsToClockSeed(t *testing.T) {
	for _, base := range []uint64{math.MaxUint64, math.MaxUint64 - 1} {
		seen := map[uint64]string{}
		for _, job := range []string{JobCustomers, JobInventory, JobCatalog} {
			seed := SeedFor(base, job)
			assert.NotZero(t, seed, "base %d job %s", base, job)
			assert.NotContains(t, seen, seed, "base %d job %s collides with %s", base, job, seen[seed])
			seen[seed] = job
		}
	}
	assert.Equal(t, uint64(1), SeedFor(math.MaxUint64, JobInventory))
	assert.Equal(t, uint64(1), SeedFor(math.MaxUint64-1, JobCatalog))
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Feed:         config.FeedConfig{Customers: 1, Inventory: 2, Providers: 3, JSONPrefix: "j/", CSVPrefix: "c/", CSVAppend: true},
		FeatureFlags: config.FeatureFlagsConfig{Mirror: true},
		BigQuery:     config.BigQueryConfig{ReceiptsTable: "r"},
	}
	s := SettingsFromConfig(cfg)
	assert.Equal(t, 1, s.Customers)
	assert.Equal(t, "j/customers.json", s.jsonKey("customers"))
	assert.Equal(t, "c/providers.csv", s.csvKey("providers"))
	assert.True(t, s.CSVAppend)
	assert.True(t, s.Mirror)
	assert.Equal(t, "r", s.Tables.ReceiptsTable)
}
