package feed

import (
	"context"
	"path"

	"github.com/angelmondragon/dirtyfeed/internal/cron"
	"github.com/angelmondragon/dirtyfeed/internal/generator"
	"github.com/angelmondragon/dirtyfeed/pkg/bigquery"
	"github.com/angelmondragon/dirtyfeed/pkg/config"
	"github.com/angelmondragon/dirtyfeed/pkg/metrics"
	"go.uber.org/multierr"
)

const (
	JobCustomers = "customers"
	JobInventory = "inventory"
	JobCatalog   = "catalog"
)

// Settings carries the per-job sizes and artifact layout.
type Settings struct {
	Customers  int
	Inventory  int
	Providers  int
	JSONPrefix string
	CSVPrefix  string
	CSVAppend  bool
	Mirror     bool
	Tables     config.BigQueryConfig
}

// SettingsFromConfig maps the feed configuration onto job settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Customers:  cfg.Feed.Customers,
		Inventory:  cfg.Feed.Inventory,
		Providers:  cfg.Feed.Providers,
		JSONPrefix: cfg.Feed.JSONPrefix,
		CSVPrefix:  cfg.Feed.CSVPrefix,
		CSVAppend:  cfg.Feed.CSVAppend,
		Mirror:     cfg.FeatureFlags.Mirror,
		Tables:     cfg.BigQuery,
	}
}

func (s Settings) jsonKey(name string) string {
	return path.Join(s.JSONPrefix, name+".json")
}

func (s Settings) csvKey(name string) string {
	return path.Join(s.CSVPrefix, name+".csv")
}

// SeedFor derives a per-job seed so jobs never share a random stream.
// A zero base keeps the clock-seeded default; a non-zero base never yields 0.
func SeedFor(base uint64, job string) uint64 {
	if base == 0 {
		return 0
	}
	var offset uint64
	switch job {
	case JobInventory:
		offset = 1
	case JobCatalog:
		offset = 2
	}
	seed := base + offset
	if seed < base {
		// wrapped past zero
		seed++
	}
	return seed
}

type publisher interface {
	Publish(ctx context.Context, a Artifact) error
}

type baseJob struct {
	name     string
	gen      *generator.Generator
	pub      publisher
	metrics  *metrics.FeedMetrics
	settings Settings
}

func (j *baseJob) Name() string { return j.name }

// publishAll uploads every artifact, continuing past failures.
func (j *baseJob) publishAll(ctx context.Context, items ...Artifact) error {
	var errs error
	for _, item := range items {
		item.Job = j.name
		errs = multierr.Append(errs, j.pub.Publish(ctx, item))
	}
	return errs
}

func (j *baseJob) mirror(a Artifact, table string, rows []bigquery.Row, err error) Artifact {
	if !j.settings.Mirror || err != nil {
		return a
	}
	return a.WithMirror(table, rows)
}

// CustomersJob emits customers, their transactions, invoices and receipts.
type CustomersJob struct {
	baseJob
}

var _ cron.Job = (*CustomersJob)(nil)

func NewCustomersJob(gen *generator.Generator, pub publisher, m *metrics.FeedMetrics, settings Settings) *CustomersJob {
	return &CustomersJob{baseJob{name: JobCustomers, gen: gen, pub: pub, metrics: m, settings: settings}}
}

func (j *CustomersJob) Run(ctx context.Context) error {
	batch, err := j.gen.Customers(j.settings.Customers)
	if err != nil {
		return err
	}
	invoices := j.gen.Invoices(batch.Transactions)
	receipts := j.gen.Receipts(generator.SalesFromCustomers(batch.Transactions))

	j.metrics.AddRecords("customers", len(batch.Customers))
	j.metrics.AddRecords("transactions", len(batch.Transactions))
	j.metrics.AddRecords("invoices", len(invoices))
	j.metrics.AddRecords("receipts", len(receipts.Receipts))
	j.metrics.AddDefects(batch.Defects)
	j.metrics.AddDefects(receipts.Defects)

	invoiceRows, rowErr := MirrorRows(invoices, "invoice_id")
	receiptRows, receiptErr := MirrorRows(receipts.Receipts, "receipt_id")

	return j.publishAll(ctx,
		JSONArtifact("customers", j.settings.jsonKey("customers"), batch.Customers, true),
		TransactionsCSVArtifact("transactions_csv", j.settings.csvKey("transactions"), batch.Transactions, j.settings.CSVAppend),
		j.mirror(JSONArtifact("invoices", j.settings.jsonKey("invoices"), invoices, true),
			j.settings.Tables.InvoicesTable, invoiceRows, rowErr),
		j.mirror(JSONArtifact("receipts", j.settings.jsonKey("receipts"), receipts.Receipts, true),
			j.settings.Tables.ReceiptsTable, receiptRows, receiptErr),
	)
}

// InventoryJob emits warehouse stock, the sales drawn from it and their receipts.
type InventoryJob struct {
	baseJob
}

var _ cron.Job = (*InventoryJob)(nil)

func NewInventoryJob(gen *generator.Generator, pub publisher, m *metrics.FeedMetrics, settings Settings) *InventoryJob {
	return &InventoryJob{baseJob{name: JobInventory, gen: gen, pub: pub, metrics: m, settings: settings}}
}

func (j *InventoryJob) Run(ctx context.Context) error {
	batch, err := j.gen.Inventory(j.settings.Inventory)
	if err != nil {
		return err
	}
	txs := j.gen.AssociatedTransactions(batch.Records)
	receipts := j.gen.Receipts(generator.SalesFromInventory(txs))

	j.metrics.AddRecords("inventories", len(batch.Records))
	j.metrics.AddRecords("inventory_transactions", len(txs))
	j.metrics.AddRecords("receipts", len(receipts.Receipts))
	j.metrics.AddDefects(batch.Defects)
	j.metrics.AddDefects(receipts.Defects)

	inventoryRows, inventoryErr := MirrorRows(batch.Records, "")
	receiptRows, receiptErr := MirrorRows(receipts.Receipts, "receipt_id")

	return j.publishAll(ctx,
		j.mirror(JSONArtifact("inventories", j.settings.jsonKey("inventories"), batch.Records, true),
			j.settings.Tables.InventoriesTable, inventoryRows, inventoryErr),
		JSONArtifact("transactions", j.settings.jsonKey("transactions"), txs, true),
		j.mirror(JSONArtifact("receipts", j.settings.jsonKey("receipts"), receipts.Receipts, true),
			j.settings.Tables.ReceiptsTable, receiptRows, receiptErr),
	)
}

// CatalogJob emits suppliers and the product price list.
type CatalogJob struct {
	baseJob
}

var _ cron.Job = (*CatalogJob)(nil)

func NewCatalogJob(gen *generator.Generator, pub publisher, m *metrics.FeedMetrics, settings Settings) *CatalogJob {
	return &CatalogJob{baseJob{name: JobCatalog, gen: gen, pub: pub, metrics: m, settings: settings}}
}

func (j *CatalogJob) Run(ctx context.Context) error {
	providers, err := j.gen.Providers(j.settings.Providers)
	if err != nil {
		return err
	}
	products := j.gen.Products()

	j.metrics.AddRecords("providers", len(providers))
	j.metrics.AddRecords("products", len(products))

	providerRows, rowErr := MirrorRows(providers, "provider_id")

	return j.publishAll(ctx,
		j.mirror(ProvidersCSVArtifact("providers", j.settings.csvKey("providers"), providers, j.settings.CSVAppend),
			j.settings.Tables.ProvidersTable, providerRows, rowErr),
		JSONArtifact("products", j.settings.jsonKey("products"), products, true),
	)
}
