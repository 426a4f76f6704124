package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Feed         FeedConfig
	Catalog      CatalogConfig
	Corruption   CorruptionConfig
	Sink         SinkConfig
	GCP          GCPConfig
	GCS          GCSConfig
	AWS          AWSConfig
	Local        LocalConfig
	Redis        RedisConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
	Notify       NotifyConfig
	PubSub       PubSubConfig
	Kafka        KafkaConfig
	BigQuery     BigQueryConfig
	Ops          OpsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks value ranges envconfig cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if c.Corruption.ReceiptDriftMin > c.Corruption.ReceiptDriftMax {
		return fmt.Errorf("%s must not exceed %s", EnvCorruptReceiptDriftMin, EnvCorruptReceiptDriftMax)
	}
	switch c.Sink.Kind {
	case SinkKindGCS:
		if c.GCS.BucketName == "" {
			return fmt.Errorf("%s is required for sink kind %q", EnvGCSBucket, c.Sink.Kind)
		}
	case SinkKindS3:
		if c.AWS.Bucket == "" {
			return fmt.Errorf("%s is required for sink kind %q", EnvS3Bucket, c.Sink.Kind)
		}
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"DIRTYFEED_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"DIRTYFEED_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DIRTYFEED_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type FeedConfig struct {
	Interval   time.Duration `envconfig:"DIRTYFEED_FEED_INTERVAL" default:"12m"`
	RunOnce    bool          `envconfig:"DIRTYFEED_FEED_RUN_ONCE" default:"false"`
	Jobs       []string      `envconfig:"DIRTYFEED_FEED_JOBS" default:"customers,inventory,catalog" validate:"min=1,dive,oneof=customers inventory catalog"`
	Seed       uint64        `envconfig:"DIRTYFEED_FEED_SEED" default:"0"`
	Customers  int           `envconfig:"DIRTYFEED_FEED_CUSTOMERS" default:"200" validate:"gte=0"`
	Inventory  int           `envconfig:"DIRTYFEED_FEED_INVENTORY" default:"300" validate:"gte=0"`
	Providers  int           `envconfig:"DIRTYFEED_FEED_PROVIDERS" default:"50" validate:"gte=0"`
	CSVAppend  bool          `envconfig:"DIRTYFEED_FEED_CSV_APPEND" default:"false"`
	JSONPrefix string        `envconfig:"DIRTYFEED_JSON_PREFIX" default:"data/json/"`
	CSVPrefix  string        `envconfig:"DIRTYFEED_CSV_PREFIX" default:"data/csv/"`
}

// HasJob reports whether the named job is enabled.
func (f FeedConfig) HasJob(name string) bool {
	for _, job := range f.Jobs {
		if strings.EqualFold(strings.TrimSpace(job), name) {
			return true
		}
	}
	return false
}

type CatalogConfig struct {
	Path string `envconfig:"DIRTYFEED_CATALOG_PATH" default:"product_names.json"`
}

// CorruptionConfig holds per-field defect probabilities.
type CorruptionConfig struct {
	ProductCase     float64 `envconfig:"DIRTYFEED_CORRUPT_PRODUCT_CASE_RATE" default:"0.10" validate:"gte=0,lte=1"`
	Quantity        float64 `envconfig:"DIRTYFEED_CORRUPT_QUANTITY_RATE" default:"0.15" validate:"gte=0,lte=1"`
	LastUpdated     float64 `envconfig:"DIRTYFEED_CORRUPT_LAST_UPDATED_RATE" default:"0.05" validate:"gte=0,lte=1"`
	ReceiptAmount   float64 `envconfig:"DIRTYFEED_CORRUPT_RECEIPT_AMOUNT_RATE" default:"0.10" validate:"gte=0,lte=1"`
	ReceiptDriftMin float64 `envconfig:"DIRTYFEED_CORRUPT_RECEIPT_DRIFT_MIN" default:"0.9" validate:"gt=0"`
	ReceiptDriftMax float64 `envconfig:"DIRTYFEED_CORRUPT_RECEIPT_DRIFT_MAX" default:"1.1" validate:"gt=0"`
	ReceiptNoteRate float64 `envconfig:"DIRTYFEED_RECEIPT_NOTE_RATE" default:"0.20" validate:"gte=0,lte=1"`
	CustomerEmail   float64 `envconfig:"DIRTYFEED_CORRUPT_CUSTOMER_EMAIL_RATE" default:"0" validate:"gte=0,lte=1"`
	CustomerRegion  float64 `envconfig:"DIRTYFEED_CORRUPT_CUSTOMER_REGION_RATE" default:"0" validate:"gte=0,lte=1"`
}

type SinkConfig struct {
	Kind string `envconfig:"DIRTYFEED_SINK_KIND" default:"gcs" validate:"oneof=gcs s3 local memory"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DIRTYFEED_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"DIRTYFEED_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DIRTYFEED_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string        `envconfig:"DIRTYFEED_GCS_BUCKET_NAME"`
	Timeout    time.Duration `envconfig:"DIRTYFEED_GCS_TIMEOUT" default:"30s"`
}

type AWSConfig struct {
	Region   string `envconfig:"DIRTYFEED_AWS_REGION" default:"us-east-1"`
	Bucket   string `envconfig:"DIRTYFEED_S3_BUCKET"`
	Endpoint string `envconfig:"DIRTYFEED_S3_ENDPOINT"`
}

type LocalConfig struct {
	Dir string `envconfig:"DIRTYFEED_LOCAL_DIR" default:"./out"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DIRTYFEED_REDIS_URL"`
	Address      string        `envconfig:"DIRTYFEED_REDIS_ADDR"`
	Password     string        `envconfig:"DIRTYFEED_REDIS_PASSWORD"`
	DB           int           `envconfig:"DIRTYFEED_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DIRTYFEED_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"DIRTYFEED_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"DIRTYFEED_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DIRTYFEED_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DIRTYFEED_REDIS_WRITE_TIMEOUT" default:"5s"`
	LockTTL      time.Duration `envconfig:"DIRTYFEED_REDIS_LOCK_TTL" default:"30m"`
}

// Enabled reports whether a Redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type DBConfig struct {
	DSN    string `envconfig:"DIRTYFEED_DB_DSN"`
	Driver string `envconfig:"DIRTYFEED_DB_DRIVER" default:"postgres" validate:"oneof=postgres sqlite"`

	MaxOpenConns    int           `envconfig:"DIRTYFEED_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"DIRTYFEED_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"DIRTYFEED_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DIRTYFEED_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// Enabled reports whether the run ledger database is configured.
func (d DBConfig) Enabled() bool {
	return strings.TrimSpace(d.DSN) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DIRTYFEED_AUTO_MIGRATE" default:"false"`
	Mirror      bool `envconfig:"DIRTYFEED_FEATURE_BIGQUERY_MIRROR" default:"false"`
}

type NotifyConfig struct {
	Kind string `envconfig:"DIRTYFEED_NOTIFY_KIND" default:"none" validate:"oneof=none pubsub kafka"`
}

type PubSubConfig struct {
	Topic string `envconfig:"DIRTYFEED_PUBSUB_TOPIC" default:"dirtyfeed-artifacts"`
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"DIRTYFEED_KAFKA_BROKERS"`
	Topic        string        `envconfig:"DIRTYFEED_KAFKA_TOPIC" default:"dirtyfeed.artifacts"`
	WriteTimeout time.Duration `envconfig:"DIRTYFEED_KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"DIRTYFEED_BIGQUERY_DATASET" default:"dirtyfeed"`
	InventoriesTable string `envconfig:"DIRTYFEED_BIGQUERY_INVENTORIES_TABLE" default:"inventories"`
	ReceiptsTable    string `envconfig:"DIRTYFEED_BIGQUERY_RECEIPTS_TABLE" default:"receipts"`
	InvoicesTable    string `envconfig:"DIRTYFEED_BIGQUERY_INVOICES_TABLE" default:"invoices"`
	ProvidersTable   string `envconfig:"DIRTYFEED_BIGQUERY_PROVIDERS_TABLE" default:"providers"`
}

type OpsConfig struct {
	Addr string `envconfig:"DIRTYFEED_OPS_ADDR" default:":9090"`
}
