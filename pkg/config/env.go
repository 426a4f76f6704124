package config

const (
	EnvPrefix = "DIRTYFEED"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	SinkKindGCS    = "gcs"
	SinkKindS3     = "s3"
	SinkKindLocal  = "local"
	SinkKindMemory = "memory"

	NotifyKindNone   = "none"
	NotifyKindPubSub = "pubsub"
	NotifyKindKafka  = "kafka"

	EnvAppEnv                 = "DIRTYFEED_APP_ENV"
	EnvLogLevel               = "DIRTYFEED_LOG_LEVEL"
	EnvFeedInterval           = "DIRTYFEED_FEED_INTERVAL"
	EnvFeedJobs               = "DIRTYFEED_FEED_JOBS"
	EnvFeedSeed               = "DIRTYFEED_FEED_SEED"
	EnvFeedCustomers          = "DIRTYFEED_FEED_CUSTOMERS"
	EnvCatalogPath            = "DIRTYFEED_CATALOG_PATH"
	EnvCorruptProductCase     = "DIRTYFEED_CORRUPT_PRODUCT_CASE_RATE"
	EnvCorruptQuantity        = "DIRTYFEED_CORRUPT_QUANTITY_RATE"
	EnvCorruptReceiptDriftMin = "DIRTYFEED_CORRUPT_RECEIPT_DRIFT_MIN"
	EnvCorruptReceiptDriftMax = "DIRTYFEED_CORRUPT_RECEIPT_DRIFT_MAX"
	EnvSinkKind               = "DIRTYFEED_SINK_KIND"
	EnvGCSBucket              = "DIRTYFEED_GCS_BUCKET_NAME"
	EnvS3Bucket               = "DIRTYFEED_S3_BUCKET"
	EnvRedisURL               = "DIRTYFEED_REDIS_URL"
	EnvDBDSN                  = "DIRTYFEED_DB_DSN"
	EnvNotifyKind             = "DIRTYFEED_NOTIFY_KIND"
)
