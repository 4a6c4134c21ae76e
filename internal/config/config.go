// Package config reads the consulard runtime configuration from CONSULAR_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"consulardesk/internal/blob"
	"consulardesk/internal/core"
	"consulardesk/internal/infra/persistence/buckets"
)

const prefix = "CONSULAR_"

// Config is the complete daemon configuration.
type Config struct {
	HTTPAddr         string
	RequestTimeout   time.Duration
	OperationTimeout time.Duration
	ShutdownTimeout  time.Duration
	LogLevel         string
	Seed             bool

	StorageDriver core.StorageDriver
	SQLitePath    string
	PostgresDSN   string
	FlushAttempts int
	FlushBackoff  time.Duration

	BlobDriver    blob.Driver
	BlobFSRoot    string
	BlobFSBaseURL string
	S3            blob.S3Config

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SummaryTTL    time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	ElasticAddresses []string
	ElasticUsername  string
	ElasticPassword  string
	ElasticIndex     string

	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string

	ExportQueueSize int
}

// Load reads the configuration and validates the enumerated settings.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		RequestTimeout:   getDuration("REQUEST_TIMEOUT", 15*time.Second),
		OperationTimeout: getDuration("OPERATION_TIMEOUT", 5*time.Second),
		ShutdownTimeout:  getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Seed:             getBool("SEED", false),

		StorageDriver: core.StorageDriver(strings.ToLower(getEnv("STORAGE_DRIVER", string(core.StorageSQLite)))),
		SQLitePath:    getEnv("SQLITE_PATH", "consulardesk.db"),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		FlushAttempts: getInt("FLUSH_RETRY_ATTEMPTS", 3),
		FlushBackoff:  getDuration("FLUSH_RETRY_BACKOFF", 50*time.Millisecond),

		BlobDriver:    blob.Driver(strings.ToLower(getEnv("BLOB_DRIVER", string(blob.DriverFilesystem)))),
		BlobFSRoot:    getEnv("BLOB_FS_ROOT", "./data/blobs"),
		BlobFSBaseURL: getEnv("BLOB_FS_BASE_URL", ""),
		S3: blob.S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			SessionToken:    getEnv("S3_SESSION_TOKEN", ""),
			PathStyle:       getBool("S3_PATH_STYLE", false),
		},

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		SummaryTTL:    getDuration("SUMMARY_TTL", 30*time.Second),

		KafkaBrokers: getList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "consulardesk.changes"),

		ElasticAddresses: getList("ELASTICSEARCH_ADDRESSES"),
		ElasticUsername:  getEnv("ELASTICSEARCH_USERNAME", ""),
		ElasticPassword:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		ElasticIndex:     getEnv("ELASTICSEARCH_INDEX", "consulardesk-search"),

		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "development"),
		SentryRelease:     getEnv("SENTRY_RELEASE", ""),

		ExportQueueSize: getInt("EXPORT_QUEUE_SIZE", 16),
	}

	switch cfg.StorageDriver {
	case core.StorageMemory, core.StorageSQLite:
	case core.StoragePostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, fmt.Errorf("%sPOSTGRES_DSN is required for the postgres storage driver", prefix)
		}
	default:
		return Config{}, fmt.Errorf("unknown %sSTORAGE_DRIVER %q", prefix, cfg.StorageDriver)
	}
	switch cfg.BlobDriver {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if cfg.S3.Bucket == "" {
			return Config{}, fmt.Errorf("%sS3_BUCKET is required for the s3 blob driver", prefix)
		}
	default:
		return Config{}, fmt.Errorf("unknown %sBLOB_DRIVER %q", prefix, cfg.BlobDriver)
	}

	invalid := make([]string, 0, 4)
	if cfg.RequestTimeout <= 0 {
		invalid = append(invalid, prefix+"REQUEST_TIMEOUT")
	}
	if cfg.OperationTimeout <= 0 {
		invalid = append(invalid, prefix+"OPERATION_TIMEOUT")
	}
	if cfg.FlushAttempts <= 0 {
		invalid = append(invalid, prefix+"FLUSH_RETRY_ATTEMPTS")
	}
	if cfg.ExportQueueSize <= 0 {
		invalid = append(invalid, prefix+"EXPORT_QUEUE_SIZE")
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("values must be positive: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// Storage returns the persistence settings in the form core expects.
func (c Config) Storage() core.StorageConfig {
	retry := buckets.DefaultRetryPolicy()
	retry.Attempts = c.FlushAttempts
	retry.Backoff = c.FlushBackoff
	return core.StorageConfig{
		Driver:      c.StorageDriver,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		Retry:       retry,
	}
}

// Blob returns the document storage settings.
func (c Config) Blob() blob.Config {
	return blob.Config{
		Driver:    c.BlobDriver,
		FSRoot:    c.BlobFSRoot,
		FSBaseURL: c.BlobFSBaseURL,
		S3:        c.S3,
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(prefix + key))
	if value == "" {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getBool(key string, fallback bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func getList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
