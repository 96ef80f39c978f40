package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends for the resume document.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// PDF rendering engines.
const (
	EngineRod      = "rod"
	EngineChromedp = "chromedp"
)

// Config aggregates application settings sourced from environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	PDF      PDFConfig      `mapstructure:"pdf"`
	Clamd    ClamdConfig    `mapstructure:"clamd"`
	Queue    QueueConfig    `mapstructure:"queue"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
}

// LogConfig 控制 slog 的级别与输出格式（text/json）。
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig selects where the resume document and template choice are persisted.
type StorageConfig struct {
	Backend        string `mapstructure:"backend"`
	FilePath       string `mapstructure:"file_path"`
	SQLitePath     string `mapstructure:"sqlite_path"`
	RedisKeyPrefix string `mapstructure:"redis_key_prefix"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DB            int    `mapstructure:"db"`
	NotifyChannel string `mapstructure:"notify_channel"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Endpoint         string        `mapstructure:"endpoint"`
	PublicEndpoint   string        `mapstructure:"public_endpoint"`
	AccessKeyID      string        `mapstructure:"access_key_id"`
	SecretAccessKey  string        `mapstructure:"secret_access_key"`
	UseSSL           bool          `mapstructure:"use_ssl"`
	Bucket           string        `mapstructure:"bucket"`
	Region           string        `mapstructure:"region"`
	BucketLookup     string        `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool          `mapstructure:"auto_create_bucket"`
	LinkTTL          time.Duration `mapstructure:"link_ttl"`
}

// PDFConfig selects the headless browser engine used for PDF export.
type PDFConfig struct {
	Engine     string        `mapstructure:"engine"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ChromePath string        `mapstructure:"chrome_path"`
}

// ClamdConfig 为空地址时跳过头像上传的病毒扫描。
type ClamdConfig struct {
	Addr string `mapstructure:"addr"`
}

// QueueConfig controls the asynchronous PDF export queue.
type QueueConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Concurrency int    `mapstructure:"concurrency"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// NeedsRedis reports whether any enabled component talks to Redis.
func (c Config) NeedsRedis() bool {
	return c.Storage.Backend == BackendRedis || c.Queue.Enabled
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	cfg.PDF.Engine = strings.ToLower(strings.TrimSpace(cfg.PDF.Engine))

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.allowed_origins", []string{})
	v.SetDefault("api.shutdown_grace", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.file_path", "./data/resume-store.json")
	v.SetDefault("storage.sqlite_path", "./data/resume-store.db")
	v.SetDefault("storage.redis_key_prefix", "resumestudio:")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "resumestudio")
	v.SetDefault("database.user", "resumestudio")
	v.SetDefault("database.password", "resumestudio")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.notify_channel", "resume_notify")
	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resume-exports")
	v.SetDefault("minio.region", "us-east-1")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("minio.link_ttl", 24*time.Hour)
	v.SetDefault("pdf.engine", EngineRod)
	v.SetDefault("pdf.timeout", 30*time.Second)
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.concurrency", 2)
	v.SetDefault("queue.metrics_addr", ":9091")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                 "API_PORT",
		"api.allowed_origins":      "API_ALLOWED_ORIGINS",
		"api.shutdown_grace":       "API_SHUTDOWN_GRACE",
		"log.level":                "LOG_LEVEL",
		"log.format":               "LOG_FORMAT",
		"storage.backend":          "STORAGE_BACKEND",
		"storage.file_path":        "STORAGE_FILE_PATH",
		"storage.sqlite_path":      "STORAGE_SQLITE_PATH",
		"storage.redis_key_prefix": "STORAGE_REDIS_KEY_PREFIX",
		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.name":            "POSTGRES_DB",
		"database.user":            "POSTGRES_USER",
		"database.password":        "POSTGRES_PASSWORD",
		"database.sslmode":         "DATABASE_SSLMODE",
		"redis.host":               "REDIS_HOST",
		"redis.port":               "REDIS_PORT",
		"redis.db":                 "REDIS_DB",
		"redis.notify_channel":     "REDIS_NOTIFY_CHANNEL",
		"minio.enabled":            "MINIO_ENABLED",
		"minio.endpoint":           "MINIO_ENDPOINT",
		"minio.public_endpoint":    "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":      "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":  "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":            "MINIO_USE_SSL",
		"minio.bucket":             "MINIO_BUCKET",
		"minio.region":             "MINIO_REGION",
		"minio.bucket_lookup":      "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket": "MINIO_AUTO_CREATE_BUCKET",
		"minio.link_ttl":           "MINIO_LINK_TTL",
		"pdf.engine":               "PDF_ENGINE",
		"pdf.timeout":              "PDF_TIMEOUT",
		"pdf.chrome_path":          "CHROME_PATH",
		"clamd.addr":               "CLAMD_ADDR",
		"queue.enabled":            "QUEUE_ENABLED",
		"queue.concurrency":        "QUEUE_CONCURRENCY",
		"queue.metrics_addr":       "QUEUE_METRICS_ADDR",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", cfg.Log.Format)
	}

	switch cfg.Storage.Backend {
	case BackendFile:
		if cfg.Storage.FilePath == "" {
			return errors.New("storage file path is required")
		}
	case BackendSQLite:
		if cfg.Storage.SQLitePath == "" {
			return errors.New("storage sqlite path is required")
		}
	case BackendPostgres:
		if err := validateDatabase(cfg.Database); err != nil {
			return err
		}
	case BackendRedis:
	default:
		return fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}

	if cfg.NeedsRedis() {
		if cfg.Redis.Host == "" {
			return errors.New("redis host is required")
		}
		if cfg.Redis.Port <= 0 {
			return errors.New("redis port must be positive")
		}
	}

	switch cfg.PDF.Engine {
	case EngineRod, EngineChromedp:
	default:
		return fmt.Errorf("unsupported pdf engine %q", cfg.PDF.Engine)
	}
	if cfg.PDF.Timeout <= 0 {
		return errors.New("pdf timeout must be positive")
	}

	if cfg.Queue.Enabled {
		if !cfg.MinIO.Enabled {
			return errors.New("queue requires minio to be enabled")
		}
		if cfg.Queue.Concurrency <= 0 {
			return errors.New("queue concurrency must be positive")
		}
	}

	if cfg.MinIO.Enabled {
		if cfg.MinIO.Endpoint == "" {
			return errors.New("minio endpoint is required")
		}
		if cfg.MinIO.AccessKeyID == "" {
			return errors.New("minio access key id is required")
		}
		if cfg.MinIO.SecretAccessKey == "" {
			return errors.New("minio secret access key is required")
		}
		if cfg.MinIO.Bucket == "" {
			return errors.New("minio bucket is required")
		}
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	if d.Host == "" {
		return errors.New("database host is required")
	}
	if d.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if d.Name == "" {
		return errors.New("database name is required")
	}
	if d.User == "" {
		return errors.New("database user is required")
	}
	if d.Password == "" {
		return errors.New("database password is required")
	}
	if d.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	return nil
}
