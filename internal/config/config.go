package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StorageBackendRedis    = "redis"
	StorageBackendPostgres = "postgres"
	StorageBackendFile     = "file"
	StorageBackendMemory   = "memory"

	DefaultStorageKey = "@fitness_tracker_data"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// tracker
	TimeZone                string `toml:"time_zone"`
	RolloverCheckIntervalMs int    `toml:"rollover_check_interval_ms"`
	// storage
	StorageBackend   string `toml:"storage_backend"`
	StorageKey       string `toml:"storage_key"`
	StorageCacheMB   int    `toml:"storage_cache_mb"`
	FileStoreDir     string `toml:"file_store_dir"`
	RedisHost        string `toml:"redis_host"`
	RedisPort        string `toml:"redis_port"`
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	PostgresKVTable  string `toml:"postgres_kv_table"`
	// http
	AllowedOrigins          []string `toml:"allowed_origins"`
	MutationRateLimitPerMin int      `toml:"mutation_rate_limit_per_min"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing", env)
	}
	cfg.Environment = strings.ToLower(env)
	return cfg, nil
}

// Load reads the TOML config file and picks the section for the given environment.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode toml config [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StorageBackend == "" {
		c.StorageBackend = StorageBackendFile
	}
	if c.StorageKey == "" {
		c.StorageKey = DefaultStorageKey
	}
	if c.RolloverCheckIntervalMs <= 0 {
		c.RolloverCheckIntervalMs = 60_000
	}
	if c.PostgresKVTable == "" {
		c.PostgresKVTable = "kv_store"
	}
	if c.FileStoreDir == "" {
		c.FileStoreDir = "./data"
	}
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageBackendRedis:
		if c.RedisHost == "" || c.RedisPort == "" {
			return errors.New("redis storage backend requires redis_host and redis_port")
		}
	case StorageBackendPostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			return errors.New("postgres storage backend requires postgres_host, postgres_port and postgres_db_name")
		}
	case StorageBackendFile, StorageBackendMemory:
	default:
		return fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}

	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return fmt.Errorf("time zone [%s]: %w", c.TimeZone, err)
		}
	}
	return nil
}

// Location returns the time zone the calendar days are computed in (local time by default).
func (c *Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) RolloverCheckInterval() time.Duration {
	return time.Duration(c.RolloverCheckIntervalMs) * time.Millisecond
}
