package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"TopMover/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory     = "memory"
	StoreSQLite     = "sqlite"
	StoreClickHouse = "clickhouse"
	StoreRedis      = "redis"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Ingest struct {
		Watchlist       []string      `yaml:"watchlist"`
		PartitionKey    string        `yaml:"partition_key" default:"WATCHLIST" validate:"required"`
		WindowSize      int           `yaml:"window_size" default:"7" validate:"gte=1,lte=90"`
		LookbackDays    int           `yaml:"lookback_days" default:"14" validate:"gte=7"`
		MaxBackfillDays int           `yaml:"max_backfill_days" default:"366" validate:"gte=1"`
		Retention       time.Duration `yaml:"retention" default:"8760h"`
		Schedule        string        `yaml:"schedule" default:"0 30 6 * * 2-6"`
		SweepSchedule   string        `yaml:"sweep_schedule" default:"0 0 3 * * *"`
		RunTimeout      time.Duration `yaml:"run_timeout" default:"10m"`
	} `yaml:"ingest"`
	Provider struct {
		BaseURL           string        `yaml:"base_url" default:"https://api.polygon.io" validate:"required,url"`
		APIKey            string        `yaml:"api_key"`
		Timeout           time.Duration `yaml:"timeout" default:"30s"`
		RequestsPerMinute int           `yaml:"requests_per_minute" default:"5" validate:"gte=0"`
	} `yaml:"provider"`
	Store struct {
		Driver string `yaml:"driver" default:"sqlite"`
		SQLite struct {
			Path string `yaml:"path" default:"data/topmover.db"`
		} `yaml:"sqlite"`
		ClickHouse struct {
			Host             string        `yaml:"host" default:"localhost"`
			Port             int           `yaml:"port" default:"9000"`
			Database         string        `yaml:"database" default:"topmover"`
			Table            string        `yaml:"table" default:"winners"`
			User             string        `yaml:"user" default:"default"`
			Password         string        `yaml:"password"`
			UseHTTP          bool          `yaml:"use_http"`
			DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
			WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
		} `yaml:"clickhouse"`
		Redis struct {
			Addr      string `yaml:"addr" default:"localhost:6379"`
			Password  string `yaml:"password"`
			DB        int    `yaml:"db"`
			KeyPrefix string `yaml:"key_prefix" default:"topmover"`
		} `yaml:"redis"`
	} `yaml:"store"`
	Kafka struct {
		Enabled          bool     `yaml:"enabled"`
		Brokers          []string `yaml:"brokers"`
		EventsTopic      string   `yaml:"events_topic" default:"topmover.winners"`
		InvocationsTopic string   `yaml:"invocations_topic"`
		RequiredAcks     int      `yaml:"required_acks" default:"-1"`
		Compression      string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"100ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID  string `yaml:"group_id" default:"topmover-ingest"`
			DLQTopic string `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Archive struct {
		Enabled bool   `yaml:"enabled"`
		Dir     string `yaml:"dir" default:"data/bars"`
	} `yaml:"archive"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl" default:"60s"`
		Redis bool          `yaml:"redis"`
	} `yaml:"cache"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, getenv)
}

// Parse decodes YAML bytes, applies defaults, optional env overrides, and validates the result.
func Parse(b []byte, getenv func(string) string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if getenv != nil {
		c.ApplyEnv(getenv)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// ApplyEnv overrides fields from environment lookups.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("MASSIVE_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := getenv("POLYGON_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := getenv("STOCK_API_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := getenv("WATCHLIST"); v != "" {
		c.Ingest.Watchlist = util.SplitList(v)
	}
	if v := getenv("PARTITION_KEY_VALUE"); v != "" {
		c.Ingest.PartitionKey = v
	}
	if days := util.ParseIntDefault(getenv("RETENTION_DAYS"), 0); days > 0 {
		c.Ingest.Retention = time.Duration(days) * 24 * time.Hour
	}
	if v := getenv("STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
}

func (c *Config) normalize() {
	c.Ingest.Watchlist = util.NormalizeTickers(c.Ingest.Watchlist)
	c.Provider.BaseURL = strings.TrimRight(c.Provider.BaseURL, "/")
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if len(c.Ingest.Watchlist) == 0 {
		return fmt.Errorf("ingest.watchlist cannot be empty")
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	if c.Ingest.Retention <= 0 {
		return fmt.Errorf("ingest.retention must be positive")
	}
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite, StoreClickHouse, StoreRedis:
	default:
		return fmt.Errorf("store.driver must be one of memory, sqlite, clickhouse, redis, got '%s'", c.Store.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	return nil
}
