package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	Cache    CacheConfig    `yaml:"cache" envconfig:"CACHE"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// StorageConfig selects and configures the blob-store backend.
type StorageConfig struct {
	Backend         string `yaml:"backend" envconfig:"BACKEND" default:"filesystem" validate:"oneof=filesystem memory gcs"`
	BaseDir         string `yaml:"base_dir" envconfig:"BASE_DIR" default:"data"`
	Bucket          string `yaml:"bucket" envconfig:"BUCKET"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// CacheConfig configures the raw-content cache.
type CacheConfig struct {
	TTL            time.Duration `yaml:"ttl" envconfig:"TTL" default:"10m" validate:"gt=0"`
	MaxBytes       int64         `yaml:"max_bytes" envconfig:"MAX_BYTES" default:"268435456" validate:"gt=0"`
	EvictionTarget float64       `yaml:"eviction_target" envconfig:"EVICTION_TARGET" default:"0.9" validate:"gt=0,lte=1"`
}

// PipelineConfig configures batch orchestration.
type PipelineConfig struct {
	InputPrefix       string        `yaml:"input_prefix" envconfig:"INPUT_PREFIX" default:"done-summary/" validate:"required"`
	BatchSize         int           `yaml:"batch_size" envconfig:"BATCH_SIZE" default:"5" validate:"min=1"`
	MaxConcurrency    int           `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" default:"3" validate:"min=1"`
	OverlapMultiplier float64       `yaml:"overlap_multiplier" envconfig:"OVERLAP_MULTIPLIER" default:"2" validate:"gt=0"`
	MarketOpenCutoff  string        `yaml:"market_open_cutoff" envconfig:"MARKET_OPEN_CUTOFF" default:"08:58:00" validate:"required"`
	HeapLimitMB       int           `yaml:"heap_limit_mb" envconfig:"HEAP_LIMIT_MB" default:"1024" validate:"min=0"`
	ListRatePerSec    float64       `yaml:"list_rate_per_sec" envconfig:"LIST_RATE_PER_SEC" default:"10" validate:"gt=0"`
	RetryMaxAttempts  int           `yaml:"retry_max_attempts" envconfig:"RETRY_MAX_ATTEMPTS" default:"4" validate:"min=1"`
	RetryInitialDelay time.Duration `yaml:"retry_initial_delay" envconfig:"RETRY_INITIAL_DELAY" default:"500ms"`
	RetryMaxDelay     time.Duration `yaml:"retry_max_delay" envconfig:"RETRY_MAX_DELAY" default:"8s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
}

// Load builds the configuration from tag defaults, BROKERSUM_* environment
// variables, and an optional YAML file, in that order of precedence (the
// explicitly passed file wins), then validates the result.
func Load(configFile string) (*Config, error) {
	var cfg Config

	// Defaults plus environment come from envconfig.
	if err := envconfig.Process("BROKERSUM", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("load config from file: %w", err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration against its struct tags plus the
// backend-specific requirements the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Storage.Backend == "gcs" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required for the gcs backend")
	}
	if c.Storage.Backend == "filesystem" && c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required for the filesystem backend")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
