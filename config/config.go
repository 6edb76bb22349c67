package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Priceflow PriceflowConfig `yaml:"priceflow"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Cache     CacheConfig     `yaml:"cache"`
	Fx        FxConfig        `yaml:"fx"`
	Export    ExportConfig    `yaml:"export"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type PriceflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type CatalogConfig struct {
	BaseURL               string          `yaml:"base_url"`
	APIVersion            string          `yaml:"api_version"`
	RequestTimeoutSeconds int             `yaml:"request_timeout_seconds"`
	MaxRetries            int             `yaml:"max_retries"`
	BackoffBaseDelayMs    int             `yaml:"backoff_base_delay_ms"`
	BackoffFactor         float64         `yaml:"backoff_factor"`
	RetryableStatuses     []int           `yaml:"retryable_statuses"`
	RateLimit             RateLimitConfig `yaml:"rate_limit"`
}

// RequestTimeout converts the configured timeout to a duration.
func (c *CatalogConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// BackoffBaseDelay converts the configured base delay to a duration.
func (c *CatalogConfig) BackoffBaseDelay() time.Duration {
	return time.Duration(c.BackoffBaseDelayMs) * time.Millisecond
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second"`
	BurstSize         int  `yaml:"burst_size"`
}

type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	ExpireDays int    `yaml:"expire_days"`
}

type FxConfig struct {
	BaseCurrency     string   `yaml:"base_currency"`
	TargetCurrencies []string `yaml:"target_currencies"`
	MeterID          string   `yaml:"meter_id"`
}

type ExportConfig struct {
	OutputDir string   `yaml:"output_dir"`
	Format    string   `yaml:"format"`
	S3        S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MetricsConfig struct {
	CloudWatchEnabled bool   `yaml:"cloudwatch_enabled"`
	Namespace         string `yaml:"namespace"`
	Region            string `yaml:"region"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// Default returns the configuration used when no config file is supplied.
// Values mirror the catalog's published limits: a dated preview API version,
// one-day cache expiry, 30s request timeout and five retries with a factor-2
// exponential backoff over the rate-limit and server-error statuses.
func Default() *Config {
	return &Config{
		Priceflow: PriceflowConfig{
			Name:    "priceflow",
			Version: "dev",
		},
		Catalog: CatalogConfig{
			BaseURL:               "https://prices.azure.com/api/retail/prices",
			APIVersion:            "2023-01-01-preview",
			RequestTimeoutSeconds: 30,
			MaxRetries:            5,
			BackoffBaseDelayMs:    1000,
			BackoffFactor:         2.0,
			RetryableStatuses:     []int{429, 500, 502, 503, 504},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 10,
				BurstSize:         1,
			},
		},
		Cache: CacheConfig{
			Enabled:    true,
			Path:       "priceflow_cache.db",
			ExpireDays: 1,
		},
		Fx: FxConfig{
			BaseCurrency: "USD",
			TargetCurrencies: []string{
				"EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "CNY", "INR",
				"BRL", "KRW", "SEK", "NOK", "DKK", "NZD", "RUB", "ZAR",
			},
			MeterID: "5daea80f-04ac-5385-86f0-b263d23becd2",
		},
		Export: ExportConfig{
			OutputDir: "output",
			Format:    "csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// LoadConfig reads the YAML configuration at path, applies defaults for
// omitted values and environment variable overrides, and validates the
// result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// applyEnvOverrides lets deployment environments tune the catalog client and
// storage credentials without editing the config file.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("CATALOG_API_VERSION"); v != "" {
		config.Catalog.APIVersion = strings.TrimSpace(v)
	}
	if v := os.Getenv("CATALOG_REQUEST_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Catalog.RequestTimeoutSeconds = n
		}
	}
	if v := os.Getenv("CATALOG_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			config.Catalog.MaxRetries = n
		}
	}
	if v := os.Getenv("CATALOG_BACKOFF_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			config.Catalog.BackoffFactor = f
		}
	}
	if v := os.Getenv("CACHE_EXPIRE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Cache.ExpireDays = n
		}
	}

	if config.Export.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Export.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Export.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Export.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Export.S3.Bucket = strings.TrimSpace(v)
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Priceflow.Name == "" {
		return fmt.Errorf("priceflow.name is required")
	}

	if cfg.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if cfg.Catalog.APIVersion == "" {
		return fmt.Errorf("catalog.api_version is required")
	}
	if cfg.Catalog.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("catalog.request_timeout_seconds must be greater than 0")
	}
	if cfg.Catalog.MaxRetries < 0 {
		return fmt.Errorf("catalog.max_retries must not be negative")
	}
	if cfg.Catalog.BackoffFactor <= 1 {
		return fmt.Errorf("catalog.backoff_factor must be greater than 1")
	}
	if cfg.Catalog.RateLimit.Enabled && cfg.Catalog.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("catalog.rate_limit.requests_per_second must be greater than 0")
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.Path == "" {
			return fmt.Errorf("cache.path is required when the cache is enabled")
		}
		if cfg.Cache.ExpireDays <= 0 {
			return fmt.Errorf("cache.expire_days must be greater than 0")
		}
	}

	if cfg.Fx.BaseCurrency == "" {
		return fmt.Errorf("fx.base_currency is required")
	}

	switch cfg.Export.Format {
	case "csv", "json", "parquet":
	default:
		return fmt.Errorf("export.format '%s' is invalid", cfg.Export.Format)
	}

	if cfg.Export.S3.Enabled {
		if cfg.Export.S3.Bucket == "" {
			return fmt.Errorf("export.s3.bucket is required when S3 is enabled")
		}
		if cfg.Export.S3.Region == "" {
			return fmt.Errorf("export.s3.region is required when S3 is enabled")
		}
	}

	return nil
}
