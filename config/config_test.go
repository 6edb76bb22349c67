package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := validateConfig(Default()); err != nil {
		t.Fatalf("default configuration must validate: %v", err)
	}
}

func TestLoadConfigAppliesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
catalog:
  api_version: 2024-06-01
  max_retries: 2
cache:
  enabled: false
export:
  format: json
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Catalog.APIVersion != "2024-06-01" {
		t.Errorf("api_version not applied: %q", cfg.Catalog.APIVersion)
	}
	if cfg.Catalog.MaxRetries != 2 {
		t.Errorf("max_retries not applied: %d", cfg.Catalog.MaxRetries)
	}
	if cfg.Cache.Enabled {
		t.Error("cache.enabled override not applied")
	}
	if cfg.Export.Format != "json" {
		t.Errorf("export.format not applied: %q", cfg.Export.Format)
	}

	// Untouched fields keep their defaults.
	if cfg.Catalog.BaseURL != "https://prices.azure.com/api/retail/prices" {
		t.Errorf("base_url default lost: %q", cfg.Catalog.BaseURL)
	}
	if cfg.Fx.BaseCurrency != "USD" {
		t.Errorf("fx.base_currency default lost: %q", cfg.Fx.BaseCurrency)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "catalog: [not a mapping")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_API_VERSION", "2025-01-01")
	t.Setenv("CATALOG_MAX_RETRIES", "9")
	t.Setenv("CACHE_EXPIRE_DAYS", "3")

	cfg, err := LoadConfig(writeConfig(t, "catalog:\n  max_retries: 1\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Catalog.APIVersion != "2025-01-01" {
		t.Errorf("CATALOG_API_VERSION not applied: %q", cfg.Catalog.APIVersion)
	}
	if cfg.Catalog.MaxRetries != 9 {
		t.Errorf("CATALOG_MAX_RETRIES must win over the file value, got %d", cfg.Catalog.MaxRetries)
	}
	if cfg.Cache.ExpireDays != 3 {
		t.Errorf("CACHE_EXPIRE_DAYS not applied: %d", cfg.Cache.ExpireDays)
	}
}

func TestLoadConfigIgnoresInvalidEnvValues(t *testing.T) {
	t.Setenv("CATALOG_MAX_RETRIES", "lots")
	t.Setenv("CACHE_EXPIRE_DAYS", "-1")

	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Catalog.MaxRetries != 5 {
		t.Errorf("unparseable env value must keep the default, got %d", cfg.Catalog.MaxRetries)
	}
	if cfg.Cache.ExpireDays != 1 {
		t.Errorf("non-positive env value must keep the default, got %d", cfg.Cache.ExpireDays)
	}
}

func TestValidateConfigRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base_url", func(c *Config) { c.Catalog.BaseURL = "" }},
		{"missing api_version", func(c *Config) { c.Catalog.APIVersion = "" }},
		{"zero timeout", func(c *Config) { c.Catalog.RequestTimeoutSeconds = 0 }},
		{"negative retries", func(c *Config) { c.Catalog.MaxRetries = -1 }},
		{"backoff factor too small", func(c *Config) { c.Catalog.BackoffFactor = 1.0 }},
		{"cache without path", func(c *Config) { c.Cache.Path = "" }},
		{"cache zero expiry", func(c *Config) { c.Cache.ExpireDays = 0 }},
		{"missing base currency", func(c *Config) { c.Fx.BaseCurrency = "" }},
		{"bad export format", func(c *Config) { c.Export.Format = "xml" }},
		{"s3 without bucket", func(c *Config) { c.Export.S3.Enabled = true; c.Export.S3.Region = "eu-west-1" }},
		{"s3 without region", func(c *Config) { c.Export.S3.Enabled = true; c.Export.S3.Bucket = "exports" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := validateConfig(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := Default()
	if cfg.Catalog.RequestTimeout() != 30*time.Second {
		t.Errorf("unexpected request timeout: %v", cfg.Catalog.RequestTimeout())
	}
	if cfg.Catalog.BackoffBaseDelay() != time.Second {
		t.Errorf("unexpected backoff base delay: %v", cfg.Catalog.BackoffBaseDelay())
	}
}
