package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	appconfig "priceflow/config"
	"priceflow/internal/fx"
	"priceflow/internal/models"
	"priceflow/internal/pipeline/fetcher"
	"priceflow/internal/pipeline/flatten"
	"priceflow/internal/pipeline/normalizer"
	"priceflow/logger"
	"priceflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	command := flag.String("cmd", "prices", "Command to run: prices, flatten or fxrates")
	currencies := flag.String("currencies", "USD", "Comma-separated currency codes to export")
	filter := flag.String("filter", "", "Catalog filter expression appended verbatim to the request")
	maxPages := flag.Int("max-pages", 0, "Page cap per export; 0 means unbounded")
	format := flag.String("format", "", "Export format override: csv, json or parquet")

	flag.Parse()

	cfg, err := loadConfig(*configPath, log)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	if *format != "" {
		cfg.Export.Format = *format
	}

	log.WithFields(logger.Fields{
		"service": cfg.Priceflow.Name,
		"version": cfg.Priceflow.Version,
		"command": *command,
	}).Info("starting priceflow")

	if cfg.Metrics.CloudWatchEnabled {
		logger.InitCloudWatch(cfg.Metrics.Region, cfg.Metrics.Namespace)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f := fetcher.NewFetcher(cfg)
	defer f.Close()

	currencyList := splitCurrencies(*currencies)

	switch *command {
	case "prices":
		err = runPrices(ctx, cfg, f, currencyList, *filter, *maxPages)
	case "flatten":
		err = runFlatten(ctx, cfg, f, currencyList, *filter, *maxPages)
	case "fxrates":
		err = runFxRates(ctx, cfg, f, *maxPages)
	default:
		err = fmt.Errorf("unknown command %q", *command)
	}

	if err != nil {
		log.WithError(err).Error("export failed")
		os.Exit(1)
	}

	log.Info("priceflow finished")
}

// loadConfig falls back to built-in defaults when the config file does not
// exist, so the exporter runs without any local setup.
func loadConfig(path string, log *logger.Log) (*appconfig.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.WithFields(logger.Fields{"path": path}).Warn("config file not found; using defaults")
		return appconfig.Default(), nil
	}
	return appconfig.LoadConfig(path)
}

func splitCurrencies(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.ToUpper(strings.TrimSpace(p)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// runPrices exports the long one-row-per-price-type table per currency.
func runPrices(ctx context.Context, cfg *appconfig.Config, f *fetcher.Fetcher, currencies []string, filter string, maxPages int) error {
	for _, currency := range currencies {
		records, err := fetchNormalized(ctx, f, currency, filter, maxPages)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("prices_%s", strings.ToLower(currency))
		switch cfg.Export.Format {
		case "json":
			path := exportPath(cfg, name+".json")
			if err := writer.WriteRecordsJSON(path, records); err != nil {
				return err
			}
			if err := uploadIfEnabled(ctx, cfg, path, "application/json"); err != nil {
				return err
			}
		default:
			path := exportPath(cfg, name+".csv")
			w, err := writer.NewRecordsCSVWriter(path)
			if err != nil {
				return err
			}
			if err := w.Write(records); err != nil {
				_ = w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			if err := uploadIfEnabled(ctx, cfg, path, "text/csv"); err != nil {
				return err
			}
		}
	}
	return nil
}

// runFlatten exports the pivoted one-row-per-product table per currency.
func runFlatten(ctx context.Context, cfg *appconfig.Config, f *fetcher.Fetcher, currencies []string, filter string, maxPages int) error {
	for _, currency := range currencies {
		records, err := fetchNormalized(ctx, f, currency, filter, maxPages)
		if err != nil {
			return err
		}
		rows := flatten.Flatten(records)

		name := fmt.Sprintf("prices_flattened_%s", strings.ToLower(currency))
		switch cfg.Export.Format {
		case "json":
			path := exportPath(cfg, name+".json")
			if err := writer.WriteWideJSON(path, rows); err != nil {
				return err
			}
			if err := uploadIfEnabled(ctx, cfg, path, "application/json"); err != nil {
				return err
			}
		case "parquet":
			path := exportPath(cfg, name+".parquet")
			if err := writer.WriteWideParquet(path, rows); err != nil {
				return err
			}
			if err := uploadIfEnabled(ctx, cfg, path, "application/octet-stream"); err != nil {
				return err
			}
		default:
			path := exportPath(cfg, name+".csv")
			w, err := writer.NewWideCSVWriter(path)
			if err != nil {
				return err
			}
			if err := w.Write(rows); err != nil {
				_ = w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			if err := uploadIfEnabled(ctx, cfg, path, "text/csv"); err != nil {
				return err
			}
		}
	}
	return nil
}

// runFxRates samples one product across currencies and exports the estimated
// exchange rates.
func runFxRates(ctx context.Context, cfg *appconfig.Config, f *fetcher.Fetcher, maxPages int) error {
	filter := ""
	if cfg.Fx.MeterID != "" {
		filter = fmt.Sprintf("$filter=meterId eq '%s'", cfg.Fx.MeterID)
	}

	estimator := fx.NewEstimator(f)
	estimates, err := estimator.EstimateRates(ctx, cfg.Fx.BaseCurrency, cfg.Fx.TargetCurrencies, filter, maxPages)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("fxrates_%s", strings.ToLower(cfg.Fx.BaseCurrency))
	if cfg.Export.Format == "json" {
		path := exportPath(cfg, name+".json")
		if err := writer.WriteFxJSON(path, estimates); err != nil {
			return err
		}
		return uploadIfEnabled(ctx, cfg, path, "application/json")
	}

	path := exportPath(cfg, name+".csv")
	w, err := writer.NewFxCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.Write(estimates); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return uploadIfEnabled(ctx, cfg, path, "text/csv")
}

func fetchNormalized(ctx context.Context, f *fetcher.Fetcher, currency, filter string, maxPages int) ([]models.NormalizedRecord, error) {
	items, err := f.FetchPrices(ctx, currency, filter, maxPages)
	if err != nil {
		return nil, err
	}
	return normalizer.Normalize(items)
}

func exportPath(cfg *appconfig.Config, filename string) string {
	return filepath.Join(cfg.Export.OutputDir, filename)
}

func uploadIfEnabled(ctx context.Context, cfg *appconfig.Config, path, contentType string) error {
	if !cfg.Export.S3.Enabled {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read export for upload: %w", err)
	}

	uploader, err := writer.NewS3Uploader(cfg)
	if err != nil {
		return err
	}

	_, err = uploader.Upload(ctx, filepath.Base(path), data, contentType)
	return err
}
