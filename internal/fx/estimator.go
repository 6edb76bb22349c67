package fx

import (
	"context"
	"fmt"

	"priceflow/internal/models"
	"priceflow/internal/pipeline/fetcher"
	"priceflow/internal/pipeline/normalizer"
	"priceflow/logger"
)

// Estimator derives approximate foreign-exchange rates by comparing the
// catalog price of the same product fetched in different currencies. The
// result is a best-effort single-sample estimate, not a financial-grade
// rate feed.
type Estimator struct {
	fetcher *fetcher.Fetcher
	log     *logger.Log
}

// NewEstimator wraps a fetcher for cross-currency sampling.
func NewEstimator(f *fetcher.Fetcher) *Estimator {
	return &Estimator{
		fetcher: f,
		log:     logger.GetLogger(),
	}
}

// EstimateRates computes fxRate = targetPrice / basePrice for one matched
// product per target currency. Currencies are fetched strictly sequentially;
// a failed or empty target currency is logged and skipped so the remaining
// currencies still produce estimates. Output order follows the input order
// of targetCurrencies, excluding skipped entries.
func (e *Estimator) EstimateRates(ctx context.Context, baseCurrency string, targetCurrencies []string, filter string, maxPages int) ([]models.FxEstimate, error) {
	log := e.log.WithComponent("fx_estimator")

	baseRecords, err := e.fetchRecords(ctx, baseCurrency, filter, maxPages)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch base currency %s: %w", baseCurrency, err)
	}
	if len(baseRecords) == 0 {
		log.WithFields(logger.Fields{"currency": baseCurrency}).Warn("no records for base currency; nothing to estimate")
		return []models.FxEstimate{}, nil
	}

	// First positive price per match key wins, in base input order.
	basePrices := make(map[string]float64, len(baseRecords))
	for i := range baseRecords {
		rec := &baseRecords[i]
		if rec.RetailPrice <= 0 {
			continue
		}
		key := rec.MatchKey()
		if _, seen := basePrices[key]; !seen {
			basePrices[key] = rec.RetailPrice
		}
	}

	estimates := make([]models.FxEstimate, 0, len(targetCurrencies))
	for _, currency := range targetCurrencies {
		estimate, err := e.estimateOne(ctx, currency, basePrices, filter, maxPages)
		if err != nil {
			log.WithFields(logger.Fields{"currency": currency}).WithError(err).Warn("skipping currency")
			continue
		}
		estimates = append(estimates, estimate)
	}

	return estimates, nil
}

// estimateOne samples a single target currency against the base prices. All
// expected per-currency absences (fetch failure, empty listing, no matched
// product with positive prices) come back as errors for the caller to log
// and skip.
func (e *Estimator) estimateOne(ctx context.Context, currency string, basePrices map[string]float64, filter string, maxPages int) (models.FxEstimate, error) {
	records, err := e.fetchRecords(ctx, currency, filter, maxPages)
	if err != nil {
		return models.FxEstimate{}, err
	}
	if len(records) == 0 {
		return models.FxEstimate{}, fmt.Errorf("no records returned")
	}

	// First match in target input order keeps the sample deterministic.
	for i := range records {
		rec := &records[i]
		if rec.RetailPrice <= 0 {
			continue
		}
		basePrice, ok := basePrices[rec.MatchKey()]
		if !ok {
			continue
		}
		return models.FxEstimate{
			Currency: currency,
			FxRate:   rec.RetailPrice / basePrice,
		}, nil
	}

	return models.FxEstimate{}, fmt.Errorf("no matching product with positive prices")
}

func (e *Estimator) fetchRecords(ctx context.Context, currency, filter string, maxPages int) ([]models.NormalizedRecord, error) {
	items, err := e.fetcher.FetchPrices(ctx, currency, filter, maxPages)
	if err != nil {
		return nil, err
	}
	return normalizer.Normalize(items)
}
