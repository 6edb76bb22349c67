package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	appconfig "priceflow/config"
	"priceflow/internal/models"
	"priceflow/logger"
)

// Fetcher downloads paginated price listings from the retail-price catalog.
// Pages are fetched strictly sequentially because each page's URL comes from
// the previous page's NextPageLink.
type Fetcher struct {
	config  *appconfig.Config
	client  *http.Client
	cache   *Cache
	limiter *rate.Limiter
	log     *logger.Log
}

// NewFetcher constructs a fetcher from the application configuration. A cache
// that fails to open degrades to uncached operation with a warning rather
// than failing construction.
func NewFetcher(cfg *appconfig.Config) *Fetcher {
	log := logger.GetLogger()

	f := &Fetcher{
		config: cfg,
		client: &http.Client{Timeout: cfg.Catalog.RequestTimeout()},
		log:    log,
	}

	if cfg.Cache.Enabled {
		cache, err := OpenCache(cfg.Cache.Path, cfg.Cache.ExpireDays)
		if err != nil {
			log.WithComponent("fetcher").WithError(err).Warn("response cache unavailable; fetching without cache")
		} else {
			f.cache = cache
		}
	}

	if cfg.Catalog.RateLimit.Enabled {
		burst := cfg.Catalog.RateLimit.BurstSize
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(cfg.Catalog.RateLimit.RequestsPerSecond), burst)
	}

	return f
}

// Close releases the response cache, if any.
func (f *Fetcher) Close() error {
	if f.cache != nil {
		return f.cache.Close()
	}
	return nil
}

// FetchPrices downloads every page of the price listing for the given
// currency, following NextPageLink until the listing is exhausted or the page
// cap is reached. A maxPages of zero or below means no cap. The filter string
// is appended verbatim to the initial request; an empty filter means no
// filter.
func (f *Fetcher) FetchPrices(ctx context.Context, currencyCode, filter string, maxPages int) ([]models.RawItem, error) {
	if currencyCode == "" {
		return nil, fmt.Errorf("currency code is required")
	}

	apiURL := fmt.Sprintf("%s?api-version=%s&currencyCode='%s'",
		f.config.Catalog.BaseURL, f.config.Catalog.APIVersion, currencyCode)
	if filter != "" {
		apiURL = apiURL + "&" + filter
	}

	log := f.log.WithComponent("fetcher").WithFields(logger.Fields{
		"currency": currencyCode,
	})
	log.WithFields(logger.Fields{"url": apiURL}).Info("starting price export")

	var items []models.RawItem
	next := apiURL
	pageCount := 0

	for next != "" && (maxPages <= 0 || pageCount < maxPages) {
		pageCount++

		body, cached, err := f.getPage(ctx, next)
		if err != nil {
			return nil, err
		}

		var page models.Page
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode catalog page %d: %w", pageCount, err)
		}

		items = append(items, page.Items...)

		if page.NextPageLink != nil {
			next = *page.NextPageLink
		} else {
			next = ""
		}

		// Advisory progress; never affects the fetch itself.
		log.WithFields(logger.Fields{
			"page":   pageCount,
			"items":  len(items),
			"cached": cached,
		}).Debug("fetched result page")
	}

	log.WithFields(logger.Fields{"pages": pageCount, "items": len(items)}).Info("completed price export")
	log.LogMetric("fetcher", "pages_fetched", pageCount, "counter", logger.Fields{"currency": currencyCode})

	return items, nil
}

// getPage returns the page body for url, served from the cache when a fresh
// entry exists. The boolean reports whether the cache satisfied the request.
func (f *Fetcher) getPage(ctx context.Context, url string) ([]byte, bool, error) {
	if f.cache != nil {
		if body, ok := f.cache.Get(url); ok {
			return body, true, nil
		}
	}

	body, err := f.download(ctx, url)
	if err != nil {
		return nil, false, err
	}

	if f.cache != nil {
		f.cache.Put(url, body)
	}
	return body, false, nil
}

// download issues the GET request with retry and exponential backoff for
// rate-limit and server-error responses. A Retry-After header on a retryable
// response overrides the computed delay. Retry exhaustion surfaces the last
// HTTP error; non-retryable statuses fail immediately.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	maxRetries := f.config.Catalog.MaxRetries
	delay := f.config.Catalog.BackoffBaseDelay()

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build catalog request: %w", err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("catalog request failed: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read catalog response: %w", err)
			}
			return body, nil
		}

		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if !f.isRetryable(resp.StatusCode) {
			return nil, fmt.Errorf("catalog request to %s failed with status %d", url, resp.StatusCode)
		}

		lastErr = fmt.Errorf("catalog returned status %d", resp.StatusCode)
		if attempt == maxRetries {
			break
		}

		wait := delay
		if retryAfter > 0 {
			wait = retryAfter
		}

		f.log.WithComponent("fetcher").WithFields(logger.Fields{
			"status":  resp.StatusCode,
			"attempt": attempt + 1,
			"wait":    wait.String(),
		}).Warn("retrying catalog request")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * f.config.Catalog.BackoffFactor)
	}

	return nil, fmt.Errorf("catalog request to %s failed after %d attempts: %w", url, maxRetries+1, lastErr)
}

func (f *Fetcher) isRetryable(status int) bool {
	for _, s := range f.config.Catalog.RetryableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// parseRetryAfter handles the delay-seconds form of the header. The HTTP-date
// form is not used by the catalog.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
