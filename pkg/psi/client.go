package psi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deckgen/deckgen/pkg/cache"
	"github.com/deckgen/deckgen/pkg/quota"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for measurement client operations.
var (
	psiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deckgen_psi_requests_total",
		Help: "Total measurement requests by strategy and status",
	}, []string{"strategy", "status"})

	psiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deckgen_psi_request_duration_seconds",
		Help:    "Measurement request duration in seconds by strategy",
		Buckets: []float64{1, 5, 10, 20, 30, 60, 120},
	}, []string{"strategy"})

	psiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deckgen_psi_errors_total",
		Help: "Total measurement errors by class",
	}, []string{"class"})

	psiRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deckgen_psi_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	psiRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deckgen_psi_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	psiRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deckgen_psi_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// DefaultEndpoint is the production measurement API endpoint.
const DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// Client is the measurement API client.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	quota      *quota.Guard
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Endpoint is the measurement API base URL.
	Endpoint string

	// APIKey is embedded in every request URL (required).
	APIKey string

	// Categories are the lab categories requested from the API. Each one
	// adds a category flag to the request URL.
	Categories []string

	// Timeout is the per-request HTTP timeout. Lab runs are slow; the
	// API routinely takes 30-60s per page.
	Timeout time.Duration

	// CacheTTL is how long successful responses are cached. Zero
	// disables caching even when a cache manager is provided.
	CacheTTL time.Duration

	// Cache is the optional response cache. Nil disables caching.
	Cache *cache.Manager

	// Quota is the optional quota guard. Nil disables request gating.
	Quota *quota.Guard
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		Endpoint:   DefaultEndpoint,
		APIKey:     apiKey,
		Categories: DefaultFieldMap().Categories,
		Timeout:    60 * time.Second,
		CacheTTL:   6 * time.Hour,
	}
}

// New creates a new measurement client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultFieldMap().Categories
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	logger := log.With().Str("component", "psi-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  cfg.Cache,
		quota:  cfg.Quota,
		config: cfg,
		logger: logger,
	}, nil
}

// BuildRequestURL builds the request URL for one spec: endpoint plus
// url-encoded target, strategy, category flags and API key.
func (c *Client) BuildRequestURL(spec RequestSpec) string {
	params := url.Values{}
	params.Set("url", spec.URL)
	params.Set("strategy", string(spec.Strategy))
	params.Set("key", c.config.APIKey)
	for _, category := range c.config.Categories {
		params.Add("category", category)
	}
	return c.config.Endpoint + "?" + params.Encode()
}

// Fetch performs one measurement request and returns the raw response
// document. Error-shaped documents delivered with a 4xx status are
// returned as data for the extractor to surface; transport failures,
// quota blocks and retry exhaustion are returned as errors.
func (c *Client) Fetch(ctx context.Context, spec RequestSpec) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		psiRequestDuration.WithLabelValues(string(spec.Strategy)).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: quota guard
	if c.quota != nil {
		allowed, err := c.quota.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Quota check failed, allowing request")
		} else if !allowed {
			psiRequestsTotal.WithLabelValues(string(spec.Strategy), "quota_blocked").Inc()
			return nil, ErrQuotaBlocked
		}
	}

	// Step 2: cache lookup
	cacheKey := cache.Key{Service: "psi", Target: spec.URL, Variant: string(spec.Strategy)}
	if c.cacheEnabled() {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err == nil {
			c.logger.Debug().
				Str("url", spec.URL).
				Str("strategy", string(spec.Strategy)).
				Bool("cache_hit", true).
				Msg("Serving measurement from cache")
			return entry.Data, nil
		}
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("url", spec.URL).Msg("Cache get error")
		}
	}

	// Step 3: execute with retry
	requestURL := c.BuildRequestURL(spec)

	var body []byte
	var statusCode int
	var errClass ErrorClass

	retryErr := retryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			errClass = ErrorClassNetwork
			psiErrorsTotal.WithLabelValues(string(errClass)).Inc()
			psiRequestsTotal.WithLabelValues(string(spec.Strategy), "network_error").Inc()
			c.logger.Warn().Err(reqErr).Str("url", spec.URL).Msg("Measurement request failed")
			return reqErr
		}
		defer resp.Body.Close()

		statusCode = resp.StatusCode
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			errClass = ErrorClassNetwork
			psiErrorsTotal.WithLabelValues(string(errClass)).Inc()
			return fmt.Errorf("read response body: %w", err)
		}

		psiRequestsTotal.WithLabelValues(string(spec.Strategy), strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errClass = classifyStatus(resp.StatusCode)
			psiErrorsTotal.WithLabelValues(string(errClass)).Inc()

			c.logger.Warn().
				Str("url", spec.URL).
				Int("status_code", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Measurement API error")

			if errClass == ErrorClassQuota && c.quota != nil {
				if err := c.quota.RecordQuotaError(ctx); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to record quota error")
				}
			}

			if shouldRetry(errClass) {
				return &APIError{
					StatusCode: resp.StatusCode,
					ErrorClass: errClass,
					Message:    resp.Status,
				}
			}

			// 4xx: the body is an error document; hand it to the extractor.
			return nil
		}

		return nil
	}, func(err error) ErrorClass {
		if errClass == "" {
			return ErrorClassNetwork
		}
		return errClass
	})

	if retryErr != nil {
		return nil, retryErr
	}

	// Step 4: cache successful responses
	if c.cacheEnabled() && statusCode == http.StatusOK {
		entry := cache.NewEntry(body, statusCode, c.config.CacheTTL)
		if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Str("url", spec.URL).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("url", spec.URL).
				Dur("ttl", entry.TTL()).
				Msg("Cached measurement response")
		}
	}

	return body, nil
}

func (c *Client) cacheEnabled() bool {
	return c.cache != nil && c.config.CacheTTL > 0
}

// classifyStatus categorizes an HTTP status for retry decisions and metrics.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassQuota
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
