package greenhost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/deckgen/deckgen/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Prometheus metrics for green-hosting lookups.
var greenhostLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "deckgen_greenhost_lookups_total",
	Help: "Total green-hosting lookups by result",
}, []string{"result"})

// DefaultEndpoint is the hosting registry's per-hostname check endpoint.
const DefaultEndpoint = "https://api.thegreenwebfoundation.org/greencheck"

// Config holds checker configuration.
type Config struct {
	// Endpoint is the registry base URL; the hostname is appended as a
	// path segment.
	Endpoint string

	// Timeout is the per-lookup HTTP timeout.
	Timeout time.Duration

	// CacheTTL is how long lookups are cached. Hosting rarely changes;
	// a day is the registry's own guidance. Zero disables caching.
	CacheTTL time.Duration

	// Cache is the optional lookup cache. Nil disables caching.
	Cache *cache.Manager

	// PrefetchConcurrency bounds parallel lookups in Prefetch.
	PrefetchConcurrency int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint:            DefaultEndpoint,
		Timeout:             10 * time.Second,
		CacheTTL:            24 * time.Hour,
		PrefetchConcurrency: 4,
	}
}

// checkResponse is the registry's answer for one hostname.
type checkResponse struct {
	Green bool `json:"green"`
}

// Checker looks up whether a hostname is served from verified green
// hosting, and derives the per-page emission estimate.
type Checker struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// New creates a new checker.
func New(cfg Config) *Checker {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.PrefetchConcurrency <= 0 {
		cfg.PrefetchConcurrency = 4
	}

	return &Checker{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cfg.Cache,
		config:     cfg,
		logger:     log.With().Str("component", "greenhost").Logger(),
	}
}

// IsGreen reports whether hostname is served from verified green hosting.
func (c *Checker) IsGreen(ctx context.Context, hostname string) (bool, error) {
	if hostname == "" {
		return false, fmt.Errorf("empty hostname")
	}

	cacheKey := cache.Key{Service: "greenhost", Target: hostname}
	if c.cacheEnabled() {
		if entry, err := c.cache.Get(ctx, cacheKey); err == nil {
			var cached checkResponse
			if err := json.Unmarshal(entry.Data, &cached); err == nil {
				c.logger.Debug().
					Str("host", hostname).
					Bool("cache_hit", true).
					Bool("green", cached.Green).
					Msg("Green-hosting lookup served from cache")
				return cached.Green, nil
			}
		}
	}

	green, body, err := c.lookup(ctx, hostname)
	if err != nil {
		greenhostLookupsTotal.WithLabelValues("error").Inc()
		return false, err
	}

	if green {
		greenhostLookupsTotal.WithLabelValues("green").Inc()
	} else {
		greenhostLookupsTotal.WithLabelValues("grey").Inc()
	}

	if c.cacheEnabled() {
		entry := cache.NewEntry(body, http.StatusOK, c.config.CacheTTL)
		if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Str("host", hostname).Msg("Failed to cache lookup")
		}
	}

	return green, nil
}

// lookup performs the registry request.
func (c *Checker) lookup(ctx context.Context, hostname string) (bool, []byte, error) {
	requestURL := c.config.Endpoint + "/" + url.PathEscape(hostname)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return false, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, nil, fmt.Errorf("green-hosting lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil, fmt.Errorf("green-hosting lookup: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, nil, fmt.Errorf("read lookup response: %w", err)
	}

	var parsed checkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, nil, fmt.Errorf("parse lookup response: %w", err)
	}

	return parsed.Green, body, nil
}

// Prefetch warms the cache for a set of hostnames with bounded
// concurrency. Lookup failures are logged and skipped; a batch must never
// fail because the registry had a bad day.
func (c *Checker) Prefetch(ctx context.Context, hostnames []string) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.PrefetchConcurrency)

	for _, host := range hostnames {
		g.Go(func() error {
			if _, err := c.IsGreen(ctx, host); err != nil {
				c.logger.Warn().Err(err).Str("host", host).Msg("Prefetch lookup failed")
			}
			return nil
		})
	}

	_ = g.Wait()
}

// EstimateImpact implements the batch fetcher's impact hook: resolve the
// page's hostname, check the registry and convert transferred bytes into
// grams CO2e.
func (c *Checker) EstimateImpact(ctx context.Context, pageURL string, totalBytes int64) (float64, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return 0, fmt.Errorf("parse page url %q: %v", pageURL, err)
	}

	green, err := c.IsGreen(ctx, u.Hostname())
	if err != nil {
		return 0, err
	}

	return EstimateCO2Grams(totalBytes, green), nil
}

func (c *Checker) cacheEnabled() bool {
	return c.cache != nil && c.config.CacheTTL > 0
}
