package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	quotaErrorsInWindow = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deckgen_quota_errors_in_window",
		Help: "Number of quota errors recorded in the current window",
	})

	quotaBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deckgen_quota_blocks_total",
		Help: "Total number of requests blocked due to quota errors",
	})
)

// Guard tracks quota errors and gates measurement requests. With a Redis
// client the error window is shared across processes; without one the
// guard falls back to a process-local counter.
type Guard struct {
	redis  *redis.Client
	window time.Duration
	logger zerolog.Logger

	// Local fallback state, used when redis is nil.
	mu          sync.Mutex
	localCount  int
	localExpiry time.Time
}

// NewGuard creates a quota guard. redisClient may be nil for local-only
// tracking; window <= 0 uses DefaultWindow.
func NewGuard(redisClient *redis.Client, window time.Duration, logger zerolog.Logger) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{
		redis:  redisClient,
		window: window,
		logger: logger,
	}
}

// RecordQuotaError registers one 429 response in the current window.
func (g *Guard) RecordQuotaError(ctx context.Context) error {
	if g.redis == nil {
		g.mu.Lock()
		defer g.mu.Unlock()

		now := time.Now()
		if now.After(g.localExpiry) {
			g.localCount = 0
			g.localExpiry = now.Add(g.window)
		}
		g.localCount++
		quotaErrorsInWindow.Set(float64(g.localCount))
		g.logWindow(g.localCount)
		return nil
	}

	count, err := g.redis.Incr(ctx, RedisKeyErrorCount).Result()
	if err != nil {
		return fmt.Errorf("incr quota error count: %w", err)
	}

	// Start the window on the first error; NX keeps later errors from
	// extending it.
	if err := g.redis.ExpireNX(ctx, RedisKeyErrorCount, g.window).Err(); err != nil {
		return fmt.Errorf("set quota window expiry: %w", err)
	}

	quotaErrorsInWindow.Set(float64(count))
	g.logWindow(int(count))
	return nil
}

// GetState retrieves the current quota state.
// Returns a default healthy state when no errors were recorded.
func (g *Guard) GetState(ctx context.Context) (*State, error) {
	if g.redis == nil {
		g.mu.Lock()
		defer g.mu.Unlock()

		state := &State{WindowEnds: g.localExpiry}
		if time.Now().Before(g.localExpiry) {
			state.QuotaErrors = g.localCount
		}
		state.UpdateHealth()
		return state, nil
	}

	count, err := g.redis.Get(ctx, RedisKeyErrorCount).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get quota error count: %w", err)
	}

	ttl, err := g.redis.TTL(ctx, RedisKeyErrorCount).Result()
	if err != nil {
		return nil, fmt.Errorf("get quota window ttl: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	state := &State{
		QuotaErrors: count,
		WindowEnds:  time.Now().Add(ttl),
	}
	state.UpdateHealth()
	return state, nil
}

// ShouldAllowRequest checks if a request should be allowed based on the
// current quota state. Returns false when the error window is saturated.
func (g *Guard) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := g.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get quota state: %w", err)
	}

	if state.NeedsBlock() {
		g.logger.Error().
			Int("quota_errors", state.QuotaErrors).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Quota error limit reached - blocking request")

		quotaBlocksTotal.Inc()
		return false, nil
	}

	return true, nil
}

// Reset clears the error window (for tests and manual recovery).
func (g *Guard) Reset(ctx context.Context) error {
	if g.redis == nil {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.localCount = 0
		g.localExpiry = time.Time{}
		quotaErrorsInWindow.Set(0)
		return nil
	}
	if err := g.redis.Del(ctx, RedisKeyErrorCount).Err(); err != nil {
		return fmt.Errorf("reset quota state: %w", err)
	}
	quotaErrorsInWindow.Set(0)
	return nil
}

func (g *Guard) logWindow(count int) {
	if count >= BlockThreshold {
		g.logger.Error().
			Int("quota_errors", count).
			Msg("Quota error limit CRITICAL - requests will be blocked")
		return
	}
	g.logger.Warn().
		Int("quota_errors", count).
		Msg("Quota error recorded")
}
