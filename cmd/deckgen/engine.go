package main

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/deckgen/deckgen/internal/config"
	"github.com/deckgen/deckgen/pkg/cache"
	"github.com/deckgen/deckgen/pkg/greenhost"
	"github.com/deckgen/deckgen/pkg/logging"
	"github.com/deckgen/deckgen/pkg/psi"
	"github.com/deckgen/deckgen/pkg/quota"
)

var errMeasurementDisabled = errors.New("measurement is disabled in configuration")
var errImpactDisabled = errors.New("impact estimation requires greenhost to be enabled")

// engine wires the configured components together: redis-backed cache and
// quota window when redis is reachable, measurement client, batch fetcher
// and the optional green-hosting checker.
type engine struct {
	cfg      *config.Config
	logger   zerolog.Logger
	redis    *redis.Client
	batch    *psi.BatchFetcher
	checker  *greenhost.Checker
	fieldMap psi.FieldMap
}

func newEngine(cfg *config.Config) (*engine, error) {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})

	eng := &engine{
		cfg:      cfg,
		logger:   logger,
		fieldMap: cfg.FieldMap(),
	}

	var cacheMgr *cache.Manager
	if cfg.Redis.Addr != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rc.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).
				Msg("Redis unavailable, running without cache")
			rc.Close()
		} else {
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
			eng.redis = rc
			cacheMgr = cache.NewManager(rc)
		}
	}

	if cfg.GreenHost.Enabled {
		ghCfg := greenhost.DefaultConfig()
		if cfg.GreenHost.Endpoint != "" {
			ghCfg.Endpoint = cfg.GreenHost.Endpoint
		}
		if cfg.GreenHost.Timeout > 0 {
			ghCfg.Timeout = cfg.GreenHost.Timeout
		}
		if cfg.GreenHost.CacheTTL > 0 {
			ghCfg.CacheTTL = cfg.GreenHost.CacheTTL
		}
		if cfg.GreenHost.PrefetchConcurrency > 0 {
			ghCfg.PrefetchConcurrency = cfg.GreenHost.PrefetchConcurrency
		}
		ghCfg.Cache = cacheMgr
		eng.checker = greenhost.New(ghCfg)
	}

	if cfg.PSI.Enabled {
		guard := quota.NewGuard(eng.redis, quota.DefaultWindow, logging.NewLogger("quota"))

		psiCfg := psi.DefaultConfig(cfg.PSI.APIKey)
		if cfg.PSI.Endpoint != "" {
			psiCfg.Endpoint = cfg.PSI.Endpoint
		}
		if cfg.PSI.Timeout > 0 {
			psiCfg.Timeout = cfg.PSI.Timeout
		}
		psiCfg.CacheTTL = cfg.PSI.CacheTTL
		psiCfg.Cache = cacheMgr
		psiCfg.Quota = guard

		client, err := psi.New(psiCfg)
		if err != nil {
			eng.Close()
			return nil, err
		}

		batchCfg := psi.DefaultBatchConfig()
		if cfg.PSI.MaxConcurrency > 0 {
			batchCfg.MaxConcurrency = cfg.PSI.MaxConcurrency
		}
		if cfg.PSI.Timeout > 0 {
			batchCfg.Timeout = cfg.PSI.Timeout
		}
		batchCfg.BatchTimeout = cfg.PSI.BatchTimeout

		// A nil checker must stay a nil interface.
		var impact psi.ImpactEstimator
		if eng.checker != nil {
			impact = eng.checker
		}
		eng.batch = psi.NewBatchFetcher(client, batchCfg, impact)
	}

	return eng, nil
}

// runBatch measures all specs. With impact enabled the hosting cache is
// warmed first so the per-row lookups mostly hit the cache.
func (e *engine) runBatch(ctx context.Context, specs []psi.RequestSpec, includeImpact bool) ([]psi.ResultRow, error) {
	if e.batch == nil {
		return nil, errMeasurementDisabled
	}
	if includeImpact && e.checker == nil {
		return nil, errImpactDisabled
	}

	if includeImpact {
		e.checker.Prefetch(ctx, hostnames(specs))
	}

	return e.batch.FetchAll(ctx, specs, e.fieldMap, includeImpact)
}

func (e *engine) Close() {
	if e.redis != nil {
		e.redis.Close()
	}
}

// hostnames returns the distinct hostnames of all spec URLs, in first-seen
// order. Unparsable URLs are skipped; spec validation reports them later.
func hostnames(specs []psi.RequestSpec) []string {
	seen := make(map[string]bool, len(specs))
	var hosts []string
	for _, spec := range specs {
		u, err := url.Parse(spec.URL)
		if err != nil || u.Hostname() == "" {
			continue
		}
		if !seen[u.Hostname()] {
			seen[u.Hostname()] = true
			hosts = append(hosts, u.Hostname())
		}
	}
	return hosts
}
