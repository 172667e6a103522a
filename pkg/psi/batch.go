package psi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// BatchConfig holds batch fetcher configuration.
type BatchConfig struct {
	// MaxConcurrency is the maximum number of parallel requests.
	// Uncontrolled fan-out risks exhausting the API quota and local
	// sockets on large target lists.
	MaxConcurrency int

	// Timeout per measurement request.
	Timeout time.Duration

	// BatchTimeout bounds the whole batch. Zero means no batch bound
	// beyond the per-request timeout.
	BatchTimeout time.Duration
}

// DefaultBatchConfig returns safe defaults for the measurement API.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 5,
		Timeout:        90 * time.Second,
		BatchTimeout:   0,
	}
}

// Fetcher is the single-request dependency of the batch fetcher. *Client
// implements it; tests substitute their own.
type Fetcher interface {
	Fetch(ctx context.Context, spec RequestSpec) ([]byte, error)
}

// ImpactEstimator computes the optional environmental-impact field from a
// page's transferred bytes. Implemented by the greenhost package; any
// failure only omits the field, never the row.
type ImpactEstimator interface {
	EstimateImpact(ctx context.Context, pageURL string, totalBytes int64) (grams float64, err error)
}

// BatchFetcher fans a list of request specs out over a bounded worker pool
// and fans results back in by index: out[i] always corresponds to
// specs[i], no matter in which order requests complete or which of them
// fail.
type BatchFetcher struct {
	fetcher Fetcher
	impact  ImpactEstimator
	config  BatchConfig
}

// NewBatchFetcher creates a new batch fetcher. impact may be nil to
// disable environmental-impact reporting.
func NewBatchFetcher(fetcher Fetcher, config BatchConfig, impact ImpactEstimator) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 90 * time.Second
	}

	return &BatchFetcher{
		fetcher: fetcher,
		impact:  impact,
		config:  config,
	}
}

// FetchAll issues all requests concurrently and returns exactly one row
// per spec, in input order. Individual request failures are isolated into
// error-tagged rows; FetchAll itself only fails when the input list is
// malformed.
func (bf *BatchFetcher) FetchAll(ctx context.Context, specs []RequestSpec, fieldMap FieldMap, includeImpact bool) ([]ResultRow, error) {
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("spec %d: %w", i, err)
		}
	}
	if len(specs) == 0 {
		return []ResultRow{}, nil
	}
	if includeImpact && bf.impact == nil {
		return nil, fmt.Errorf("impact reporting requested but no estimator configured")
	}

	if bf.config.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bf.config.BatchTimeout)
		defer cancel()
	}

	start := time.Now()
	log.Info().
		Int("specs", len(specs)).
		Int("max_concurrency", bf.config.MaxConcurrency).
		Msg("Starting measurement batch")

	// Indexed result buffer: each index is written by exactly one worker,
	// so ordering holds under concurrent completion without locking.
	results := make([]ResultRow, len(specs))

	jobs := make(chan int, len(specs))
	for i := range specs {
		jobs <- i
	}
	close(jobs)

	workers := bf.config.MaxConcurrency
	if workers > len(specs) {
		workers = len(specs)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go bf.worker(ctx, w, specs, fieldMap, includeImpact, jobs, results, &wg)
	}
	wg.Wait()

	var failed int
	for _, row := range results {
		if row.IsError() {
			failed++
		}
	}

	log.Info().
		Int("specs", len(specs)).
		Int("failed_rows", failed).
		Dur("duration", time.Since(start)).
		Msg("Measurement batch complete")

	return results, nil
}

// worker processes spec indexes from the queue.
func (bf *BatchFetcher) worker(ctx context.Context, workerID int, specs []RequestSpec, fieldMap FieldMap, includeImpact bool, jobs <-chan int, results []ResultRow, wg *sync.WaitGroup) {
	defer wg.Done()

	for i := range jobs {
		select {
		case <-ctx.Done():
			// Remaining rows still get exactly one output each.
			results[i] = errorRow(specs[i], fmt.Sprintf("batch cancelled: %v", ctx.Err()))
			continue
		default:
		}

		results[i] = bf.fetchOne(ctx, workerID, specs[i], fieldMap, includeImpact)
	}
}

// fetchOne runs a single request through fetch, extraction and the
// optional impact lookup.
func (bf *BatchFetcher) fetchOne(ctx context.Context, workerID int, spec RequestSpec, fieldMap FieldMap, includeImpact bool) ResultRow {
	reqCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	log.Debug().
		Int("worker_id", workerID).
		Str("url", spec.URL).
		Str("strategy", string(spec.Strategy)).
		Msg("Fetching measurement")

	body, err := bf.fetcher.Fetch(reqCtx, spec)
	if err != nil {
		log.Warn().
			Err(err).
			Int("worker_id", workerID).
			Str("url", spec.URL).
			Str("label", spec.Label).
			Msg("Measurement fetch failed")
		return errorRow(spec, err.Error())
	}

	row := extractRow(spec, body, fieldMap)
	if row.IsError() {
		log.Warn().
			Str("url", spec.URL).
			Str("label", spec.Label).
			Str("error", row.Err).
			Msg("Measurement returned error document")
		return row
	}

	if includeImpact {
		grams, err := bf.impact.EstimateImpact(ctx, spec.URL, row.TotalBytes)
		if err != nil {
			// Lookup failure omits the field only; the row survives.
			log.Warn().
				Err(err).
				Str("url", spec.URL).
				Msg("Impact lookup failed, omitting emission field")
		} else {
			row.CO2Grams = &grams
		}
	}

	return row
}
