package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
	"github.com/asthmaguardian/asthmaguardian/internal/store"
)

// ErrRunCeiling is returned when a run hits its wall-clock ceiling before
// every location was attempted. Readings persisted before the cutoff
// remain persisted.
var ErrRunCeiling = errors.New("ingestion run exceeded wall-clock ceiling")

// Fetcher is the fetch orchestration the runner depends on; satisfied by
// *airquality.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, loc airquality.Location) (*airquality.RawMeasurement, error)
}

// RunnerConfig holds batch runner tuning.
type RunnerConfig struct {
	// Concurrency bounds the worker pool. The limit exists to respect
	// upstream provider rate limits; default 4.
	Concurrency int

	// RunTimeout is the wall-clock ceiling for one run. Default 5 minutes.
	RunTimeout time.Duration
}

// DefaultRunnerConfig returns the defaults used by the worker.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Concurrency: 4,
		RunTimeout:  5 * time.Minute,
	}
}

// Result summarizes one batch run. Never persisted; returned to the
// invoking trigger.
type Result struct {
	RunID          string        `json:"run_id"`
	TotalLocations int           `json:"total_locations"`
	Successful     int           `json:"successful"`
	Failed         int           `json:"failed"`
	Errors         []string      `json:"errors"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}

// Runner executes ingestion runs: fetch, score, normalize and persist for
// every location, isolating per-location failures.
type Runner struct {
	registry *Registry
	fetcher  Fetcher
	store    store.Store
	logger   zerolog.Logger
	config   RunnerConfig
	now      func() time.Time

	ingested metric.Int64Counter
	failed   metric.Int64Counter
}

// NewRunner wires a batch runner. All collaborators are injected; the
// runner owns no network or store handles of its own.
func NewRunner(registry *Registry, fetcher Fetcher, s store.Store, logger zerolog.Logger, cfg RunnerConfig) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultRunnerConfig().Concurrency
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunnerConfig().RunTimeout
	}

	meter := otel.Meter("asthmaguardian/ingest")
	ingested, _ := meter.Int64Counter("ingest.locations_ingested",
		metric.WithDescription("Locations whose reading was durably stored"))
	failed, _ := meter.Int64Counter("ingest.locations_failed",
		metric.WithDescription("Locations that failed fetch, scoring or persistence"))

	return &Runner{
		registry: registry,
		fetcher:  fetcher,
		store:    s,
		logger:   logger,
		config:   cfg,
		now:      time.Now,
		ingested: ingested,
		failed:   failed,
	}
}

// locationResult is one location's outcome flowing back to the collector.
type locationResult struct {
	postcode string
	stage    string
	err      error
}

// Processing stages, used for logging and failure messages.
const (
	stageFetch   = "fetch"
	stageScore   = "score"
	stagePersist = "persist"
)

// Run executes one batch. An empty postcodes slice processes the full
// registry; an explicit list processes exactly those codes. Per-location
// failures are recorded in the result and never abort the run. A non-nil
// error means the whole invocation failed: an empty location set, or the
// run ceiling fired before all locations were attempted.
func (r *Runner) Run(ctx context.Context, postcodes []string) (*Result, error) {
	var locations []airquality.Location
	if len(postcodes) == 0 {
		locations = r.registry.Locations()
	} else {
		locations = r.registry.Resolve(postcodes)
	}
	if len(locations) == 0 {
		return nil, errors.New("no locations to ingest")
	}

	runID := "run_" + uuid.New().String()[:8]
	started := r.now()
	result := &Result{
		RunID:          runID,
		TotalLocations: len(locations),
		StartedAt:      started.UTC(),
	}

	log := r.logger.With().Str("run_id", runID).Logger()
	log.Info().
		Int("total_locations", result.TotalLocations).
		Int("concurrency", r.config.Concurrency).
		Msg("starting ingestion run")

	runCtx, cancel := context.WithTimeout(ctx, r.config.RunTimeout)
	defer cancel()

	jobs := make(chan airquality.Location, len(locations))
	results := make(chan locationResult, len(locations))

	var wg sync.WaitGroup
	for i := 0; i < r.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(runCtx, log, jobs, results)
		}()
	}

	for _, loc := range locations {
		jobs <- loc
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single collector owns the counters; workers never touch them.
	for lr := range results {
		if lr.err == nil {
			result.Successful++
			r.ingested.Add(ctx, 1)
			continue
		}
		result.Failed++
		r.failed.Add(ctx, 1)
		result.Errors = append(result.Errors,
			fmt.Sprintf("postcode %s: %s: %v", lr.postcode, lr.stage, lr.err))
	}

	result.Duration = r.now().Sub(started)

	log.Info().
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("ingestion run completed")

	if runCtx.Err() != nil && ctx.Err() == nil {
		return result, fmt.Errorf("%w after %s", ErrRunCeiling, r.config.RunTimeout)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// worker drains the job channel, attempting each location independently.
// Once the run context is done, remaining locations are reported as
// failures without touching the network.
func (r *Runner) worker(ctx context.Context, log zerolog.Logger, jobs <-chan airquality.Location, results chan<- locationResult) {
	for loc := range jobs {
		select {
		case <-ctx.Done():
			results <- locationResult{postcode: loc.Postcode, stage: stageFetch, err: ctx.Err()}
		default:
			results <- r.process(ctx, log, loc)
		}
	}
}

// process runs one location through fetch, score and persist. Any failure
// at any stage is captured and isolated to this location.
func (r *Runner) process(ctx context.Context, log zerolog.Logger, loc airquality.Location) (lr locationResult) {
	lr = locationResult{postcode: loc.Postcode, stage: stageFetch}

	defer func() {
		if rec := recover(); rec != nil {
			lr.err = fmt.Errorf("panic: %v", rec)
		}
		if lr.err != nil {
			log.Warn().
				Err(lr.err).
				Str("postcode", loc.Postcode).
				Str("stage", lr.stage).
				Msg("location ingestion failed")
		}
	}()

	raw, err := r.fetcher.Fetch(ctx, loc)
	if err != nil {
		lr.err = err
		return lr
	}

	lr.stage = stageScore
	reading := airquality.NewReading(raw, r.now())
	if loc.Lat != 0 || loc.Lon != 0 {
		// Registry coordinates win over provider-reported ones when the
		// provider omits them.
		if reading.Lat == 0 && reading.Lon == 0 {
			reading.Lat = loc.Lat
			reading.Lon = loc.Lon
		}
	}

	lr.stage = stagePersist
	if err := r.store.Put(ctx, reading); err != nil {
		// Data is not ingested unless durably stored: a fetch success
		// followed by a persistence failure still fails the location.
		lr.err = err
		return lr
	}

	log.Debug().
		Str("postcode", loc.Postcode).
		Int("aqi", reading.AQI).
		Str("rating", string(reading.Rating)).
		Str("source", reading.Source).
		Msg("reading ingested")

	lr.err = nil
	return lr
}
