package airquality

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// SourceAdapter knows how to query one upstream provider for one location
// and translate its payload into a canonical RawMeasurement. Fetch fails
// with ErrNetwork, ErrParse or ErrNoData (wrapped); each adapter enforces
// its own request deadline independent of the caller's context.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (*RawMeasurement, error)
}

// Fetcher tries adapters for a location in a fixed priority order and
// returns the first successful measurement.
type Fetcher struct {
	adapters []SourceAdapter
	logger   zerolog.Logger
}

// NewFetcher creates a Fetcher. Adapter order is priority order: the
// first adapter is the primary provider, the rest are fallbacks.
func NewFetcher(logger zerolog.Logger, adapters ...SourceAdapter) *Fetcher {
	return &Fetcher{
		adapters: adapters,
		logger:   logger,
	}
}

// Fetch invokes each adapter in turn and returns the first success.
// Network, parse and no-data failures are all "try next adapter" signals;
// they are distinguished only in the logs. When every adapter fails the
// location gets a terminal ErrNoData. There is no retry of the same
// adapter within one call: the next scheduled run is the retry mechanism.
func (f *Fetcher) Fetch(ctx context.Context, loc Location) (*RawMeasurement, error) {
	if len(f.adapters) == 0 {
		return nil, fmt.Errorf("no source adapters configured: %w", ErrNoData)
	}

	for _, adapter := range f.adapters {
		raw, err := adapter.Fetch(ctx, loc)
		if err != nil {
			f.logger.Warn().
				Err(err).
				Str("provider", adapter.Name()).
				Str("postcode", loc.Postcode).
				Msg("adapter fetch failed, trying next")
			continue
		}

		f.logger.Debug().
			Str("provider", adapter.Name()).
			Str("postcode", loc.Postcode).
			Msg("adapter fetch succeeded")
		return raw, nil
	}

	return nil, fmt.Errorf("all %d adapters failed for postcode %s: %w",
		len(f.adapters), loc.Postcode, ErrNoData)
}
