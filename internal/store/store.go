// Package store provides the durable, queryable readings store consumed
// by the ingestion pipeline and the read API.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
)

// ErrNotFound is returned when no reading matches a point lookup.
var ErrNotFound = errors.New("reading not found")

// Store is the persistence gateway for air quality readings.
//
// Put is an idempotent upsert keyed by (postcode, timestamp): writing the
// same key twice keeps the later value (last-write-wins). Readings with
// distinct timestamps are never merged; overlapping ingestion runs for
// one location produce multiple rows.
type Store interface {
	// Put durably stores a reading.
	Put(ctx context.Context, r *airquality.Reading) error

	// Latest returns the most recent reading for a postcode, or
	// ErrNotFound.
	Latest(ctx context.Context, postcode string) (*airquality.Reading, error)

	// Range returns readings for a postcode within [start, end], ordered
	// by timestamp ascending. An empty result is not an error.
	Range(ctx context.Context, postcode string, start, end time.Time) ([]*airquality.Reading, error)

	// ListForDay returns all readings recorded on the given UTC calendar
	// day ("2006-01-02") across locations, ordered by postcode then
	// timestamp.
	ListForDay(ctx context.Context, day string) ([]*airquality.Reading, error)

	// PurgeExpired removes readings whose retention deadline has passed
	// and reports how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
