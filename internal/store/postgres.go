package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
)

// Postgres is a PostgreSQL implementation of Store.
//
// Key design: the primary key (postcode, recorded_at) gives each location
// its own partition ordered by timestamp, serving "most recent" lookups
// and date-range scans; the (recorded_on, postcode) index is the secondary
// ordering for cross-location same-day queries.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL readings store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the readings table and indexes if they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS readings (
			postcode        TEXT             NOT NULL,
			recorded_at     TIMESTAMPTZ      NOT NULL,
			recorded_on     DATE             NOT NULL,
			latitude        DOUBLE PRECISION NOT NULL DEFAULT 0,
			longitude       DOUBLE PRECISION NOT NULL DEFAULT 0,
			aqi             INTEGER          NOT NULL,
			quality_rating  TEXT             NOT NULL,
			pm25            DOUBLE PRECISION NOT NULL DEFAULT 0,
			pm10            DOUBLE PRECISION NOT NULL DEFAULT 0,
			ozone           DOUBLE PRECISION NOT NULL DEFAULT 0,
			no2             DOUBLE PRECISION NOT NULL DEFAULT 0,
			so2             DOUBLE PRECISION NOT NULL DEFAULT 0,
			source          TEXT             NOT NULL,
			expires_at      TIMESTAMPTZ      NOT NULL,
			PRIMARY KEY (postcode, recorded_at)
		);
		CREATE INDEX IF NOT EXISTS readings_day_idx
			ON readings (recorded_on, postcode);
		CREATE INDEX IF NOT EXISTS readings_expiry_idx
			ON readings (expires_at);
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure readings schema: %w", err)
	}
	return nil
}

// Put upserts a reading keyed by (postcode, recorded_at). Last write wins.
func (s *Postgres) Put(ctx context.Context, r *airquality.Reading) error {
	const query = `
		INSERT INTO readings (
			postcode, recorded_at, recorded_on, latitude, longitude,
			aqi, quality_rating, pm25, pm10, ozone, no2, so2,
			source, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (postcode, recorded_at) DO UPDATE SET
			recorded_on    = EXCLUDED.recorded_on,
			latitude       = EXCLUDED.latitude,
			longitude      = EXCLUDED.longitude,
			aqi            = EXCLUDED.aqi,
			quality_rating = EXCLUDED.quality_rating,
			pm25           = EXCLUDED.pm25,
			pm10           = EXCLUDED.pm10,
			ozone          = EXCLUDED.ozone,
			no2            = EXCLUDED.no2,
			so2            = EXCLUDED.so2,
			source         = EXCLUDED.source,
			expires_at     = EXCLUDED.expires_at
	`

	recordedAt := r.RecordedAt.UTC()
	_, err := s.pool.Exec(ctx, query,
		r.Postcode, recordedAt, recordedAt.Truncate(24*time.Hour),
		r.Lat, r.Lon,
		r.AQI, string(r.Rating),
		r.Pollutants.PM25, r.Pollutants.PM10, r.Pollutants.Ozone,
		r.Pollutants.NO2, r.Pollutants.SO2,
		r.Source, r.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put reading %s@%s: %w", r.Postcode, recordedAt.Format(time.RFC3339), err)
	}
	return nil
}

const readingColumns = `
	postcode, recorded_at, latitude, longitude,
	aqi, quality_rating, pm25, pm10, ozone, no2, so2,
	source, expires_at
`

// Latest returns the most recent reading for a postcode.
func (s *Postgres) Latest(ctx context.Context, postcode string) (*airquality.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM readings
		WHERE postcode = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	reading, err := scanReading(s.pool.QueryRow(ctx, query, postcode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest reading for %s: %w", postcode, err)
	}
	return reading, nil
}

// Range returns readings for a postcode within [start, end], ascending.
func (s *Postgres) Range(ctx context.Context, postcode string, start, end time.Time) ([]*airquality.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM readings
		WHERE postcode = $1 AND recorded_at BETWEEN $2 AND $3
		ORDER BY recorded_at ASC
	`

	rows, err := s.pool.Query(ctx, query, postcode, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("range readings for %s: %w", postcode, err)
	}
	defer rows.Close()

	return collectReadings(rows)
}

// ListForDay returns all readings for one UTC calendar day across
// locations.
func (s *Postgres) ListForDay(ctx context.Context, day string) ([]*airquality.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM readings
		WHERE recorded_on = $1
		ORDER BY postcode ASC, recorded_at ASC
	`

	rows, err := s.pool.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("list readings for day %s: %w", day, err)
	}
	defer rows.Close()

	return collectReadings(rows)
}

// PurgeExpired deletes readings past their retention deadline.
func (s *Postgres) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM readings WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired readings: %w", err)
	}
	return tag.RowsAffected(), nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (*airquality.Reading, error) {
	var (
		r      airquality.Reading
		rating string
	)

	err := row.Scan(
		&r.Postcode, &r.RecordedAt, &r.Lat, &r.Lon,
		&r.AQI, &rating,
		&r.Pollutants.PM25, &r.Pollutants.PM10, &r.Pollutants.Ozone,
		&r.Pollutants.NO2, &r.Pollutants.SO2,
		&r.Source, &r.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	r.Rating = airquality.Rating(rating)
	r.RecordedAt = r.RecordedAt.UTC()
	r.ExpiresAt = r.ExpiresAt.UTC()
	return &r, nil
}

func collectReadings(rows pgx.Rows) ([]*airquality.Reading, error) {
	var readings []*airquality.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}
