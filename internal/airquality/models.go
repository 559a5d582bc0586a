// Package airquality provides the air quality domain model: pollutant
// measurements, AQI scoring, and the normalized readings that get persisted.
package airquality

import (
	"errors"
	"time"
)

// Fetch errors. Adapters wrap one of these so the orchestrator and batch
// runner can classify failures without knowing provider internals. All
// three are fallback triggers; they differ only for logging.
var (
	// ErrNetwork indicates a transport-level failure (timeout, connection
	// refused, 5xx after retries).
	ErrNetwork = errors.New("provider network failure")

	// ErrParse indicates a response was received but its schema was not
	// recognized.
	ErrParse = errors.New("provider response not understood")

	// ErrNoData indicates a well-formed response carrying no measurements
	// for the requested location.
	ErrNoData = errors.New("no data for location")
)

// RetentionWindow is how long a persisted reading is kept before the
// store's expiry mechanism reclaims it.
const RetentionWindow = 7 * 24 * time.Hour

// Location is a geographic reference point readings are ingested for.
// Immutable reference data supplied by the location registry.
type Location struct {
	Postcode string
	Name     string
	Lat      float64
	Lon      float64
}

// Pollutants holds canonical pollutant concentrations in µg/m³.
// Missing or unreported values are zero, never an error.
type Pollutants struct {
	PM25  float64 `json:"pm25"`
	PM10  float64 `json:"pm10"`
	Ozone float64 `json:"ozone"`
	NO2   float64 `json:"no2"`
	SO2   float64 `json:"so2"`
}

// RawMeasurement is a provider-specific payload translated into the
// canonical pollutant map. Produced by a source adapter, consumed once
// by the normalizer, never persisted directly.
type RawMeasurement struct {
	Postcode   string
	Lat        float64
	Lon        float64
	Pollutants Pollutants

	// Source identifies the adapter that produced this measurement.
	Source string

	// ObservedAt is the provider-reported measurement time, if any.
	// Informational only: the persisted reading is stamped with
	// ingestion-completion time, not this.
	ObservedAt time.Time
}

// Rating is the qualitative air quality rating derived from the AQI.
type Rating string

// Quality ratings, from best to worst.
const (
	RatingGood          Rating = "good"
	RatingModerate      Rating = "moderate"
	RatingUnhealthySG   Rating = "unhealthy_for_sensitive_groups"
	RatingUnhealthy     Rating = "unhealthy"
	RatingVeryUnhealthy Rating = "very_unhealthy"
	RatingHazardous     Rating = "hazardous"
)

// Reading is an immutable, timestamped, scored measurement record for one
// location. (Postcode, RecordedAt) is unique at the storage layer; content
// is not deduplicated, so re-ingesting identical upstream data under a new
// ingestion timestamp creates a new reading.
type Reading struct {
	Postcode   string     `json:"postcode"`
	Lat        float64    `json:"latitude"`
	Lon        float64    `json:"longitude"`
	RecordedAt time.Time  `json:"timestamp"`
	AQI        int        `json:"aqi"`
	Rating     Rating     `json:"quality_rating"`
	Pollutants Pollutants `json:"pollutants"`

	// Source is the provenance: which upstream provider supplied the data.
	Source string `json:"source"`

	// ExpiresAt is the retention deadline enforced by the store.
	ExpiresAt time.Time `json:"-"`
}

// Day returns the UTC calendar day of the reading, the key of the
// secondary cross-location ordering.
func (r *Reading) Day() string {
	return r.RecordedAt.UTC().Format("2006-01-02")
}
