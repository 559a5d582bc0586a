package airquality

import "time"

// NewReading builds the persisted record from a raw measurement and its
// computed score. The record is stamped with ingestion-completion time in
// UTC, not the provider's own timestamp, so two runs over identical
// upstream data produce two distinct readings. Provenance is taken from
// the adapter that succeeded and the retention deadline is fixed at
// RetentionWindow from ingestion.
func NewReading(raw *RawMeasurement, now time.Time) *Reading {
	aqi := ComputeAQI(raw.Pollutants)
	now = now.UTC()

	return &Reading{
		Postcode:   raw.Postcode,
		Lat:        raw.Lat,
		Lon:        raw.Lon,
		RecordedAt: now,
		AQI:        aqi,
		Rating:     RatingForAQI(aqi),
		Pollutants: raw.Pollutants,
		Source:     raw.Source,
		ExpiresAt:  now.Add(RetentionWindow),
	}
}
