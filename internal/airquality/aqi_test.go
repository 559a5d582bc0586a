package airquality_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
)

func TestComputeAQI_PM25Breakpoints(t *testing.T) {
	tests := []struct {
		name string
		pm25 float64
		want int
	}{
		{"zero", 0.0, 0},
		{"top of good band", 12.0, 50},
		{"top of moderate band", 35.4, 100},
		{"top of sensitive band", 55.4, 150},
		{"top of unhealthy band", 150.4, 200},
		{"beyond last band saturates", 200.0, 201},
		{"extreme input saturates", 10000.0, 201},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := airquality.ComputeAQI(airquality.Pollutants{PM25: tc.pm25})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComputeAQI_PM10Breakpoints(t *testing.T) {
	tests := []struct {
		name string
		pm10 float64
		want int
	}{
		{"zero", 0.0, 0},
		{"top of good band", 54, 50},
		{"top of moderate band", 154, 100},
		{"top of sensitive band", 254, 150},
		{"top of unhealthy band", 354, 200},
		{"beyond last band saturates", 500, 201},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := airquality.ComputeAQI(airquality.Pollutants{PM10: tc.pm10})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComputeAQI_Monotonic(t *testing.T) {
	// The index must never decrease as PM2.5 increases, within bands and
	// across band boundaries.
	prev := -1
	for pm25 := 0.0; pm25 <= 200.0; pm25 += 0.1 {
		got := airquality.ComputeAQI(airquality.Pollutants{PM25: pm25})
		assert.GreaterOrEqual(t, got, prev, "AQI decreased at pm25=%.1f", pm25)
		prev = got
	}
}

func TestComputeAQI_MaxOfSubIndices(t *testing.T) {
	pm25Only := airquality.ComputeAQI(airquality.Pollutants{PM25: 40.0})
	pm10Only := airquality.ComputeAQI(airquality.Pollutants{PM10: 40.0})
	both := airquality.ComputeAQI(airquality.Pollutants{PM25: 40.0, PM10: 40.0})

	assert.Greater(t, pm25Only, pm10Only)
	assert.Equal(t, pm25Only, both)

	// PM10 dominates when its sub-index is higher.
	pm10High := airquality.ComputeAQI(airquality.Pollutants{PM25: 5.0, PM10: 300.0})
	assert.Equal(t, airquality.ComputeAQI(airquality.Pollutants{PM10: 300.0}), pm10High)
}

func TestComputeAQI_IgnoresOtherPollutants(t *testing.T) {
	base := airquality.Pollutants{PM25: 20.0, PM10: 30.0}
	loaded := base
	loaded.Ozone = 900.0
	loaded.NO2 = 900.0
	loaded.SO2 = 900.0

	// Ozone, NO2 and SO2 are recorded but never move the index.
	assert.Equal(t, airquality.ComputeAQI(base), airquality.ComputeAQI(loaded))
}

func TestRatingForAQI(t *testing.T) {
	tests := []struct {
		aqi  int
		want airquality.Rating
	}{
		{0, airquality.RatingGood},
		{50, airquality.RatingGood},
		{51, airquality.RatingModerate},
		{100, airquality.RatingModerate},
		{101, airquality.RatingUnhealthySG},
		{150, airquality.RatingUnhealthySG},
		{151, airquality.RatingUnhealthy},
		{200, airquality.RatingUnhealthy},
		{201, airquality.RatingVeryUnhealthy},
		{300, airquality.RatingVeryUnhealthy},
		{301, airquality.RatingHazardous},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, airquality.RatingForAQI(tc.aqi), "aqi=%d", tc.aqi)
	}
}
