package airquality

// aqiBand is one linear segment of the piecewise AQI formula: the
// concentration range [CLo, CHi] maps onto the index range [ILo, IHi].
type aqiBand struct {
	CLo, CHi float64
	ILo, IHi int
}

// aqiCeiling is the saturation value for concentrations beyond the last
// breakpoint band. Extreme inputs are not interpolated further.
const aqiCeiling = 201

// US EPA-style breakpoints for 24h PM2.5 (µg/m³).
var pm25Bands = []aqiBand{
	{0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
}

// US EPA-style breakpoints for 24h PM10 (µg/m³).
var pm10Bands = []aqiBand{
	{0, 54, 0, 50},
	{55, 154, 51, 100},
	{155, 254, 101, 150},
	{255, 354, 151, 200},
}

// ComputeAQI derives the overall AQI from pollutant concentrations.
// The index is the maximum of the PM2.5 and PM10 sub-indices; ozone, NO2
// and SO2 are carried on the record but do not contribute to the number.
// Pure and deterministic, no I/O.
func ComputeAQI(p Pollutants) int {
	pm25 := subIndex(p.PM25, pm25Bands)
	pm10 := subIndex(p.PM10, pm10Bands)
	if pm25 > pm10 {
		return pm25
	}
	return pm10
}

// subIndex linearly interpolates a concentration within its breakpoint
// band. Values beyond the last band saturate at aqiCeiling.
func subIndex(value float64, bands []aqiBand) int {
	for _, b := range bands {
		if value <= b.CHi {
			frac := (value - b.CLo) / (b.CHi - b.CLo)
			return int(frac*float64(b.IHi-b.ILo) + float64(b.ILo))
		}
	}
	return aqiCeiling
}

// RatingForAQI maps an AQI value onto its qualitative rating.
// Upper bounds are inclusive.
func RatingForAQI(aqi int) Rating {
	switch {
	case aqi <= 50:
		return RatingGood
	case aqi <= 100:
		return RatingModerate
	case aqi <= 150:
		return RatingUnhealthySG
	case aqi <= 200:
		return RatingUnhealthy
	case aqi <= 300:
		return RatingVeryUnhealthy
	default:
		return RatingHazardous
	}
}
