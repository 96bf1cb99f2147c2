package airquality

import "math"

// Sub-index reference concentrations and caps.
const (
	pm25Reference = 35.0
	no2Reference  = 100.0
	o3Reference   = 120.0

	pm25Cap = 300
	no2Cap  = 200
	o3Cap   = 200
)

// IndexFor returns a simplified AQI: the largest of the capped per-pollutant
// sub-indices, each expressed as a percentage of its reference concentration.
func IndexFor(pm25, no2, o3 float64) int {
	pm := min(roundInt(pm25/pm25Reference*100), pm25Cap)
	n := min(roundInt(no2/no2Reference*100), no2Cap)
	o := min(roundInt(o3/o3Reference*100), o3Cap)
	return max(pm, n, o)
}

// StatusFor maps an AQI to its category label.
func StatusFor(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
