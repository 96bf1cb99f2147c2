package weather

import "math"

// Rothfusz regression coefficients for Celsius.
const (
	hiC1 = -8.78469475556
	hiC2 = 1.61139411
	hiC3 = 2.33854883889
	hiC4 = -0.14611605
	hiC5 = -0.012308094
	hiC6 = -0.0164248277778
	hiC7 = 0.002211732
	hiC8 = 0.00072546
	hiC9 = -0.000003582
)

// heatIndexThreshold is the temperature below which the heat index equals
// the air temperature.
const heatIndexThreshold = 27.0

// Condition summarizes temperature, humidity and wind into a single label.
// The first matching rule wins.
func Condition(temp, humidity, windSpeed float64) string {
	switch {
	case humidity > 90:
		return "foggy"
	case temp > 30:
		return "hot"
	case temp < 5:
		return "cold"
	case windSpeed > 20:
		return "windy"
	case humidity < 30:
		return "dry"
	default:
		return "clear"
	}
}

// HeatIndex returns the apparent temperature in Celsius, rounded to one decimal.
func HeatIndex(temp, humidity float64) float64 {
	if temp < heatIndexThreshold {
		return temp
	}

	t, r := temp, humidity
	hi := hiC1 + hiC2*t + hiC3*r + hiC4*t*r +
		hiC5*t*t + hiC6*r*r + hiC7*t*t*r +
		hiC8*t*r*r + hiC9*t*t*r*r

	return roundTo(hi, 1)
}

// ComfortScore rates walking comfort from 0 to 1, rounded to two decimals.
// Temperature counts for 40%, humidity 30%, wind 20% and UV 10%.
func ComfortScore(temp, humidity, windSpeed float64, uvIndex int) float64 {
	tempScore := clamp01(1 - math.Abs(temp-21)/20)
	humidityScore := clamp01(1 - math.Abs(humidity-50)/50)

	var windScore float64
	switch {
	case windSpeed > 25:
		windScore = 0.3
	case windSpeed > 15:
		windScore = 0.7
	case windSpeed > 5:
		windScore = 1
	default:
		windScore = 0.8
	}

	var uvScore float64
	switch {
	case uvIndex > 8:
		uvScore = 0.3
	case uvIndex > 5:
		uvScore = 0.7
	default:
		uvScore = 1
	}

	return roundTo(tempScore*0.4+humidityScore*0.3+windScore*0.2+uvScore*0.1, 2)
}

// ComfortLevel labels a comfort score.
func ComfortLevel(score float64) string {
	switch {
	case score >= 0.8:
		return "very comfortable"
	case score >= 0.6:
		return "comfortable"
	case score >= 0.4:
		return "moderate"
	case score >= 0.2:
		return "uncomfortable"
	default:
		return "very uncomfortable"
	}
}

// ThermalComfort is the coarse three-level form of ComfortLevel.
func ThermalComfort(score float64) string {
	switch {
	case score > 0.7:
		return "comfortable"
	case score > 0.4:
		return "moderate"
	default:
		return "uncomfortable"
	}
}

// Recommendations returns walking advice for the observed conditions.
func Recommendations(obs *Observation) []string {
	var recs []string
	if obs.Temperature > 28 {
		recs = append(recs, "Seek shade and stay hydrated")
	}
	if obs.Temperature < 10 {
		recs = append(recs, "Dress warmly")
	}
	if obs.UVIndex > 6 {
		recs = append(recs, "Use sun protection")
	}
	if obs.Humidity > 80 {
		recs = append(recs, "Expect muggy conditions")
	}
	if obs.WindSpeed > 20 {
		recs = append(recs, "Expect windy conditions")
	}
	if len(recs) == 0 {
		recs = append(recs, "Great weather for outdoor activities!")
	}
	return recs
}

// Dispersion rates how well wind disperses pollutants.
func Dispersion(windSpeed float64) string {
	switch {
	case windSpeed > 10:
		return "good"
	case windSpeed > 5:
		return "moderate"
	default:
		return "poor"
	}
}

// Inversions reports whether a temperature inversion trapping pollutants
// near the ground is likely.
func Inversions(temp, humidity float64) string {
	if temp < 15 && humidity > 80 {
		return "likely"
	}
	return "unlikely"
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
