package routing

import (
	"math"
	"sort"
	"time"

	"github.com/greenroute/greenroute/internal/geo"
	"github.com/greenroute/greenroute/internal/preference"
	"github.com/greenroute/greenroute/pkg/polyline"
)

const (
	// walkingMinutesPerKm is the assumed walking pace.
	walkingMinutesPerKm = 12
	// rushHourPollutionFactor scales pollution during rush hour.
	rushHourPollutionFactor = 1.3
	// baselineExposure is the pollution exposure of a typical route.
	baselineExposure = 0.5
	// pollutionAlertThreshold raises a pollution alert when exceeded.
	pollutionAlertThreshold = 0.4
	// heatAlertShadeThreshold raises a heat alert at midday when shade is below it.
	heatAlertShadeThreshold = 0.3
)

// Synthesizer builds the three route variants between two points.
// It holds no mutable state and is safe for concurrent use.
type Synthesizer struct {
	location *time.Location
}

// NewSynthesizer creates a synthesizer that evaluates time-of-day rules in loc.
// A nil loc uses time.Local.
func NewSynthesizer(loc *time.Location) *Synthesizer {
	if loc == nil {
		loc = time.Local
	}
	return &Synthesizer{location: loc}
}

// Synthesize returns the variants sorted by weighted score, best first.
// Inputs are expected to be validated by the caller.
func (s *Synthesizer) Synthesize(origin, destination geo.Point, weights preference.Weights, now time.Time) []Candidate {
	baseDistance := geo.Haversine(origin, destination)

	candidates := make([]Candidate, 0, len(templates))
	for _, t := range templates {
		distance := baseDistance * t.distanceFactor
		c := Candidate{
			Category: t.category,
			Polyline: variantPolyline(origin, destination, t.bend),
			Metrics: Metrics{
				DistanceKm:      distance,
				TimeMinutes:     int(math.Round(distance * walkingMinutesPerKm)),
				PollutionScore:  t.pollutionScore,
				ShadeScore:      t.shadeScore,
				CarbonSavings:   roundTo(baseDistance*t.carbonFactor, 2),
				RouteEfficiency: t.routeEfficiency,
			},
			Description: t.description,
			Highlights:  append([]string(nil), t.highlights...),
		}
		c.WeightedScore = WeightedScore(c.Metrics, weights)
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].WeightedScore > candidates[j].WeightedScore
	})

	hour := now.In(s.location).Hour()
	for i := range candidates {
		applyTimeOfDay(&candidates[i], hour)
	}

	return candidates
}

// WeightedScore combines cleanliness, shade and a distance score that decays
// linearly past 1 km, rounded to three decimals.
func WeightedScore(m Metrics, w preference.Weights) float64 {
	cleanliness := 1 - m.PollutionScore
	distanceScore := math.Max(0, 1-(m.DistanceKm-1)/10)

	score := cleanliness*w.Pollution + m.ShadeScore*w.Shade + distanceScore*w.Distance
	return roundTo(score, 3)
}

// applyTimeOfDay adjusts pollution for rush hour, attaches alerts and derives
// the air quality improvement. It runs after ranking, so the weighted score
// keeps the unadjusted pollution.
func applyTimeOfDay(c *Candidate, hour int) {
	if IsRushHour(hour) {
		c.Metrics.PollutionScore = math.Min(1, c.Metrics.PollutionScore*rushHourPollutionFactor)
	}

	c.Alerts = []Alert{}
	if c.Metrics.PollutionScore > pollutionAlertThreshold {
		c.Alerts = append(c.Alerts, Alert{
			Type:     AlertPollution,
			Severity: "moderate",
			Message:  "Moderate air pollution detected along this route",
		})
	}
	if c.Metrics.ShadeScore < heatAlertShadeThreshold && IsPeakSun(hour) {
		c.Alerts = append(c.Alerts, Alert{
			Type:     AlertHeat,
			Severity: "warning",
			Message:  "Limited shade available during peak sun hours",
		})
	}

	reduction := (baselineExposure - c.Metrics.PollutionScore) / baselineExposure * 100
	c.Metrics.AirQualityImprovement = int(math.Max(0, math.Round(reduction)))
}

// IsRushHour reports whether hour falls in 07-09 or 17-19 inclusive.
func IsRushHour(hour int) bool {
	return (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19)
}

// IsPeakSun reports whether hour falls in 11-16 inclusive.
func IsPeakSun(hour int) bool {
	return hour >= 11 && hour <= 16
}

// variantPolyline draws origin, a sideways-offset midpoint and destination.
func variantPolyline(origin, destination geo.Point, bend float64) string {
	dLat := destination.Lat - origin.Lat
	dLon := destination.Lon - origin.Lon

	mid := polyline.Coordinate{
		Lat: (origin.Lat+destination.Lat)/2 - dLon*bend,
		Lon: (origin.Lon+destination.Lon)/2 + dLat*bend,
	}

	coords := polyline.Interpolate(polyline.Coordinate{Lat: origin.Lat, Lon: origin.Lon}, mid, 4)
	coords = append(coords, polyline.Interpolate(mid, polyline.Coordinate{Lat: destination.Lat, Lon: destination.Lon}, 4)[1:]...)
	return polyline.Encode(coords)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
