package routing

import (
	"fmt"
	"math"
)

// Summary condenses a ranked candidate list.
type Summary struct {
	RecommendedRoute       Category `json:"recommended_route"`
	TotalRoutesAnalyzed    int      `json:"total_routes_analyzed"`
	AverageDistanceKm      float64  `json:"average_distance_km"`
	BestAirQualityScore    int      `json:"best_air_quality_score"`
	BestShadeScore         int      `json:"best_shade_score"`
	EstimatedWalkingTime   string   `json:"estimated_walking_time"`
	CarbonFootprintAvoided string   `json:"carbon_footprint_avoided"`
}

// Summarize derives the summary from candidates ranked best first.
// An empty list yields the zero Summary.
func Summarize(candidates []Candidate) Summary {
	if len(candidates) == 0 {
		return Summary{}
	}

	var totalDistance, totalCarbon float64
	minPollution := math.Inf(1)
	maxShade := math.Inf(-1)
	for _, c := range candidates {
		totalDistance += c.Metrics.DistanceKm
		totalCarbon += c.Metrics.CarbonSavings
		minPollution = math.Min(minPollution, c.Metrics.PollutionScore)
		maxShade = math.Max(maxShade, c.Metrics.ShadeScore)
	}

	best := candidates[0]
	return Summary{
		RecommendedRoute:       best.Category,
		TotalRoutesAnalyzed:    len(candidates),
		AverageDistanceKm:      roundTo(totalDistance/float64(len(candidates)), 2),
		BestAirQualityScore:    int(math.Round((1 - minPollution) * 100)),
		BestShadeScore:         int(math.Round(maxShade * 100)),
		EstimatedWalkingTime:   fmt.Sprintf("%d minutes", best.Metrics.TimeMinutes),
		CarbonFootprintAvoided: fmt.Sprintf("%.2f kg CO₂", totalCarbon),
	}
}
