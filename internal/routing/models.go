// Package routing synthesizes walking route variants between two points and
// ranks them against the user's clean air, shade and distance preferences.
package routing

// Category identifies one of the fixed route variants.
type Category string

const (
	// CategoryLowPollution favours the cleanest air.
	CategoryLowPollution Category = "low-pollution"
	// CategoryMostShaded favours tree canopy and shade.
	CategoryMostShaded Category = "most-shaded"
	// CategoryBalanced trades off air, shade and distance.
	CategoryBalanced Category = "balanced"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryLowPollution, CategoryMostShaded, CategoryBalanced:
		return true
	default:
		return false
	}
}

// AlertType classifies an alert attached to a candidate.
type AlertType string

const (
	AlertPollution AlertType = "pollution"
	AlertHeat      AlertType = "heat"
)

// Alert is a time-sensitive warning about a route.
type Alert struct {
	Type     AlertType `json:"type"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
}

// Metrics are the environmental measurements of a candidate route.
type Metrics struct {
	DistanceKm            float64 `json:"distance_km"`
	TimeMinutes           int     `json:"time_minutes"`
	PollutionScore        float64 `json:"pollution_score"`
	ShadeScore            float64 `json:"shade_score"`
	CarbonSavings         float64 `json:"carbon_savings"`
	RouteEfficiency       float64 `json:"route_efficiency"`
	AirQualityImprovement int     `json:"air_quality_improvement"`
}

// Candidate is one ranked route variant.
type Candidate struct {
	Category      Category `json:"category"`
	Polyline      string   `json:"polyline"`
	Metrics       Metrics  `json:"metrics"`
	WeightedScore float64  `json:"weightedScore"`
	Description   string   `json:"description"`
	Highlights    []string `json:"highlights"`
	Alerts        []Alert  `json:"alerts"`
}

// template holds the per-category constants a candidate is built from.
type template struct {
	category        Category
	distanceFactor  float64
	pollutionScore  float64
	shadeScore      float64
	carbonFactor    float64
	routeEfficiency float64
	// bend offsets the polyline midpoint sideways, as a fraction of the
	// straight-line span, so the variants draw as distinct paths.
	bend        float64
	description string
	highlights  []string
}

// templates is the fixed variant table, in tie-break order.
var templates = []template{
	{
		category:        CategoryLowPollution,
		distanceFactor:  1.15,
		pollutionScore:  0.15,
		shadeScore:      0.45,
		carbonFactor:    0.15,
		routeEfficiency: 0.85,
		bend:            0.25,
		description:     "Takes you through areas with the cleanest air quality, avoiding high-traffic roads and industrial zones.",
		highlights:      []string{"Low PM2.5 exposure", "Avoids busy roads", "Good for sensitive individuals"},
	},
	{
		category:        CategoryMostShaded,
		distanceFactor:  1.08,
		pollutionScore:  0.35,
		shadeScore:      0.85,
		carbonFactor:    0.08,
		routeEfficiency: 0.92,
		bend:            -0.18,
		description:     "Maximizes tree canopy coverage and shade, perfect for hot sunny days.",
		highlights:      []string{"High tree coverage", "Cool micro-climate", "UV protection"},
	},
	{
		category:        CategoryBalanced,
		distanceFactor:  1.05,
		pollutionScore:  0.25,
		shadeScore:      0.65,
		carbonFactor:    0.05,
		routeEfficiency: 0.95,
		bend:            0.1,
		description:     "Optimal balance of clean air, shade, and reasonable distance.",
		highlights:      []string{"Best overall experience", "Balanced environmental factors", "Efficient routing"},
	},
}
