package trips

import (
	"math"
	"sort"
	"time"

	"github.com/greenroute/greenroute/internal/routing"
)

// Green point awards.
const (
	PointsPerTrip = 50
	PointsPerKm   = 10
)

// recentCount is how many trips the dashboard lists.
const recentCount = 3

// Stats are the headline numbers of a dashboard.
type Stats struct {
	TotalDistance    float64 `json:"totalDistance"`
	RoutesPlanned    int     `json:"routesPlanned"`
	GreenPoints      int     `json:"greenPoints"`
	PollutionAvoided int     `json:"pollutionAvoided"`
	CO2Saved         float64 `json:"co2Saved"`
}

// Badge is an achievement, earned or in progress.
type Badge struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Earned      bool       `json:"earned"`
	EarnedAt    *time.Time `json:"earnedDate,omitempty"`
	Progress    float64    `json:"progress"`
	Target      float64    `json:"target"`
}

// Dashboard summarizes a user's trips.
type Dashboard struct {
	Stats  Stats   `json:"stats"`
	Recent []*Trip `json:"-"`
	Badges []Badge `json:"badges"`
}

// badgeRule measures progress toward a badge after each trip.
type badgeRule struct {
	id, name, description, icon string
	target                      float64
	measure                     func(t *Trip) float64
}

func countCategory(c routing.Category) func(*Trip) float64 {
	return func(t *Trip) float64 {
		if t.Category == c {
			return 1
		}
		return 0
	}
}

func countAll(*Trip) float64 { return 1 }

var badgeRules = []badgeRule{
	{"first-steps", "First Steps", "Planned your first green route", "🌱", 1, countAll},
	{"clean-air-champion", "Clean Air Champion", "Avoided high pollution areas 10 times", "💨", 10, countCategory(routing.CategoryLowPollution)},
	{"shade-seeker", "Shade Seeker", "Chose shaded routes 15 times", "🌳", 15, countCategory(routing.CategoryMostShaded)},
	{"green-explorer", "Green Explorer", "Plan 50 routes", "🗺️", 50, countAll},
	{"eco-warrior", "Eco Warrior", "Save 25kg of CO2", "🌍", 25, func(t *Trip) float64 { return t.CarbonSavings }},
}

// BuildDashboard derives stats, recent trips and badges from trips in any order.
func BuildDashboard(trips []*Trip) *Dashboard {
	chrono := make([]*Trip, len(trips))
	copy(chrono, trips)
	sort.SliceStable(chrono, func(i, j int) bool { return chrono[i].CreatedAt.Before(chrono[j].CreatedAt) })

	var distance, carbon float64
	var improvement int
	for _, t := range chrono {
		distance += t.DistanceKm
		carbon += t.CarbonSavings
		improvement += t.AirQualityImprovement
	}

	stats := Stats{
		TotalDistance: roundTo(distance, 1),
		RoutesPlanned: len(chrono),
		GreenPoints:   len(chrono)*PointsPerTrip + int(math.Round(distance*PointsPerKm)),
		CO2Saved:      roundTo(carbon, 2),
	}
	if len(chrono) > 0 {
		stats.PollutionAvoided = int(math.Round(float64(improvement) / float64(len(chrono))))
	}

	recent := make([]*Trip, 0, recentCount)
	for i := len(chrono) - 1; i >= 0 && len(recent) < recentCount; i-- {
		recent = append(recent, chrono[i])
	}

	return &Dashboard{
		Stats:  stats,
		Recent: recent,
		Badges: evaluateBadges(chrono),
	}
}

func evaluateBadges(chrono []*Trip) []Badge {
	badges := make([]Badge, 0, len(badgeRules))
	for _, rule := range badgeRules {
		b := Badge{
			ID:          rule.id,
			Name:        rule.name,
			Description: rule.description,
			Icon:        rule.icon,
			Target:      rule.target,
		}

		var progress float64
		for _, t := range chrono {
			progress += rule.measure(t)
			if !b.Earned && progress >= rule.target {
				at := t.CreatedAt
				b.Earned = true
				b.EarnedAt = &at
			}
		}
		b.Progress = math.Min(roundTo(progress, 2), rule.target)

		badges = append(badges, b)
	}
	return badges
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
