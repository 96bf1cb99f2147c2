// Package worker keeps the weather and air-quality caches warm in the background.
package worker

import (
	"sort"
	"time"

	"github.com/greenroute/greenroute/internal/geo"
)

// RefreshTarget is a named area whose points are refreshed together.
type RefreshTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the coordinates to refresh.
	Points []geo.Point

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// RefreshConfig holds configuration for the provider refresh job.
type RefreshConfig struct {
	// Targets are the areas to refresh.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent point refreshes.
	// Default: 3
	Concurrency int

	// Timeout bounds each point refresh.
	// Default: 30 seconds
	Timeout time.Duration

	// RefreshAirQuality refreshes the sensor snapshot once per run.
	RefreshAirQuality bool

	// RefreshWeather refreshes current weather and forecast per point.
	RefreshWeather bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:           DefaultRefreshTargets(),
		Concurrency:       3,
		Timeout:           30 * time.Second,
		RefreshAirQuality: true,
		RefreshWeather:    true,
	}
}

// DefaultRefreshTargets returns San Francisco neighbourhoods, downtown first.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{
			Name:     "Downtown",
			Priority: 1,
			Points: []geo.Point{
				{Lat: 37.7749, Lon: -122.4194}, // Civic Center
				{Lat: 37.7879, Lon: -122.4075}, // Union Square
				{Lat: 37.7955, Lon: -122.3937}, // Embarcadero
			},
		},
		{
			Name:     "Mission",
			Priority: 1,
			Points: []geo.Point{
				{Lat: 37.7599, Lon: -122.4148}, // Mission District
				{Lat: 37.7609, Lon: -122.4350}, // Castro
			},
		},
		{
			Name:     "North",
			Priority: 2,
			Points: []geo.Point{
				{Lat: 37.7941, Lon: -122.4078}, // Chinatown
				{Lat: 37.8060, Lon: -122.4103}, // North Beach
			},
		},
		{
			Name:     "West",
			Priority: 3,
			Points: []geo.Point{
				{Lat: 37.7694, Lon: -122.4862}, // Golden Gate Park
				{Lat: 37.7802, Lon: -122.4635}, // Inner Richmond
			},
		},
	}
}

// AllPoints returns every point, ordered by target priority.
func (c RefreshConfig) AllPoints() []geo.Point {
	targets := make([]RefreshTarget, len(c.Targets))
	copy(targets, c.Targets)
	sort.SliceStable(targets, func(i, j int) bool { return targets[i].Priority < targets[j].Priority })

	var points []geo.Point
	for _, target := range targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to refresh.
func (c RefreshConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
