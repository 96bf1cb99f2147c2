package models

import (
	"github.com/greenroute/greenroute/internal/routing"
	"github.com/greenroute/greenroute/internal/trips"
)

// TripCreateRequest records a route the user chose.
type TripCreateRequest struct {
	Category    routing.Category `json:"category"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	Origin      *Coordinates     `json:"origin"`
	Destination *Coordinates     `json:"destination"`
	Metrics     *routing.Metrics `json:"metrics"`
}

// Trip is a recorded trip as served to clients.
type Trip struct {
	ID                    string           `json:"id"`
	Category              routing.Category `json:"category"`
	From                  string           `json:"from"`
	To                    string           `json:"to"`
	Origin                Coordinates      `json:"origin"`
	Destination           Coordinates      `json:"destination"`
	Distance              float64          `json:"distance"`
	PollutionScore        float64          `json:"pollutionScore"`
	ShadeScore            float64          `json:"shadeScore"`
	CarbonSavings         float64          `json:"carbonSavings"`
	AirQualityImprovement int              `json:"airQualityImprovement"`
	Date                  string           `json:"date"`
	CreatedAt             Timestamp        `json:"createdAt"`
}

// NewTrip converts a stored trip.
func NewTrip(t *trips.Trip) Trip {
	return Trip{
		ID:                    t.ID,
		Category:              t.Category,
		From:                  t.From,
		To:                    t.To,
		Origin:                NewCoordinates(t.Origin),
		Destination:           NewCoordinates(t.Destination),
		Distance:              t.DistanceKm,
		PollutionScore:        t.PollutionScore,
		ShadeScore:            t.ShadeScore,
		CarbonSavings:         t.CarbonSavings,
		AirQualityImprovement: t.AirQualityImprovement,
		Date:                  t.CreatedAt.Format("2006-01-02"),
		CreatedAt:             Timestamp(t.CreatedAt),
	}
}

// NewTrips converts a slice of stored trips, never returning nil.
func NewTrips(ts []*trips.Trip) []Trip {
	out := make([]Trip, 0, len(ts))
	for _, t := range ts {
		out = append(out, NewTrip(t))
	}
	return out
}

// TripList is a page of the user's trips, newest first.
type TripList struct {
	Items []Trip            `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// DashboardResponse is the user's progress overview.
type DashboardResponse struct {
	Stats        trips.Stats   `json:"stats"`
	RecentRoutes []Trip        `json:"recentRoutes"`
	Badges       []trips.Badge `json:"badges"`
}

// NewDashboardResponse converts a computed dashboard.
func NewDashboardResponse(d *trips.Dashboard) DashboardResponse {
	return DashboardResponse{
		Stats:        d.Stats,
		RecentRoutes: NewTrips(d.Recent),
		Badges:       d.Badges,
	}
}
