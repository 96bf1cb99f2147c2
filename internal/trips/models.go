// Package trips records the routes a user chose and derives their dashboard.
package trips

import (
	"errors"
	"time"

	"github.com/greenroute/greenroute/internal/geo"
	"github.com/greenroute/greenroute/internal/routing"
)

// Repository errors.
var (
	ErrTripNotFound = errors.New("trip not found")
)

// Trip is a route a user chose to walk.
type Trip struct {
	ID          string
	UserID      string
	Category    routing.Category
	From        string
	To          string
	Origin      geo.Point
	Destination geo.Point

	DistanceKm            float64
	PollutionScore        float64
	ShadeScore            float64
	CarbonSavings         float64
	AirQualityImprovement int

	CreatedAt time.Time
}
