// Package weather provides current conditions and short-range forecasts,
// and derives walking comfort from them.
package weather

import (
	"errors"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Observation represents weather at a specific point and time.
type Observation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// Temperature in Celsius
	Temperature float64 `json:"temperature"`

	// Humidity percentage (0-100)
	Humidity float64 `json:"humidity"`

	// Atmospheric pressure in hPa
	Pressure float64 `json:"pressure"`

	WindSpeed     float64 `json:"windSpeed"`     // km/h
	WindDirection float64 `json:"windDirection"` // degrees (0-360, 0=N, 90=E)

	UVIndex int `json:"uvIndex"`

	ObservedAt time.Time `json:"observedAt"`
	FetchedAt  time.Time `json:"fetchedAt"`
	Provider   string    `json:"provider"`
}

// Forecast represents hourly forecast data.
type Forecast struct {
	Lat       float64          `json:"lat"`
	Lon       float64          `json:"lon"`
	Hourly    []HourlyForecast `json:"hourly"`
	FetchedAt time.Time        `json:"fetchedAt"`
}

// HourlyForecast represents weather for a specific hour.
type HourlyForecast struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"` // km/h
	UVIndex     int       `json:"uvIndex"`
}

// ValidateCoordinates checks latitude and longitude ranges.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
