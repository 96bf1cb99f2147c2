// Package airquality serves pollutant readings from a network of sensors,
// with caching and a derived air quality index.
package airquality

import (
	"errors"
	"time"

	"github.com/greenroute/greenroute/internal/geo"
)

// Provider errors.
var (
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
)

// Pollutant represents an air quality pollutant type.
type Pollutant string

const (
	PollutantPM25 Pollutant = "PM25"
	PollutantNO2  Pollutant = "NO2"
	PollutantO3   Pollutant = "O3"
)

// Units reported alongside readings.
var Units = map[string]string{
	"pm25": "μg/m³",
	"no2":  "ppb",
	"o3":   "ppb",
	"aqi":  "index",
}

// Sensor is a monitoring point with its latest raw concentrations.
type Sensor struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	PM25 float64 `json:"pm25"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
}

// Point returns the sensor location.
func (s Sensor) Point() geo.Point {
	return geo.Point{Lat: s.Lat, Lon: s.Lon}
}

// Snapshot is a point-in-time set of sensor readings from one provider.
type Snapshot struct {
	Sensors   []Sensor  `json:"sensors"`
	FetchedAt time.Time `json:"fetchedAt"`
	Provider  string    `json:"provider"`
}

// Measurements are the pollutant values of a reading.
type Measurements struct {
	PM25 float64 `json:"pm25"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
	AQI  int     `json:"aqi"`
}

// Reading is a sensor reading as served to clients.
type Reading struct {
	ID           int          `json:"id"`
	Latitude     float64      `json:"latitude"`
	Longitude    float64      `json:"longitude"`
	Measurements Measurements `json:"measurements"`
	Status       string       `json:"status"`
	Timestamp    time.Time    `json:"timestamp"`
	Location     string       `json:"location"`
}

// QueryResult holds the readings inside a bounding box.
type QueryResult struct {
	Readings  []Reading
	BBox      geo.BoundingBox
	Timestamp time.Time
}
