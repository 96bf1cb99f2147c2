package models

import (
	"github.com/greenroute/greenroute/internal/airquality"
)

// AirQualityResponse lists the sensors inside the requested bounding box.
type AirQualityResponse struct {
	Sensors  []airquality.Reading `json:"sensors"`
	Metadata AirQualityMetadata   `json:"metadata"`
}

// AirQualityMetadata describes an air quality query.
type AirQualityMetadata struct {
	Total     int               `json:"total"`
	BBox      []float64         `json:"bbox"`
	Timestamp Timestamp         `json:"timestamp"`
	Units     map[string]string `json:"units"`
}
