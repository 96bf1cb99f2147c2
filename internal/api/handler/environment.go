package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/airquality"
	"github.com/greenroute/greenroute/internal/api/models"
	"github.com/greenroute/greenroute/internal/api/response"
	"github.com/greenroute/greenroute/internal/geo"
	"github.com/greenroute/greenroute/internal/weather"
)

// AirQualityQuerier returns sensor readings inside a bounding box.
type AirQualityQuerier interface {
	Query(ctx context.Context, bbox geo.BoundingBox) (*airquality.QueryResult, error)
}

// WeatherReporter builds the walking weather report for a location.
type WeatherReporter interface {
	Report(ctx context.Context, lat, lon float64) (*weather.Report, error)
}

// EnvironmentHandler serves the air quality and weather layers.
type EnvironmentHandler struct {
	airQuality AirQualityQuerier
	weather    WeatherReporter
	logger     zerolog.Logger
	verbose    bool
}

// NewEnvironmentHandler creates a new EnvironmentHandler.
func NewEnvironmentHandler(aq AirQualityQuerier, wx WeatherReporter, logger zerolog.Logger, verbose bool) *EnvironmentHandler {
	return &EnvironmentHandler{
		airQuality: aq,
		weather:    wx,
		logger:     logger,
		verbose:    verbose,
	}
}

// GetAirQuality handles GET /api/air-quality?bbox=minLon,minLat,maxLon,maxLat.
func (h *EnvironmentHandler) GetAirQuality(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("bbox")
	if raw == "" {
		response.BadRequest(w, r, "bbox parameter is required", []models.FieldError{
			{Field: "bbox", Message: "required", Code: "required"},
		})
		return
	}

	bbox, err := geo.ParseBoundingBox(raw)
	if err != nil {
		response.BadRequest(w, r, geo.ErrInvalidBoundingBox.Error(), []models.FieldError{
			{Field: "bbox", Message: err.Error(), Code: "invalid_bbox"},
		})
		return
	}

	result, err := h.airQuality.Query(r.Context(), bbox)
	if err != nil {
		h.logger.Error().Err(err).Str("bbox", raw).Msg("air quality query failed")
		if errors.Is(err, airquality.ErrProviderUnavailable) {
			response.ServiceUnavailable(w, r, "air quality data is temporarily unavailable")
			return
		}
		response.InternalError(w, r, internalDetail("Internal server error", err, h.verbose))
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	response.JSON(w, r, http.StatusOK, models.AirQualityResponse{
		Sensors: result.Readings,
		Metadata: models.AirQualityMetadata{
			Total:     len(result.Readings),
			BBox:      result.BBox.Slice(),
			Timestamp: models.Timestamp(result.Timestamp),
			Units:     airquality.Units,
		},
	})
}

// GetWeather handles GET /api/weather?lat=&lon=.
func (h *EnvironmentHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	lat, latOK := parseCoordinate(r.URL.Query().Get("lat"))
	lon, lonOK := parseCoordinate(r.URL.Query().Get("lon"))
	if !latOK || !lonOK {
		response.BadRequest(w, r, "Valid lat and lon parameters are required", coordinateErrors(latOK, lonOK, "required"))
		return
	}

	if err := weather.ValidateCoordinates(lat, lon); err != nil {
		response.BadRequest(w, r,
			"Invalid coordinates. Lat must be between -90 and 90, lon between -180 and 180",
			coordinateErrors(lat >= -90 && lat <= 90, lon >= -180 && lon <= 180, "out_of_range"))
		return
	}

	report, err := h.weather.Report(r.Context(), lat, lon)
	if err != nil {
		h.logger.Error().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("weather report failed")
		if errors.Is(err, weather.ErrProviderUnavailable) {
			response.ServiceUnavailable(w, r, "weather data is temporarily unavailable")
			return
		}
		response.InternalError(w, r, internalDetail("Internal server error", err, h.verbose))
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, report)
}

// parseCoordinate parses a query value, rejecting empty, non-numeric and NaN input.
func parseCoordinate(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func coordinateErrors(latOK, lonOK bool, code string) []models.FieldError {
	var errs []models.FieldError
	if !latOK {
		errs = append(errs, models.FieldError{Field: "lat", Message: "must be a number between -90 and 90", Code: code})
	}
	if !lonOK {
		errs = append(errs, models.FieldError{Field: "lon", Message: "must be a number between -180 and 180", Code: code})
	}
	return errs
}
