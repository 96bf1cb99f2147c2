package routing

import (
	"errors"
	"fmt"

	"github.com/greenroute/greenroute/internal/geo"
	"github.com/greenroute/greenroute/internal/preference"
)

// Trip length limits in kilometres, both inclusive.
const (
	MinDistanceKm = 0.1
	MaxDistanceKm = 50.0
)

// Validation errors. Each is wrapped in a *ValidationError carrying the
// client-facing message.
var (
	ErrMissingEndpoints   = errors.New("missing origin or destination")
	ErrMissingCoordinates = errors.New("missing latitude or longitude")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidWeights     = errors.New("invalid preference weights")
	ErrTooClose           = errors.New("origin and destination too close")
	ErrTooFar             = errors.New("route distance too long")
)

// ValidationError is a request error that can be shown to the client as-is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Coordinates is a point as submitted by a client; either field may be absent.
type Coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (c *Coordinates) complete() bool {
	return c.Latitude != nil && c.Longitude != nil
}

func (c *Coordinates) point() geo.Point {
	return geo.Point{Lat: *c.Latitude, Lon: *c.Longitude}
}

// Request is the body of a route computation.
type Request struct {
	Origin      *Coordinates        `json:"origin"`
	Destination *Coordinates        `json:"destination"`
	Weights     *preference.Partial `json:"weights,omitempty"`
}

// ValidRequest is a Request that passed validation.
type ValidRequest struct {
	Origin      geo.Point
	Destination geo.Point
	Weights     preference.Weights
	DistanceKm  float64
}

// ValidateRequest checks a request in order: presence of both endpoints,
// presence of coordinates, coordinate ranges, weight sum, then trip length.
// The first failing check is returned, always as a *ValidationError.
func ValidateRequest(req Request) (ValidRequest, error) {
	if req.Origin == nil || req.Destination == nil {
		return ValidRequest{}, &ValidationError{
			Field:   "origin",
			Message: "Origin and destination coordinates are required",
			Err:     ErrMissingEndpoints,
		}
	}

	if !req.Origin.complete() || !req.Destination.complete() {
		return ValidRequest{}, &ValidationError{
			Field:   "origin",
			Message: "Origin and destination must have latitude and longitude",
			Err:     ErrMissingCoordinates,
		}
	}

	origin := req.Origin.point()
	destination := req.Destination.point()
	for _, p := range []struct {
		field string
		point geo.Point
	}{{"origin", origin}, {"destination", destination}} {
		if err := p.point.Validate(); err != nil {
			return ValidRequest{}, &ValidationError{
				Field:   p.field,
				Message: "Invalid coordinates provided",
				Err:     fmt.Errorf("%w: %s: %v", ErrInvalidCoordinates, p.field, err),
			}
		}
	}

	weights := req.Weights.Resolve()
	if err := weights.Validate(); err != nil {
		return ValidRequest{}, &ValidationError{
			Field:   "weights",
			Message: "Route preference weights must sum to approximately 1.0",
			Err:     fmt.Errorf("%w: %v", ErrInvalidWeights, err),
		}
	}

	distance := geo.Haversine(origin, destination)
	if err := ValidateDistance(distance); err != nil {
		return ValidRequest{}, err
	}

	return ValidRequest{
		Origin:      origin,
		Destination: destination,
		Weights:     weights,
		DistanceKm:  distance,
	}, nil
}

// ValidateDistance enforces MinDistanceKm and MaxDistanceKm.
func ValidateDistance(km float64) error {
	if km < MinDistanceKm {
		return &ValidationError{
			Field:   "destination",
			Message: "Origin and destination are too close. Minimum distance is 100 meters.",
			Err:     ErrTooClose,
		}
	}
	if km > MaxDistanceKm {
		return &ValidationError{
			Field:   "destination",
			Message: "Route distance too long. Maximum supported distance is 50 km.",
			Err:     ErrTooFar,
		}
	}
	return nil
}
