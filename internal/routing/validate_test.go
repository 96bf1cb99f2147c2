package routing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/greenroute/internal/preference"
	"github.com/greenroute/greenroute/internal/routing"
)

func ptr(v float64) *float64 { return &v }

func coords(lat, lon float64) *routing.Coordinates {
	return &routing.Coordinates{Latitude: ptr(lat), Longitude: ptr(lon)}
}

func TestValidateRequest_Valid(t *testing.T) {
	got, err := routing.ValidateRequest(routing.Request{
		Origin:      coords(37.7749, -122.4194),
		Destination: coords(37.7849, -122.4094),
	})
	require.NoError(t, err)

	assert.Equal(t, preference.Default(), got.Weights)
	assert.InDelta(t, 1.417, got.DistanceKm, 0.001)
	assert.Equal(t, 37.7749, got.Origin.Lat)
	assert.Equal(t, -122.4094, got.Destination.Lon)
}

func TestValidateRequest_ZeroCoordinatesArePresent(t *testing.T) {
	_, err := routing.ValidateRequest(routing.Request{
		Origin:      coords(0, 0),
		Destination: coords(0.01, 0),
	})
	assert.NoError(t, err)
}

func TestValidateRequest_Errors(t *testing.T) {
	shade := 0.9

	tests := []struct {
		name    string
		req     routing.Request
		wantErr error
		message string
	}{
		{
			name:    "missing origin",
			req:     routing.Request{Destination: coords(37.78, -122.41)},
			wantErr: routing.ErrMissingEndpoints,
			message: "Origin and destination coordinates are required",
		},
		{
			name: "missing longitude",
			req: routing.Request{
				Origin:      &routing.Coordinates{Latitude: ptr(37.77)},
				Destination: coords(37.78, -122.41),
			},
			wantErr: routing.ErrMissingCoordinates,
			message: "Origin and destination must have latitude and longitude",
		},
		{
			name: "latitude out of range",
			req: routing.Request{
				Origin:      coords(91, -122.41),
				Destination: coords(37.78, -122.41),
			},
			wantErr: routing.ErrInvalidCoordinates,
			message: "Invalid coordinates provided",
		},
		{
			name: "longitude out of range",
			req: routing.Request{
				Origin:      coords(37.77, -122.41),
				Destination: coords(37.78, 181),
			},
			wantErr: routing.ErrInvalidCoordinates,
			message: "Invalid coordinates provided",
		},
		{
			name: "weights off",
			req: routing.Request{
				Origin:      coords(37.7749, -122.4194),
				Destination: coords(37.7849, -122.4094),
				Weights:     &preference.Partial{Shade: &shade},
			},
			wantErr: routing.ErrInvalidWeights,
			message: "Route preference weights must sum to approximately 1.0",
		},
		{
			name: "too close",
			req: routing.Request{
				Origin:      coords(37.7749, -122.4194),
				Destination: coords(37.7750, -122.4194),
			},
			wantErr: routing.ErrTooClose,
			message: "Origin and destination are too close. Minimum distance is 100 meters.",
		},
		{
			name: "too far",
			req: routing.Request{
				Origin:      coords(37.7749, -122.4194),
				Destination: coords(38.5816, -121.4944),
			},
			wantErr: routing.ErrTooFar,
			message: "Route distance too long. Maximum supported distance is 50 km.",
		},
		{
			name: "coordinates checked before weights",
			req: routing.Request{
				Origin:      coords(37.77, 200),
				Destination: coords(37.78, -122.41),
				Weights:     &preference.Partial{Shade: &shade},
			},
			wantErr: routing.ErrInvalidCoordinates,
			message: "Invalid coordinates provided",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := routing.ValidateRequest(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var verr *routing.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Message)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestValidateDistance_Boundaries(t *testing.T) {
	assert.NoError(t, routing.ValidateDistance(0.1))
	assert.ErrorIs(t, routing.ValidateDistance(0.0999), routing.ErrTooClose)
	assert.NoError(t, routing.ValidateDistance(50))
	assert.ErrorIs(t, routing.ValidateDistance(50.001), routing.ErrTooFar)
	assert.NoError(t, routing.ValidateDistance(12.5))
}
