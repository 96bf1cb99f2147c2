package weather_test

import (
	"context"
	"io"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/greenroute/internal/weather"
)

func TestBuildReport(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	obs := &weather.Observation{
		Temperature: 23.2, Humidity: 70, Pressure: 1012.5,
		WindSpeed: 12, WindDirection: 270, UVIndex: 8, ObservedAt: at,
	}
	forecast := &weather.Forecast{Hourly: []weather.HourlyForecast{
		{Time: at.Add(time.Hour), Temperature: 35, Humidity: 90, WindSpeed: 30, UVIndex: 10},
	}}

	report := weather.BuildReport(37.7749, -122.4194, obs, forecast)

	assert.Equal(t, 37.7749, report.Location.Latitude)
	assert.Equal(t, "C", report.Current.TemperatureUnit)
	assert.Equal(t, "hPa", report.Current.PressureUnit)
	assert.Equal(t, "km/h", report.Current.Wind.Unit)
	assert.Equal(t, 270.0, report.Current.Wind.Direction)
	assert.Equal(t, 23.2, report.Current.HeatIndex)
	assert.Equal(t, "clear", report.Current.Conditions)
	assert.Equal(t, 0.81, report.Current.Comfort.Score)
	assert.Equal(t, "very comfortable", report.Current.Comfort.Level)
	assert.Equal(t, []string{"Use sun protection"}, report.Current.Comfort.Recommendations)

	assert.Equal(t, "good", report.Environmental.AirQualityImpact.Dispersion)
	assert.Equal(t, "unlikely", report.Environmental.AirQualityImpact.Inversions)
	assert.Equal(t, "good", report.Environmental.PollutionDispersion)
	assert.Equal(t, "comfortable", report.Environmental.ThermalComfort)
	assert.Equal(t, at, report.Timestamp)

	require.Len(t, report.Forecast, 1)
	assert.Equal(t, "hot", report.Forecast[0].Conditions)
	assert.Equal(t, 0.27, report.Forecast[0].Comfort)
}

func TestBuildReport_NilForecast(t *testing.T) {
	report := weather.BuildReport(0, 0, &weather.Observation{Temperature: 20, Humidity: 50}, nil)
	assert.NotNil(t, report.Forecast)
	assert.Empty(t, report.Forecast)
}

func TestService_Report(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return at }
	svc := weather.NewService(weather.ServiceConfig{
		Provider: weather.NewMockProvider(weather.MockConfig{
			Now:      now,
			Location: time.UTC,
			Rand:     rand.New(rand.NewPCG(3, 4)),
		}),
		Logger: zerolog.New(io.Discard),
		Now:    now,
	})

	report, err := svc.Report(context.Background(), 37.7749, -122.4194)
	require.NoError(t, err)

	assert.Equal(t, 23.2, report.Current.Temperature)
	assert.Equal(t, 8, report.Current.UVIndex)
	assert.Len(t, report.Forecast, 6)
	assert.Contains(t, report.Current.Comfort.Recommendations, "Use sun protection")

	_, err = svc.Report(context.Background(), 100, 0)
	assert.ErrorIs(t, err, weather.ErrInvalidCoordinates)
}
