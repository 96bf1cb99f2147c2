package openweathermap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/greenroute/internal/provider/resilience"
	"github.com/greenroute/greenroute/internal/weather"
	"github.com/greenroute/greenroute/internal/weather/openweathermap"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newClient(t *testing.T, url string) *openweathermap.Client {
	t.Helper()
	cfg := resilience.DefaultClientConfig("test")
	cfg.MaxRetries = 0
	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "test-key",
		OneCallURL: url,
		HTTPClient: resilience.NewClient(cfg),
		Now:        func() time.Time { return fixedNow },
	})
}

func TestClient_GetCurrentWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Contains(t, q.Get("lat"), "37.7749")
		assert.Contains(t, q.Get("lon"), "-122.4194")
		assert.Equal(t, "test-key", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Contains(t, q.Get("exclude"), "hourly")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"lat": 37.7749,
			"lon": -122.4194,
			"current": map[string]any{
				"dt":         fixedNow.Unix(),
				"temp":       18.5,
				"pressure":   1015.0,
				"humidity":   72.0,
				"uvi":        5.6,
				"wind_speed": 4.5,
				"wind_deg":   220.0,
			},
		})
	}))
	defer server.Close()

	obs, err := newClient(t, server.URL).GetCurrentWeather(context.Background(), 37.7749, -122.4194)
	require.NoError(t, err)

	assert.Equal(t, 37.7749, obs.Lat)
	assert.Equal(t, 18.5, obs.Temperature)
	assert.Equal(t, 72.0, obs.Humidity)
	assert.Equal(t, 1015.0, obs.Pressure)
	assert.Equal(t, 16.2, obs.WindSpeed, "m/s converted to km/h")
	assert.Equal(t, 220.0, obs.WindDirection)
	assert.Equal(t, 6, obs.UVIndex)
	assert.Equal(t, fixedNow, obs.ObservedAt)
	assert.Equal(t, fixedNow, obs.FetchedAt)
	assert.Equal(t, openweathermap.ProviderName, obs.Provider)
}

func TestClient_GetForecastLimitsHours(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("exclude"), "current")

		hourly := make([]map[string]any, 0, 48)
		for i := 0; i < 48; i++ {
			hourly = append(hourly, map[string]any{
				"dt":         fixedNow.Add(time.Duration(i+1) * time.Hour).Unix(),
				"temp":       20.0 + float64(i),
				"humidity":   60.0,
				"wind_speed": 2.0,
				"uvi":        3.2,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"lat": 37.7749, "lon": -122.4194, "hourly": hourly})
	}))
	defer server.Close()

	forecast, err := newClient(t, server.URL).GetForecast(context.Background(), 37.7749, -122.4194)
	require.NoError(t, err)

	require.Len(t, forecast.Hourly, 6)
	first := forecast.Hourly[0]
	assert.Equal(t, fixedNow.Add(time.Hour), first.Time)
	assert.Equal(t, 20.0, first.Temperature)
	assert.Equal(t, 7.2, first.WindSpeed)
	assert.Equal(t, 3, first.UVIndex)
	assert.Equal(t, 25.0, forecast.Hourly[5].Temperature)
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).GetCurrentWeather(context.Background(), 37.7749, -122.4194)

	var statusErr *resilience.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).GetForecast(context.Background(), 37.7749, -122.4194)
	assert.Error(t, err)
}

func TestClient_ImplementsProvider(t *testing.T) {
	var _ weather.Provider = newClient(t, "http://unused")
	assert.Equal(t, "openweathermap", newClient(t, "http://unused").Name())
}
