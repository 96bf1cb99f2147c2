package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/greenroute/greenroute/internal/api/middleware"
)

func setupTestMeter(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader
}

// counterPoints returns the data points of the named int64 counter.
func counterPoints(t *testing.T, reader *sdkmetric.ManualReader, name string) []metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok, "%s is not an int64 sum", name)
				return sum.DataPoints
			}
		}
	}
	return nil
}

func attr(point metricdata.DataPoint[int64], key string) string {
	v, _ := point.Attributes.Value(attribute.Key(key))
	return v.Emit()
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	reader := setupTestMeter(t)
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Get("/api/me/trips/{tripId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"trp_a", "trp_b", "trp_c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/me/trips/"+id, http.NoBody))
	}

	points := counterPoints(t, reader, "http.server.request.total")
	require.Len(t, points, 1, "one series per route pattern")
	assert.Equal(t, int64(3), points[0].Value)
	assert.Equal(t, "/api/me/trips/{tripId}", attr(points[0], "http.route"))
	assert.Equal(t, "404", attr(points[0], "http.response.status_code"))
	assert.Equal(t, "true", attr(points[0], "error"))
}

func TestMetrics_DefaultStatusCode(t *testing.T) {
	reader := setupTestMeter(t)
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("response"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preferences", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	points := counterPoints(t, reader, "http.server.request.total")
	require.Len(t, points, 1)
	assert.Equal(t, "200", attr(points[0], "http.response.status_code"))
	assert.Equal(t, "/api/preferences", attr(points[0], "http.route"), "unrouted requests use the path")
}

func TestMetrics_CountsRateLimitedByClass(t *testing.T) {
	reader := setupTestMeter(t)
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	limit := middleware.RateLimitConfig{Name: "expensive", RequestLimit: 1, WindowLength: time.Minute}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(metrics.Middleware())
	r.With(middleware.RateLimitByIP(limit)).Post("/api/route-compute", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/route-compute", http.NoBody)
		req.RemoteAddr = "198.51.100.7:4000"
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	points := counterPoints(t, reader, "http.server.rate_limited")
	require.Len(t, points, 1)
	assert.Equal(t, int64(2), points[0].Value)
	assert.Equal(t, "expensive", attr(points[0], "rate_limit.class"))
	assert.Equal(t, "/api/route-compute", attr(points[0], "http.route"))
}
