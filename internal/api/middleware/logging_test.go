package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/greenroute/internal/api/middleware"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("response body"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/preferences", http.NoBody)
	req.Header.Set("User-Agent", "test-agent")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := logLine(t, &buf)
	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/api/preferences", entry["path"])
	assert.Equal(t, "/api/preferences", entry["route"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, float64(len("response body")), entry["bytes"])
	assert.Equal(t, "test-agent", entry["user_agent"])
	assert.Contains(t, entry, "duration")
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "user_id")
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusCreated, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusTooManyRequests, "warn"},
		{http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			handler := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/me/trips", http.NoBody))

			entry := logLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, float64(tt.status), entry["status"])
		})
	}
}

func TestLogger_RoutePatternAndUser(t *testing.T) {
	var buf bytes.Buffer

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(zerolog.New(&buf)))
	r.Route("/api/me", func(r chi.Router) {
		r.Use(middleware.Auth(validatorFunc(func(string) (string, error) { return "usr_42", nil })))
		r.Get("/trips/{tripId}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/me/trips/trp_abc", http.NoBody)
	req.Header.Set("Authorization", "Bearer token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entry := logLine(t, &buf)
	assert.Equal(t, "/api/me/trips/{tripId}", entry["route"])
	assert.Equal(t, "/api/me/trips/trp_abc", entry["path"])
	assert.Equal(t, "usr_42", entry["user_id"])
	assert.Contains(t, entry["request_id"], "req_")
}

func TestLogger_IncludesRateLimitClass(t *testing.T) {
	var buf bytes.Buffer
	limit := middleware.RateLimitConfig{Name: "auth", RequestLimit: 1, WindowLength: time.Minute}
	limiter := middleware.RateLimitByIP(limit)

	handler := middleware.RequestID(middleware.Logger(zerolog.New(&buf))(limiter(okHandler())))

	hit(handler, "192.0.2.44:1")
	buf.Reset()
	hit(handler, "192.0.2.44:1")

	entry := logLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "auth", entry["rate_limit"])
}

func TestLogger_IncludesTraceID(t *testing.T) {
	_, cleanup := setupTestTracer()
	defer cleanup()

	var buf bytes.Buffer
	handler := middleware.Tracing("greenroute-api")(
		middleware.Logger(zerolog.New(&buf))(okHandler()),
	)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ops/health", http.NoBody))

	entry := logLine(t, &buf)
	assert.Len(t, entry["trace_id"], 32)
	assert.Len(t, entry["span_id"], 16)
}
