package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/greenroute/internal/api/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/air-quality", http.NoBody)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	cfg := middleware.RateLimitConfig{Name: "standard", RequestLimit: 3, WindowLength: time.Minute}
	handler := middleware.RateLimitByIP(cfg)(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:12345").Code, "request %d", i+1)
	}

	rec := hit(handler, "10.0.0.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "3 requests per 1m0s")
}

func TestRateLimitByIP_SeparateIPs(t *testing.T) {
	cfg := middleware.RateLimitConfig{Name: "standard", RequestLimit: 2, WindowLength: time.Minute}
	handler := middleware.RateLimitByIP(cfg)(okHandler())

	hit(handler, "172.16.0.1:12345")
	hit(handler, "172.16.0.1:12345")

	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "172.16.0.1:12345").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "172.16.0.2:12345").Code)
}

func TestRateLimit_RetryAfterFollowsWindow(t *testing.T) {
	tests := []struct {
		window time.Duration
		want   string
	}{
		{time.Minute, "60"},
		{10 * time.Second, "10"},
		{90500 * time.Millisecond, "91"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := middleware.RateLimitConfig{Name: "auth", RequestLimit: 1, WindowLength: tt.window}
			handler := middleware.RateLimitByIP(cfg)(okHandler())

			hit(handler, "192.0.2.9:1")
			rec := hit(handler, "192.0.2.9:1")
			require.Equal(t, http.StatusTooManyRequests, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Retry-After"))
		})
	}
}

func TestRateLimitByUser_KeysByUser(t *testing.T) {
	cfg := middleware.RateLimitConfig{Name: "user", RequestLimit: 1, WindowLength: time.Minute}
	limiter := middleware.RateLimitByUser(cfg)

	// Stand-in for Auth: put a user on the context.
	withUser := func(userID string) http.Handler {
		return middleware.Auth(validatorFunc(func(string) (string, error) { return userID, nil }))(limiter(okHandler()))
	}

	send := func(h http.Handler, ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/me/dashboard", http.NoBody)
		req.RemoteAddr = ip
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	alice := withUser("usr_alice")
	assert.Equal(t, http.StatusOK, send(alice, "192.168.1.1:1"))
	assert.Equal(t, http.StatusTooManyRequests, send(alice, "192.168.1.2:1"), "limit follows the user across IPs")

	bob := withUser("usr_bob")
	assert.Equal(t, http.StatusOK, send(bob, "192.168.1.1:1"), "other users keep their own budget")
}

func TestRateLimitByUser_FallsBackToIP(t *testing.T) {
	cfg := middleware.RateLimitConfig{Name: "user", RequestLimit: 1, WindowLength: time.Minute}
	handler := middleware.RateLimitByUser(cfg)(okHandler())

	assert.Equal(t, http.StatusOK, hit(handler, "192.168.7.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "192.168.7.1:1").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "192.168.7.2:1").Code)
}

func TestRateLimitExceeded_ProblemAndRequestInfo(t *testing.T) {
	cfg := middleware.RateLimitConfig{Name: "expensive", RequestLimit: 1, WindowLength: time.Minute}

	var info *middleware.RequestInfo
	capture := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info = middleware.GetRequestInfo(r.Context())
			next.ServeHTTP(w, r)
		})
	}
	handler := middleware.RequestID(capture(middleware.RateLimitByIP(cfg)(okHandler())))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequestWithContext(context.Background(), http.MethodPost, "/api/route-compute", http.NoBody)
		req.RemoteAddr = "203.0.113.1:12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send().Code)
	require.NotNil(t, info)
	assert.Empty(t, info.RateLimit)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "too-many-requests")
	assert.Contains(t, rec.Body.String(), "/api/route-compute")
	assert.Equal(t, "expensive", info.RateLimit)
}

func TestRateLimitClasses(t *testing.T) {
	tests := []struct {
		cfg   middleware.RateLimitConfig
		name  string
		limit int
	}{
		{middleware.AuthRateLimit, "auth", 10},
		{middleware.ExpensiveRateLimit, "expensive", 30},
		{middleware.StandardRateLimit, "standard", 100},
		{middleware.UserRateLimit, "user", 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.cfg.Name)
		assert.Equal(t, tt.limit, tt.cfg.RequestLimit, tt.name)
		assert.Equal(t, time.Minute, tt.cfg.WindowLength, tt.name)
	}
}
