package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/greenroute/greenroute/internal/api/models"
)

// RateLimitConfig is a named rate limit class.
type RateLimitConfig struct {
	// Name identifies the class in logs and metrics.
	Name string
	// RequestLimit is the number of requests allowed per window.
	RequestLimit int
	// WindowLength is the sliding window duration.
	WindowLength time.Duration
}

// Rate limit classes.
var (
	// AuthRateLimit guards guest session creation.
	AuthRateLimit = RateLimitConfig{Name: "auth", RequestLimit: 10, WindowLength: time.Minute}

	// ExpensiveRateLimit guards route synthesis.
	ExpensiveRateLimit = RateLimitConfig{Name: "expensive", RequestLimit: 30, WindowLength: time.Minute}

	// StandardRateLimit guards environmental layers and preferences.
	StandardRateLimit = RateLimitConfig{Name: "standard", RequestLimit: 100, WindowLength: time.Minute}

	// UserRateLimit guards the authenticated /me endpoints, keyed per user.
	UserRateLimit = RateLimitConfig{Name: "user", RequestLimit: 100, WindowLength: time.Minute}
)

// retryAfter is the Retry-After value in whole seconds. httprate does not
// expose the reset time, so the full window is the upper bound.
func (c RateLimitConfig) retryAfter() string {
	return strconv.Itoa(int(math.Ceil(c.WindowLength.Seconds())))
}

// RateLimitByIP limits requests per client IP. Run after chi's RealIP so
// X-Forwarded-For is honoured.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

// RateLimitByUser limits requests per authenticated user, falling back to
// the client IP when no user is on the context.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByUserOrIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return httprate.KeyByRealIP(r)
}

// limitExceeded writes a 429 Problem and records the class on the request
// info for the request logger and metrics.
func limitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	detail := fmt.Sprintf("Rate limit exceeded: %d requests per %s. Please try again later.",
		cfg.RequestLimit, cfg.WindowLength)

	return func(w http.ResponseWriter, r *http.Request) {
		if info := GetRequestInfo(r.Context()); info != nil {
			info.RateLimit = cfg.Name
		}

		problem := models.NewTooManyRequests(GetRequestID(r.Context()), detail)
		problem.Instance = r.URL.Path

		w.Header().Set("Retry-After", cfg.retryAfter())
		problem.Write(w)
	}
}
