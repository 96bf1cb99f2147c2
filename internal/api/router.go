// Package api provides the HTTP API for GreenRoute.
package api

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/airquality"
	"github.com/greenroute/greenroute/internal/api/handler"
	"github.com/greenroute/greenroute/internal/api/middleware"
	"github.com/greenroute/greenroute/internal/auth"
	"github.com/greenroute/greenroute/internal/cache"
	"github.com/greenroute/greenroute/internal/provider/resilience"
	"github.com/greenroute/greenroute/internal/routing"
	"github.com/greenroute/greenroute/internal/telemetry"
	"github.com/greenroute/greenroute/internal/trips"
	"github.com/greenroute/greenroute/internal/weather"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string

	// Development exposes internal error details in 500 responses.
	Development bool
	// RequireTLS rejects plain HTTP behind a load balancer.
	RequireTLS bool

	Metrics      *middleware.Metrics
	RouteMetrics *telemetry.RouteMetrics

	Synthesizer *routing.Synthesizer
	AirQuality  *airquality.Service
	Weather     *weather.Service
	Trips       *trips.Service
	AuthService *auth.Service

	// Registry reports upstream provider health on /ops/status.
	Registry *resilience.Registry
	// CacheStore is pinged by the readiness check when set.
	CacheStore cache.Store

	// Now overrides time.Now for route computation.
	Now func() time.Time
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "greenroute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))                    // Structured logging
	r.Use(middleware.Recovery(cfg.Logger, cfg.Development)) // Panic recovery
	r.Use(chimiddleware.RealIP)                             // Real IP extraction
	r.Use(middleware.SecurityHeaders)                       // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))            // TLS enforcement
	r.Use(middleware.ContentTypeJSON)                       // JSON content type

	opsConfig := handler.OpsHandlerConfig{
		Version:      cfg.Version,
		BuildTime:    cfg.BuildTime,
		Dependencies: readinessDependencies(cfg),
		Registry:     cfg.Registry,
	}
	if cfg.AirQuality != nil {
		opsConfig.AirQuality = cfg.AirQuality
	}
	if cfg.Weather != nil {
		opsConfig.Weather = cfg.Weather
	}
	opsHandler := handler.NewOpsHandler(opsConfig)
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Logger)
	routeHandler := handler.NewRouteHandler(handler.RouteHandlerConfig{
		Synthesizer: cfg.Synthesizer,
		Metrics:     cfg.RouteMetrics,
		Logger:      cfg.Logger,
		Now:         cfg.Now,
	})
	environmentHandler := handler.NewEnvironmentHandler(cfg.AirQuality, cfg.Weather, cfg.Logger, cfg.Development)
	preferenceHandler := handler.NewPreferenceHandler()
	tripHandler := handler.NewTripHandler(cfg.Trips, cfg.Logger, cfg.Development)

	authMiddleware := middleware.Auth(cfg.AuthService)

	// Rate limit classes
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireJSON)

		// Ops endpoints (public except status)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Guest sessions - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit)
			r.Post("/guest", authHandler.CreateGuestSession)
		})

		// Route synthesis - expensive compute
		r.With(expensiveRateLimit).Post("/route-compute", routeHandler.ComputeRoutes)

		// Environmental layers and preferences - standard rate limiting
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/air-quality", environmentHandler.GetAirQuality)
			r.Get("/weather", environmentHandler.GetWeather)
			r.Get("/preferences", preferenceHandler.GetPreferences)
			r.Post("/preferences/rebalance", preferenceHandler.Rebalance)
		})

		// Me endpoints (authenticated) - user-based rate limiting
		r.Route("/me", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.UserRateLimit)) // 100 req/min per user
			r.Get("/dashboard", tripHandler.GetDashboard)
			r.Route("/trips", func(r chi.Router) {
				r.Get("/", tripHandler.ListTrips)
				r.Post("/", tripHandler.CreateTrip)
				r.Get("/{tripId}", tripHandler.GetTrip)
			})
		})
	})

	return r
}

func readinessDependencies(cfg RouterConfig) []handler.Dependency {
	var deps []handler.Dependency
	if cfg.Trips != nil {
		deps = append(deps, handler.Dependency{Name: "trip-store", Ping: cfg.Trips.Ping})
	}
	if cfg.CacheStore != nil {
		store := cfg.CacheStore
		deps = append(deps, handler.Dependency{
			Name: "cache:" + store.Name(),
			Ping: func(ctx context.Context) error { return store.Ping(ctx) },
		})
	}
	return deps
}
