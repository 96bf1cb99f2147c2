// Package main provides the entrypoint for the GreenRoute API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/airquality"
	"github.com/greenroute/greenroute/internal/airquality/luchtmeetnet"
	"github.com/greenroute/greenroute/internal/api"
	"github.com/greenroute/greenroute/internal/api/middleware"
	"github.com/greenroute/greenroute/internal/auth"
	"github.com/greenroute/greenroute/internal/cache"
	"github.com/greenroute/greenroute/internal/config"
	"github.com/greenroute/greenroute/internal/database"
	"github.com/greenroute/greenroute/internal/provider/resilience"
	"github.com/greenroute/greenroute/internal/routing"
	"github.com/greenroute/greenroute/internal/telemetry"
	"github.com/greenroute/greenroute/internal/trips"
	"github.com/greenroute/greenroute/internal/weather"
	"github.com/greenroute/greenroute/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "greenroute-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Str("timezone", cfg.Timezone.String()).
		Msg("starting GreenRoute API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	routeMetrics, err := telemetry.NewRouteMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize route metrics")
		os.Exit(1)
	}

	store, closeStore := openCacheStore(ctx, cfg, log)
	defer closeStore()

	registry := resilience.NewRegistry()

	airQualityService := airquality.NewService(airquality.ServiceConfig{
		Provider: airQualityProvider(cfg, registry, log),
		Logger:   log.With().Str("component", "airquality").Logger(),
		Store:    store,
	})

	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: weatherProvider(cfg, registry, log),
		Logger:   log.With().Str("component", "weather").Logger(),
		Store:    store,
	})
	log.Info().Str("provider", weatherService.ProviderName()).Msg("weather service initialized")

	tripRepo, closeRepo := openTripRepository(ctx, cfg, log)
	defer closeRepo()
	tripService := trips.NewService(trips.ServiceConfig{
		Repository: tripRepo,
		Logger:     log.With().Str("component", "trips").Logger(),
	})
	log.Info().Str("store", cfg.TripStore).Msg("trip service initialized")

	if cfg.UsesDefaultSigningKey() {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	authService := auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: cfg.JWTSigningKey,
			Issuer:     cfg.JWTIssuer,
			Audience:   cfg.JWTAudience,
		}),
		Logger: log.With().Str("component", "auth").Logger(),
	})

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		ServiceName:  serviceName,
		Development:  cfg.IsDevelopment(),
		RequireTLS:   cfg.RequireTLS,
		Metrics:      metrics,
		RouteMetrics: routeMetrics,
		Synthesizer:  routing.NewSynthesizer(cfg.Timezone),
		AirQuality:   airQualityService,
		Weather:      weatherService,
		Trips:        tripService,
		AuthService:  authService,
		Registry:     registry,
		CacheStore:   store,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// openCacheStore connects to Redis when REDIS_ADDR is set and falls back to
// an in-process store otherwise or when Redis is unreachable. The returned
// func closes the Redis connection.
func openCacheStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.Store, func()) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("using in-memory cache")
		return cache.NewMemoryStore(), func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	store, err := cache.NewRedisStore(connectCtx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-memory cache")
		return cache.NewMemoryStore(), func() {}
	}

	log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache connected")
	return store, func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis")
		}
	}
}

// weatherProvider returns the OpenWeatherMap client when an API key is
// configured and the synthetic provider otherwise.
func weatherProvider(cfg *config.Config, registry *resilience.Registry, log zerolog.Logger) weather.Provider {
	if cfg.OpenWeatherMapAPIKey == "" {
		log.Info().Msg("OPENWEATHERMAP_API_KEY not set, using mock weather")
		return weather.NewMockProvider(weather.MockConfig{Location: cfg.Timezone})
	}

	clientCfg := resilience.DefaultClientConfig(openweathermap.ProviderName)
	clientCfg.Registry = registry
	clientCfg.Logger = log.With().Str("component", "resilience").Logger()

	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     cfg.OpenWeatherMapAPIKey,
		HTTPClient: resilience.NewClient(clientCfg),
		Logger:     log.With().Str("provider", openweathermap.ProviderName).Logger(),
	})
}

// openTripRepository selects the trip store named by TRIP_STORE. The returned
// func releases any connection pool.
func openTripRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (trips.Repository, func()) {
	if cfg.TripStore != config.TripStorePostgres {
		return trips.NewInMemoryRepository(), func() {}
	}

	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	return trips.NewPostgresRepository(pool), pool.Close
}

// airQualityProvider returns the sensor source named by AIR_QUALITY_PROVIDER.
func airQualityProvider(cfg *config.Config, registry *resilience.Registry, log zerolog.Logger) airquality.Provider {
	if cfg.AirQualityProvider != config.AirQualityLuchtmeetnet {
		return airquality.NewMockProvider()
	}

	clientCfg := resilience.DefaultClientConfig(luchtmeetnet.ProviderName)
	clientCfg.Registry = registry
	clientCfg.Logger = log.With().Str("component", "resilience").Logger()
	return luchtmeetnet.NewClient(luchtmeetnet.ClientConfig{
		HTTPClient: resilience.NewClient(clientCfg),
	})
}
