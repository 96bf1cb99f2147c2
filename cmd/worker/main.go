// Package main provides the entrypoint for the GreenRoute cache refresh worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/greenroute/greenroute/internal/airquality"
	"github.com/greenroute/greenroute/internal/airquality/luchtmeetnet"
	"github.com/greenroute/greenroute/internal/api/middleware"
	"github.com/greenroute/greenroute/internal/api/models"
	"github.com/greenroute/greenroute/internal/api/response"
	"github.com/greenroute/greenroute/internal/cache"
	"github.com/greenroute/greenroute/internal/config"
	"github.com/greenroute/greenroute/internal/provider/resilience"
	"github.com/greenroute/greenroute/internal/weather"
	"github.com/greenroute/greenroute/internal/weather/openweathermap"
	"github.com/greenroute/greenroute/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "greenroute-worker"

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
		Msg("starting GreenRoute worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openCacheStore(ctx, cfg, log)
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

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:     worker.DefaultRefreshConfig(),
		Logger:     log.With().Str("component", "refresh").Logger(),
		AirQuality: airQualityService,
		Weather:    weatherService,
	})

	// Health endpoint for the container platform
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log, cfg.IsDevelopment()))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		details := job.MetricsSnapshot()
		details["version"] = Version
		details["weather_provider"] = weatherService.ProviderName()
		response.JSON(w, r, http.StatusOK, models.Health{
			Status:  models.HealthStatusOK,
			Time:    models.Timestamp(time.Now()),
			Details: details,
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.WorkerHealthPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if cfg.PubSubProjectID == "" {
			log.Info().Dur("interval", cfg.WorkerInterval).Msg("PUBSUB_PROJECT_ID not set, refreshing on a timer")
			job.RunEvery(gctx, cfg.WorkerInterval)
			return nil
		}

		handler, err := worker.NewPubSubHandler(gctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			RefreshJob:       job,
			Logger:           log.With().Str("component", "pubsub").Logger(),
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := handler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()
		return handler.Start(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker stopped with error")
		os.Exit(1)
	}

	log.Info().Msg("worker stopped")
}

// openCacheStore connects to Redis when REDIS_ADDR is set. Without a shared
// store the worker only warms its own process, so it logs a warning.
func openCacheStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) cache.Store {
	if cfg.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR not set, refreshed data stays in this process")
		return cache.NewMemoryStore()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	store, err := cache.NewRedisStore(connectCtx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect to redis")
	}
	return store
}

func weatherProvider(cfg *config.Config, registry *resilience.Registry, log zerolog.Logger) weather.Provider {
	if cfg.OpenWeatherMapAPIKey == "" {
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
