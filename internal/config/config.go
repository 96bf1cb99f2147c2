// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Trip store backends.
const (
	TripStoreMemory   = "memory"
	TripStorePostgres = "postgres"
)

// Air quality providers.
const (
	AirQualityMock         = "mock"
	AirQualityLuchtmeetnet = "luchtmeetnet"
)

// DefaultJWTSigningKey is used when JWT_SIGNING_KEY is unset.
const DefaultJWTSigningKey = "local-dev-signing-key-change-in-production"

// Config holds the settings shared by the API server and the worker.
type Config struct {
	Port     string
	Env      string
	Timezone *time.Location

	OTelEnabled  bool
	OTLPEndpoint string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	TripStore string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OpenWeatherMapAPIKey string
	AirQualityProvider   string

	PubSubProjectID    string
	PubSubSubscription string
	WorkerInterval     time.Duration
	WorkerHealthPort   string

	RequireTLS bool
}

// Load reads a .env file from the working directory when present, then
// builds a Config from the environment. Variables already set win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	loc, err := time.LoadLocation(getEnvOrDefault("APP_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}

	interval, err := time.ParseDuration(getEnvOrDefault("WORKER_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("WORKER_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("WORKER_INTERVAL: must be positive, got %s", interval)
	}

	store := getEnvOrDefault("TRIP_STORE", TripStoreMemory)
	if store != TripStoreMemory && store != TripStorePostgres {
		return nil, fmt.Errorf("TRIP_STORE: unknown backend %q", store)
	}

	aqProvider := getEnvOrDefault("AIR_QUALITY_PROVIDER", AirQualityMock)
	if aqProvider != AirQualityMock && aqProvider != AirQualityLuchtmeetnet {
		return nil, fmt.Errorf("AIR_QUALITY_PROVIDER: unknown provider %q", aqProvider)
	}

	return &Config{
		Port:                 getEnvOrDefault("APP_PORT", "8080"),
		Env:                  getEnvOrDefault("APP_ENV", EnvDevelopment),
		Timezone:             loc,
		OTelEnabled:          getBool("OTEL_ENABLED"),
		OTLPEndpoint:         getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		JWTSigningKey:        getEnvOrDefault("JWT_SIGNING_KEY", DefaultJWTSigningKey),
		JWTIssuer:            getEnvOrDefault("JWT_ISSUER", "greenroute"),
		JWTAudience:          getEnvOrDefault("JWT_AUDIENCE", "greenroute-web"),
		TripStore:            store,
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              redisDB,
		OpenWeatherMapAPIKey: os.Getenv("OPENWEATHERMAP_API_KEY"),
		AirQualityProvider:   aqProvider,
		PubSubProjectID:      os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription:   getEnvOrDefault("PUBSUB_SUBSCRIPTION", "greenroute-worker"),
		WorkerInterval:       interval,
		WorkerHealthPort:     getEnvOrDefault("WORKER_HEALTH_PORT", "8081"),
		RequireTLS:           getBool("REQUIRE_TLS"),
	}, nil
}

// IsDevelopment reports whether verbose error details may be exposed.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// UsesDefaultSigningKey reports whether JWT_SIGNING_KEY was left unset.
func (c *Config) UsesDefaultSigningKey() bool {
	return c.JWTSigningKey == DefaultJWTSigningKey
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
