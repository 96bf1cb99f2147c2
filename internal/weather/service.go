package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/cache"
)

// Provider defines the interface for weather data providers.
type Provider interface {
	// GetCurrentWeather fetches current weather for a location.
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error)

	// GetForecast fetches hourly forecast for a location.
	GetForecast(ctx context.Context, lat, lon float64) (*Forecast, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Store is an optional shared cache consulted before the provider.
	Store cache.Store

	// CacheTTL is how long to cache weather data (default: 10 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.01).
	// Points within the same grid cell share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 1 hour).
	StaleIfErrorTTL time.Duration

	// Now overrides time.Now.
	Now func() time.Time
}

// Service provides weather data with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	store           cache.Store
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	now             func() time.Time

	mu              sync.RWMutex
	current         *layer[Observation]
	forecast        *layer[Forecast]
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

// entry is one cached provider result for a grid cell.
type entry[T any] struct {
	value     *T
	fetchedAt time.Time
	expiresAt time.Time
}

// layer caches one kind of provider result per grid cell. Guarded by
// Service.mu.
type layer[T any] struct {
	kind      string
	entries   map[string]*entry[T]
	fetch     func(ctx context.Context, lat, lon float64) (*T, error)
	fetchedAt func(*T) time.Time
}

func newLayer[T any](kind string, fetch func(context.Context, float64, float64) (*T, error), fetchedAt func(*T) time.Time) *layer[T] {
	return &layer[T]{kind: kind, entries: make(map[string]*entry[T]), fetch: fetch, fetchedAt: fetchedAt}
}

// fresh returns the unexpired entry for key.
func (l *layer[T]) fresh(key string, now time.Time) (*T, bool) {
	if e, ok := l.entries[key]; ok && now.Before(e.expiresAt) {
		return e.value, true
	}
	return nil, false
}

func (l *layer[T]) put(key string, v *T, fetchedAt time.Time, ttl time.Duration) {
	l.entries[key] = &entry[T]{value: v, fetchedAt: fetchedAt, expiresAt: fetchedAt.Add(ttl)}
}

// expire drops entries older than maxAge and returns how many went.
func (l *layer[T]) expire(now time.Time, maxAge time.Duration) int {
	n := 0
	for key, e := range l.entries {
		if now.After(e.fetchedAt.Add(maxAge)) {
			delete(l.entries, key)
			n++
		}
	}
	return n
}

func (l *layer[T]) freshCount(now time.Time) int {
	n := 0
	for _, e := range l.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01 // ~1.1km at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 1 * time.Hour
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		store:           cfg.Store,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		now:             now,
		cleanupInterval: 5 * time.Minute,
	}
	s.current = newLayer("current",
		func(ctx context.Context, lat, lon float64) (*Observation, error) {
			return s.provider.GetCurrentWeather(ctx, lat, lon)
		},
		func(o *Observation) time.Time { return o.FetchedAt })
	s.forecast = newLayer("forecast",
		func(ctx context.Context, lat, lon float64) (*Forecast, error) {
			return s.provider.GetForecast(ctx, lat, lon)
		},
		func(f *Forecast) time.Time { return f.FetchedAt })
	return s
}

// ProviderName returns the name of the configured provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// GetCurrentWeather returns current weather for a location.
// Uses cached data if available and not expired.
func (s *Service) GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error) {
	return get(ctx, s, s.current, lat, lon)
}

// GetForecast returns hourly forecast for a location.
func (s *Service) GetForecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	return get(ctx, s, s.forecast, lat, lon)
}

// Refresh re-fetches current weather and forecast for a location from the
// provider, bypassing both caches, and writes them through.
func (s *Service) Refresh(ctx context.Context, lat, lon float64) error {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return err
	}

	key := s.cacheKey(lat, lon)
	if _, err := load(ctx, s, s.current, lat, lon, key, true); err != nil {
		return err
	}
	_, err := load(ctx, s, s.forecast, lat, lon, key, true)
	return err
}

func get[T any](ctx context.Context, s *Service, l *layer[T], lat, lon float64) (*T, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.cacheKey(lat, lon)

	s.mu.RLock()
	v, ok := l.fresh(key, s.now())
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	return load(ctx, s, l, lat, lon, key, false)
}

// load resolves a cache miss from the shared store, then the provider. A
// provider error falls back to a local entry younger than staleIfErrorTTL.
// With force set both caches are skipped and errors are always returned.
func load[T any](ctx context.Context, s *Service, l *layer[T], lat, lon float64, key string, force bool) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sharedKey := "weather:" + l.kind + ":" + key

	if !force {
		if v, ok := l.fresh(key, now); ok {
			return v, nil
		}

		shared := new(T)
		if s.loadShared(ctx, sharedKey, shared) {
			if at := l.fetchedAt(shared); now.Before(at.Add(s.cacheTTL)) {
				l.put(key, shared, at, s.cacheTTL)
				return shared, nil
			}
		}
	}

	s.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("kind", l.kind).
		Str("provider", s.provider.Name()).
		Msg("fetching weather from provider")

	v, err := l.fetch(ctx, lat, lon)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Str("kind", l.kind).
			Msg("failed to fetch weather")

		if e, ok := l.entries[key]; ok && !force && now.Before(e.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Str("kind", l.kind).
				Time("fetched_at", e.fetchedAt).
				Msg("serving stale weather data due to provider error")
			return e.value, nil
		}

		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	l.put(key, v, now, s.cacheTTL)
	s.storeShared(ctx, sharedKey, v)
	s.cleanupIfNeeded(now)

	return v, nil
}

func (s *Service) loadShared(ctx context.Context, key string, dst any) bool {
	if s.store == nil {
		return false
	}
	if err := cache.GetJSON(ctx, s.store, key, dst); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("shared cache read failed")
		}
		return false
	}
	return true
}

func (s *Service) storeShared(ctx context.Context, key string, v any) {
	if s.store == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.store, key, v, s.staleIfErrorTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("shared cache write failed")
	}
}

// cacheKey generates a cache key for a location.
// Groups nearby points into grid cells to reduce API calls.
func (s *Service) cacheKey(lat, lon float64) string {
	gridLat := math.Floor(lat/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.3f:%.3f", gridLat, gridLon)
}

// cleanupIfNeeded removes entries too old to serve even as stale data.
// Callers hold s.mu.
func (s *Service) cleanupIfNeeded(now time.Time) {
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := s.current.expire(now, s.staleIfErrorTTL) + s.forecast.expire(now, s.staleIfErrorTTL)
	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired weather cache entries")
	}
}

// InvalidateCache clears all locally cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.current.entries)
	clear(s.forecast.entries)
}

// CacheStats contains cache statistics.
type CacheStats struct {
	WeatherEntries       int    `json:"weatherEntries"`
	WeatherFreshEntries  int    `json:"weatherFreshEntries"`
	ForecastEntries      int    `json:"forecastEntries"`
	ForecastFreshEntries int    `json:"forecastFreshEntries"`
	Provider             string `json:"provider"`
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	return CacheStats{
		WeatherEntries:       len(s.current.entries),
		WeatherFreshEntries:  s.current.freshCount(now),
		ForecastEntries:      len(s.forecast.entries),
		ForecastFreshEntries: s.forecast.freshCount(now),
		Provider:             s.provider.Name(),
	}
}
