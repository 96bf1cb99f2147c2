package airquality

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/cache"
	"github.com/greenroute/greenroute/internal/geo"
)

// snapshotKey is the shared cache key for the latest snapshot.
const snapshotKey = "airquality:snapshot"

// Provider defines the interface for air quality data providers.
type Provider interface {
	// FetchSnapshot fetches the current readings of every sensor.
	FetchSnapshot(ctx context.Context) (*Snapshot, error)

	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// JitterFunc returns a relative variation applied to PM2.5 on each query.
type JitterFunc func() float64

// DefaultJitter varies PM2.5 uniformly within ±5%.
func DefaultJitter() float64 {
	return (rand.Float64() - 0.5) * 0.1
}

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	// Provider is the air quality data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Store is an optional shared cache consulted before the provider.
	Store cache.Store

	// CacheTTL is how long to cache the snapshot (default: 5 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 30 minutes).
	StaleIfErrorTTL time.Duration

	// Jitter overrides DefaultJitter. Return 0 for exact fixture values.
	Jitter JitterFunc

	// Now overrides time.Now.
	Now func() time.Time
}

// Service provides air quality data with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	store           cache.Store
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	jitter          JitterFunc
	now             func() time.Time

	mu          sync.RWMutex
	snapshot    *Snapshot
	cacheExpiry time.Time
}

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 30 * time.Minute
	}

	jitter := cfg.Jitter
	if jitter == nil {
		jitter = DefaultJitter
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		store:           cfg.Store,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		jitter:          jitter,
		now:             now,
	}
}

// Query returns the readings of sensors inside bbox (edges inclusive), each
// with a jittered PM2.5 value and the AQI and status derived from it.
func (s *Service) Query(ctx context.Context, bbox geo.BoundingBox) (*QueryResult, error) {
	snapshot, err := s.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	readings := make([]Reading, 0, len(snapshot.Sensors))
	for _, sensor := range snapshot.Sensors {
		if !bbox.Contains(sensor.Point()) {
			continue
		}

		pm25 := math.Max(0, sensor.PM25*(1+s.jitter()))
		aqi := IndexFor(pm25, sensor.NO2, sensor.O3)
		readings = append(readings, Reading{
			ID:        sensor.ID,
			Latitude:  sensor.Lat,
			Longitude: sensor.Lon,
			Measurements: Measurements{
				PM25: pm25,
				NO2:  sensor.NO2,
				O3:   sensor.O3,
				AQI:  aqi,
			},
			Status:    StatusFor(aqi),
			Timestamp: snapshot.FetchedAt,
			Location:  sensor.Name,
		})
	}

	return &QueryResult{
		Readings:  readings,
		BBox:      bbox,
		Timestamp: s.now(),
	}, nil
}

// GetSnapshot returns the current air quality snapshot.
// It uses a cached version if available and not expired.
func (s *Service) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	if s.snapshot != nil && s.now().Before(s.cacheExpiry) {
		snapshot := s.snapshot
		s.mu.RUnlock()
		return snapshot, nil
	}
	s.mu.RUnlock()

	return s.refreshSnapshot(ctx, false)
}

// RefreshSnapshot fetches from the provider regardless of cache state and
// writes the result through to the shared store.
func (s *Service) RefreshSnapshot(ctx context.Context) error {
	_, err := s.refreshSnapshot(ctx, true)
	return err
}

// InvalidateCache clears the locally cached snapshot.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.cacheExpiry = time.Time{}
}

// CacheStatus represents the current state of the cache.
type CacheStatus struct {
	HasData     bool      `json:"hasData"`
	FetchedAt   time.Time `json:"fetchedAt,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
	IsExpired   bool      `json:"isExpired"`
	IsStale     bool      `json:"isStale"`
	SensorCount int       `json:"sensorCount"`
	Provider    string    `json:"provider,omitempty"`
}

// CacheStatus returns information about the current cache state.
func (s *Service) CacheStatus() CacheStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return CacheStatus{HasData: false}
	}

	now := s.now()
	return CacheStatus{
		HasData:     true,
		FetchedAt:   s.snapshot.FetchedAt,
		ExpiresAt:   s.cacheExpiry,
		IsExpired:   now.After(s.cacheExpiry),
		IsStale:     now.After(s.snapshot.FetchedAt.Add(s.staleIfErrorTTL)),
		SensorCount: len(s.snapshot.Sensors),
		Provider:    s.snapshot.Provider,
	}
}

// refreshSnapshot loads a snapshot from the shared store or the provider.
// force skips both the local and shared caches.
func (s *Service) refreshSnapshot(ctx context.Context, force bool) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if !force {
		// Double-check: another goroutine might have refreshed while we waited
		if s.snapshot != nil && now.Before(s.cacheExpiry) {
			return s.snapshot, nil
		}

		if shared := s.loadShared(ctx, now); shared != nil {
			s.snapshot = shared
			s.cacheExpiry = shared.FetchedAt.Add(s.cacheTTL)
			return shared, nil
		}
	}

	s.logger.Debug().Str("provider", s.provider.Name()).Msg("refreshing air quality snapshot")

	snapshot, err := s.provider.FetchSnapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch air quality snapshot")

		// If we have stale data that's not too old, return it
		if s.snapshot != nil && now.Before(s.snapshot.FetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", s.snapshot.FetchedAt).
				Msg("serving stale air quality data due to provider error")
			return s.snapshot, nil
		}

		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	// Expiry and the stale window are measured on the service clock.
	stamped := *snapshot
	stamped.FetchedAt = now
	snapshot = &stamped

	s.snapshot = snapshot
	s.cacheExpiry = now.Add(s.cacheTTL)

	if s.store != nil {
		if err := cache.SetJSON(ctx, s.store, snapshotKey, snapshot, s.staleIfErrorTTL); err != nil {
			s.logger.Warn().Err(err).Str("store", s.store.Name()).Msg("failed to write air quality snapshot to shared cache")
		}
	}

	s.logger.Info().
		Int("sensors", len(snapshot.Sensors)).
		Time("expires_at", s.cacheExpiry).
		Msg("air quality snapshot refreshed")

	return snapshot, nil
}

// loadShared returns a still-fresh snapshot from the shared store, or nil.
func (s *Service) loadShared(ctx context.Context, now time.Time) *Snapshot {
	if s.store == nil {
		return nil
	}

	var snapshot Snapshot
	if err := cache.GetJSON(ctx, s.store, snapshotKey, &snapshot); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn().Err(err).Str("store", s.store.Name()).Msg("shared cache read failed")
		}
		return nil
	}

	if !now.Before(snapshot.FetchedAt.Add(s.cacheTTL)) {
		return nil
	}

	s.logger.Debug().Time("fetched_at", snapshot.FetchedAt).Msg("air quality snapshot loaded from shared cache")
	return &snapshot
}
