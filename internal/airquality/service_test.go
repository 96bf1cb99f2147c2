package airquality_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/greenroute/internal/airquality"
	"github.com/greenroute/greenroute/internal/cache"
	"github.com/greenroute/greenroute/internal/geo"
)

// countingProvider wraps the fixture provider and can be switched to fail.
type countingProvider struct {
	inner      *airquality.MockProvider
	fetchCount atomic.Int32
	err        error
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) FetchSnapshot(ctx context.Context) (*airquality.Snapshot, error) {
	c.fetchCount.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.FetchSnapshot(ctx)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(provider airquality.Provider, store cache.Store, clk *clock) *airquality.Service {
	return airquality.NewService(airquality.ServiceConfig{
		Provider:        provider,
		Logger:          zerolog.New(io.Discard),
		Store:           store,
		CacheTTL:        5 * time.Minute,
		StaleIfErrorTTL: 30 * time.Minute,
		Jitter:          func() float64 { return 0 },
		Now:             clk.now,
	})
}

func wholeCity() geo.BoundingBox {
	return geo.BoundingBox{MinLon: -122.5, MinLat: 37.7, MaxLon: -122.4, MaxLat: 37.8}
}

func TestService_QueryFiltersByBoundingBox(t *testing.T) {
	clk := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(airquality.NewMockProvider(), nil, clk)

	all, err := svc.Query(context.Background(), wholeCity())
	require.NoError(t, err)
	assert.Len(t, all.Readings, 8)

	box := geo.BoundingBox{MinLon: -122.43, MinLat: 37.77, MaxLon: -122.40, MaxLat: 37.79}
	got, err := svc.Query(context.Background(), box)
	require.NoError(t, err)
	require.Len(t, got.Readings, 2)

	first := got.Readings[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "Sensor 1", first.Location)
	assert.Equal(t, 37.7749, first.Latitude)
	assert.Equal(t, -122.4194, first.Longitude)
	assert.Equal(t, 12.0, first.Measurements.PM25)
	assert.Equal(t, 15.0, first.Measurements.NO2)
	assert.Equal(t, 45.0, first.Measurements.O3)
	assert.Equal(t, 38, first.Measurements.AQI)
	assert.Equal(t, "Good", first.Status)

	assert.Equal(t, 2, got.Readings[1].ID)
	assert.Equal(t, box, got.BBox)
	assert.Equal(t, clk.t, got.Timestamp)
}

func TestService_QueryEmptyBox(t *testing.T) {
	clk := &clock{t: time.Now()}
	svc := newTestService(airquality.NewMockProvider(), nil, clk)

	got, err := svc.Query(context.Background(), geo.BoundingBox{MinLon: 4.8, MinLat: 52.3, MaxLon: 4.9, MaxLat: 52.4})
	require.NoError(t, err)
	assert.NotNil(t, got.Readings)
	assert.Empty(t, got.Readings)
}

func TestService_JitterRecomputesIndex(t *testing.T) {
	clk := &clock{t: time.Now()}
	svc := airquality.NewService(airquality.ServiceConfig{
		Provider: airquality.NewMockProvider(),
		Logger:   zerolog.New(io.Discard),
		Jitter:   func() float64 { return 0.05 },
		Now:      clk.now,
	})

	got, err := svc.Query(context.Background(), wholeCity())
	require.NoError(t, err)

	// Sensor 7: 52 * 1.05 = 54.6 -> 156 -> Unhealthy
	for _, r := range got.Readings {
		if r.ID == 7 {
			assert.InDelta(t, 54.6, r.Measurements.PM25, 1e-9)
			assert.Equal(t, 156, r.Measurements.AQI)
			assert.Equal(t, "Unhealthy", r.Status)
		}
	}
}

func TestService_DefaultJitterBounds(t *testing.T) {
	svc := airquality.NewService(airquality.ServiceConfig{
		Provider: airquality.NewMockProvider(),
		Logger:   zerolog.New(io.Discard),
	})

	for i := 0; i < 50; i++ {
		got, err := svc.Query(context.Background(), wholeCity())
		require.NoError(t, err)
		for _, r := range got.Readings {
			if r.ID == 1 {
				assert.GreaterOrEqual(t, r.Measurements.PM25, 12*0.95)
				assert.LessOrEqual(t, r.Measurements.PM25, 12*1.05)
			}
		}
	}
}

func TestService_CachesSnapshot(t *testing.T) {
	clk := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	provider := &countingProvider{inner: airquality.NewMockProvider()}
	svc := newTestService(provider, nil, clk)
	ctx := context.Background()

	_, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)
	_, err = svc.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), provider.fetchCount.Load())

	clk.t = clk.t.Add(6 * time.Minute)
	_, err = svc.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.fetchCount.Load())
}

func TestService_StaleIfError(t *testing.T) {
	clk := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	provider := &countingProvider{inner: airquality.NewMockProvider()}
	svc := newTestService(provider, nil, clk)
	ctx := context.Background()

	first, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)

	provider.err = errors.New("upstream down")

	clk.t = clk.t.Add(10 * time.Minute)
	stale, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, stale)

	clk.t = clk.t.Add(30 * time.Minute)
	_, err = svc.GetSnapshot(ctx)
	assert.ErrorIs(t, err, airquality.ErrProviderUnavailable)
}

// stampedProvider returns the fixture with a fixed FetchedAt, unrelated to
// the service clock.
type stampedProvider struct {
	at  time.Time
	err error
}

func (p *stampedProvider) Name() string { return "stamped" }

func (p *stampedProvider) FetchSnapshot(ctx context.Context) (*airquality.Snapshot, error) {
	if p.err != nil {
		return nil, p.err
	}
	snapshot, err := airquality.NewMockProvider().FetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.FetchedAt = p.at
	return snapshot, nil
}

func TestService_StaleWindowUsesServiceClock(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		stamped time.Time
	}{
		{"provider clock ahead", start.AddDate(2, 0, 0)},
		{"provider clock zero", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := &clock{t: start}
			provider := &stampedProvider{at: tt.stamped}
			svc := newTestService(provider, nil, clk)
			ctx := context.Background()

			first, err := svc.GetSnapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, start, first.FetchedAt)

			provider.err = errors.New("upstream down")

			clk.t = start.Add(10 * time.Minute)
			stale, err := svc.GetSnapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, first, stale)
			assert.True(t, svc.CacheStatus().IsExpired)
			assert.False(t, svc.CacheStatus().IsStale)

			clk.t = start.Add(40 * time.Minute)
			_, err = svc.GetSnapshot(ctx)
			assert.ErrorIs(t, err, airquality.ErrProviderUnavailable)
		})
	}
}

func TestService_SharedStore(t *testing.T) {
	clk := &clock{t: time.Now()}
	store := cache.NewMemoryStore()
	ctx := context.Background()

	writer := &countingProvider{inner: airquality.NewMockProvider()}
	require.NoError(t, newTestService(writer, store, clk).RefreshSnapshot(ctx))
	assert.Equal(t, int32(1), writer.fetchCount.Load())

	// A second replica reads the snapshot from the shared store.
	reader := &countingProvider{inner: airquality.NewMockProvider(), err: errors.New("not called")}
	svc := newTestService(reader, store, clk)

	snapshot, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshot.Sensors, 8)
	assert.Equal(t, int32(0), reader.fetchCount.Load())

	status := svc.CacheStatus()
	assert.True(t, status.HasData)
	assert.Equal(t, 8, status.SensorCount)
	assert.Equal(t, "mock", status.Provider)
}

func TestService_CacheStatusAndInvalidate(t *testing.T) {
	clk := &clock{t: time.Now()}
	svc := newTestService(airquality.NewMockProvider(), nil, clk)

	assert.False(t, svc.CacheStatus().HasData)

	require.NoError(t, svc.RefreshSnapshot(context.Background()))
	status := svc.CacheStatus()
	assert.True(t, status.HasData)
	assert.False(t, status.IsExpired)
	assert.False(t, status.IsStale)

	svc.InvalidateCache()
	assert.False(t, svc.CacheStatus().HasData)
}
