package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/greenroute/greenroute/internal/geo"
)

// WeatherRefresher re-fetches weather for a point. *weather.Service implements it.
type WeatherRefresher interface {
	Refresh(ctx context.Context, lat, lon float64) error
}

// AirQualityRefresher re-fetches the sensor snapshot. *airquality.Service implements it.
type AirQualityRefresher interface {
	RefreshSnapshot(ctx context.Context) error
}

// RefreshJob handles provider cache refresh operations.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger
	now    func() time.Time

	// Services (optional, nil if not configured)
	airQuality AirQualityRefresher
	weather    WeatherRefresher

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns         int64
	SuccessfulPoints  int64
	FailedPoints      int64
	AirQualityRefresh int64
	AirQualityFailure int64
	WeatherRefresh    int64

	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config     RefreshConfig
	Logger     zerolog.Logger
	AirQuality AirQualityRefresher
	Weather    WeatherRefresher

	// Now overrides time.Now.
	Now func() time.Time
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config.Targets = DefaultRefreshTargets()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &RefreshJob{
		config:     config,
		logger:     cfg.Logger,
		now:        now,
		airQuality: cfg.AirQuality,
		weather:    cfg.Weather,
		metrics:    &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh operation.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	AirQuality  bool
	Errors      []RefreshError
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Provider string
	Point    geo.Point
	Error    string
}

// Run refreshes the air-quality snapshot once and weather for every
// configured point, at most Concurrency points at a time.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := j.now()
	result := &RefreshResult{
		StartTime: startTime,
	}

	points := j.config.AllPoints()
	if j.config.RefreshWeather && j.weather != nil {
		result.TotalPoints = len(points)
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting provider refresh job")

	if j.config.RefreshAirQuality && j.airQuality != nil {
		if err := j.refreshAirQuality(ctx); err != nil {
			result.Errors = append(result.Errors, RefreshError{Provider: "airquality", Error: err.Error()})
		} else {
			result.AirQuality = true
		}
	}

	if result.TotalPoints > 0 {
		j.refreshWeather(ctx, points, result)
	}

	result.EndTime = j.now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Bool("air_quality", result.AirQuality).
		Msg("provider refresh job completed")

	return result
}

func (j *RefreshJob) refreshAirQuality(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()
	return j.airQuality.RefreshSnapshot(ctx)
}

// refreshWeather fans out over points. A failing point never cancels the
// others, so the group's functions always return nil.
func (j *RefreshJob) refreshWeather(ctx context.Context, points []geo.Point, result *RefreshResult) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.Concurrency)

	for _, p := range points {
		g.Go(func() error {
			err := j.refreshPoint(gctx, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, RefreshError{Provider: "weather", Point: p, Error: err.Error()})
				j.logger.Warn().Err(err).Float64("lat", p.Lat).Float64("lon", p.Lon).Msg("weather refresh failed")
				return nil
			}
			result.Successful++
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // point functions never return errors
}

func (j *RefreshJob) refreshPoint(ctx context.Context, p geo.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()
	return j.weather.Refresh(ctx, p.Lat, p.Lon)
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulPoints += int64(result.Successful)
	j.metrics.FailedPoints += int64(result.Failed)
	j.metrics.WeatherRefresh += int64(result.Successful)
	if j.config.RefreshAirQuality && j.airQuality != nil {
		if result.AirQuality {
			j.metrics.AirQualityRefresh++
		} else {
			j.metrics.AirQualityFailure++
		}
	}
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:           j.metrics.TotalRuns,
		SuccessfulPoints:    j.metrics.SuccessfulPoints,
		FailedPoints:        j.metrics.FailedPoints,
		AirQualityRefresh:   j.metrics.AirQualityRefresh,
		AirQualityFailure:   j.metrics.AirQualityFailure,
		WeatherRefresh:      j.metrics.WeatherRefresh,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]any {
	m := j.GetMetrics()
	return map[string]any{
		"total_runs":            m.TotalRuns,
		"successful_points":     m.SuccessfulPoints,
		"failed_points":         m.FailedPoints,
		"airquality_refreshes":  m.AirQualityRefresh,
		"airquality_failures":   m.AirQualityFailure,
		"weather_refreshes":     m.WeatherRefresh,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}

// RunEvery runs the job immediately and then on every tick until ctx is done.
func (j *RefreshJob) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("refresh loop stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}
