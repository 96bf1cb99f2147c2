package weather

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// MockProviderName identifies the synthetic provider.
const MockProviderName = "mock"

// forecastHours is how many hourly entries GetForecast returns.
const forecastHours = 6

// MockConfig configures a MockProvider.
type MockConfig struct {
	// Now overrides time.Now.
	Now func() time.Time
	// Location is the timezone used for the daily cycle (default: time.Local).
	Location *time.Location
	// Rand overrides the random source.
	Rand *rand.Rand
}

// MockProvider synthesizes plausible weather from latitude and time of day.
type MockProvider struct {
	now func() time.Time
	loc *time.Location

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockProvider creates a synthetic weather provider.
func NewMockProvider(cfg MockConfig) *MockProvider {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &MockProvider{now: now, loc: loc, rnd: rnd}
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return MockProviderName
}

// GetCurrentWeather synthesizes the current observation.
func (p *MockProvider) GetCurrentWeather(_ context.Context, lat, lon float64) (*Observation, error) {
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	obs := p.sample(lat, lon, now)
	return &obs, nil
}

// GetForecast synthesizes the next six hours.
func (p *MockProvider) GetForecast(_ context.Context, lat, lon float64) (*Forecast, error) {
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	forecast := &Forecast{
		Lat:       lat,
		Lon:       lon,
		Hourly:    make([]HourlyForecast, 0, forecastHours),
		FetchedAt: now,
	}
	for i := 1; i <= forecastHours; i++ {
		at := now.Add(time.Duration(i) * time.Hour)
		obs := p.sample(lat, lon, at)
		forecast.Hourly = append(forecast.Hourly, HourlyForecast{
			Time:        at,
			Temperature: roundTo(obs.Temperature+(p.rnd.Float64()-0.5)*2, 1),
			Humidity:    obs.Humidity,
			WindSpeed:   obs.WindSpeed,
			UVIndex:     obs.UVIndex,
		})
	}
	return forecast, nil
}

// sample draws one observation. Callers hold p.mu.
func (p *MockProvider) sample(lat, lon float64, at time.Time) Observation {
	hour := float64(at.In(p.loc).Hour())
	cycle := math.Sin((hour - 6) * math.Pi / 12)

	baseTemp := 22 + math.Sin(lat*0.1)*8

	return Observation{
		Lat:           lat,
		Lon:           lon,
		Temperature:   roundTo(baseTemp+cycle*6, 1),
		Humidity:      roundTo(60+p.rnd.Float64()*30, 1),
		Pressure:      roundTo(1013+(p.rnd.Float64()-0.5)*20, 1),
		WindSpeed:     roundTo(5+p.rnd.Float64()*15, 1),
		WindDirection: math.Round(p.rnd.Float64() * 360),
		UVIndex:       int(math.Max(0, math.Round(8*cycle))),
		ObservedAt:    at,
		FetchedAt:     at,
		Provider:      MockProviderName,
	}
}
