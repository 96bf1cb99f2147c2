// Package openweathermap implements weather.Provider on the OpenWeatherMap
// One Call API.
package openweathermap

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/provider/resilience"
	"github.com/greenroute/greenroute/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultOneCallURL is the OpenWeatherMap One Call API 3.0 endpoint.
	DefaultOneCallURL = "https://api.openweathermap.org/data/3.0/onecall"

	// forecastHours matches the mock provider's horizon.
	forecastHours = 6

	// msToKmh converts wind speed from m/s to km/h.
	msToKmh = 3.6
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// OneCallURL is the One Call API URL (optional, defaults to One Call 3.0).
	OneCallURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger

	// Now overrides time.Now for FetchedAt stamps.
	Now func() time.Time
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	oneCallURL string
	httpClient *resilience.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	oneCallURL := cfg.OneCallURL
	if oneCallURL == "" {
		oneCallURL = DefaultOneCallURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		apiKey:     cfg.APIKey,
		oneCallURL: oneCallURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
		now:        now,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetCurrentWeather fetches current weather for a location.
func (c *Client) GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error) {
	resp, err := c.oneCall(ctx, lat, lon, "minutely,hourly,daily,alerts")
	if err != nil {
		return nil, err
	}
	return c.toObservation(resp), nil
}

// GetForecast fetches the next hours of forecast for a location.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error) {
	resp, err := c.oneCall(ctx, lat, lon, "current,minutely,daily,alerts")
	if err != nil {
		return nil, err
	}
	return c.toForecast(resp), nil
}

func (c *Client) oneCall(ctx context.Context, lat, lon float64, exclude string) (*oneCallResponse, error) {
	url := fmt.Sprintf("%s?lat=%.6f&lon=%.6f&appid=%s&units=metric&exclude=%s",
		c.oneCallURL, lat, lon, c.apiKey, exclude)

	var resp oneCallResponse
	if err := c.httpClient.GetJSON(ctx, url, &resp); err != nil {
		c.logger.Debug().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("one call request failed")
		return nil, fmt.Errorf("openweathermap: %w", err)
	}
	return &resp, nil
}

// toObservation converts a One Call response to the domain model.
func (c *Client) toObservation(resp *oneCallResponse) *weather.Observation {
	cur := resp.Current
	return &weather.Observation{
		Lat:           resp.Lat,
		Lon:           resp.Lon,
		Temperature:   cur.Temp,
		Humidity:      cur.Humidity,
		Pressure:      cur.Pressure,
		WindSpeed:     kmh(cur.WindSpeed),
		WindDirection: cur.WindDeg,
		UVIndex:       int(math.Round(cur.UVI)),
		ObservedAt:    time.Unix(cur.Dt, 0).UTC(),
		FetchedAt:     c.now(),
		Provider:      ProviderName,
	}
}

// toForecast converts a One Call response to the domain model.
func (c *Client) toForecast(resp *oneCallResponse) *weather.Forecast {
	forecast := &weather.Forecast{
		Lat:       resp.Lat,
		Lon:       resp.Lon,
		Hourly:    make([]weather.HourlyForecast, 0, forecastHours),
		FetchedAt: c.now(),
	}

	for _, h := range resp.Hourly {
		if len(forecast.Hourly) == forecastHours {
			break
		}
		forecast.Hourly = append(forecast.Hourly, weather.HourlyForecast{
			Time:        time.Unix(h.Dt, 0).UTC(),
			Temperature: h.Temp,
			Humidity:    h.Humidity,
			WindSpeed:   kmh(h.WindSpeed),
			UVIndex:     int(math.Round(h.UVI)),
		})
	}

	return forecast
}

func kmh(ms float64) float64 {
	return math.Round(ms*msToKmh*10) / 10
}

type conditions struct {
	Dt        int64   `json:"dt"`
	Temp      float64 `json:"temp"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
	UVI       float64 `json:"uvi"`
	WindSpeed float64 `json:"wind_speed"`
	WindDeg   float64 `json:"wind_deg"`
}

type oneCallResponse struct {
	Lat     float64      `json:"lat"`
	Lon     float64      `json:"lon"`
	Current conditions   `json:"current"`
	Hourly  []conditions `json:"hourly"`
}
