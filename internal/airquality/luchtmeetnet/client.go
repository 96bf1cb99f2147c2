// Package luchtmeetnet provides an air quality Provider backed by the
// Luchtmeetnet open API.
package luchtmeetnet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/greenroute/greenroute/internal/airquality"
	"github.com/greenroute/greenroute/internal/geo"
	"github.com/greenroute/greenroute/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the Luchtmeetnet API.
	DefaultBaseURL = "https://api.luchtmeetnet.nl/open_api"

	// ProviderName identifies this provider.
	ProviderName = "luchtmeetnet"

	// maxPages bounds pagination against a misbehaving upstream.
	maxPages = 50
)

// formulas are the pollutants requested from the measurements endpoint.
var formulas = []string{"PM25", "NO2", "O3"}

// ClientConfig holds configuration for the Luchtmeetnet client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient HTTPDoer

	// BBox, when set, keeps only stations inside it.
	BBox *geo.BoundingBox

	// Window is how far back measurements are requested (default: 3h).
	Window time.Duration

	// Concurrency bounds parallel station detail requests (default: 4).
	Concurrency int

	// Now overrides time.Now.
	Now func() time.Time
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Luchtmeetnet API client.
type Client struct {
	baseURL     string
	httpClient  HTTPDoer
	bbox        *geo.BoundingBox
	window      time.Duration
	concurrency int
	now         func() time.Time
}

// NewClient creates a new Luchtmeetnet client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         10 * time.Second,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		})
	}

	window := cfg.Window
	if window <= 0 {
		window = 3 * time.Hour
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  httpClient,
		bbox:        cfg.BBox,
		window:      window,
		concurrency: concurrency,
		now:         now,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string { return ProviderName }

// API response types.

type pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

type stationsResponse struct {
	Pagination pagination `json:"pagination"`
	Data       []struct {
		Number   string `json:"number"`
		Location string `json:"location"`
	} `json:"data"`
}

type stationDetailResponse struct {
	Data struct {
		Location   string   `json:"location"`
		Components []string `json:"components"`
		Geometry   struct {
			// Coordinates are [lon, lat].
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"data"`
}

type measurementsResponse struct {
	Pagination pagination `json:"pagination"`
	Data       []struct {
		StationNumber     string  `json:"station_number"`
		Formula           string  `json:"formula"`
		Value             float64 `json:"value"`
		TimestampMeasured string  `json:"timestamp_measured"`
	} `json:"data"`
}

// Station is a monitoring station with its location.
type Station struct {
	Number string
	Name   string
	Lat    float64
	Lon    float64
}

// reading is the latest value of one formula at one station.
type reading struct {
	value      float64
	measuredAt time.Time
}

// FetchSnapshot lists stations, resolves their locations and attaches the
// latest PM2.5, NO2 and O3 values measured within the window.
func (c *Client) FetchSnapshot(ctx context.Context) (*airquality.Snapshot, error) {
	stations, err := c.FetchStations(ctx)
	if err != nil {
		return nil, err
	}

	latest, err := c.fetchLatest(ctx)
	if err != nil {
		return nil, err
	}

	sensors := make([]airquality.Sensor, 0, len(stations))
	for i, s := range stations {
		values := latest[s.Number]
		sensors = append(sensors, airquality.Sensor{
			ID:   i + 1,
			Name: fmt.Sprintf("%s (%s)", s.Name, s.Number),
			Lat:  s.Lat,
			Lon:  s.Lon,
			PM25: values["PM25"].value,
			NO2:  values["NO2"].value,
			O3:   values["O3"].value,
		})
	}

	return &airquality.Snapshot{
		Sensors:   sensors,
		FetchedAt: c.now(),
		Provider:  ProviderName,
	}, nil
}

// FetchStations returns located stations, filtered by the configured
// bounding box and sorted by station number.
func (c *Client) FetchStations(ctx context.Context) ([]Station, error) {
	var listed []Station
	for page := 1; page <= maxPages; page++ {
		var resp stationsResponse
		if err := c.getJSON(ctx, "/stations", url.Values{"page": {strconv.Itoa(page)}}, &resp); err != nil {
			return nil, fmt.Errorf("fetch stations: %w", err)
		}
		for _, s := range resp.Data {
			listed = append(listed, Station{Number: s.Number, Name: s.Location})
		}
		if page >= resp.Pagination.LastPage {
			break
		}
	}

	var mu sync.Mutex
	located := make([]Station, 0, len(listed))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, s := range listed {
		g.Go(func() error {
			var detail stationDetailResponse
			if err := c.getJSON(gctx, "/stations/"+url.PathEscape(s.Number), nil, &detail); err != nil {
				return fmt.Errorf("fetch station %s: %w", s.Number, err)
			}
			coords := detail.Data.Geometry.Coordinates
			if len(coords) < 2 {
				return nil
			}
			s.Lon, s.Lat = coords[0], coords[1]
			if c.bbox != nil && !c.bbox.Contains(geo.Point{Lat: s.Lat, Lon: s.Lon}) {
				return nil
			}

			mu.Lock()
			located = append(located, s)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(located, func(i, j int) bool { return located[i].Number < located[j].Number })
	return located, nil
}

// fetchLatest returns the newest value per station and formula.
func (c *Client) fetchLatest(ctx context.Context) (map[string]map[string]reading, error) {
	end := c.now().UTC()
	start := end.Add(-c.window)

	latest := make(map[string]map[string]reading)
	for _, formula := range formulas {
		for page := 1; page <= maxPages; page++ {
			params := url.Values{
				"formula": {formula},
				"start":   {start.Format(time.RFC3339)},
				"end":     {end.Format(time.RFC3339)},
				"page":    {strconv.Itoa(page)},
			}

			var resp measurementsResponse
			if err := c.getJSON(ctx, "/measurements", params, &resp); err != nil {
				return nil, fmt.Errorf("fetch %s measurements: %w", formula, err)
			}

			for _, m := range resp.Data {
				measuredAt, err := time.Parse(time.RFC3339, m.TimestampMeasured)
				if err != nil {
					continue
				}
				key := strings.ToUpper(m.Formula)
				byFormula := latest[m.StationNumber]
				if byFormula == nil {
					byFormula = make(map[string]reading)
					latest[m.StationNumber] = byFormula
				}
				if prev, ok := byFormula[key]; !ok || measuredAt.After(prev.measuredAt) {
					byFormula[key] = reading{value: m.Value, measuredAt: measuredAt}
				}
			}

			if page >= resp.Pagination.LastPage {
				break
			}
		}
	}

	return latest, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dst any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
