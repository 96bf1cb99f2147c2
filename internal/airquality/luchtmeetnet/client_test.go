package luchtmeetnet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/greenroute/internal/airquality/luchtmeetnet"
	"github.com/greenroute/greenroute/internal/geo"
)

var fixedNow = time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC)

type station struct {
	number, location string
	lon, lat         float64
}

var stations = []station{
	{"NL10938", "Amsterdam-Einsteinweg", 4.895168, 52.370216},
	{"NL10636", "Rotterdam-Schiedamsevest", 4.47917, 51.9225},
}

type measurement struct {
	Station string  `json:"station_number"`
	Formula string  `json:"formula"`
	Value   float64 `json:"value"`
	At      string  `json:"timestamp_measured"`
}

var measurements = map[string][]measurement{
	"PM25": {
		{"NL10938", "PM25", 9.5, "2024-06-12T12:00:00+00:00"},
		{"NL10938", "PM25", 11.2, "2024-06-12T13:00:00+00:00"},
		{"NL10636", "PM25", 14.0, "2024-06-12T13:00:00+00:00"},
	},
	"NO2": {
		{"NL10938", "NO2", 31.0, "2024-06-12T13:00:00+00:00"},
		{"NL10636", "NO2", 40.0, "not-a-time"},
	},
	"O3": {
		{"NL10636", "O3", 62.0, "2024-06-12T13:00:00+00:00"},
	},
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func newServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/stations", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// One station per page.
		page := r.URL.Query().Get("page")
		idx := 0
		if page == "2" {
			idx = 1
		}
		s := stations[idx]
		writeJSON(t, w, map[string]any{
			"pagination": map[string]int{"current_page": idx + 1, "last_page": 2},
			"data":       []map[string]string{{"number": s.number, "location": s.location}},
		})
	})

	mux.HandleFunc("/stations/{number}", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		for _, s := range stations {
			if s.number == r.PathValue("number") {
				writeJSON(t, w, map[string]any{
					"data": map[string]any{
						"location":   s.location,
						"components": []string{"NO2", "PM25", "O3"},
						"geometry":   map[string]any{"type": "point", "coordinates": []float64{s.lon, s.lat}},
					},
				})
				return
			}
		}
		http.NotFound(w, r)
	})

	mux.HandleFunc("/measurements", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "2024-06-12T14:00:00Z", q.Get("end"))
		assert.Equal(t, "2024-06-12T11:00:00Z", q.Get("start"))
		writeJSON(t, w, map[string]any{
			"pagination": map[string]int{"current_page": 1, "last_page": 1},
			"data":       measurements[q.Get("formula")],
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_FetchSnapshot(t *testing.T) {
	var calls atomic.Int32
	server := newServer(t, &calls)

	client := luchtmeetnet.NewClient(luchtmeetnet.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Now:        func() time.Time { return fixedNow },
	})

	assert.Equal(t, "luchtmeetnet", client.Name())

	snapshot, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "luchtmeetnet", snapshot.Provider)
	assert.Equal(t, fixedNow, snapshot.FetchedAt)
	require.Len(t, snapshot.Sensors, 2)

	// Sorted by station number.
	rotterdam, amsterdam := snapshot.Sensors[0], snapshot.Sensors[1]

	assert.Equal(t, 1, rotterdam.ID)
	assert.Equal(t, "Rotterdam-Schiedamsevest (NL10636)", rotterdam.Name)
	assert.Equal(t, 51.9225, rotterdam.Lat)
	assert.Equal(t, 4.47917, rotterdam.Lon)
	assert.Equal(t, 14.0, rotterdam.PM25)
	assert.Zero(t, rotterdam.NO2, "unparseable timestamps are skipped")
	assert.Equal(t, 62.0, rotterdam.O3)

	assert.Equal(t, 2, amsterdam.ID)
	assert.Equal(t, 11.2, amsterdam.PM25, "newest measurement wins")
	assert.Equal(t, 31.0, amsterdam.NO2)
	assert.Zero(t, amsterdam.O3)

	// 2 station pages + 2 details + 3 formulas.
	assert.Equal(t, int32(7), calls.Load())
}

func TestClient_FetchStations_BoundingBox(t *testing.T) {
	var calls atomic.Int32
	server := newServer(t, &calls)

	bbox := geo.BoundingBox{MinLon: 4.8, MinLat: 52.3, MaxLon: 5.0, MaxLat: 52.4}
	client := luchtmeetnet.NewClient(luchtmeetnet.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		BBox:       &bbox,
		Now:        func() time.Time { return fixedNow },
	})

	got, err := client.FetchStations(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NL10938", got[0].Number)
}

func TestClient_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := luchtmeetnet.NewClient(luchtmeetnet.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	_, err := client.FetchSnapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}
