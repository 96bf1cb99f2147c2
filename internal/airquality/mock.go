package airquality

import (
	"context"
	"time"
)

// MockProvider serves a fixed set of San Francisco sensors.
type MockProvider struct {
	now func() time.Time
}

// NewMockProvider creates the fixture provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{now: time.Now}
}

// Name returns the provider identifier.
func (p *MockProvider) Name() string { return "mock" }

// FetchSnapshot returns the fixture readings stamped with the current time.
func (p *MockProvider) FetchSnapshot(_ context.Context) (*Snapshot, error) {
	sensors := make([]Sensor, len(mockSensors))
	copy(sensors, mockSensors)
	return &Snapshot{
		Sensors:   sensors,
		FetchedAt: p.now(),
		Provider:  p.Name(),
	}, nil
}

var mockSensors = []Sensor{
	{ID: 1, Name: "Sensor 1", Lat: 37.7749, Lon: -122.4194, PM25: 12, NO2: 15, O3: 45},
	{ID: 2, Name: "Sensor 2", Lat: 37.7849, Lon: -122.4094, PM25: 25, NO2: 28, O3: 52},
	{ID: 3, Name: "Sensor 3", Lat: 37.7649, Lon: -122.4294, PM25: 45, NO2: 42, O3: 78},
	{ID: 4, Name: "Sensor 4", Lat: 37.7549, Lon: -122.4394, PM25: 8, NO2: 12, O3: 38},
	{ID: 5, Name: "Sensor 5", Lat: 37.7849, Lon: -122.4594, PM25: 35, NO2: 38, O3: 65},
	{ID: 6, Name: "Sensor 6", Lat: 37.7949, Lon: -122.4094, PM25: 18, NO2: 22, O3: 48},
	{ID: 7, Name: "Sensor 7", Lat: 37.7649, Lon: -122.4494, PM25: 52, NO2: 48, O3: 82},
	{ID: 8, Name: "Sensor 8", Lat: 37.7449, Lon: -122.4194, PM25: 15, NO2: 18, O3: 42},
}
