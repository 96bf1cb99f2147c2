package trips_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/greenroute/internal/geo"
	"github.com/greenroute/greenroute/internal/routing"
	"github.com/greenroute/greenroute/internal/trips"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newService(repo trips.Repository) *trips.Service {
	clk := &clock{t: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)}
	return trips.NewService(trips.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.New(io.Discard),
		Now:        clk.now,
	})
}

func validInput() trips.RecordInput {
	return trips.RecordInput{
		Category:    routing.CategoryMostShaded,
		From:        " Union Square ",
		To:          "Golden Gate Park",
		Origin:      geo.Point{Lat: 37.7879, Lon: -122.4075},
		Destination: geo.Point{Lat: 37.7694, Lon: -122.4862},
		Metrics: routing.Metrics{
			DistanceKm:            3.2,
			TimeMinutes:           38,
			PollutionScore:        0.25,
			ShadeScore:            0.85,
			CarbonSavings:         0.24,
			AirQualityImprovement: 50,
		},
	}
}

func TestService_Record(t *testing.T) {
	repo := trips.NewInMemoryRepository()
	svc := newService(repo)
	ctx := context.Background()

	trip, err := svc.Record(ctx, "usr_1", validInput())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(trip.ID, "trp_"))
	assert.Len(t, trip.ID, 26)
	assert.Equal(t, "usr_1", trip.UserID)
	assert.Equal(t, "Union Square", trip.From)
	assert.Equal(t, 3.2, trip.DistanceKm)
	assert.Equal(t, 50, trip.AirQualityImprovement)
	assert.Equal(t, time.UTC, trip.CreatedAt.Location())
	assert.Equal(t, 1, repo.Len())

	got, err := svc.Get(ctx, "usr_1", trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip, got)

	_, err = svc.Get(ctx, "usr_2", trip.ID)
	assert.ErrorIs(t, err, trips.ErrTripNotFound)
}

func TestService_RecordValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*trips.RecordInput)
		field  string
	}{
		{"unknown category", func(in *trips.RecordInput) { in.Category = "scenic" }, "category"},
		{"long from label", func(in *trips.RecordInput) { in.From = strings.Repeat("a", 81) }, "from"},
		{"long to label", func(in *trips.RecordInput) { in.To = strings.Repeat("a", 81) }, "to"},
		{"bad origin", func(in *trips.RecordInput) { in.Origin.Lat = 91 }, "origin"},
		{"bad destination", func(in *trips.RecordInput) { in.Destination.Lon = -181 }, "destination"},
		{"zero distance", func(in *trips.RecordInput) { in.Metrics.DistanceKm = 0 }, "metrics.distance_km"},
		{"pollution above one", func(in *trips.RecordInput) { in.Metrics.PollutionScore = 1.2 }, "metrics.pollution_score"},
		{"negative shade", func(in *trips.RecordInput) { in.Metrics.ShadeScore = -0.1 }, "metrics.shade_score"},
		{"negative carbon", func(in *trips.RecordInput) { in.Metrics.CarbonSavings = -1 }, "metrics.carbon_savings"},
		{"improvement above 100", func(in *trips.RecordInput) { in.Metrics.AirQualityImprovement = 101 }, "metrics.air_quality_improvement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := trips.NewInMemoryRepository()
			in := validInput()
			tt.mutate(&in)

			_, err := newService(repo).Record(context.Background(), "usr_1", in)

			var verr *trips.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Errors, 1)
			assert.Equal(t, tt.field, verr.Errors[0].Field)
			assert.Zero(t, repo.Len())
		})
	}
}

func TestService_ListNewestFirstWithLimit(t *testing.T) {
	svc := newService(trips.NewInMemoryRepository())
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		trip, err := svc.Record(ctx, "usr_1", validInput())
		require.NoError(t, err)
		ids = append(ids, trip.ID)
	}
	_, err := svc.Record(ctx, "usr_other", validInput())
	require.NoError(t, err)

	got, err := svc.List(ctx, "usr_1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[4], got[0].ID)
	assert.Equal(t, ids[3], got[1].ID)

	all, err := svc.List(ctx, "usr_1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := svc.List(ctx, "usr_nobody", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

type failingRepo struct{ trips.Repository }

func (failingRepo) Create(context.Context, *trips.Trip) error { return errors.New("disk full") }

func (failingRepo) List(context.Context, string, trips.ListOptions) ([]*trips.Trip, error) {
	return nil, errors.New("disk full")
}

func (failingRepo) Ping(context.Context) error { return errors.New("down") }

func TestService_RepositoryErrors(t *testing.T) {
	svc := newService(failingRepo{})
	ctx := context.Background()

	_, err := svc.Record(ctx, "usr_1", validInput())
	assert.ErrorContains(t, err, "disk full")

	_, err = svc.Dashboard(ctx, "usr_1")
	assert.ErrorContains(t, err, "disk full")

	assert.Error(t, svc.Ping(ctx))
}
