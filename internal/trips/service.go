package trips

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/geo"
	"github.com/greenroute/greenroute/internal/routing"
)

// List limits.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	MaxLabelLength   = 80
)

// RecordInput describes a chosen route.
type RecordInput struct {
	Category    routing.Category
	From        string
	To          string
	Origin      geo.Point
	Destination geo.Point
	Metrics     routing.Metrics
}

// FieldError is a validation failure on one input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid field of a RecordInput.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// ServiceConfig holds configuration for the trip service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// Now overrides time.Now.
	Now func() time.Time
}

// Service records trips and builds dashboards.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new trip service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
		now:    now,
	}
}

// Record validates and stores a trip for a user.
func (s *Service) Record(ctx context.Context, userID string, in RecordInput) (*Trip, error) {
	if errs := validateRecord(in); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	trip := &Trip{
		ID:                    "trp_" + uuid.New().String()[:22],
		UserID:                userID,
		Category:              in.Category,
		From:                  strings.TrimSpace(in.From),
		To:                    strings.TrimSpace(in.To),
		Origin:                in.Origin,
		Destination:           in.Destination,
		DistanceKm:            in.Metrics.DistanceKm,
		PollutionScore:        in.Metrics.PollutionScore,
		ShadeScore:            in.Metrics.ShadeScore,
		CarbonSavings:         in.Metrics.CarbonSavings,
		AirQualityImprovement: in.Metrics.AirQualityImprovement,
		CreatedAt:             s.now().UTC(),
	}

	if err := s.repo.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("store trip: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("trip_id", trip.ID).
		Str("category", string(trip.Category)).
		Float64("distance_km", trip.DistanceKm).
		Msg("trip recorded")

	return trip, nil
}

// Get returns one of the user's trips.
func (s *Service) Get(ctx context.Context, userID, tripID string) (*Trip, error) {
	return s.repo.Get(ctx, userID, tripID)
}

// List returns the user's most recent trips. The limit is clamped to
// [1, MaxListLimit]; zero selects DefaultListLimit.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]*Trip, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.repo.List(ctx, userID, ListOptions{Limit: limit})
}

// Dashboard aggregates all of the user's trips.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	trips, err := s.repo.List(ctx, userID, ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return BuildDashboard(trips), nil
}

// Ping checks the backing repository.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func validateRecord(in RecordInput) []FieldError {
	var errs []FieldError

	if !in.Category.Valid() {
		errs = append(errs, FieldError{Field: "category", Message: "must be one of low-pollution, most-shaded, balanced"})
	}
	if len(in.From) > MaxLabelLength {
		errs = append(errs, FieldError{Field: "from", Message: "must be at most 80 characters"})
	}
	if len(in.To) > MaxLabelLength {
		errs = append(errs, FieldError{Field: "to", Message: "must be at most 80 characters"})
	}
	if err := in.Origin.Validate(); err != nil {
		errs = append(errs, FieldError{Field: "origin", Message: err.Error()})
	}
	if err := in.Destination.Validate(); err != nil {
		errs = append(errs, FieldError{Field: "destination", Message: err.Error()})
	}

	m := in.Metrics
	if m.DistanceKm <= 0 || m.DistanceKm > routing.MaxDistanceKm*2 {
		errs = append(errs, FieldError{Field: "metrics.distance_km", Message: "must be positive and at most 100"})
	}
	if m.PollutionScore < 0 || m.PollutionScore > 1 {
		errs = append(errs, FieldError{Field: "metrics.pollution_score", Message: "must be between 0 and 1"})
	}
	if m.ShadeScore < 0 || m.ShadeScore > 1 {
		errs = append(errs, FieldError{Field: "metrics.shade_score", Message: "must be between 0 and 1"})
	}
	if m.CarbonSavings < 0 {
		errs = append(errs, FieldError{Field: "metrics.carbon_savings", Message: "must not be negative"})
	}
	if m.AirQualityImprovement < 0 || m.AirQualityImprovement > 100 {
		errs = append(errs, FieldError{Field: "metrics.air_quality_improvement", Message: "must be between 0 and 100"})
	}

	return errs
}
