package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/api/models"
	"github.com/greenroute/greenroute/internal/api/response"
	"github.com/greenroute/greenroute/internal/trips"
)

// TripService records trips and summarizes them.
type TripService interface {
	Record(ctx context.Context, userID string, in trips.RecordInput) (*trips.Trip, error)
	Get(ctx context.Context, userID, tripID string) (*trips.Trip, error)
	List(ctx context.Context, userID string, limit int) ([]*trips.Trip, error)
	Dashboard(ctx context.Context, userID string) (*trips.Dashboard, error)
}

// TripHandler handles the trip history and dashboard endpoints.
type TripHandler struct {
	service TripService
	logger  zerolog.Logger
	verbose bool
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(service TripService, logger zerolog.Logger, verbose bool) *TripHandler {
	return &TripHandler{service: service, logger: logger, verbose: verbose}
}

// CreateTrip handles POST /api/me/trips.
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var input models.TripCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	var missing []models.FieldError
	if input.Origin == nil {
		missing = append(missing, models.FieldError{Field: "origin", Message: "required", Code: "required"})
	}
	if input.Destination == nil {
		missing = append(missing, models.FieldError{Field: "destination", Message: "required", Code: "required"})
	}
	if input.Metrics == nil {
		missing = append(missing, models.FieldError{Field: "metrics", Message: "required", Code: "required"})
	}
	if len(missing) > 0 {
		response.BadRequest(w, r, "request validation failed", missing)
		return
	}

	trip, err := h.service.Record(r.Context(), userID, trips.RecordInput{
		Category:    input.Category,
		From:        input.From,
		To:          input.To,
		Origin:      input.Origin.Point(),
		Destination: input.Destination.Point(),
		Metrics:     *input.Metrics,
	})
	if err != nil {
		var verr *trips.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(w, r, "request validation failed", fieldErrors(verr))
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to record trip")
		response.InternalError(w, r, internalDetail("failed to record trip", err, h.verbose))
		return
	}

	response.Created(w, r, "/api/me/trips/"+trip.ID, models.NewTrip(trip))
}

// ListTrips handles GET /api/me/trips?limit=.
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	limit := trips.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, r, "limit must be a positive integer", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer", Code: "invalid"},
			})
			return
		}
		limit = min(n, trips.MaxListLimit)
	}

	list, err := h.service.List(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list trips")
		response.InternalError(w, r, internalDetail("failed to list trips", err, h.verbose))
		return
	}

	items := models.NewTrips(list)
	response.JSON(w, r, http.StatusOK, models.TripList{
		Items: items,
		Meta:  models.PagedResponseMeta{Limit: limit, Count: len(items)},
	})
}

// GetTrip handles GET /api/me/trips/{tripId}.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	tripID := chi.URLParam(r, "tripId")
	trip, err := h.service.Get(r.Context(), userID, tripID)
	if err != nil {
		if errors.Is(err, trips.ErrTripNotFound) {
			response.NotFound(w, r, "trip not found")
			return
		}
		h.logger.Error().Err(err).Str("trip_id", tripID).Msg("failed to get trip")
		response.InternalError(w, r, internalDetail("failed to get trip", err, h.verbose))
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewTrip(trip))
}

// GetDashboard handles GET /api/me/dashboard.
func (h *TripHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to build dashboard")
		response.InternalError(w, r, internalDetail("failed to build dashboard", err, h.verbose))
		return
	}

	w.Header().Set("Cache-Control", "private, no-cache")
	response.JSON(w, r, http.StatusOK, models.NewDashboardResponse(dashboard))
}

func fieldErrors(verr *trips.ValidationError) []models.FieldError {
	out := make([]models.FieldError, 0, len(verr.Errors))
	for _, e := range verr.Errors {
		out = append(out, models.FieldError{Field: e.Field, Message: e.Message, Code: "invalid"})
	}
	return out
}
