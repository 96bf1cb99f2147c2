package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/greenroute/greenroute/internal/api/models"
	"github.com/greenroute/greenroute/internal/api/response"
	"github.com/greenroute/greenroute/internal/routing"
	"github.com/greenroute/greenroute/internal/telemetry"
)

// RouteHandlerConfig holds the dependencies of RouteHandler.
type RouteHandlerConfig struct {
	Synthesizer *routing.Synthesizer
	Metrics     *telemetry.RouteMetrics
	Logger      zerolog.Logger

	// Now overrides time.Now.
	Now func() time.Time
}

// RouteHandler handles route computation.
type RouteHandler struct {
	synthesizer *routing.Synthesizer
	metrics     *telemetry.RouteMetrics
	logger      zerolog.Logger
	now         func() time.Time
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(cfg RouteHandlerConfig) *RouteHandler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &RouteHandler{
		synthesizer: cfg.Synthesizer,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		now:         now,
	}
}

// ComputeRoutes handles POST /api/route-compute.
func (h *RouteHandler) ComputeRoutes(w http.ResponseWriter, r *http.Request) {
	var input routing.Request
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.metrics.RecordRejection(r.Context(), "invalid_json")
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	valid, err := routing.ValidateRequest(input)
	var verr *routing.ValidationError
	if errors.As(err, &verr) {
		code := rejectionCode(verr.Err)
		h.metrics.RecordRejection(r.Context(), code)
		response.BadRequest(w, r, verr.Message, []models.FieldError{
			{Field: verr.Field, Message: verr.Message, Code: code},
		})
		return
	}

	now := h.now()
	start := time.Now()

	ctx, span := telemetry.StartSpan(r.Context(), "routing.synthesize",
		attribute.Float64("route.straight_line_km", valid.DistanceKm),
		attribute.Float64("route.weight.pollution", valid.Weights.Pollution),
		attribute.Float64("route.weight.shade", valid.Weights.Shade),
		attribute.Float64("route.weight.distance", valid.Weights.Distance),
	)
	candidates := h.synthesizer.Synthesize(valid.Origin, valid.Destination, valid.Weights, now)
	summary := routing.Summarize(candidates)
	span.SetAttributes(attribute.String("route.recommended", string(summary.RecommendedRoute)))
	span.End()

	h.metrics.RecordComputation(ctx, string(summary.RecommendedRoute), valid.DistanceKm, time.Since(start))

	h.logger.Debug().
		Float64("distance_km", valid.DistanceKm).
		Str("recommended", string(summary.RecommendedRoute)).
		Msg("routes computed")

	resp := models.RouteComputeResponse{
		Success:     true,
		Routes:      candidates,
		Summary:     summary,
		Preferences: valid.Weights,
		Metadata: models.RouteMetadata{
			Origin:               models.NewCoordinates(valid.Origin),
			Destination:          models.NewCoordinates(valid.Destination),
			StraightLineDistance: math.Round(valid.DistanceKm*100) / 100,
			ComputationTime:      models.Timestamp(now),
			AlgorithmVersion:     models.AlgorithmVersion,
		},
	}

	w.Header().Set("Cache-Control", "no-store")
	response.JSON(w, r, http.StatusOK, resp)
}

// rejectionCode names a validation failure for clients and metrics.
func rejectionCode(err error) string {
	switch {
	case errors.Is(err, routing.ErrMissingEndpoints):
		return "missing_endpoints"
	case errors.Is(err, routing.ErrMissingCoordinates):
		return "missing_coordinates"
	case errors.Is(err, routing.ErrInvalidCoordinates):
		return "invalid_coordinates"
	case errors.Is(err, routing.ErrInvalidWeights):
		return "invalid_weights"
	case errors.Is(err, routing.ErrTooClose):
		return "too_close"
	case errors.Is(err, routing.ErrTooFar):
		return "too_far"
	default:
		return "invalid_request"
	}
}
