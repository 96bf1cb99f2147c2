// Package handler provides HTTP handlers for the GreenRoute API.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/greenroute/greenroute/internal/airquality"
	"github.com/greenroute/greenroute/internal/api/models"
	"github.com/greenroute/greenroute/internal/api/response"
	"github.com/greenroute/greenroute/internal/provider/resilience"
	"github.com/greenroute/greenroute/internal/weather"
)

// readyTimeout bounds each dependency ping in the readiness check.
const readyTimeout = 2 * time.Second

// Dependency is a backend the readiness check pings.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

// OpsHandlerConfig holds the dependencies of OpsHandler.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string

	// Dependencies are pinged by the readiness check.
	Dependencies []Dependency

	// Registry reports upstream provider circuit state.
	Registry *resilience.Registry

	AirQuality interface{ CacheStatus() airquality.CacheStatus }
	Weather    interface{ CacheStats() weather.CacheStats }

	// Now overrides time.Now.
	Now func() time.Time
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsHandlerConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &OpsHandler{cfg: cfg, now: now}
}

// HealthCheck handles GET /api/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /api/ops/ready. It returns 503 while any
// dependency fails its ping.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems := h.pingDependencies(r.Context())

	status := models.HealthStatusOK
	details := make(map[string]any, len(subsystems))
	for _, s := range subsystems {
		details[s.Name] = s.Status
		if s.Status != models.HealthStatusOK {
			status = models.HealthStatusFail
		}
	}

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}

	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    models.Timestamp(h.now()),
		Details: details,
	})
}

// SystemStatus handles GET /api/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	subsystems := h.pingDependencies(r.Context())
	subsystems = append(subsystems, h.cacheSubsystems()...)

	status := models.HealthStatusOK
	for _, s := range subsystems {
		status = worst(status, s.Status)
	}

	providers := []models.ProviderStatus{}
	if h.cfg.Registry != nil {
		for _, ph := range h.cfg.Registry.GetAllHealth() {
			ps := models.ProviderStatus{
				Provider:     ph.Name,
				Status:       providerStatus(ph.Status()),
				CircuitState: ph.CircuitState.String(),
				CircuitTrips: ph.Trips,
			}
			if ph.StateChangedAt != nil {
				ps.StateChangedAt = models.TimestampPtr(*ph.StateChangedAt)
			}
			if ph.LastSuccessAt != nil {
				ps.LastSuccessAt = models.TimestampPtr(*ph.LastSuccessAt)
			}
			if ph.LastFailureAt != nil {
				ps.LastFailureAt = models.TimestampPtr(*ph.LastFailureAt)
			}
			if ph.LastError != "" {
				msg := ph.LastError
				ps.Message = &msg
			}
			providers = append(providers, ps)
			status = worst(status, ps.Status)
		}
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:     status,
		Time:       models.Timestamp(h.now()),
		Subsystems: subsystems,
		Providers:  providers,
	})
}

func (h *OpsHandler) pingDependencies(ctx context.Context) []models.SubsystemStatus {
	out := make([]models.SubsystemStatus, 0, len(h.cfg.Dependencies))
	for _, dep := range h.cfg.Dependencies {
		pingCtx, cancel := context.WithTimeout(ctx, readyTimeout)
		err := dep.Ping(pingCtx)
		cancel()

		s := models.SubsystemStatus{Name: dep.Name, Status: models.HealthStatusOK}
		if err != nil {
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
		}
		out = append(out, s)
	}
	return out
}

func (h *OpsHandler) cacheSubsystems() []models.SubsystemStatus {
	var out []models.SubsystemStatus

	if h.cfg.AirQuality != nil {
		cs := h.cfg.AirQuality.CacheStatus()
		s := models.SubsystemStatus{Name: "air-quality-cache", Status: models.HealthStatusOK}
		var detail string
		switch {
		case !cs.HasData:
			detail = "empty"
		case cs.IsStale:
			s.Status = models.HealthStatusDegraded
			detail = fmt.Sprintf("stale snapshot from %s (%s)", cs.Provider, cs.FetchedAt.UTC().Format(time.RFC3339))
		default:
			detail = fmt.Sprintf("%d sensors from %s", cs.SensorCount, cs.Provider)
		}
		s.Detail = &detail
		out = append(out, s)
	}

	if h.cfg.Weather != nil {
		st := h.cfg.Weather.CacheStats()
		detail := fmt.Sprintf("%d/%d fresh locations from %s", st.WeatherFreshEntries, st.WeatherEntries, st.Provider)
		out = append(out, models.SubsystemStatus{
			Name:   "weather-cache",
			Status: models.HealthStatusOK,
			Detail: &detail,
		})
	}

	return out
}

func providerStatus(s string) models.HealthStatus {
	switch s {
	case resilience.StatusHealthy:
		return models.HealthStatusOK
	case resilience.StatusDegraded:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusFail
	}
}

// worst returns the more severe of two statuses.
func worst(a, b models.HealthStatus) models.HealthStatus {
	rank := map[models.HealthStatus]int{
		models.HealthStatusOK:       0,
		models.HealthStatusDegraded: 1,
		models.HealthStatusFail:     2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
