package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/greenroute/greenroute/internal/api/models"
	"github.com/greenroute/greenroute/internal/api/response"
	"github.com/greenroute/greenroute/internal/preference"
)

// PreferenceHandler serves the preference weights and keeps them normalized.
type PreferenceHandler struct{}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler() *PreferenceHandler {
	return &PreferenceHandler{}
}

// GetPreferences handles GET /api/preferences.
func (h *PreferenceHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, models.PreferencesResponse{
		Default: preference.Default(),
		Presets: preference.Presets(),
	})
}

// Rebalance handles POST /api/preferences/rebalance.
func (h *PreferenceHandler) Rebalance(w http.ResponseWriter, r *http.Request) {
	var input models.RebalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if input.Value == nil {
		response.BadRequest(w, r, "value is required", []models.FieldError{
			{Field: "value", Message: "required", Code: "required"},
		})
		return
	}

	current := preference.Default()
	if input.Current != nil {
		current = *input.Current
		for _, k := range preference.Keys {
			if v := current.Get(k); v < 0 || v > 1 {
				response.BadRequest(w, r, "current weights must be between 0 and 1", []models.FieldError{
					{Field: "current." + string(k), Message: "must be between 0 and 1", Code: "out_of_range"},
				})
				return
			}
		}
	}

	weights, err := preference.Rebalance(current, input.Key, *input.Value)
	if err != nil {
		field := "value"
		if errors.Is(err, preference.ErrUnknownKey) {
			field = "key"
		}
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: field, Message: err.Error()},
		})
		return
	}

	response.JSON(w, r, http.StatusOK, models.RebalanceResponse{
		Weights: weights,
		Sum:     weights.Sum(),
	})
}
