package models

import "github.com/greenroute/greenroute/internal/preference"

// PreferencesResponse lists the default weights and quick presets.
type PreferencesResponse struct {
	Default preference.Weights  `json:"default"`
	Presets []preference.Preset `json:"presets"`
}

// RebalanceRequest edits one weight of an existing vector.
// A missing Current starts from the default weights.
type RebalanceRequest struct {
	Current *preference.Weights `json:"current,omitempty"`
	Key     preference.Key      `json:"key"`
	Value   *float64            `json:"value"`
}

// RebalanceResponse holds the normalized weights.
type RebalanceResponse struct {
	Weights preference.Weights `json:"weights"`
	Sum     float64            `json:"sum"`
}
