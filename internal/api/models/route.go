package models

import (
	"github.com/greenroute/greenroute/internal/preference"
	"github.com/greenroute/greenroute/internal/routing"
)

// AlgorithmVersion is reported in route computation metadata.
const AlgorithmVersion = "1.0.0"

// RouteComputeResponse is the body of a successful route computation.
type RouteComputeResponse struct {
	Success     bool                `json:"success"`
	Routes      []routing.Candidate `json:"routes"`
	Summary     routing.Summary     `json:"summary"`
	Preferences preference.Weights  `json:"preferences"`
	Metadata    RouteMetadata       `json:"metadata"`
}

// RouteMetadata describes the computation that produced the routes.
type RouteMetadata struct {
	Origin               Coordinates `json:"origin"`
	Destination          Coordinates `json:"destination"`
	StraightLineDistance float64     `json:"straight_line_distance"`
	ComputationTime      Timestamp   `json:"computation_time"`
	AlgorithmVersion     string      `json:"algorithm_version"`
}
