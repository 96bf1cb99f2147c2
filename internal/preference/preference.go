// Package preference holds the route preference weights and keeps them
// normalized when a single weight is edited.
package preference

import (
	"errors"
	"fmt"
	"math"
)

// SumTolerance is how far a submitted weight vector may drift from 1.0.
const SumTolerance = 0.1

// Preference errors.
var (
	ErrUnknownKey      = errors.New("unknown preference key")
	ErrValueOutOfRange = errors.New("preference value must be between 0 and 1")
	ErrWeightSum       = errors.New("route preference weights must sum to approximately 1.0")
)

// Key identifies one of the three preference weights.
type Key string

const (
	KeyPollution Key = "pollution"
	KeyShade     Key = "shade"
	KeyDistance  Key = "distance"
)

// Keys lists the weights in display order.
var Keys = []Key{KeyPollution, KeyShade, KeyDistance}

// Valid reports whether k names a known weight.
func (k Key) Valid() bool {
	switch k {
	case KeyPollution, KeyShade, KeyDistance:
		return true
	default:
		return false
	}
}

// Weights are the relative priorities of clean air, shade and short distance.
type Weights struct {
	Pollution float64 `json:"pollution"`
	Shade     float64 `json:"shade"`
	Distance  float64 `json:"distance"`
}

// Default returns the weights a new planner starts with.
func Default() Weights {
	return Weights{Pollution: 0.4, Shade: 0.4, Distance: 0.2}
}

// Sum returns the total of the three weights.
func (w Weights) Sum() float64 {
	return w.Pollution + w.Shade + w.Distance
}

// Validate checks the sum against SumTolerance.
func (w Weights) Validate() error {
	if math.Abs(w.Sum()-1) > SumTolerance {
		return ErrWeightSum
	}
	return nil
}

// Get returns the weight for k.
func (w Weights) Get(k Key) float64 {
	switch k {
	case KeyPollution:
		return w.Pollution
	case KeyShade:
		return w.Shade
	case KeyDistance:
		return w.Distance
	default:
		return 0
	}
}

func (w *Weights) set(k Key, v float64) {
	switch k {
	case KeyPollution:
		w.Pollution = v
	case KeyShade:
		w.Shade = v
	case KeyDistance:
		w.Distance = v
	}
}

// Rebalance sets key to value and redistributes 1-value across the other two
// weights in proportion to their current values, or evenly when both are zero.
func Rebalance(current Weights, key Key, value float64) (Weights, error) {
	if !key.Valid() {
		return Weights{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if math.IsNaN(value) || value < 0 || value > 1 {
		return Weights{}, fmt.Errorf("%w: %v", ErrValueOutOfRange, value)
	}

	remaining := 1 - value
	others := make([]Key, 0, 2)
	otherTotal := 0.0
	for _, k := range Keys {
		if k != key {
			others = append(others, k)
			otherTotal += current.Get(k)
		}
	}

	result := current
	result.set(key, value)

	if otherTotal > 0 {
		for _, k := range others {
			result.set(k, current.Get(k)/otherTotal*remaining)
		}
	} else {
		for _, k := range others {
			result.set(k, remaining/float64(len(others)))
		}
	}

	return result, nil
}

// Partial is a weight vector where any field may be omitted.
type Partial struct {
	Pollution *float64 `json:"pollution,omitempty"`
	Shade     *float64 `json:"shade,omitempty"`
	Distance  *float64 `json:"distance,omitempty"`
}

// Resolve fills omitted fields from Default. A nil receiver yields Default.
func (p *Partial) Resolve() Weights {
	w := Default()
	if p == nil {
		return w
	}
	if p.Pollution != nil {
		w.Pollution = *p.Pollution
	}
	if p.Shade != nil {
		w.Shade = *p.Shade
	}
	if p.Distance != nil {
		w.Distance = *p.Distance
	}
	return w
}

// Preset is a named weight vector offered as a one-tap choice.
type Preset struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Weights Weights `json:"weights"`
}

// Presets returns the quick presets in display order.
func Presets() []Preset {
	return []Preset{
		{Name: "clean-air", Label: "Clean Air", Weights: Weights{Pollution: 0.7, Shade: 0.2, Distance: 0.1}},
		{Name: "max-shade", Label: "Max Shade", Weights: Weights{Pollution: 0.2, Shade: 0.7, Distance: 0.1}},
		{Name: "shortest", Label: "Shortest", Weights: Weights{Pollution: 0.1, Shade: 0.1, Distance: 0.8}},
	}
}
