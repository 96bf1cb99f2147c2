package preference_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/greenroute/internal/preference"
)

func TestDefault(t *testing.T) {
	w := preference.Default()

	assert.Equal(t, 0.4, w.Pollution)
	assert.Equal(t, 0.4, w.Shade)
	assert.Equal(t, 0.2, w.Distance)
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	assert.NoError(t, w.Validate())
}

func TestRebalance_Proportional(t *testing.T) {
	got, err := preference.Rebalance(preference.Default(), preference.KeyPollution, 0.7)
	require.NoError(t, err)

	assert.Equal(t, 0.7, got.Pollution)
	// shade:distance keeps its 2:1 ratio over the remaining 0.3
	assert.InDelta(t, 0.2, got.Shade, 1e-9)
	assert.InDelta(t, 0.1, got.Distance, 1e-9)
	assert.InDelta(t, 1.0, got.Sum(), 1e-9)
}

func TestRebalance_EqualSplitWhenOthersZero(t *testing.T) {
	current := preference.Weights{Pollution: 1, Shade: 0, Distance: 0}

	got, err := preference.Rebalance(current, preference.KeyPollution, 0.4)
	require.NoError(t, err)

	assert.Equal(t, 0.4, got.Pollution)
	assert.InDelta(t, 0.3, got.Shade, 1e-9)
	assert.InDelta(t, 0.3, got.Distance, 1e-9)
}

func TestRebalance_FullWeight(t *testing.T) {
	got, err := preference.Rebalance(preference.Default(), preference.KeyDistance, 1)
	require.NoError(t, err)

	assert.Equal(t, preference.Weights{Pollution: 0, Shade: 0, Distance: 1}, got)
}

func TestRebalance_SumInvariant(t *testing.T) {
	starts := []preference.Weights{
		preference.Default(),
		{Pollution: 1, Shade: 0, Distance: 0},
		{Pollution: 0.33, Shade: 0.33, Distance: 0.34},
		{Pollution: 0.05, Shade: 0.9, Distance: 0.05},
	}
	for _, p := range preference.Presets() {
		starts = append(starts, p.Weights)
	}

	for _, start := range starts {
		for _, key := range preference.Keys {
			for step := 0; step <= 100; step++ {
				value := float64(step) / 100
				got, err := preference.Rebalance(start, key, value)
				require.NoError(t, err)
				assert.InDelta(t, 1.0, got.Sum(), 1e-9, "start=%+v key=%s value=%v", start, key, value)
				assert.Equal(t, value, got.Get(key))
			}
		}
	}
}

func TestRebalance_RepeatedEdits(t *testing.T) {
	w := preference.Default()
	edits := []struct {
		key   preference.Key
		value float64
	}{
		{preference.KeyShade, 0.9},
		{preference.KeyDistance, 0},
		{preference.KeyPollution, 0.25},
		{preference.KeyShade, 0},
		{preference.KeyDistance, 0.6},
	}

	for _, e := range edits {
		var err error
		w, err = preference.Rebalance(w, e.key, e.value)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	}
}

func TestRebalance_Errors(t *testing.T) {
	_, err := preference.Rebalance(preference.Default(), preference.Key("speed"), 0.5)
	assert.ErrorIs(t, err, preference.ErrUnknownKey)

	_, err = preference.Rebalance(preference.Default(), preference.KeyShade, 1.2)
	assert.ErrorIs(t, err, preference.ErrValueOutOfRange)

	_, err = preference.Rebalance(preference.Default(), preference.KeyShade, -0.1)
	assert.ErrorIs(t, err, preference.ErrValueOutOfRange)
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights preference.Weights
		wantErr bool
	}{
		{"exact", preference.Weights{Pollution: 0.5, Shade: 0.3, Distance: 0.2}, false},
		{"slightly high", preference.Weights{Pollution: 0.5, Shade: 0.3, Distance: 0.29}, false},
		{"slightly low", preference.Weights{Pollution: 0.4, Shade: 0.3, Distance: 0.21}, false},
		{"too high", preference.Weights{Pollution: 0.6, Shade: 0.4, Distance: 0.2}, true},
		{"too low", preference.Weights{Pollution: 0.3, Shade: 0.3, Distance: 0.2}, true},
		{"only the sum is checked", preference.Weights{Pollution: 1.2, Shade: -0.1, Distance: -0.1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, preference.ErrWeightSum)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPartial_Resolve(t *testing.T) {
	var nilPartial *preference.Partial
	assert.Equal(t, preference.Default(), nilPartial.Resolve())

	shade := 0.6
	distance := 0.0
	got := (&preference.Partial{Shade: &shade, Distance: &distance}).Resolve()

	assert.Equal(t, 0.4, got.Pollution)
	assert.Equal(t, 0.6, got.Shade)
	assert.Equal(t, 0.0, got.Distance, "explicit zero is kept")
}

func TestPresets(t *testing.T) {
	presets := preference.Presets()
	require.Len(t, presets, 3)

	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
		assert.InDelta(t, 1.0, p.Weights.Sum(), 1e-9)
	}
	assert.Equal(t, []string{"clean-air", "max-shade", "shortest"}, names)
}
