package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwrite/internal/apperr"
	"github.com/sells-group/underwrite/internal/model"
)

func f64(v float64) *float64 { return &v }

func TestCompute_Weighting(t *testing.T) {
	t.Parallel()

	res := Compute(Input{
		Indications: model.Indications{Sales: f64(10_000_000), Income: f64(12_000_000)},
		Weights:     model.Weights{Sales: 0.6, Cost: 0, Income: 0.4},
	}, 0)

	assert.Equal(t, 10_800_000.0, res.ComputedValue)
	assert.Equal(t, res.ComputedValue, res.FinalValue)
	assert.True(t, res.WeightsValid)
	assert.Nil(t, res.OverrideValue)
	assert.True(t, res.HasFlag(FlagMissingIndication))
	assert.False(t, res.HasFlag(FlagWeightOnMissing))
	assert.False(t, res.HasFlag(FlagWeightsInvalid))
}

func TestCompute_InvalidSumStillComputes(t *testing.T) {
	t.Parallel()

	res := Compute(Input{
		Indications: model.Indications{Sales: f64(1_000_000), Cost: f64(1_000_000), Income: f64(1_000_000)},
		Weights:     model.Weights{Sales: 0.6, Cost: 0.35, Income: 0.1},
	}, DefaultTolerance)

	assert.False(t, res.WeightsValid)
	assert.True(t, res.HasFlag(FlagWeightsInvalid))
	assert.InDelta(t, 1.05, res.WeightSum, 1e-12)
	assert.Equal(t, 1_050_000.0, res.ComputedValue)
}

func TestCompute_ToleranceBand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		weights model.Weights
		valid   bool
	}{
		{"exact", model.Weights{Sales: 0.5, Cost: 0.25, Income: 0.25}, true},
		{"99.5%", model.Weights{Sales: 0.5, Cost: 0.25, Income: 0.245}, true},
		{"100.5%", model.Weights{Sales: 0.5, Cost: 0.25, Income: 0.255}, true},
		{"99.4%", model.Weights{Sales: 0.5, Cost: 0.25, Income: 0.244}, false},
		{"all zero", model.Weights{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Compute(Input{Weights: tt.weights}, 0.005)
			assert.Equal(t, tt.valid, res.WeightsValid)
		})
	}
}

func TestCompute_WeightOnMissing(t *testing.T) {
	t.Parallel()

	res := Compute(Input{
		Indications: model.Indications{Sales: f64(500_000)},
		Weights:     model.Weights{Sales: 0.5, Cost: 0.5},
	}, 0)

	assert.Equal(t, 250_000.0, res.ComputedValue)
	var onMissing []model.Approach
	for _, f := range res.Flags {
		if f.Code == FlagWeightOnMissing {
			onMissing = append(onMissing, f.Approach)
		}
	}
	assert.Equal(t, []model.Approach{model.ApproachCost}, onMissing)
}

func TestCompute_Override(t *testing.T) {
	t.Parallel()

	res := Compute(Input{
		Indications: model.Indications{Sales: f64(100), Cost: f64(200), Income: f64(300)},
		Weights:     model.Weights{Sales: 0.2, Cost: 0.3, Income: 0.5},
		Override:    f64(275),
	}, 0)

	assert.Equal(t, 230.0, res.ComputedValue)
	require.NotNil(t, res.OverrideValue)
	assert.Equal(t, 275.0, res.FinalValue)
}

func TestWeightsFromPercent(t *testing.T) {
	t.Parallel()

	w, err := WeightsFromPercent(60, 0, 40)
	require.NoError(t, err)
	assert.Equal(t, model.Weights{Sales: 0.6, Cost: 0, Income: 0.4}, w)

	_, err = WeightsFromPercent(60, -5, 45)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
