package model

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestCurrentRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		steps GrowthRateSchedule
		want  float64
	}{
		{"empty", nil, 0},
		{"single step applies regardless of number", GrowthRateSchedule{{StepNumber: 3, Rate: 0.04}}, 0.04},
		{"multi step uses step 1", GrowthRateSchedule{{StepNumber: 2, Rate: 0.05}, {StepNumber: 1, Rate: 0.03}}, 0.03},
		{"multi step without step 1", GrowthRateSchedule{{StepNumber: 2, Rate: 0.05}, {StepNumber: 3, Rate: 0.06}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tt.steps.CurrentRate(), 1e-12)
		})
	}
}

func TestPhaseKeyOrdering(t *testing.T) {
	t.Parallel()

	keys := []PhaseKey{Unassigned, Phase(42), Phase(3), PhaseOf(ptr(int64(7)))}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	var labels []string
	for _, k := range keys {
		labels = append(labels, k.String())
	}
	assert.Equal(t, []string{"3", "7", "42", "Unassigned"}, labels)
}

func TestPhaseKeyAsMapKey(t *testing.T) {
	t.Parallel()

	m := map[PhaseKey]int{}
	m[PhaseOf(nil)]++
	m[Unassigned]++
	m[Phase(1)]++
	m[PhaseOf(ptr(int64(1)))]++

	assert.Len(t, m, 2)
	assert.Equal(t, 2, m[Unassigned])
	assert.Equal(t, 2, m[Phase(1)])
}

func TestPhaseKeyPtr(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Unassigned.Ptr())
	assert.Equal(t, int64(5), *Phase(5).Ptr())
	assert.True(t, Unassigned.IsUnassigned())
	id, ok := Phase(5).ID()
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)
}

func TestParcelFrontFeet(t *testing.T) {
	t.Parallel()

	p := Parcel{UnitsTotal: 20, LotWidth: 50}
	assert.InDelta(t, 1000.0, p.FrontFeet(), 1e-9)
	assert.Equal(t, Unassigned, p.Phase())
}

func TestWeightsSum(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 1.0, Weights{Sales: 0.6, Income: 0.4}.Sum(), 1e-12)
}
