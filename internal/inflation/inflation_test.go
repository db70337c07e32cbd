package inflation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		base   float64
		rate   float64
		period float64
		want   float64
	}{
		{"one year at 3%", 1000, 0.03, 12, 1030},
		{"two years at 3%", 1000, 0.03, 24, 1060.9},
		{"half year at 4%", 1000, 0.04, 6, 1000 * math.Sqrt(1.04)},
		{"zero period", 1000, 0.03, 0, 1000},
		{"negative period is not discounted", 1000, 0.03, -12, 1000},
		{"zero base", 0, 0.03, 12, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Annual(tt.base, tt.rate, tt.period), 1e-6)
		})
	}
}

func TestMonthlyStepped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		base   float64
		rate   float64
		period int
		want   float64
	}{
		{"twelve months at 12%", 1000, 0.12, 12, 1000 * math.Pow(1.01, 12)},
		{"period zero", 1000, 0.12, 0, 1000},
		{"negative period deflates", 1000, 0.12, -1, 1000 / 1.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, MonthlyStepped(tt.base, tt.rate, tt.period), 1e-6)
		})
	}
}

func TestZeroRatePassThrough(t *testing.T) {
	t.Parallel()

	bases := []float64{0, 1, 1234.5678, -500, 1e12}
	periods := []int{-36, -1, 0, 1, 7, 120}
	for _, b := range bases {
		for _, p := range periods {
			assert.Equal(t, b, Annual(b, 0, float64(p)), "annual base=%v period=%v", b, p)
			assert.Equal(t, b, MonthlyStepped(b, 0, p), "monthly base=%v period=%v", b, p)
		}
	}
}

func TestNonFiniteFallsBackToBase(t *testing.T) {
	t.Parallel()

	// (1 + -2)^(0.5) is NaN.
	assert.Equal(t, 100.0, Annual(100, -2, 6))
	// Overflow to +Inf.
	assert.Equal(t, 100.0, MonthlyStepped(100, 1e6, 10000))
}
