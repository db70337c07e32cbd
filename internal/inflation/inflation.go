// Package inflation converts base amounts incurred at a future period into
// inflated amounts. Two temporal models are supported: annual compounding
// over a duration, and monthly stepping to an absolute sale period.
//
// A zero rate is a pure pass-through in both models.
package inflation

import "math"

// Annual compounds base at annualRate over periodMonths:
//
//	base × (1 + annualRate)^(periodMonths / 12)
//
// Non-positive periods return base unchanged; nothing is discounted
// backward in time.
func Annual(base, annualRate, periodMonths float64) float64 {
	if annualRate == 0 || periodMonths <= 0 {
		return base
	}
	return finiteOr(base*math.Pow(1+annualRate, periodMonths/12), base)
}

// MonthlyStepped steps base monthly at annualRate/12 up to salePeriod:
//
//	base × (1 + annualRate/12)^salePeriod
//
// salePeriod is the absolute period index, so negative values deflate.
func MonthlyStepped(base, annualRate float64, salePeriod int) float64 {
	if annualRate == 0 {
		return base
	}
	return finiteOr(base*math.Pow(1+annualRate/12, float64(salePeriod)), base)
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
