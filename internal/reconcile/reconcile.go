// Package reconcile combines the sales comparison, cost and income
// indications into a single weighted opinion of value.
package reconcile

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/sells-group/underwrite/internal/apperr"
	"github.com/sells-group/underwrite/internal/model"
)

// DefaultTolerance is the accepted distance of the weight sum from 1.0.
const DefaultTolerance = 0.005

// Flag codes surfaced with a result. None of them is an error.
const (
	FlagMissingIndication = "missing_indication"
	FlagWeightOnMissing   = "weight_on_missing"
	FlagWeightsInvalid    = "weights_invalid"
)

// Flag is a data-quality note about a reconciliation.
type Flag struct {
	Code     string         `json:"code" yaml:"code"`
	Approach model.Approach `json:"approach,omitempty" yaml:"approach,omitempty"`
	Message  string         `json:"message" yaml:"message"`
}

// Input is everything a reconciliation is computed from.
type Input struct {
	Indications model.Indications
	Weights     model.Weights
	Override    *float64
}

// Result is a computed reconciliation. FinalValue is the override when one
// is set, the computed value otherwise.
type Result struct {
	ComputedValue float64  `json:"computed_value" yaml:"computed_value"`
	OverrideValue *float64 `json:"override_value,omitempty" yaml:"override_value,omitempty"`
	FinalValue    float64  `json:"final_value" yaml:"final_value"`
	WeightSum     float64  `json:"weight_sum" yaml:"weight_sum"`
	WeightsValid  bool     `json:"weights_valid" yaml:"weights_valid"`
	Flags         []Flag   `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// HasFlag reports whether code was raised.
func (r Result) HasFlag(code string) bool {
	for _, f := range r.Flags {
		if f.Code == code {
			return true
		}
	}
	return false
}

type term struct {
	approach model.Approach
	value    *float64
	weight   float64
}

func terms(in Input) []term {
	return []term{
		{model.ApproachSalesComparison, in.Indications.Sales, in.Weights.Sales},
		{model.ApproachCost, in.Indications.Cost, in.Weights.Cost},
		{model.ApproachIncome, in.Indications.Income, in.Weights.Income},
	}
}

// Compute weights the indications. A missing indication contributes zero
// whatever its weight and is flagged. A weight sum outside 1±tolerance still
// yields a value but is flagged invalid. A non-positive tolerance means
// DefaultTolerance.
func Compute(in Input, tolerance float64) Result {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	computed := decimal.Zero
	weightSum := decimal.Zero
	var flags []Flag

	for _, t := range terms(in) {
		w := decimal.NewFromFloat(t.weight)
		weightSum = weightSum.Add(w)
		if t.value == nil {
			flags = append(flags, Flag{
				Code:     FlagMissingIndication,
				Approach: t.approach,
				Message:  "no indicated value; contributes zero",
			})
			if !w.IsZero() {
				flags = append(flags, Flag{
					Code:     FlagWeightOnMissing,
					Approach: t.approach,
					Message:  "weight assigned to an approach with no indicated value",
				})
			}
			continue
		}
		computed = computed.Add(decimal.NewFromFloat(*t.value).Mul(w))
	}

	valid := weightSum.Sub(decimal.NewFromInt(1)).Abs().LessThanOrEqual(decimal.NewFromFloat(tolerance))
	if !valid {
		flags = append(flags, Flag{
			Code:    FlagWeightsInvalid,
			Message: "weights sum to " + weightSum.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%; value is provisional",
		})
	}

	res := Result{
		ComputedValue: computed.InexactFloat64(),
		WeightSum:     weightSum.InexactFloat64(),
		WeightsValid:  valid,
		Flags:         flags,
	}
	res.FinalValue = res.ComputedValue
	if in.Override != nil {
		v := *in.Override
		res.OverrideValue = &v
		res.FinalValue = v
	}
	return res
}

// WeightsFromPercent converts 0-100 percentages into fractions of 1.0.
func WeightsFromPercent(sales, cost, income float64) (model.Weights, error) {
	hundred := decimal.NewFromInt(100)
	var out [3]float64
	for i, p := range []float64{sales, cost, income} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return model.Weights{}, apperr.Validation("weight %v must be a non-negative percentage", p)
		}
		out[i] = decimal.NewFromFloat(p).Div(hundred).InexactFloat64()
	}
	return model.Weights{Sales: out[0], Cost: out[1], Income: out[2]}, nil
}

// ValidateWeights rejects weights that cannot be computed with.
func ValidateWeights(w model.Weights) error {
	for _, v := range []float64{w.Sales, w.Cost, w.Income} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return apperr.Validation("weight %v must be a non-negative fraction", v)
		}
	}
	return nil
}

// Apply copies a result onto rec.
func Apply(rec *model.ReconciliationRecord, res Result) {
	rec.ComputedValue = res.ComputedValue
	rec.OverrideValue = res.OverrideValue
	rec.FinalValue = res.FinalValue
	rec.WeightsValid = res.WeightsValid
}
