package model

import "time"

// Approach is one of the three appraisal valuation approaches.
type Approach string

const (
	ApproachSalesComparison Approach = "sales_comparison"
	ApproachCost            Approach = "cost"
	ApproachIncome          Approach = "income"
)

// Approaches lists the approaches in reconciliation order.
var Approaches = []Approach{ApproachSalesComparison, ApproachCost, ApproachIncome}

// Indication is the most recent value an approach produced for a project.
// Value is nil when the approach has no data.
type Indication struct {
	Approach   Approach   `json:"approach" yaml:"approach"`
	Value      *float64   `json:"value" yaml:"value"`
	ComputedAt *time.Time `json:"computed_at,omitempty" yaml:"computed_at,omitempty"`
}

// Indications holds one optional value per approach.
type Indications struct {
	Sales  *float64 `json:"sales" yaml:"sales"`
	Cost   *float64 `json:"cost" yaml:"cost"`
	Income *float64 `json:"income" yaml:"income"`
}

// Weights are fractions of 1.0 assigned to each approach.
type Weights struct {
	Sales  float64 `json:"sales" yaml:"sales"`
	Cost   float64 `json:"cost" yaml:"cost"`
	Income float64 `json:"income" yaml:"income"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Sales + w.Cost + w.Income
}

// ReconciliationRecord is the persisted reconciliation snapshot for a project.
type ReconciliationRecord struct {
	ProjectID     int64       `json:"project_id" yaml:"project_id"`
	Indications   Indications `json:"indications" yaml:"indications"`
	Weights       Weights     `json:"weights" yaml:"weights"`
	Narrative     string      `json:"narrative" yaml:"narrative"`
	EffectiveDate *time.Time  `json:"effective_date,omitempty" yaml:"effective_date,omitempty"`
	ComputedValue float64     `json:"computed_value" yaml:"computed_value"`
	OverrideValue *float64    `json:"override_value,omitempty" yaml:"override_value,omitempty"`
	FinalValue    float64     `json:"final_value" yaml:"final_value"`
	WeightsValid  bool        `json:"weights_valid" yaml:"weights_valid"`
	UpdatedAt     time.Time   `json:"updated_at" yaml:"updated_at"`
}
