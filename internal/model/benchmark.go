package model

// BenchmarkType names a cost category that can carry a default rate.
type BenchmarkType string

const (
	BenchmarkClosing           BenchmarkType = "closing"
	BenchmarkLegal             BenchmarkType = "legal"
	BenchmarkTitleInsurance    BenchmarkType = "title_insurance"
	BenchmarkImprovementOffset BenchmarkType = "improvement_offset"
)

// ScopeProject marks a benchmark row scoped to a single project.
const ScopeProject = "project"

// CostBenchmark is a default cost rate or fixed amount. ProjectID is nil for
// global rows.
type CostBenchmark struct {
	ID          int64         `json:"id" yaml:"id"`
	ProjectID   *int64        `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Type        BenchmarkType `json:"type" yaml:"type"`
	Scope       string        `json:"scope,omitempty" yaml:"scope,omitempty"`
	FixedAmount *float64      `json:"fixed_amount,omitempty" yaml:"fixed_amount,omitempty"`
	RatePerUOM  *float64      `json:"rate_per_uom,omitempty" yaml:"rate_per_uom,omitempty"`
	UOM         string        `json:"uom,omitempty" yaml:"uom,omitempty"`
	Active      bool          `json:"active" yaml:"active"`
}
