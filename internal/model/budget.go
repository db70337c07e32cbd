package model

// BudgetLineItem is a project budget row. PhaseID is resolved through the
// item's division container and is nil for project-level items.
type BudgetLineItem struct {
	ID                int64   `json:"id" yaml:"id"`
	ProjectID         int64   `json:"project_id" yaml:"project_id"`
	PhaseID           *int64  `json:"phase_id,omitempty" yaml:"phase_id,omitempty"`
	Activity          string  `json:"activity" yaml:"activity"`
	Amount            float64 `json:"amount" yaml:"amount"`
	StartPeriod       *int    `json:"start_period,omitempty" yaml:"start_period,omitempty"`
	PeriodsToComplete *int    `json:"periods_to_complete,omitempty" yaml:"periods_to_complete,omitempty"`
}

// AcquisitionCost is a purchase-related cost entry.
type AcquisitionCost struct {
	ProjectID         int64   `json:"project_id" yaml:"project_id"`
	Amount            float64 `json:"amount" yaml:"amount"`
	AppliedToPurchase bool    `json:"applied_to_purchase" yaml:"applied_to_purchase"`
}
