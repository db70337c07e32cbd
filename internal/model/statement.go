package model

import "time"

// TotalLabel labels the project-level rollup row.
const TotalLabel = "TOTAL"

// OtherLandType is the per-type-code breakdown of other-land inventory
// within a phase.
type OtherLandType struct {
	TypeCode     string  `json:"type_code" yaml:"type_code"`
	Acres        float64 `json:"acres" yaml:"acres"`
	Units        int     `json:"units" yaml:"units"`
	GrossRevenue float64 `json:"gross_revenue" yaml:"gross_revenue"`
	PricePerUnit float64 `json:"price_per_unit" yaml:"price_per_unit"`
}

// PhaseStatement is the financial statement for one phase, or for the whole
// project when Label is TotalLabel. Ratio fields are always derived from the
// statement's own totals.
type PhaseStatement struct {
	Key     PhaseKey `json:"-" yaml:"-"`
	PhaseID *int64   `json:"phase_id" yaml:"phase_id"`
	Label   string   `json:"label" yaml:"label"`

	// Quantities.
	GrossAcres     float64 `json:"gross_acres" yaml:"gross_acres"`
	Lots           int     `json:"lots" yaml:"lots"`
	FrontFeet      float64 `json:"front_feet" yaml:"front_feet"`
	ParcelCount    int     `json:"parcel_count" yaml:"parcel_count"`
	OtherLandAcres float64 `json:"other_land_acres" yaml:"other_land_acres"`
	OtherLandUnits int     `json:"other_land_units" yaml:"other_land_units"`

	// Schedule, in months from project start.
	FirstSalePeriod   int `json:"first_sale_period" yaml:"first_sale_period"`
	LastSalePeriod    int `json:"last_sale_period" yaml:"last_sale_period"`
	MonthsToFirstSale int `json:"months_to_first_sale" yaml:"months_to_first_sale"`
	TotalMonthsToSell int `json:"total_months_to_sell" yaml:"total_months_to_sell"`

	// Revenue.
	GrossRevenue          float64 `json:"gross_revenue" yaml:"gross_revenue"`
	NetRevenue            float64 `json:"net_revenue" yaml:"net_revenue"`
	OtherLandGrossRevenue float64 `json:"other_land_gross_revenue" yaml:"other_land_gross_revenue"`
	OtherLandNetRevenue   float64 `json:"other_land_net_revenue" yaml:"other_land_net_revenue"`
	TotalGrossRevenue     float64 `json:"total_gross_revenue" yaml:"total_gross_revenue"`
	TotalNetRevenue       float64 `json:"total_net_revenue" yaml:"total_net_revenue"`
	GrossSaleProceeds     float64 `json:"gross_sale_proceeds" yaml:"gross_sale_proceeds"`

	// Cost.
	Acquisition         float64 `json:"acquisition" yaml:"acquisition"`
	PlanningEngineering float64 `json:"planning_engineering" yaml:"planning_engineering"`
	Development         float64 `json:"development" yaml:"development"`
	Operations          float64 `json:"operations" yaml:"operations"`
	Contingency         float64 `json:"contingency" yaml:"contingency"`
	Financing           float64 `json:"financing" yaml:"financing"`
	TotalCosts          float64 `json:"total_costs" yaml:"total_costs"`
	SubdivisionCost     float64 `json:"subdivision_cost" yaml:"subdivision_cost"`
	Commissions         float64 `json:"commissions" yaml:"commissions"`
	ClosingCosts        float64 `json:"closing_costs" yaml:"closing_costs"`

	// Derived.
	PricePerFrontFoot  float64 `json:"price_per_front_foot" yaml:"price_per_front_foot"`
	GrossRevenuePerLot float64 `json:"gross_revenue_per_lot" yaml:"gross_revenue_per_lot"`
	CostPerLot         float64 `json:"cost_per_lot" yaml:"cost_per_lot"`
	GrossProfit        float64 `json:"gross_profit" yaml:"gross_profit"`
	ProfitMargin       float64 `json:"profit_margin" yaml:"profit_margin"`

	OtherLand []OtherLandType `json:"other_land,omitempty" yaml:"other_land,omitempty"`
}

// ReportMetadata describes a generated report.
type ReportMetadata struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	PhaseCount  int           `json:"phase_count" yaml:"phase_count"`
	TotalLots   int           `json:"total_lots" yaml:"total_lots"`
	TotalAcres  float64       `json:"total_acres" yaml:"total_acres"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration_ns"`
	// InflationRate is the annual cost-inflation rate applied.
	InflationRate float64 `json:"inflation_rate" yaml:"inflation_rate"`
	// UnallocatedBudget sums budget items with no phase. They are excluded
	// from every phase statement and reported here for visibility only.
	UnallocatedBudget float64 `json:"unallocated_budget" yaml:"unallocated_budget"`
}

// Report is the phase-level financial rollup for a project.
type Report struct {
	Project  Project          `json:"project" yaml:"project"`
	Total    PhaseStatement   `json:"total" yaml:"total"`
	Phases   []PhaseStatement `json:"phases" yaml:"phases"`
	Metadata ReportMetadata   `json:"metadata" yaml:"metadata"`
}
