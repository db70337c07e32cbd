package model

// Parcel is a unit-level land record. PhaseID is nil when unassigned.
type Parcel struct {
	ID          int64   `json:"id" yaml:"id"`
	ProjectID   int64   `json:"project_id" yaml:"project_id"`
	PhaseID     *int64  `json:"phase_id,omitempty" yaml:"phase_id,omitempty"`
	TypeCode    string  `json:"type_code" yaml:"type_code"`
	GrossAcres  float64 `json:"gross_acres" yaml:"gross_acres"`
	UnitsTotal  int     `json:"units_total" yaml:"units_total"`
	LotWidth    float64 `json:"lot_width" yaml:"lot_width"`
	SalePeriod  *int    `json:"sale_period,omitempty" yaml:"sale_period,omitempty"` // months from project start
	ProductCode string  `json:"product_code,omitempty" yaml:"product_code,omitempty"`

	Sale *SaleAssumption `json:"sale,omitempty" yaml:"sale,omitempty"`
}

// SaleAssumption holds the entered or derived pricing for one parcel.
type SaleAssumption struct {
	GrossParcelPrice        float64  `json:"gross_parcel_price" yaml:"gross_parcel_price"`
	CommissionAmount        float64  `json:"commission_amount" yaml:"commission_amount"`
	NetSaleProceeds         float64  `json:"net_sale_proceeds" yaml:"net_sale_proceeds"`
	PriceUOM                string   `json:"price_uom,omitempty" yaml:"price_uom,omitempty"`
	ImprovementOffsetPerUOM *float64 `json:"improvement_offset_per_uom,omitempty" yaml:"improvement_offset_per_uom,omitempty"`
	BasePricePerUnit        float64  `json:"base_price_per_unit" yaml:"base_price_per_unit"`
	InflatedPricePerUnit    float64  `json:"inflated_price_per_unit" yaml:"inflated_price_per_unit"`
}

// Phase returns the parcel's grouping key.
func (p Parcel) Phase() PhaseKey {
	return PhaseOf(p.PhaseID)
}

// FrontFeet is the parcel's front-foot proxy: units × lot width.
func (p Parcel) FrontFeet() float64 {
	return float64(p.UnitsTotal) * p.LotWidth
}
