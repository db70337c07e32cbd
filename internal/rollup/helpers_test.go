package rollup

import "github.com/sells-group/underwrite/internal/model"

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func intp(v int) *int        { return &v }

func primaryParcel(id int64, phase *int64, units int, width, acres float64) model.Parcel {
	return model.Parcel{
		ID:         id,
		ProjectID:  1,
		PhaseID:    phase,
		TypeCode:   "SFD",
		UnitsTotal: units,
		LotWidth:   width,
		GrossAcres: acres,
	}
}

func withSale(p model.Parcel, gross, net, commission float64) model.Parcel {
	p.Sale = &model.SaleAssumption{
		GrossParcelPrice: gross,
		NetSaleProceeds:  net,
		CommissionAmount: commission,
	}
	return p
}

func withPeriod(p model.Parcel, period int) model.Parcel {
	p.SalePeriod = intp(period)
	return p
}

var defaultOpts = Options{PrimaryTypeCodes: []string{"SFD", "SFA"}}
