package rollup

import (
	"github.com/sells-group/underwrite/internal/benchmark"
	"github.com/sells-group/underwrite/internal/inflation"
	"github.com/sells-group/underwrite/internal/model"
)

// SeedPrimary starts the set from pre-grouped primary-unit stats.
func SeedPrimary(set PhaseSet, rows []PrimaryStats) PhaseSet {
	out := set.Clone()
	for _, r := range rows {
		out.update(r.Phase, func(ps *model.PhaseStatement) {
			ps.GrossAcres += r.GrossAcres
			ps.Lots += r.Units
			ps.FrontFeet += r.FrontFeet
			ps.ParcelCount += r.ParcelCount
		})
	}
	return out
}

// MergeOtherLand accumulates other-land parcels with positive units or acres
// into their phase, creating the phase when it holds no primary inventory,
// and keeps a per-type-code breakdown.
func MergeOtherLand(set PhaseSet, parcels []model.Parcel) PhaseSet {
	out := set.Clone()
	for _, p := range parcels {
		if p.UnitsTotal <= 0 && p.GrossAcres <= 0 {
			continue
		}
		var gross, net, commission, price float64
		if p.Sale != nil {
			gross = p.Sale.GrossParcelPrice
			net = p.Sale.NetSaleProceeds
			commission = p.Sale.CommissionAmount
			price = p.Sale.InflatedPricePerUnit
			if price == 0 {
				price = p.Sale.BasePricePerUnit
			}
		}
		out.update(p.Phase(), func(ps *model.PhaseStatement) {
			ps.OtherLandAcres += p.GrossAcres
			ps.OtherLandUnits += p.UnitsTotal
			ps.OtherLandGrossRevenue += gross
			ps.OtherLandNetRevenue += net
			ps.Commissions += commission

			i := otherLandIndex(ps, p.TypeCode)
			t := &ps.OtherLand[i]
			t.Acres += p.GrossAcres
			t.Units += p.UnitsTotal
			t.GrossRevenue += gross
			if price != 0 {
				t.PricePerUnit = price
			}
		})
	}
	return out
}

func otherLandIndex(ps *model.PhaseStatement, typeCode string) int {
	for i := range ps.OtherLand {
		if ps.OtherLand[i].TypeCode == typeCode {
			return i
		}
	}
	ps.OtherLand = append(ps.OtherLand, model.OtherLandType{TypeCode: typeCode})
	return len(ps.OtherLand) - 1
}

// MergeSchedule sets sale timing per phase. Total months to sell is
// last-first+1 when last > first, 1 when only a single positive period was
// observed, else 0.
func MergeSchedule(set PhaseSet, rows []ScheduleRow) PhaseSet {
	out := set.Clone()
	for _, r := range rows {
		out.update(r.Phase, func(ps *model.PhaseStatement) {
			ps.FirstSalePeriod = r.FirstSalePeriod
			ps.LastSalePeriod = r.LastSalePeriod
			ps.MonthsToFirstSale = r.FirstSalePeriod
			ps.TotalMonthsToSell = monthsToSell(r.FirstSalePeriod, r.LastSalePeriod)
		})
	}
	return out
}

func monthsToSell(first, last int) int {
	switch {
	case last > first:
		return last - first + 1
	case last > 0:
		return 1
	default:
		return 0
	}
}

// MergeBudget categorizes budget rows and adds their inflated amounts to the
// phase cost fields. Inflation uses the annual model at the row's mid period,
// falling back to its start period, then 0.
//
// Rows without a phase are project-level and are not attributed to any
// phase; see UnallocatedBudget.
func MergeBudget(set PhaseSet, rows []BudgetRow, annualRate float64) PhaseSet {
	out := set.Clone()
	for _, r := range rows {
		if r.Unallocated {
			continue
		}
		amount := inflation.Annual(r.Amount, annualRate, budgetPeriod(r))
		cat := Categorize(r.Activity)
		out.update(r.Phase, func(ps *model.PhaseStatement) {
			addCost(ps, cat, amount)
		})
	}
	return out
}

// UnallocatedBudget sums the nominal amount of project-level budget rows.
func UnallocatedBudget(rows []BudgetRow) float64 {
	var total float64
	for _, r := range rows {
		if r.Unallocated {
			total += r.Amount
		}
	}
	return total
}

func budgetPeriod(r BudgetRow) float64 {
	switch {
	case r.MidPeriod != nil:
		return *r.MidPeriod
	case r.StartPeriod != nil:
		return float64(*r.StartPeriod)
	default:
		return 0
	}
}

// SubdivisionInputs carries what MergeSubdivision needs besides parcels.
type SubdivisionInputs struct {
	ProjectID  int64
	Benchmarks []model.CostBenchmark
	AnnualRate float64
}

// SubdivisionCost returns the improvement-offset credit for one primary
// parcel: rate per front foot × lot width × units, stepped monthly to the
// parcel's sale period. The parcel's own rate wins over the benchmark.
// Parcels not priced per front foot contribute zero and ok is false.
func SubdivisionCost(p model.Parcel, in SubdivisionInputs) (cost float64, ok bool) {
	uom := ""
	if p.Sale != nil {
		uom = p.Sale.PriceUOM
	}
	if uom == "" {
		uom = benchmark.Resolve(in.Benchmarks, in.ProjectID, model.BenchmarkImprovementOffset, "").UOM
	}
	if !benchmark.IsFrontFoot(uom) {
		return 0, false
	}

	var rate float64
	if p.Sale != nil && p.Sale.ImprovementOffsetPerUOM != nil {
		rate = *p.Sale.ImprovementOffsetPerUOM
	} else {
		rate = benchmark.Resolve(in.Benchmarks, in.ProjectID, model.BenchmarkImprovementOffset, benchmark.UOMFrontFoot).Amount
	}

	period := 0
	if p.SalePeriod != nil {
		period = *p.SalePeriod
	}
	return inflation.MonthlyStepped(rate*p.LotWidth*float64(p.UnitsTotal), in.AnnualRate, period), true
}

// MergeSubdivision recomputes subdivision cost from front-foot primary
// parcels and overwrites the value of every phase holding such parcels.
func MergeSubdivision(set PhaseSet, primary []model.Parcel, in SubdivisionInputs) PhaseSet {
	sums := map[model.PhaseKey]float64{}
	var order []model.PhaseKey
	for _, p := range primary {
		cost, ok := SubdivisionCost(p, in)
		if !ok {
			continue
		}
		k := p.Phase()
		if _, seen := sums[k]; !seen {
			order = append(order, k)
		}
		sums[k] += cost
	}

	out := set.Clone()
	for _, k := range order {
		v := sums[k]
		out.update(k, func(ps *model.PhaseStatement) {
			ps.SubdivisionCost = v
		})
	}
	return out
}

// PricingInputs carries closing-cost parameters for MergePricing.
type PricingInputs struct {
	ClosingPerParcel float64
	AnnualRate       float64
}

// MergePricing sets primary revenue, accumulates commissions onto any
// other-land commissions already present, and computes closing costs.
//
// Closing costs inflate the per-parcel base by each parcel's sale period
// (annual model) when the rate is nonzero and the phase has recorded sale
// periods; parcels without a period are charged the base. Otherwise the
// base is charged once per priced parcel.
func MergePricing(set PhaseSet, pricing []PricingRow, periods []SalePeriodRow, in PricingInputs) PhaseSet {
	byPhase := map[model.PhaseKey][]SalePeriodRow{}
	for _, r := range periods {
		byPhase[r.Phase] = append(byPhase[r.Phase], r)
	}

	out := set.Clone()
	for _, r := range pricing {
		closing := closingCosts(r.ParcelCount, byPhase[r.Phase], in)
		out.update(r.Phase, func(ps *model.PhaseStatement) {
			ps.GrossRevenue = r.GrossRevenue
			ps.NetRevenue = r.NetRevenue
			ps.Commissions += r.Commissions
			ps.ClosingCosts = closing
		})
	}
	return out
}

func closingCosts(parcelCount int, periods []SalePeriodRow, in PricingInputs) float64 {
	base := in.ClosingPerParcel
	if base == 0 {
		return 0
	}
	if in.AnnualRate == 0 || len(periods) == 0 {
		return base * float64(parcelCount)
	}

	var total float64
	timed := 0
	for _, sp := range periods {
		total += float64(sp.ParcelCount) * inflation.Annual(base, in.AnnualRate, float64(sp.SalePeriod))
		timed += sp.ParcelCount
	}
	if rest := parcelCount - timed; rest > 0 {
		total += base * float64(rest)
	}
	return total
}
