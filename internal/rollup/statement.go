package rollup

import (
	"slices"
	"sort"

	"github.com/sells-group/underwrite/internal/benchmark"
	"github.com/sells-group/underwrite/internal/model"
)

// Options controls how a snapshot is rolled up.
type Options struct {
	// PrimaryTypeCodes are the parcel type codes that produce platted lots.
	PrimaryTypeCodes []string
}

// Finalize derives combined totals and ratio fields of a phase statement
// from its raw quantities. Subdivision cost, commissions and closing costs
// reduce revenue and are not part of TotalCosts.
func Finalize(ps model.PhaseStatement) model.PhaseStatement {
	ps.TotalGrossRevenue = ps.GrossRevenue + ps.OtherLandGrossRevenue
	ps.GrossSaleProceeds = ps.TotalGrossRevenue - ps.SubdivisionCost
	ps.TotalNetRevenue = ps.NetRevenue + ps.OtherLandNetRevenue
	ps.TotalCosts = ps.Acquisition + ps.PlanningEngineering + ps.Development +
		ps.Operations + ps.Contingency + ps.Financing

	ps.PricePerFrontFoot = safeDiv(ps.GrossRevenue, ps.FrontFeet)
	ps.GrossRevenuePerLot = safeDiv(ps.GrossRevenue, float64(ps.Lots))
	ps.CostPerLot = safeDiv(ps.TotalCosts, float64(ps.Lots+ps.OtherLandUnits))
	ps.GrossProfit = ps.TotalNetRevenue - ps.TotalCosts
	ps.ProfitMargin = safeDiv(ps.GrossProfit, ps.TotalNetRevenue)

	if len(ps.OtherLand) > 1 {
		sort.SliceStable(ps.OtherLand, func(i, j int) bool {
			return ps.OtherLand[i].TypeCode < ps.OtherLand[j].TypeCode
		})
	}
	return ps
}

// Total sums the additive fields of phases and re-derives every ratio from
// the sums. Months to first sale is the earliest positive first sale; total
// months to sell runs from there to the latest phase end. Both are zero when
// no phase has a sale.
func Total(phases []model.PhaseStatement) model.PhaseStatement {
	t := model.PhaseStatement{Label: model.TotalLabel}
	byType := map[string]*model.OtherLandType{}
	var types []string

	minFirst, maxEnd := 0, 0
	for _, ps := range phases {
		t.GrossAcres += ps.GrossAcres
		t.Lots += ps.Lots
		t.FrontFeet += ps.FrontFeet
		t.ParcelCount += ps.ParcelCount
		t.OtherLandAcres += ps.OtherLandAcres
		t.OtherLandUnits += ps.OtherLandUnits

		t.GrossRevenue += ps.GrossRevenue
		t.NetRevenue += ps.NetRevenue
		t.OtherLandGrossRevenue += ps.OtherLandGrossRevenue
		t.OtherLandNetRevenue += ps.OtherLandNetRevenue

		t.Acquisition += ps.Acquisition
		t.PlanningEngineering += ps.PlanningEngineering
		t.Development += ps.Development
		t.Operations += ps.Operations
		t.Contingency += ps.Contingency
		t.Financing += ps.Financing
		t.SubdivisionCost += ps.SubdivisionCost
		t.Commissions += ps.Commissions
		t.ClosingCosts += ps.ClosingCosts

		if ps.FirstSalePeriod > 0 {
			if minFirst == 0 || ps.FirstSalePeriod < minFirst {
				minFirst = ps.FirstSalePeriod
			}
			maxEnd = max(maxEnd, ps.FirstSalePeriod+ps.TotalMonthsToSell)
		}
		if ps.LastSalePeriod > t.LastSalePeriod {
			t.LastSalePeriod = ps.LastSalePeriod
		}

		for _, ol := range ps.OtherLand {
			agg, ok := byType[ol.TypeCode]
			if !ok {
				agg = &model.OtherLandType{TypeCode: ol.TypeCode}
				byType[ol.TypeCode] = agg
				types = append(types, ol.TypeCode)
			}
			agg.Acres += ol.Acres
			agg.Units += ol.Units
			agg.GrossRevenue += ol.GrossRevenue
		}
	}

	if minFirst > 0 {
		t.FirstSalePeriod = minFirst
		t.MonthsToFirstSale = minFirst
		t.TotalMonthsToSell = max(maxEnd-minFirst, 0)
	}

	sort.Strings(types)
	for _, code := range types {
		agg := byType[code]
		agg.PricePerUnit = safeDiv(agg.GrossRevenue, float64(agg.Units))
		t.OtherLand = append(t.OtherLand, *agg)
	}
	return Finalize(t)
}

// Build runs every merge step over snap and assembles the report. It is a
// pure function of its inputs; run id, timestamps and duration are left for
// the caller to stamp.
func Build(snap Snapshot, opts Options) *model.Report {
	rate := snap.Schedule.CurrentRate()
	pid := snap.Project.ID
	parcels := slices.Clone(snap.Parcels)
	sort.SliceStable(parcels, func(i, j int) bool { return parcels[i].ID < parcels[j].ID })
	primary, other := SplitParcels(parcels, NewTypeSet(opts.PrimaryTypeCodes))
	budget := GroupBudget(snap.Budget)

	set := SeedPrimary(PhaseSet{}, GroupPrimary(primary))
	set = MergeOtherLand(set, other)
	set = MergeSchedule(set, GroupSchedule(parcels))
	set = MergeBudget(set, budget, rate)
	set = MergeSubdivision(set, primary, SubdivisionInputs{
		ProjectID:  pid,
		Benchmarks: snap.Benchmarks,
		AnnualRate: rate,
	})
	set = MergePricing(set, GroupPricing(primary), GroupSalePeriods(primary), PricingInputs{
		ClosingPerParcel: benchmark.ClosingCostPerParcel(snap.Benchmarks, pid),
		AnnualRate:       rate,
	})
	set = AllocateAcquisition(set, snap.AcquisitionTotal, GroupPhaseAcres(parcels))

	keys := set.Keys()
	phases := make([]model.PhaseStatement, 0, len(keys))
	for _, k := range keys {
		phases = append(phases, Finalize(set[k]))
	}
	total := Total(phases)

	return &model.Report{
		Project: snap.Project,
		Total:   total,
		Phases:  phases,
		Metadata: model.ReportMetadata{
			PhaseCount:        len(phases),
			TotalLots:         total.Lots,
			TotalAcres:        total.GrossAcres + total.OtherLandAcres,
			InflationRate:     rate,
			UnallocatedBudget: UnallocatedBudget(budget),
		},
	}
}
