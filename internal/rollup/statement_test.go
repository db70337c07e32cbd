package rollup

import (
	"encoding/json"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwrite/internal/model"
)

func TestFinalize_ZeroDivisionGuards(t *testing.T) {
	t.Parallel()

	ps := Finalize(model.PhaseStatement{
		GrossRevenue:   1_000,
		Development:    500,
		OtherLandUnits: 0,
	})
	assert.Zero(t, ps.GrossRevenuePerLot)
	assert.Zero(t, ps.PricePerFrontFoot)
	assert.Zero(t, ps.CostPerLot)
	assert.Zero(t, ps.ProfitMargin, "zero net revenue")
	assert.InDelta(t, -500, ps.GrossProfit, 1e-9)

	for _, v := range []float64{ps.GrossRevenuePerLot, ps.PricePerFrontFoot, ps.CostPerLot, ps.ProfitMargin} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestFinalize_Formulas(t *testing.T) {
	t.Parallel()

	ps := Finalize(model.PhaseStatement{
		Lots:                  10,
		FrontFeet:             500,
		OtherLandUnits:        10,
		GrossRevenue:          1_000_000,
		NetRevenue:            900_000,
		OtherLandGrossRevenue: 200_000,
		OtherLandNetRevenue:   100_000,
		SubdivisionCost:       50_000,
		Commissions:           30_000,
		ClosingCosts:          5_000,
		Acquisition:           100_000,
		PlanningEngineering:   20_000,
		Development:           300_000,
		Operations:            10_000,
		Contingency:           15_000,
		Financing:             55_000,
	})

	assert.InDelta(t, 1_200_000, ps.TotalGrossRevenue, 1e-9)
	assert.InDelta(t, 1_150_000, ps.GrossSaleProceeds, 1e-9)
	assert.InDelta(t, 1_000_000, ps.TotalNetRevenue, 1e-9)
	assert.InDelta(t, 500_000, ps.TotalCosts, 1e-9, "subdivision, commissions and closing are excluded")
	assert.InDelta(t, 25_000, ps.CostPerLot, 1e-9)
	assert.InDelta(t, 500_000, ps.GrossProfit, 1e-9)
	assert.InDelta(t, 0.5, ps.ProfitMargin, 1e-12)
	assert.InDelta(t, 2_000, ps.PricePerFrontFoot, 1e-9)
	assert.InDelta(t, 100_000, ps.GrossRevenuePerLot, 1e-9)
}

func TestTotal_RatiosAreRederived(t *testing.T) {
	t.Parallel()

	phases := []model.PhaseStatement{
		Finalize(model.PhaseStatement{Lots: 10, Development: 100_000, GrossRevenue: 1_000_000, NetRevenue: 800_000, FrontFeet: 500}),
		Finalize(model.PhaseStatement{Lots: 30, Development: 900_000, GrossRevenue: 2_000_000, NetRevenue: 1_900_000, FrontFeet: 1_500}),
	}
	total := Total(phases)

	assert.Equal(t, model.TotalLabel, total.Label)
	assert.Nil(t, total.PhaseID)
	assert.Equal(t, 40, total.Lots)
	assert.InDelta(t, 1_000_000, total.TotalCosts, 1e-9)
	assert.InDelta(t, total.TotalCosts/float64(total.Lots+total.OtherLandUnits), total.CostPerLot, 1e-9)
	assert.InDelta(t, 25_000, total.CostPerLot, 1e-9)

	sum := phases[0].CostPerLot + phases[1].CostPerLot
	assert.NotEqual(t, sum, total.CostPerLot)
	assert.NotEqual(t, sum/2, total.CostPerLot)

	assert.InDelta(t, 3_000_000.0/40, total.GrossRevenuePerLot, 1e-9)
	assert.InDelta(t, 1_500, total.PricePerFrontFoot, 1e-9)
	assert.InDelta(t, 1_700_000.0/2_700_000, total.ProfitMargin, 1e-12)
}

func TestTotal_Schedule(t *testing.T) {
	t.Parallel()

	phases := []model.PhaseStatement{
		{FirstSalePeriod: 3, LastSalePeriod: 8, MonthsToFirstSale: 3, TotalMonthsToSell: 6},
		{FirstSalePeriod: 10, LastSalePeriod: 10, MonthsToFirstSale: 10, TotalMonthsToSell: 1},
		{},
	}
	total := Total(phases)
	assert.Equal(t, 3, total.MonthsToFirstSale)
	assert.Equal(t, 8, total.TotalMonthsToSell)

	none := Total([]model.PhaseStatement{{}, {}})
	assert.Zero(t, none.MonthsToFirstSale)
	assert.Zero(t, none.TotalMonthsToSell)

	empty := Total(nil)
	assert.Zero(t, empty.MonthsToFirstSale)
	assert.Zero(t, empty.CostPerLot)
}

func TestTotal_OtherLandBreakdown(t *testing.T) {
	t.Parallel()

	phases := []model.PhaseStatement{
		{OtherLand: []model.OtherLandType{{TypeCode: "MF", Units: 100, GrossRevenue: 1_000_000, PricePerUnit: 9_000}}},
		{OtherLand: []model.OtherLandType{
			{TypeCode: "COM", Acres: 3, GrossRevenue: 600_000},
			{TypeCode: "MF", Units: 100, GrossRevenue: 1_400_000, PricePerUnit: 15_000},
		}},
	}
	total := Total(phases)
	require.Len(t, total.OtherLand, 2)
	assert.Equal(t, "COM", total.OtherLand[0].TypeCode)
	assert.Zero(t, total.OtherLand[0].PricePerUnit)
	assert.Equal(t, "MF", total.OtherLand[1].TypeCode)
	assert.Equal(t, 200, total.OtherLand[1].Units)
	assert.InDelta(t, 12_000, total.OtherLand[1].PricePerUnit, 1e-9)
}

// endToEndSnapshot is a single phase with 20 primary lots over 2,000 front
// feet, $5.0M gross and $4.5M net revenue, and $1.1M of budget.
func endToEndSnapshot() Snapshot {
	return Snapshot{
		Project: model.Project{ID: 1, Name: "Creekside"},
		Parcels: []model.Parcel{
			withPeriod(withSale(primaryParcel(1, i64(1), 10, 100, 5), 2_500_000, 2_250_000, 0), 6),
			withPeriod(withSale(primaryParcel(2, i64(1), 10, 100, 5), 2_500_000, 2_250_000, 0), 12),
		},
		Budget: []model.BudgetLineItem{
			{ID: 1, ProjectID: 1, PhaseID: i64(1), Activity: "Development", Amount: 1_000_000, StartPeriod: intp(0), PeriodsToComplete: intp(12)},
			{ID: 2, ProjectID: 1, PhaseID: i64(1), Activity: "Contingency", Amount: 100_000},
		},
	}
}

func TestBuild_EndToEnd(t *testing.T) {
	t.Parallel()

	report := Build(endToEndSnapshot(), defaultOpts)
	require.Len(t, report.Phases, 1)

	ps := report.Phases[0]
	assert.Equal(t, "Phase 1", ps.Label)
	assert.Equal(t, 20, ps.Lots)
	assert.InDelta(t, 2_000, ps.FrontFeet, 1e-9)
	assert.InDelta(t, 5_000_000, ps.GrossRevenue, 1e-9)
	assert.InDelta(t, 4_500_000, ps.NetRevenue, 1e-9)
	assert.Zero(t, ps.SubdivisionCost)
	assert.Zero(t, ps.Acquisition)
	assert.InDelta(t, 1_100_000, ps.TotalCosts, 1e-9)
	assert.InDelta(t, 55_000, ps.CostPerLot, 1e-9)
	assert.InDelta(t, 3_400_000, ps.GrossProfit, 1e-9)
	assert.InDelta(t, 0.7556, ps.ProfitMargin, 1e-4)
	assert.Equal(t, 6, ps.MonthsToFirstSale)
	assert.Equal(t, 7, ps.TotalMonthsToSell)

	assert.InDelta(t, 55_000, report.Total.CostPerLot, 1e-9)
	assert.InDelta(t, 3_400_000, report.Total.GrossProfit, 1e-9)
	assert.Equal(t, 1, report.Metadata.PhaseCount)
	assert.Equal(t, 20, report.Metadata.TotalLots)
	assert.InDelta(t, 10, report.Metadata.TotalAcres, 1e-9)
	assert.Zero(t, report.Metadata.InflationRate)
}

func TestBuild_PhaseSynthesisCompleteness(t *testing.T) {
	t.Parallel()

	snap := endToEndSnapshot()
	snap.Parcels = append(snap.Parcels,
		model.Parcel{ID: 50, ProjectID: 1, PhaseID: i64(42), TypeCode: "MF", GrossAcres: 8, UnitsTotal: 200,
			Sale: &model.SaleAssumption{GrossParcelPrice: 3_000_000, NetSaleProceeds: 2_850_000, CommissionAmount: 90_000}},
		model.Parcel{ID: 51, ProjectID: 1, TypeCode: "SFD", UnitsTotal: 2, LotWidth: 40, GrossAcres: 1},
	)

	report := Build(snap, defaultOpts)
	require.Len(t, report.Phases, 3)

	keys := make([]string, len(report.Phases))
	for i, ps := range report.Phases {
		keys[i] = ps.Key.String()
	}
	assert.Equal(t, []string{"1", "42", "Unassigned"}, keys)

	p42 := report.Phases[1]
	assert.InDelta(t, 8, p42.OtherLandAcres, 1e-9)
	assert.Equal(t, 200, p42.OtherLandUnits)
	assert.InDelta(t, 3_000_000, p42.OtherLandGrossRevenue, 1e-9)
	assert.InDelta(t, 2_850_000, p42.OtherLandNetRevenue, 1e-9)
	assert.InDelta(t, 90_000, p42.Commissions, 1e-9)
	assert.Zero(t, p42.Lots)
	assert.Zero(t, p42.GrossAcres)
	assert.Zero(t, p42.GrossRevenue)
	assert.Zero(t, p42.GrossRevenuePerLot)
	assert.InDelta(t, 1, p42.ProfitMargin, 1e-12)

	assert.Nil(t, report.Phases[2].PhaseID)
	assert.Equal(t, "Unassigned", report.Phases[2].Label)
	assert.Equal(t, 22, report.Total.Lots)
	assert.Equal(t, 3, report.Metadata.PhaseCount)
}

func TestBuild_AcquisitionReplacesBudget(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project: model.Project{ID: 1},
		Parcels: []model.Parcel{
			primaryParcel(1, i64(1), 10, 50, 30),
			{ID: 2, ProjectID: 1, PhaseID: i64(2), TypeCode: "COM", GrossAcres: 70},
		},
		Budget: []model.BudgetLineItem{
			{ID: 1, PhaseID: i64(1), Activity: "Land acquisition", Amount: 555_555},
		},
		AcquisitionTotal: 1_000_000,
	}

	report := Build(snap, defaultOpts)
	require.Len(t, report.Phases, 2)
	assert.InDelta(t, 300_000, report.Phases[0].Acquisition, 1e-6)
	assert.InDelta(t, 700_000, report.Phases[1].Acquisition, 1e-6)
	assert.InDelta(t, 1_000_000, report.Total.Acquisition, 1e-6)
}

func TestBuild_AcquisitionReplacesBudgetOnlyPhases(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project: model.Project{ID: 1},
		Parcels: []model.Parcel{
			primaryParcel(1, i64(1), 10, 50, 30),
			primaryParcel(2, i64(2), 10, 50, 70),
		},
		Budget: []model.BudgetLineItem{
			{ID: 1, PhaseID: i64(3), Activity: "Land acquisition", Amount: 250_000},
		},
		AcquisitionTotal: 1_000_000,
	}

	report := Build(snap, defaultOpts)
	require.Len(t, report.Phases, 3)
	assert.InDelta(t, 300_000, report.Phases[0].Acquisition, 1e-6)
	assert.InDelta(t, 700_000, report.Phases[1].Acquisition, 1e-6)
	assert.Zero(t, report.Phases[2].Acquisition)
	assert.InDelta(t, 1_000_000, report.Total.Acquisition, 1e-6)
}

func TestBuild_NonPositiveSalePeriodsIgnoredInSchedule(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Project: model.Project{ID: 1},
		Parcels: []model.Parcel{
			withPeriod(primaryParcel(1, i64(1), 10, 50, 5), 0),
			withPeriod(primaryParcel(2, i64(1), 10, 50, 5), 5),
		},
	}

	report := Build(snap, defaultOpts)
	require.Len(t, report.Phases, 1)
	ps := report.Phases[0]
	assert.Equal(t, ps.MonthsToFirstSale, report.Total.MonthsToFirstSale)
	assert.Equal(t, ps.TotalMonthsToSell, report.Total.TotalMonthsToSell)
	assert.Equal(t, 5, report.Total.MonthsToFirstSale)
	assert.Equal(t, 1, report.Total.TotalMonthsToSell)
}

func TestBuild_InflatesBudgetAndClosing(t *testing.T) {
	t.Parallel()

	snap := endToEndSnapshot()
	snap.Schedule = model.GrowthRateSchedule{{StepNumber: 2, Rate: 0.5}, {StepNumber: 1, Rate: 0.1}}
	snap.Benchmarks = []model.CostBenchmark{
		{ID: 1, Type: model.BenchmarkClosing, FixedAmount: f64(1_000), Active: true},
	}

	report := Build(snap, defaultOpts)
	ps := report.Phases[0]
	// Development mid period 6.
	assert.InDelta(t, 1_000_000*math.Pow(1.1, 0.5), ps.Development, 1e-6)
	assert.InDelta(t, 100_000, ps.Contingency, 1e-9)
	assert.InDelta(t, 1_000*math.Pow(1.1, 0.5)+1_000*1.1, ps.ClosingCosts, 1e-6)
	assert.InDelta(t, 0.1, report.Metadata.InflationRate, 1e-12)
}

func TestBuild_UnallocatedBudgetExcluded(t *testing.T) {
	t.Parallel()

	snap := endToEndSnapshot()
	snap.Budget = append(snap.Budget, model.BudgetLineItem{ID: 3, ProjectID: 1, Activity: "Financing", Amount: 250_000})

	report := Build(snap, defaultOpts)
	require.Len(t, report.Phases, 1)
	assert.Zero(t, report.Total.Financing)
	assert.InDelta(t, 1_100_000, report.Total.TotalCosts, 1e-9)
	assert.InDelta(t, 250_000, report.Metadata.UnallocatedBudget, 1e-9)
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()

	snap := endToEndSnapshot()
	snap.Schedule = model.GrowthRateSchedule{{StepNumber: 1, Rate: 0.04}}
	snap.Parcels = append(snap.Parcels,
		model.Parcel{ID: 60, PhaseID: i64(3), TypeCode: "BTR", UnitsTotal: 40, GrossAcres: 6,
			Sale: &model.SaleAssumption{GrossParcelPrice: 900_000, NetSaleProceeds: 870_000, BasePricePerUnit: 22_500}},
		model.Parcel{ID: 61, PhaseID: i64(3), TypeCode: "COM", GrossAcres: 2.5},
	)
	snap.AcquisitionTotal = 750_000

	marshal := func(r *model.Report) []byte {
		b, err := json.Marshal(struct {
			Total  model.PhaseStatement
			Phases []model.PhaseStatement
		}{r.Total, r.Phases})
		require.NoError(t, err)
		return b
	}

	first := marshal(Build(snap, defaultOpts))
	second := marshal(Build(snap, defaultOpts))
	assert.Equal(t, first, second)

	reordered := snap
	reordered.Parcels = slices.Clone(snap.Parcels)
	slices.Reverse(reordered.Parcels)
	reordered.Budget = slices.Clone(snap.Budget)
	slices.Reverse(reordered.Budget)
	assert.Equal(t, first, marshal(Build(reordered, defaultOpts)))
}
