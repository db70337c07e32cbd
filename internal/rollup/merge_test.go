package rollup

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwrite/internal/model"
)

func TestCategorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		activity string
		want     Category
	}{
		{"Land Acquisition", CategoryAcquisition},
		{"Civil ENGINEERING", CategoryPlanningEngineering},
		{"Master planning", CategoryPlanningEngineering},
		{"Site development", CategoryDevelopment},
		{"HOA operating deficit", CategoryOperations},
		{"Contingency 5%", CategoryContingency},
		{"Construction financing", CategoryFinancing},
		{"Marketing", CategoryOperations},
		{"", CategoryOperations},
		// First matching rule wins.
		{"Acquisition financing", CategoryAcquisition},
		{"Development contingency", CategoryDevelopment},
	}
	for _, tt := range tests {
		t.Run(tt.activity, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Categorize(tt.activity))
		})
	}
}

func TestMergeSteps_DoNotMutateInput(t *testing.T) {
	t.Parallel()

	set := SeedPrimary(PhaseSet{}, []PrimaryStats{{Phase: model.Phase(1), Units: 5}})
	before := set.Clone()

	_ = MergeOtherLand(set, []model.Parcel{{ID: 9, PhaseID: i64(1), TypeCode: "MF", UnitsTotal: 10}})
	_ = MergeBudget(set, []BudgetRow{{Phase: model.Phase(1), Activity: "Development", Amount: 10}}, 0)
	_ = AllocateAcquisition(set, 100, []PhaseAcres{{Phase: model.Phase(1), GrossAcres: 1}})

	assert.Equal(t, before, set)
}

func TestMergeOtherLand_SynthesizesPhase(t *testing.T) {
	t.Parallel()

	set := SeedPrimary(PhaseSet{}, []PrimaryStats{
		{Phase: model.Phase(1), GrossAcres: 10, Units: 40, FrontFeet: 2000, ParcelCount: 2},
	})
	other := []model.Parcel{
		{ID: 10, PhaseID: i64(42), TypeCode: "MF", GrossAcres: 5, UnitsTotal: 120,
			Sale: &model.SaleAssumption{GrossParcelPrice: 2_000_000, NetSaleProceeds: 1_900_000, CommissionAmount: 60_000, BasePricePerUnit: 15_000, InflatedPricePerUnit: 16_000}},
		{ID: 11, PhaseID: i64(42), TypeCode: "COM", GrossAcres: 2,
			Sale: &model.SaleAssumption{GrossParcelPrice: 500_000, NetSaleProceeds: 480_000, BasePricePerUnit: 250_000}},
		{ID: 12, PhaseID: i64(42), TypeCode: "OS"},
	}

	got := MergeOtherLand(set, other)
	require.Len(t, got, 2)

	ps, ok := got[model.Phase(42)]
	require.True(t, ok)
	assert.Equal(t, "Phase 42", ps.Label)
	require.NotNil(t, ps.PhaseID)
	assert.Equal(t, int64(42), *ps.PhaseID)
	assert.InDelta(t, 7, ps.OtherLandAcres, 1e-9)
	assert.Equal(t, 120, ps.OtherLandUnits)
	assert.InDelta(t, 2_500_000, ps.OtherLandGrossRevenue, 1e-9)
	assert.InDelta(t, 2_380_000, ps.OtherLandNetRevenue, 1e-9)
	assert.InDelta(t, 60_000, ps.Commissions, 1e-9)
	assert.Zero(t, ps.Lots)
	assert.Zero(t, ps.GrossAcres)
	assert.Zero(t, ps.FrontFeet)

	require.Len(t, ps.OtherLand, 2)
	assert.Equal(t, "MF", ps.OtherLand[0].TypeCode)
	assert.InDelta(t, 16_000, ps.OtherLand[0].PricePerUnit, 1e-9)
	assert.Equal(t, "COM", ps.OtherLand[1].TypeCode)
	assert.InDelta(t, 250_000, ps.OtherLand[1].PricePerUnit, 1e-9)
}

func TestMergeOtherLand_KeepsLatestNonZeroPrice(t *testing.T) {
	t.Parallel()

	other := []model.Parcel{
		{ID: 1, PhaseID: i64(1), TypeCode: "BTR", UnitsTotal: 10, Sale: &model.SaleAssumption{BasePricePerUnit: 100}},
		{ID: 2, PhaseID: i64(1), TypeCode: "BTR", UnitsTotal: 10, Sale: &model.SaleAssumption{BasePricePerUnit: 120}},
		{ID: 3, PhaseID: i64(1), TypeCode: "BTR", UnitsTotal: 10},
	}
	got := MergeOtherLand(PhaseSet{}, other)
	ps := got[model.Phase(1)]
	require.Len(t, ps.OtherLand, 1)
	assert.Equal(t, 30, ps.OtherLand[0].Units)
	assert.InDelta(t, 120, ps.OtherLand[0].PricePerUnit, 1e-9)
}

func TestMergeSchedule_TotalMonths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		first, last int
		want        int
	}{
		{"span", 3, 14, 12},
		{"single period", 6, 6, 1},
		{"no sale", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MergeSchedule(PhaseSet{}, []ScheduleRow{{Phase: model.Phase(1), FirstSalePeriod: tt.first, LastSalePeriod: tt.last}})
			ps := got[model.Phase(1)]
			assert.Equal(t, tt.first, ps.MonthsToFirstSale)
			assert.Equal(t, tt.want, ps.TotalMonthsToSell)
		})
	}
}

func TestMergeBudget(t *testing.T) {
	t.Parallel()

	rows := []BudgetRow{
		{Phase: model.Phase(1), Activity: "Development", Amount: 1000, MidPeriod: f64(12)},
		{Phase: model.Phase(1), Activity: "Engineering", Amount: 500, StartPeriod: intp(24)},
		{Phase: model.Phase(1), Activity: "Misc", Amount: 200},
		{Phase: model.Phase(2), Activity: "Contingency", Amount: 100, MidPeriod: f64(-6)},
		{Phase: model.Unassigned, Unallocated: true, Activity: "Financing", Amount: 999},
	}

	got := MergeBudget(PhaseSet{}, rows, 0.05)
	require.Len(t, got, 2)

	p1 := got[model.Phase(1)]
	assert.InDelta(t, 1050, p1.Development, 1e-9)
	assert.InDelta(t, 500*1.05*1.05, p1.PlanningEngineering, 1e-9)
	assert.InDelta(t, 200, p1.Operations, 1e-9)
	assert.InDelta(t, 100, got[model.Phase(2)].Contingency, 1e-9)

	_, hasUnassigned := got[model.Unassigned]
	assert.False(t, hasUnassigned, "project-level budget must not be attributed to a phase")
	assert.InDelta(t, 999, UnallocatedBudget(rows), 1e-9)
}

func TestSubdivisionCost(t *testing.T) {
	t.Parallel()

	benchmarks := []model.CostBenchmark{
		{ID: 1, Type: model.BenchmarkImprovementOffset, RatePerUOM: f64(40), UOM: "Front Foot", Active: true},
	}
	in := SubdivisionInputs{ProjectID: 1, Benchmarks: benchmarks, AnnualRate: 0.12}

	own := primaryParcel(1, i64(1), 10, 50, 1)
	own.SalePeriod = intp(12)
	own.Sale = &model.SaleAssumption{PriceUOM: "$/FF", ImprovementOffsetPerUOM: f64(50)}
	cost, ok := SubdivisionCost(own, in)
	assert.True(t, ok)
	assert.InDelta(t, 25_000*math.Pow(1.01, 12), cost, 1e-6)

	fallback := primaryParcel(2, i64(1), 10, 50, 1)
	fallback.Sale = &model.SaleAssumption{PriceUOM: "per front foot"}
	cost, ok = SubdivisionCost(fallback, in)
	assert.True(t, ok)
	assert.InDelta(t, 20_000, cost, 1e-9, "period 0 is not stepped")

	lot := primaryParcel(3, i64(1), 10, 50, 1)
	lot.Sale = &model.SaleAssumption{PriceUOM: "$/LOT", ImprovementOffsetPerUOM: f64(50)}
	cost, ok = SubdivisionCost(lot, in)
	assert.False(t, ok)
	assert.Zero(t, cost)

	// No parcel unit: the benchmark's unit decides.
	bare := primaryParcel(4, i64(1), 2, 30, 1)
	cost, ok = SubdivisionCost(bare, in)
	assert.True(t, ok)
	assert.InDelta(t, 2_400, cost, 1e-9)
}

func TestMergeSubdivision_Overwrites(t *testing.T) {
	t.Parallel()

	set := PhaseSet{
		model.Phase(1): {Key: model.Phase(1), SubdivisionCost: 99_999},
		model.Phase(2): {Key: model.Phase(2), SubdivisionCost: 55},
	}
	p := primaryParcel(1, i64(1), 10, 50, 1)
	p.Sale = &model.SaleAssumption{PriceUOM: "FF", ImprovementOffsetPerUOM: f64(10)}
	lot := primaryParcel(2, i64(2), 10, 50, 1)
	lot.Sale = &model.SaleAssumption{PriceUOM: "LOT", ImprovementOffsetPerUOM: f64(10)}
	synth := primaryParcel(3, i64(7), 1, 20, 1)
	synth.Sale = &model.SaleAssumption{PriceUOM: "FF", ImprovementOffsetPerUOM: f64(10)}

	got := MergeSubdivision(set, []model.Parcel{p, lot, synth}, SubdivisionInputs{ProjectID: 1})
	assert.InDelta(t, 5_000, got[model.Phase(1)].SubdivisionCost, 1e-9)
	assert.InDelta(t, 55, got[model.Phase(2)].SubdivisionCost, 1e-9)
	assert.InDelta(t, 200, got[model.Phase(7)].SubdivisionCost, 1e-9)
}

func TestMergePricing(t *testing.T) {
	t.Parallel()

	set := PhaseSet{model.Phase(1): {Key: model.Phase(1), Commissions: 1_000}}
	pricing := []PricingRow{{Phase: model.Phase(1), GrossRevenue: 500, NetRevenue: 450, Commissions: 25, ParcelCount: 3}}

	t.Run("flat when rate is zero", func(t *testing.T) {
		t.Parallel()
		periods := []SalePeriodRow{{Phase: model.Phase(1), SalePeriod: 12, ParcelCount: 3}}
		got := MergePricing(set, pricing, periods, PricingInputs{ClosingPerParcel: 1_750})
		ps := got[model.Phase(1)]
		assert.InDelta(t, 500, ps.GrossRevenue, 1e-9)
		assert.InDelta(t, 450, ps.NetRevenue, 1e-9)
		assert.InDelta(t, 1_025, ps.Commissions, 1e-9)
		assert.InDelta(t, 5_250, ps.ClosingCosts, 1e-9)
	})

	t.Run("inflated by sale period", func(t *testing.T) {
		t.Parallel()
		periods := []SalePeriodRow{{Phase: model.Phase(1), SalePeriod: 12, ParcelCount: 2}}
		got := MergePricing(set, pricing, periods, PricingInputs{ClosingPerParcel: 1_000, AnnualRate: 0.1})
		// Two parcels at month 12, one without a period at base.
		assert.InDelta(t, 2*1_100+1_000, got[model.Phase(1)].ClosingCosts, 1e-9)
	})

	t.Run("flat when phase has no periods", func(t *testing.T) {
		t.Parallel()
		got := MergePricing(set, pricing, nil, PricingInputs{ClosingPerParcel: 1_000, AnnualRate: 0.1})
		assert.InDelta(t, 3_000, got[model.Phase(1)].ClosingCosts, 1e-9)
	})
}

func TestAllocateAcquisition(t *testing.T) {
	t.Parallel()

	set := PhaseSet{
		model.Phase(1): {Key: model.Phase(1), Acquisition: 123_456},
		model.Phase(2): {Key: model.Phase(2)},
	}
	acres := []PhaseAcres{
		{Phase: model.Phase(1), GrossAcres: 30},
		{Phase: model.Phase(2), GrossAcres: 70},
	}

	got := AllocateAcquisition(set, 1_000_000, acres)
	assert.InDelta(t, 300_000, got[model.Phase(1)].Acquisition, 1e-6)
	assert.InDelta(t, 700_000, got[model.Phase(2)].Acquisition, 1e-6)
}

func TestAllocateAcquisition_PhasesWithoutAcresGetZero(t *testing.T) {
	t.Parallel()

	set := PhaseSet{
		model.Phase(1):   {Key: model.Phase(1)},
		model.Phase(3):   {Key: model.Phase(3), Acquisition: 250_000},
		model.Unassigned: {Key: model.Unassigned, Acquisition: 10},
	}
	acres := []PhaseAcres{
		{Phase: model.Phase(1), GrossAcres: 30},
		{Phase: model.Phase(2), GrossAcres: 70},
	}

	got := AllocateAcquisition(set, 1_000_000, acres)
	assert.InDelta(t, 300_000, got[model.Phase(1)].Acquisition, 1e-6)
	assert.InDelta(t, 700_000, got[model.Phase(2)].Acquisition, 1e-6)
	assert.Zero(t, got[model.Phase(3)].Acquisition)
	assert.Zero(t, got[model.Unassigned].Acquisition)
}

func TestAllocateAcquisition_ZeroLeavesPriorValues(t *testing.T) {
	t.Parallel()

	set := PhaseSet{model.Phase(1): {Key: model.Phase(1), Acquisition: 42}}

	got := AllocateAcquisition(set, 0, []PhaseAcres{{Phase: model.Phase(1), GrossAcres: 10}})
	assert.InDelta(t, 42, got[model.Phase(1)].Acquisition, 1e-9)

	got = AllocateAcquisition(set, 1_000, []PhaseAcres{{Phase: model.Phase(1)}, {Phase: model.Phase(3)}})
	assert.InDelta(t, 42, got[model.Phase(1)].Acquisition, 1e-9)
	_, ok := got[model.Phase(3)]
	assert.True(t, ok, "phase from acres list is still represented")
}
