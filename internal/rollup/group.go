package rollup

import (
	"sort"
	"strings"

	"github.com/sells-group/underwrite/internal/model"
)

// PrimaryStats is the per-phase SUM/COUNT of primary-unit parcels.
type PrimaryStats struct {
	Phase       model.PhaseKey
	GrossAcres  float64
	Units       int
	FrontFeet   float64
	ParcelCount int
}

// PricingRow is the per-phase revenue of primary-unit parcels with a sale
// assumption.
type PricingRow struct {
	Phase        model.PhaseKey
	GrossRevenue float64
	NetRevenue   float64
	Commissions  float64
	ParcelCount  int
}

// SalePeriodRow counts priced primary parcels selling in one period.
type SalePeriodRow struct {
	Phase       model.PhaseKey
	SalePeriod  int
	ParcelCount int
}

// ScheduleRow is the first and last sale period observed in a phase.
type ScheduleRow struct {
	Phase           model.PhaseKey
	FirstSalePeriod int
	LastSalePeriod  int
}

// BudgetRow is the budget for one phase and activity label. MidPeriod is the
// dollar-weighted midpoint of the grouped items.
type BudgetRow struct {
	Phase       model.PhaseKey
	Unallocated bool // no phase reference at all; project-level cost
	Activity    string
	Amount      float64
	StartPeriod *int
	MidPeriod   *float64
}

// PhaseAcres is the gross acreage of every parcel in a phase.
type PhaseAcres struct {
	Phase      model.PhaseKey
	GrossAcres float64
}

// TypeSet is a case-insensitive set of primary-unit type codes.
type TypeSet map[string]bool

// NewTypeSet builds a TypeSet from codes such as "SFD", "SFA".
func NewTypeSet(codes []string) TypeSet {
	s := make(TypeSet, len(codes))
	for _, c := range codes {
		s[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	return s
}

// Contains reports whether code is a primary-unit type.
func (s TypeSet) Contains(code string) bool {
	return s[strings.ToUpper(strings.TrimSpace(code))]
}

// SplitParcels separates primary-unit parcels from other-land parcels,
// preserving order by parcel id.
func SplitParcels(parcels []model.Parcel, primary TypeSet) (prim, other []model.Parcel) {
	sorted := append([]model.Parcel(nil), parcels...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, p := range sorted {
		if primary.Contains(p.TypeCode) {
			prim = append(prim, p)
		} else {
			other = append(other, p)
		}
	}
	return prim, other
}

// GroupPrimary sums acres, units and front feet and counts distinct parcels
// per phase.
func GroupPrimary(parcels []model.Parcel) []PrimaryStats {
	idx := map[model.PhaseKey]*PrimaryStats{}
	seen := map[model.PhaseKey]map[int64]bool{}
	for _, p := range parcels {
		k := p.Phase()
		st, ok := idx[k]
		if !ok {
			st = &PrimaryStats{Phase: k}
			idx[k] = st
			seen[k] = map[int64]bool{}
		}
		st.GrossAcres += p.GrossAcres
		st.Units += p.UnitsTotal
		st.FrontFeet += p.FrontFeet()
		if !seen[k][p.ID] {
			seen[k][p.ID] = true
			st.ParcelCount++
		}
	}
	out := make([]PrimaryStats, 0, len(idx))
	for _, st := range idx {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phase.Less(out[j].Phase) })
	return out
}

// GroupPricing sums sale assumptions of primary parcels per phase.
func GroupPricing(parcels []model.Parcel) []PricingRow {
	idx := map[model.PhaseKey]*PricingRow{}
	for _, p := range parcels {
		if p.Sale == nil {
			continue
		}
		k := p.Phase()
		row, ok := idx[k]
		if !ok {
			row = &PricingRow{Phase: k}
			idx[k] = row
		}
		row.GrossRevenue += p.Sale.GrossParcelPrice
		row.NetRevenue += p.Sale.NetSaleProceeds
		row.Commissions += p.Sale.CommissionAmount
		row.ParcelCount++
	}
	out := make([]PricingRow, 0, len(idx))
	for _, r := range idx {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phase.Less(out[j].Phase) })
	return out
}

// GroupSalePeriods counts priced primary parcels by phase and sale period.
// Parcels without a sale period are omitted.
func GroupSalePeriods(parcels []model.Parcel) []SalePeriodRow {
	type key struct {
		phase  model.PhaseKey
		period int
	}
	counts := map[key]int{}
	for _, p := range parcels {
		if p.Sale == nil || p.SalePeriod == nil {
			continue
		}
		counts[key{p.Phase(), *p.SalePeriod}]++
	}
	out := make([]SalePeriodRow, 0, len(counts))
	for k, n := range counts {
		out = append(out, SalePeriodRow{Phase: k.phase, SalePeriod: k.period, ParcelCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Phase != out[j].Phase {
			return out[i].Phase.Less(out[j].Phase)
		}
		return out[i].SalePeriod < out[j].SalePeriod
	})
	return out
}

// GroupSchedule finds the first and last positive sale period of every phase
// across all parcels.
func GroupSchedule(parcels []model.Parcel) []ScheduleRow {
	idx := map[model.PhaseKey]*ScheduleRow{}
	for _, p := range parcels {
		if p.SalePeriod == nil || *p.SalePeriod <= 0 {
			continue
		}
		sp := *p.SalePeriod
		k := p.Phase()
		row, ok := idx[k]
		if !ok {
			idx[k] = &ScheduleRow{Phase: k, FirstSalePeriod: sp, LastSalePeriod: sp}
			continue
		}
		row.FirstSalePeriod = min(row.FirstSalePeriod, sp)
		row.LastSalePeriod = max(row.LastSalePeriod, sp)
	}
	out := make([]ScheduleRow, 0, len(idx))
	for _, r := range idx {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phase.Less(out[j].Phase) })
	return out
}

// GroupBudget groups budget items by phase and activity label (case and
// surrounding whitespace ignored). Each item's timing point is
// start + duration/2; the row's MidPeriod weights those points by amount.
func GroupBudget(items []model.BudgetLineItem) []BudgetRow {
	type key struct {
		phase       model.PhaseKey
		unallocated bool
		activity    string
	}
	type acc struct {
		row        BudgetRow
		weighted   float64
		weight     float64
		plainSum   float64
		plainCount int
	}

	sorted := append([]model.BudgetLineItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	idx := map[key]*acc{}
	var order []key
	for _, it := range sorted {
		k := key{
			phase:       model.PhaseOf(it.PhaseID),
			unallocated: it.PhaseID == nil,
			activity:    strings.ToLower(strings.TrimSpace(it.Activity)),
		}
		a, ok := idx[k]
		if !ok {
			a = &acc{row: BudgetRow{Phase: k.phase, Unallocated: k.unallocated, Activity: strings.TrimSpace(it.Activity)}}
			idx[k] = a
			order = append(order, k)
		}
		a.row.Amount += it.Amount
		if it.StartPeriod == nil {
			continue
		}
		start := *it.StartPeriod
		if a.row.StartPeriod == nil || start < *a.row.StartPeriod {
			s := start
			a.row.StartPeriod = &s
		}
		mid := float64(start)
		if it.PeriodsToComplete != nil {
			mid += float64(*it.PeriodsToComplete) / 2
		}
		a.weighted += it.Amount * mid
		a.weight += it.Amount
		a.plainSum += mid
		a.plainCount++
	}

	out := make([]BudgetRow, 0, len(order))
	for _, k := range order {
		a := idx[k]
		switch {
		case a.weight != 0:
			m := finite(a.weighted / a.weight)
			a.row.MidPeriod = &m
		case a.plainCount > 0:
			m := a.plainSum / float64(a.plainCount)
			a.row.MidPeriod = &m
		}
		out = append(out, a.row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Unallocated != out[j].Unallocated {
			return !out[i].Unallocated
		}
		if out[i].Phase != out[j].Phase {
			return out[i].Phase.Less(out[j].Phase)
		}
		return strings.ToLower(out[i].Activity) < strings.ToLower(out[j].Activity)
	})
	return out
}

// GroupPhaseAcres sums gross acres of all parcels per phase, including
// phases with no primary units.
func GroupPhaseAcres(parcels []model.Parcel) []PhaseAcres {
	idx := map[model.PhaseKey]float64{}
	for _, p := range parcels {
		idx[p.Phase()] += p.GrossAcres
	}
	out := make([]PhaseAcres, 0, len(idx))
	for k, a := range idx {
		out = append(out, PhaseAcres{Phase: k, GrossAcres: a})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phase.Less(out[j].Phase) })
	return out
}
