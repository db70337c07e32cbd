package store

import (
	"time"

	"github.com/sells-group/underwrite/internal/db"
	"github.com/sells-group/underwrite/internal/model"
)

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type rowIter interface {
	rowScanner
	Next() bool
	Err() error
}

func collect[T any](rows rowIter, scan func(rowScanner) (T, error)) ([]T, error) {
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanStep(sc rowScanner) (model.GrowthRateStep, error) {
	var st model.GrowthRateStep
	err := sc.Scan(&st.StepNumber, &st.Rate)
	return st, err
}

func scanParcel(sc rowScanner) (model.Parcel, error) {
	var (
		p                           model.Parcel
		saleParcelID                *int64
		gross, commission, net      *float64
		uom                         *string
		offset, basePrice, inflated *float64
	)
	err := sc.Scan(
		&p.ID, &p.ProjectID, &p.PhaseID, &p.TypeCode, &p.GrossAcres, &p.UnitsTotal,
		&p.LotWidth, &p.SalePeriod, &p.ProductCode,
		&saleParcelID, &gross, &commission, &net, &uom, &offset, &basePrice, &inflated,
	)
	if err != nil {
		return p, err
	}
	if saleParcelID != nil {
		p.Sale = &model.SaleAssumption{
			GrossParcelPrice:        deref(gross),
			CommissionAmount:        deref(commission),
			NetSaleProceeds:         deref(net),
			PriceUOM:                deref(uom),
			ImprovementOffsetPerUOM: offset,
			BasePricePerUnit:        deref(basePrice),
			InflatedPricePerUnit:    deref(inflated),
		}
	}
	return p, nil
}

func scanBudgetItem(sc rowScanner) (model.BudgetLineItem, error) {
	var it model.BudgetLineItem
	err := sc.Scan(&it.ID, &it.ProjectID, &it.PhaseID, &it.Activity, &it.Amount, &it.StartPeriod, &it.PeriodsToComplete)
	return it, err
}

func scanBenchmark(sc rowScanner) (model.CostBenchmark, error) {
	var b model.CostBenchmark
	var typ string
	err := sc.Scan(&b.ID, &b.ProjectID, &typ, &b.Scope, &b.FixedAmount, &b.RatePerUOM, &b.UOM, &b.Active)
	b.Type = model.BenchmarkType(typ)
	return b, err
}

func scanIndication(sc rowScanner) (model.Indication, error) {
	var ind model.Indication
	var approach string
	var at time.Time
	err := sc.Scan(&approach, &ind.Value, &at)
	ind.Approach = model.Approach(approach)
	ind.ComputedAt = &at
	return ind, err
}

// foldIndications keeps the first indication seen per approach; callers pass
// them newest first.
func foldIndications(list []model.Indication) model.Indications {
	var out model.Indications
	seen := map[model.Approach]bool{}
	for _, ind := range list {
		if seen[ind.Approach] {
			continue
		}
		seen[ind.Approach] = true
		switch ind.Approach {
		case model.ApproachSalesComparison:
			out.Sales = ind.Value
		case model.ApproachCost:
			out.Cost = ind.Value
		case model.ApproachIncome:
			out.Income = ind.Value
		}
	}
	return out
}

const reconciliationSelect = `SELECT project_id, sales_value, cost_value, income_value,
	sales_weight, cost_weight, income_weight, narrative, effective_date,
	computed_value, override_value, final_value, weights_valid, updated_at
FROM reconciliations`

func scanReconciliation(sc rowScanner) (model.ReconciliationRecord, error) {
	var r model.ReconciliationRecord
	err := sc.Scan(
		&r.ProjectID, &r.Indications.Sales, &r.Indications.Cost, &r.Indications.Income,
		&r.Weights.Sales, &r.Weights.Cost, &r.Weights.Income, &r.Narrative, &r.EffectiveDate,
		&r.ComputedValue, &r.OverrideValue, &r.FinalValue, &r.WeightsValid, &r.UpdatedAt,
	)
	return r, err
}

// reconciliationUpsert leaves updated_at alone when nothing else changed, so
// re-saving identical inputs is a no-op.
var reconciliationUpsert = db.UpsertConfig{
	Table: "reconciliations",
	Columns: []string{
		"project_id", "sales_value", "cost_value", "income_value",
		"sales_weight", "cost_weight", "income_weight", "narrative", "effective_date",
		"computed_value", "override_value", "final_value", "weights_valid", "updated_at",
	},
	ConflictKeys: []string{"project_id"},
	VolatileCols: []string{"updated_at"},
}

func reconciliationValues(r model.ReconciliationRecord, now time.Time) []any {
	var effective *time.Time
	if r.EffectiveDate != nil {
		d := r.EffectiveDate.UTC().Truncate(24 * time.Hour)
		effective = &d
	}
	return []any{
		r.ProjectID, r.Indications.Sales, r.Indications.Cost, r.Indications.Income,
		r.Weights.Sales, r.Weights.Cost, r.Weights.Income, r.Narrative, effective,
		r.ComputedValue, r.OverrideValue, r.FinalValue, r.WeightsValid, now,
	}
}

// parcelColumns is the column order for parcel imports.
var parcelColumns = []string{
	"project_id", "phase_id", "type_code", "gross_acres", "units_total",
	"lot_width", "sale_period", "product_code",
}

func parcelValues(projectID int64, p model.Parcel) []any {
	return []any{
		projectID, p.PhaseID, p.TypeCode, p.GrossAcres, p.UnitsTotal,
		p.LotWidth, p.SalePeriod, p.ProductCode,
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
