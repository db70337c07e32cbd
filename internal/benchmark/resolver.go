// Package benchmark selects the applicable cost benchmark for a category.
// Benchmarks are optional: an unresolved benchmark contributes zero.
package benchmark

import (
	"sort"
	"strings"

	"github.com/sells-group/underwrite/internal/model"
)

// UOMFrontFoot is the normalized front-foot unit of measure.
const UOMFrontFoot = "FF"

// Resolution is the selected benchmark value for one category.
type Resolution struct {
	Amount      float64
	UOM         string
	Found       bool
	BenchmarkID int64
}

// rateStyle lists categories priced per unit of measure rather than as a
// fixed amount.
var rateStyle = map[model.BenchmarkType]bool{
	model.BenchmarkImprovementOffset: true,
}

// Resolve picks the single applicable benchmark of type t for projectID.
// Candidates must be active and either global or scoped to projectID, and
// fixed-amount categories ignore rows that carry only a rate. When
// uom is non-empty, only rows with a matching normalized unit qualify.
// Ranking: project-specific over global, then "project" scope over broader
// scopes, then (rate-style types only) per-unit rates over fixed amounts,
// then lowest id.
func Resolve(rows []model.CostBenchmark, projectID int64, t model.BenchmarkType, uom string) Resolution {
	want := NormalizeUOM(uom)

	var candidates []model.CostBenchmark
	for _, r := range rows {
		if !r.Active || r.Type != t {
			continue
		}
		if r.ProjectID != nil && *r.ProjectID != projectID {
			continue
		}
		if want != "" && NormalizeUOM(r.UOM) != want {
			continue
		}
		if r.FixedAmount == nil && (r.RatePerUOM == nil || !rateStyle[t]) {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return Resolution{}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ap, bp := a.ProjectID != nil, b.ProjectID != nil; ap != bp {
			return ap
		}
		if as, bs := isProjectScope(a), isProjectScope(b); as != bs {
			return as
		}
		if rateStyle[t] {
			if ar, br := a.RatePerUOM != nil, b.RatePerUOM != nil; ar != br {
				return ar
			}
		}
		return a.ID < b.ID
	})

	best := candidates[0]
	res := Resolution{Found: true, UOM: NormalizeUOM(best.UOM), BenchmarkID: best.ID}
	if rateStyle[t] && best.RatePerUOM != nil {
		res.Amount = *best.RatePerUOM
	} else {
		res.Amount = *best.FixedAmount
	}
	return res
}

// ClosingCostPerParcel sums the fixed closing, legal and title-insurance
// benchmark amounts charged on each parcel sale.
func ClosingCostPerParcel(rows []model.CostBenchmark, projectID int64) float64 {
	var total float64
	for _, t := range []model.BenchmarkType{
		model.BenchmarkClosing,
		model.BenchmarkLegal,
		model.BenchmarkTitleInsurance,
	} {
		total += Resolve(rows, projectID, t, "").Amount
	}
	return total
}

func isProjectScope(r model.CostBenchmark) bool {
	return strings.EqualFold(strings.TrimSpace(r.Scope), model.ScopeProject)
}

var frontFootAliases = map[string]bool{
	"FF":         true,
	"FRONT FOOT": true,
	"FRONT FEET": true,
	"FRONTFOOT":  true,
}

// NormalizeUOM strips a leading currency-per marker ("$/", "$ /", "$")
// and uppercases, folding front-foot aliases to UOMFrontFoot.
func NormalizeUOM(s string) string {
	u := strings.ToUpper(strings.TrimSpace(s))
	u = strings.TrimPrefix(u, "$")
	u = strings.TrimSpace(u)
	u = strings.TrimPrefix(u, "/")
	u = strings.TrimSpace(strings.TrimPrefix(u, "PER "))
	if frontFootAliases[u] {
		return UOMFrontFoot
	}
	return u
}

// IsFrontFoot reports whether s normalizes to the front-foot unit.
func IsFrontFoot(s string) bool {
	return NormalizeUOM(s) == UOMFrontFoot
}
