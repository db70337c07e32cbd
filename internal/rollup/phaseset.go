// Package rollup aggregates parcel, budget and benchmark records into
// phase-level financial statements and a project TOTAL.
//
// The build runs as a sequence of merge steps. Each step takes the current
// PhaseSet plus one family of rows and returns a new PhaseSet, so every step
// can be exercised on its own.
package rollup

import (
	"math"
	"sort"

	"github.com/sells-group/underwrite/internal/model"
)

// PhaseSet holds partially built statements keyed by phase.
type PhaseSet map[model.PhaseKey]model.PhaseStatement

// Clone returns a deep copy of s.
func (s PhaseSet) Clone() PhaseSet {
	out := make(PhaseSet, len(s))
	for k, ps := range s {
		if ps.OtherLand != nil {
			ps.OtherLand = append([]model.OtherLandType(nil), ps.OtherLand...)
		}
		out[k] = ps
	}
	return out
}

// update applies fn to the statement for k, inserting a zeroed statement
// first when k is not yet present.
func (s PhaseSet) update(k model.PhaseKey, fn func(ps *model.PhaseStatement)) {
	ps, ok := s[k]
	if !ok {
		ps = newStatement(k)
	}
	fn(&ps)
	s[k] = ps
}

// Keys returns the phase keys in display order: ascending id, Unassigned last.
func (s PhaseSet) Keys() []model.PhaseKey {
	keys := make([]model.PhaseKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

func newStatement(k model.PhaseKey) model.PhaseStatement {
	label := "Unassigned"
	if !k.IsUnassigned() {
		label = "Phase " + k.String()
	}
	return model.PhaseStatement{Key: k, PhaseID: k.Ptr(), Label: label}
}

// safeDiv returns n/d, or 0 when d is zero or the result is not finite.
func safeDiv(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return finite(n / d)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
