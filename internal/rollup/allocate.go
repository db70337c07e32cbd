package rollup

import "github.com/sells-group/underwrite/internal/model"

// AllocateAcquisition spreads a project-level acquisition total across
// phases by their share of the project's gross acres, replacing whatever
// acquisition figure budget categorization produced. acres must cover every
// parcel in the project, including phases with no primary units; phases
// present only in acres are created. Phases with no acres get zero.
//
// When total or the project's acreage is zero, acquisition values are left
// as they are.
func AllocateAcquisition(set PhaseSet, total float64, acres []PhaseAcres) PhaseSet {
	out := set.Clone()
	byPhase := make(map[model.PhaseKey]float64, len(acres))
	var projectAcres float64
	for _, a := range acres {
		out.update(a.Phase, func(*model.PhaseStatement) {})
		byPhase[a.Phase] += a.GrossAcres
		projectAcres += a.GrossAcres
	}
	if total == 0 || projectAcres <= 0 {
		return out
	}

	for _, k := range out.Keys() {
		share := byPhase[k] / projectAcres
		out.update(k, func(ps *model.PhaseStatement) {
			ps.Acquisition = finite(total * share)
		})
	}
	return out
}
