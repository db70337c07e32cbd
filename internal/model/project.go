package model

import "sort"

// Project is the read-only header a rollup is computed for.
type Project struct {
	ID               int64  `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	GrowthScheduleID *int64 `json:"growth_schedule_id,omitempty" yaml:"growth_schedule_id,omitempty"`
}

// GrowthRateStep is one step of a cost-inflation schedule.
type GrowthRateStep struct {
	StepNumber int     `json:"step_number" yaml:"step_number"`
	Rate       float64 `json:"rate" yaml:"rate"`
}

// GrowthRateSchedule is an ordered sequence of growth-rate steps.
type GrowthRateSchedule []GrowthRateStep

// CurrentRate returns the rate in effect at report time. A single-step
// schedule applies its only rate; a multi-step schedule uses step 1. Later
// steps are not projected over calendar time.
func (s GrowthRateSchedule) CurrentRate() float64 {
	switch len(s) {
	case 0:
		return 0
	case 1:
		return s[0].Rate
	}
	steps := make(GrowthRateSchedule, len(s))
	copy(steps, s)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].StepNumber < steps[j].StepNumber })
	for _, st := range steps {
		if st.StepNumber == 1 {
			return st.Rate
		}
	}
	return 0
}
