package guide

import (
	"sort"

	"github.com/HendryAvila/crewgate/internal/specstore"
)

// sortedSteps returns the workflow steps in ascending order. The sort is
// stable: steps with equal order values keep their original array
// position (order values need not be contiguous or unique).
func sortedSteps(steps []specstore.WorkflowStep) []specstore.WorkflowStep {
	out := make([]specstore.WorkflowStep, len(steps))
	copy(out, steps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// EffectiveMaxIterations returns the cycle's iteration cap, applying the
// default when the spec omits it or carries a non-positive value.
func EffectiveMaxIterations(cd *specstore.CycleDetails) int {
	if cd == nil || cd.MaxIterations <= 0 {
		return specstore.DefaultMaxIterations
	}
	return cd.MaxIterations
}

// EffectiveMergeStrategy returns the parallel merge strategy, defaulting
// to "all" when the spec omits it.
func EffectiveMergeStrategy(pd *specstore.ParallelDetails) string {
	if pd == nil || pd.MergeStrategy == "" {
		return specstore.MergeAll
	}
	return pd.MergeStrategy
}
