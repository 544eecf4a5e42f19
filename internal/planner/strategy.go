package planner

import (
	"fmt"

	"specsync/internal/spec"
)

// RequirementStrategy is the default decomposition heuristic: one
// implementation task per requirement and one verification task per
// acceptance criterion. A feature with neither gets a single umbrella
// task so it is never silently unplanned.
type RequirementStrategy struct{}

// Decompose implements Strategy.
func (RequirementStrategy) Decompose(f spec.Feature) []TaskSeed {
	var seeds []TaskSeed
	for _, req := range f.Requirements {
		seeds = append(seeds, TaskSeed{
			Title:  fmt.Sprintf("%s: %s", f.Name, req),
			Source: req,
		})
	}
	for _, crit := range f.AcceptanceCriteria {
		seeds = append(seeds, TaskSeed{
			Title:  fmt.Sprintf("%s: verify %s", f.Name, crit),
			Source: crit,
			Verify: true,
		})
	}
	if len(seeds) == 0 {
		seeds = append(seeds, TaskSeed{
			Title:  fmt.Sprintf("implement %s", f.Name),
			Source: f.Name,
		})
	}
	return seeds
}

var _ Strategy = RequirementStrategy{}
