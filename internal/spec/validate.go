package spec

import (
	"fmt"
	"sort"

	"specsync/internal/errors"
)

// Validate checks the structural invariants of a specification: feature IDs
// match their map keys, priorities are valid, dependency references name
// existing features, and the dependency graph is acyclic.
func Validate(s *Specification) error {
	if s == nil {
		return errors.NewValidationError("", "specification is nil")
	}
	if s.Project == "" {
		return errors.NewValidationError("project", "must not be empty")
	}
	for id, f := range s.Features {
		if id == "" {
			return errors.NewValidationError("features", "feature ID must not be empty")
		}
		if f.ID != id {
			return errors.NewValidationError(id, fmt.Sprintf("feature ID %q does not match its key", f.ID))
		}
		if f.Name == "" {
			return errors.NewValidationError(id, "feature name must not be empty")
		}
		if !f.Priority.Valid() {
			return errors.NewValidationError(id, fmt.Sprintf("invalid priority %q", f.Priority))
		}
		for _, dep := range f.DependsOn {
			if dep == id {
				return errors.NewCycleError([]string{id, id})
			}
			if _, ok := s.Features[dep]; !ok {
				return errors.NewValidationError(id, fmt.Sprintf("depends on unknown feature %q", dep))
			}
		}
	}
	if cycle := FindCycle(s.Features); cycle != nil {
		return errors.NewCycleError(cycle)
	}
	return nil
}

// FindCycle returns the feature IDs along a dependency cycle, starting and
// ending at the same feature, or nil when the graph is acyclic. Detection is
// a depth-first search with tri-color marking; features are visited in
// sorted order so the reported cycle is deterministic.
func FindCycle(features map[string]Feature) []string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully explored
	)
	color := make(map[string]int, len(features))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = gray
		stack = append(stack, id)
		deps := append([]string(nil), features[id].DependsOn...)
		sort.Strings(deps)
		for _, dep := range deps {
			if _, ok := features[dep]; !ok {
				continue // dangling references are a validation concern, not a cycle
			}
			switch color[dep] {
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			case gray:
				// Back edge: slice the stack from the first occurrence of dep.
				for i, fid := range stack {
					if fid == dep {
						cycle := append([]string(nil), stack[i:]...)
						return append(cycle, dep)
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	ids := make([]string, 0, len(features))
	for id := range features {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if color[id] == white {
			stack = stack[:0]
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
