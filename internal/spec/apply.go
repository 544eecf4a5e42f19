package spec

import (
	"fmt"
	"time"

	"specsync/internal/errors"
)

// Apply mutates s in place according to the edit and returns the affected
// feature IDs. The caller is expected to pass a clone of the committed
// snapshot; Apply never validates graph-level invariants (see Validate),
// but it does enforce reference-level preconditions:
//
//   - AddFeature against an existing ID is a ValidationError.
//   - RemoveFeature / UpdateFeature against a missing ID is a
//     StaleReferenceError, since under commit-serialized application the
//     only way a caller names a missing feature is a concurrent removal.
func Apply(s *Specification, edit StructuredEdit, now time.Time) ([]string, error) {
	if s == nil {
		return nil, errors.NewValidationError("", "specification is nil")
	}
	if s.Features == nil {
		s.Features = make(map[string]Feature)
	}

	var affected []string
	switch e := edit.(type) {
	case AddFeature:
		if e.ID == "" {
			return nil, errors.NewValidationError("id", "must not be empty")
		}
		if e.Name == "" {
			return nil, errors.NewValidationError(e.ID, "feature name must not be empty")
		}
		if _, exists := s.Features[e.ID]; exists {
			return nil, errors.NewValidationError(e.ID, "feature already exists")
		}
		prio := e.Priority
		if prio == "" {
			prio = PriorityMedium
		}
		if !prio.Valid() {
			return nil, errors.NewValidationError(e.ID, fmt.Sprintf("invalid priority %q", prio))
		}
		s.Features[e.ID] = Feature{
			ID:                 e.ID,
			Name:               e.Name,
			Description:        e.Description,
			Priority:           prio,
			Requirements:       cloneStrings(e.Requirements),
			AcceptanceCriteria: cloneStrings(e.AcceptanceCriteria),
			DependsOn:          cloneStrings(e.DependsOn),
		}
		affected = []string{e.ID}

	case RemoveFeature:
		if _, exists := s.Features[e.ID]; !exists {
			return nil, errors.NewStaleReferenceError("remove_feature", e.ID)
		}
		delete(s.Features, e.ID)
		// Dependents lose the edge; the feature graph stays closed.
		for id, f := range s.Features {
			if !containsString(f.DependsOn, e.ID) {
				continue
			}
			kept := make([]string, 0, len(f.DependsOn)-1)
			for _, dep := range f.DependsOn {
				if dep != e.ID {
					kept = append(kept, dep)
				}
			}
			f.DependsOn = kept
			s.Features[id] = f
		}
		affected = []string{e.ID}

	case UpdateFeature:
		f, exists := s.Features[e.ID]
		if !exists {
			return nil, errors.NewStaleReferenceError("update_feature", e.ID)
		}
		if e.Name != nil {
			if *e.Name == "" {
				return nil, errors.NewValidationError(e.ID, "feature name must not be empty")
			}
			f.Name = *e.Name
		}
		if e.Description != nil {
			f.Description = *e.Description
		}
		if e.Priority != nil {
			if !e.Priority.Valid() {
				return nil, errors.NewValidationError(e.ID, fmt.Sprintf("invalid priority %q", *e.Priority))
			}
			f.Priority = *e.Priority
		}
		if e.Requirements != nil {
			f.Requirements = cloneStrings(*e.Requirements)
		}
		if e.AcceptanceCriteria != nil {
			f.AcceptanceCriteria = cloneStrings(*e.AcceptanceCriteria)
		}
		if e.DependsOn != nil {
			f.DependsOn = cloneStrings(*e.DependsOn)
		}
		if e.TechnicalDetails != nil {
			f.TechnicalDetails = cloneStringMap(*e.TechnicalDetails)
		}
		s.Features[e.ID] = f
		affected = []string{e.ID}

	case UpdateMetadata:
		if e.Project != nil {
			if *e.Project == "" {
				return nil, errors.NewValidationError("project", "must not be empty")
			}
			s.Project = *e.Project
		}
		if e.Overview != nil {
			s.Overview = *e.Overview
		}
		if e.Architecture != nil {
			s.Architecture = cloneStringMap(*e.Architecture)
		}

	default:
		return nil, errors.NewValidationError("", fmt.Sprintf("unsupported edit type %T", edit))
	}

	s.UpdatedAt = now
	return affected, nil
}

func containsString(in []string, s string) bool {
	for _, v := range in {
		if v == s {
			return true
		}
	}
	return false
}
