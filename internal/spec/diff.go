package spec

import "sort"

// Diff describes the structural difference between two specifications.
// Feature IDs in each slice are sorted for deterministic output.
type Diff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Updated []string `json:"updated,omitempty"`

	// FieldChanges maps an updated feature ID to the names of its changed
	// fields (name, description, priority, requirements,
	// acceptance_criteria, depends_on, technical_details).
	FieldChanges map[string][]string `json:"field_changes,omitempty"`

	// MetadataChanged reports a change to project, overview, or
	// architecture entries.
	MetadataChanged bool `json:"metadata_changed,omitempty"`
}

// Empty reports whether the diff carries no change at all.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0 && !d.MetadataChanged
}

// AffectedFeatures returns all feature IDs touched by the diff, sorted.
func (d Diff) AffectedFeatures() []string {
	ids := make([]string, 0, len(d.Added)+len(d.Removed)+len(d.Updated))
	ids = append(ids, d.Added...)
	ids = append(ids, d.Removed...)
	ids = append(ids, d.Updated...)
	sort.Strings(ids)
	return ids
}

// DiffSpecs computes the structural diff from old to new. Either argument
// may be nil, which is treated as an empty specification.
func DiffSpecs(old, new *Specification) Diff {
	if old == nil {
		old = &Specification{}
	}
	if new == nil {
		new = &Specification{}
	}

	d := Diff{FieldChanges: make(map[string][]string)}

	for id, nf := range new.Features {
		of, ok := old.Features[id]
		if !ok {
			d.Added = append(d.Added, id)
			continue
		}
		if changed := featureFieldChanges(of, nf); len(changed) > 0 {
			d.Updated = append(d.Updated, id)
			d.FieldChanges[id] = changed
		}
	}
	for id := range old.Features {
		if _, ok := new.Features[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}

	d.MetadataChanged = old.Project != new.Project ||
		old.Overview != new.Overview ||
		!mapsEqual(old.Architecture, new.Architecture)

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Updated)
	if len(d.FieldChanges) == 0 {
		d.FieldChanges = nil
	}
	return d
}

func featureFieldChanges(old, new Feature) []string {
	var changed []string
	if old.Name != new.Name {
		changed = append(changed, "name")
	}
	if old.Description != new.Description {
		changed = append(changed, "description")
	}
	if old.Priority != new.Priority {
		changed = append(changed, "priority")
	}
	if !stringsEqual(old.Requirements, new.Requirements) {
		changed = append(changed, "requirements")
	}
	if !stringsEqual(old.AcceptanceCriteria, new.AcceptanceCriteria) {
		changed = append(changed, "acceptance_criteria")
	}
	if !stringsEqual(old.DependsOn, new.DependsOn) {
		changed = append(changed, "depends_on")
	}
	if !mapsEqual(old.TechnicalDetails, new.TechnicalDetails) {
		changed = append(changed, "technical_details")
	}
	return changed
}
