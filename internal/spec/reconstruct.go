package spec

import "sort"

// EditsFor returns the sequence of structured edits that transforms old
// into new. Removals come first so that replacement features with reused
// dependency edges apply cleanly, then additions in dependency-safe order,
// then updates, then metadata. Used by the file watch adapter to route an
// out-of-band document edit through the controller's ordinary apply path.
func EditsFor(old, new *Specification) []StructuredEdit {
	d := DiffSpecs(old, new)
	if d.Empty() {
		return nil
	}

	var edits []StructuredEdit
	for _, id := range d.Removed {
		edits = append(edits, RemoveFeature{ID: id})
	}
	for _, id := range orderByDependency(d.Added, new.Features) {
		f := new.Features[id]
		edits = append(edits, AddFeature{
			ID:                 f.ID,
			Name:               f.Name,
			Description:        f.Description,
			Priority:           f.Priority,
			Requirements:       cloneStrings(f.Requirements),
			AcceptanceCriteria: cloneStrings(f.AcceptanceCriteria),
			DependsOn:          cloneStrings(f.DependsOn),
		})
	}
	for _, id := range d.Updated {
		f := new.Features[id]
		name, desc, prio := f.Name, f.Description, f.Priority
		reqs := cloneStrings(f.Requirements)
		crit := cloneStrings(f.AcceptanceCriteria)
		deps := cloneStrings(f.DependsOn)
		if reqs == nil {
			reqs = []string{}
		}
		if crit == nil {
			crit = []string{}
		}
		if deps == nil {
			deps = []string{}
		}
		details := cloneStringMap(f.TechnicalDetails)
		if details == nil {
			details = map[string]string{}
		}
		edits = append(edits, UpdateFeature{
			ID:                 id,
			Name:               &name,
			Description:        &desc,
			Priority:           &prio,
			Requirements:       &reqs,
			AcceptanceCriteria: &crit,
			DependsOn:          &deps,
			TechnicalDetails:   &details,
		})
	}
	if d.MetadataChanged {
		project, overview := new.Project, new.Overview
		arch := cloneStringMap(new.Architecture)
		if arch == nil {
			arch = map[string]string{}
		}
		edits = append(edits, UpdateMetadata{
			Project:      &project,
			Overview:     &overview,
			Architecture: &arch,
		})
	}
	return edits
}

// orderByDependency sorts the given feature IDs so that any feature appears
// after the features it depends on, considering only dependencies within
// the given ID set. Ties break on ID for determinism.
func orderByDependency(ids []string, features map[string]Feature) []string {
	inSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		inSet[id] = true
	}

	inDegree := make(map[string]int, len(ids))
	dependents := make(map[string][]string, len(ids))
	for _, id := range ids {
		inDegree[id] = 0
	}
	for _, id := range ids {
		for _, dep := range features[id].DependsOn {
			if inSet[dep] {
				inDegree[id]++
				dependents[dep] = append(dependents[dep], id)
			}
		}
	}

	var queue []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		var next []string
		for _, dep := range dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				next = append(next, dep)
			}
		}
		sort.Strings(next)
		queue = append(queue, next...)
	}

	// A cycle among added features means some never reach in-degree zero;
	// append them anyway so the controller can reject the batch itself.
	if len(order) < len(ids) {
		seen := make(map[string]bool, len(order))
		for _, id := range order {
			seen[id] = true
		}
		for _, id := range ids {
			if !seen[id] {
				order = append(order, id)
			}
		}
	}
	return order
}
