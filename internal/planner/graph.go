package planner

import (
	"sort"

	"specsync/internal/spec"
)

// rewireLocked recomputes the dependency edges that touch the given
// features' tasks. Edges among tasks of unaffected features are preserved
// verbatim; only the touched features and their direct dependents are
// visited, which keeps reconciliation cost proportional to the affected
// subgraph.
//
// Edge rules:
//   - a verify task depends on every non-cancelled implementation task of
//     its own feature
//   - an implementation task depends on every non-cancelled task of each
//     feature its owning feature depends on
//   - edges referencing removed or cancelled tasks are dropped everywhere
//     they occur in the rewired set
//
// The caller must hold p.mu.
func (p *Planner) rewireLocked(s *spec.Specification, touched []string) {
	if len(touched) == 0 {
		return
	}
	touchedSet := make(map[string]bool, len(touched))
	for _, fid := range touched {
		touchedSet[fid] = true
	}

	// Rewired features: the touched set plus features depending on one of
	// them, since their cross-feature edges may reference regenerated or
	// cancelled tasks.
	rewire := make(map[string]bool, len(touched))
	for fid := range touchedSet {
		rewire[fid] = true
	}
	if s != nil {
		for fid, f := range s.Features {
			for _, dep := range f.DependsOn {
				if touchedSet[dep] {
					rewire[fid] = true
					break
				}
			}
		}
	}

	// A removed feature no longer appears in the spec's dependency edges,
	// so also rewire any feature whose tasks hold edges into the touched
	// features' tasks.
	touchedTasks := make(map[string]bool)
	for fid := range touchedSet {
		for _, id := range p.byFeature[fid] {
			touchedTasks[id] = true
		}
	}
	for _, t := range p.tasks {
		if rewire[t.FeatureID] {
			continue
		}
		for _, dep := range t.DependsOn {
			if touchedTasks[dep] {
				rewire[t.FeatureID] = true
				break
			}
		}
	}

	for fid := range rewire {
		p.rewireFeatureLocked(s, fid)
	}
}

// rewireFeatureLocked recomputes edges for one feature's pending tasks.
// Tasks already in progress or finished keep their recorded edges, minus
// references to tasks that no longer exist or were cancelled.
func (p *Planner) rewireFeatureLocked(s *spec.Specification, fid string) {
	var implIDs []string
	for _, id := range p.byFeature[fid] {
		t := p.tasks[id]
		if !t.Verify && t.Status != StatusCancelled {
			implIDs = append(implIDs, id)
		}
	}

	var upstream []string
	if s != nil {
		if f, ok := s.Features[fid]; ok {
			for _, dep := range f.DependsOn {
				upstream = append(upstream, p.activeTaskIDsLocked(dep)...)
			}
		}
	}

	for _, id := range p.byFeature[fid] {
		t := p.tasks[id]
		switch t.Status {
		case StatusPending:
			if t.Verify {
				t.DependsOn = append([]string(nil), implIDs...)
			} else {
				t.DependsOn = append([]string(nil), upstream...)
			}
			sort.Strings(t.DependsOn)
		case StatusInProgress, StatusCompleted:
			t.DependsOn = p.pruneDeadEdgesLocked(t.DependsOn)
		}
	}
}

// pruneDeadEdgesLocked drops dependency references to tasks that were
// removed from the graph or cancelled.
func (p *Planner) pruneDeadEdgesLocked(deps []string) []string {
	kept := deps[:0]
	for _, dep := range deps {
		t, ok := p.tasks[dep]
		if ok && t.Status != StatusCancelled {
			kept = append(kept, dep)
		}
	}
	return kept
}

// activeTaskIDsLocked returns the non-cancelled task IDs of a feature.
func (p *Planner) activeTaskIDsLocked(fid string) []string {
	var ids []string
	for _, id := range p.byFeature[fid] {
		if p.tasks[id].Status != StatusCancelled {
			ids = append(ids, id)
		}
	}
	return ids
}

// buildResultLocked assembles a RegenerationResult with the current ready
// queue. The caller must hold p.mu.
func (p *Planner) buildResultLocked(s *spec.Specification, seq, added, cancelled, preserved int) RegenerationResult {
	return RegenerationResult{
		SpecSeq:        seq,
		TasksAdded:     added,
		TasksCancelled: cancelled,
		TasksPreserved: preserved,
		ReadyQueue:     p.readyQueueLocked(s),
	}
}

// ReadyQueue returns the pending tasks whose dependencies are all
// completed, ordered by owning-feature priority (high first), then
// feature ID, then title.
func (p *Planner) ReadyQueue(s *spec.Specification) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readyQueueLocked(s)
}

func (p *Planner) readyQueueLocked(s *spec.Specification) []string {
	var ready []*Task
	for _, t := range p.tasks {
		if t.Status != StatusPending {
			continue
		}
		if p.depsSatisfiedLocked(t) {
			ready = append(ready, t)
		}
	}

	rank := func(t *Task) int {
		if s == nil {
			return 1
		}
		f, ok := s.Features[t.FeatureID]
		if !ok {
			return 1
		}
		switch f.Priority {
		case spec.PriorityHigh:
			return 0
		case spec.PriorityMedium:
			return 1
		default:
			return 2
		}
	}

	sort.Slice(ready, func(i, j int) bool {
		ri, rj := rank(ready[i]), rank(ready[j])
		if ri != rj {
			return ri < rj
		}
		if ready[i].FeatureID != ready[j].FeatureID {
			return ready[i].FeatureID < ready[j].FeatureID
		}
		if ready[i].Title != ready[j].Title {
			return ready[i].Title < ready[j].Title
		}
		return ready[i].ID < ready[j].ID
	})

	ids := make([]string, len(ready))
	for i, t := range ready {
		ids[i] = t.ID
	}
	return ids
}

// depsSatisfiedLocked reports whether every dependency of t is completed.
func (p *Planner) depsSatisfiedLocked(t *Task) bool {
	for _, dep := range t.DependsOn {
		d, ok := p.tasks[dep]
		if !ok || d.Status != StatusCompleted {
			return false
		}
	}
	return true
}
