// Package planner maintains the dependency-ordered task graph derived
// from the specification.
//
// The planner subscribes to the change feed and reconciles the task graph
// against each committed mutation on its own background goroutine, off the
// commit path. Reconciliation is incremental: only the features a change
// event names are touched, and only dependency edges involving created,
// removed, or cancelled tasks are recomputed. Regeneration cost scales
// with the affected subgraph, never the whole graph.
//
// # Reconciliation Rules
//
// For an affected feature still present in the spec:
//   - completed tasks are untouched
//   - in-progress tasks are untouched, except newly observed requirements
//     are appended to their backlog rather than replacing in-flight scope
//   - pending tasks are discarded and regenerated from the current
//     requirements and acceptance criteria via the decomposition strategy
//
// For an affected feature no longer present, all its non-completed tasks
// transition to cancelled. Cancelled tasks are never deleted.
//
// # Task State Machine
//
//	pending -> in-progress -> completed   (terminal)
//	pending | in-progress  -> cancelled   (terminal)
//
// No transition leaves completed or cancelled.
//
// The planner owns when to regenerate; the decomposition heuristic is a
// pluggable [Strategy]. Task state is owned exclusively by this package:
// the controller never reads or writes it.
package planner
