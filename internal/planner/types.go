package planner

import (
	"time"

	"specsync/internal/spec"
)

// TaskStatus represents the execution state of a task.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting to be picked up.
	StatusPending TaskStatus = "pending"

	// StatusInProgress indicates an executor is actively working the task.
	StatusInProgress TaskStatus = "in_progress"

	// StatusCompleted indicates the task finished. Terminal.
	StatusCompleted TaskStatus = "completed"

	// StatusCancelled indicates the owning feature was removed before the
	// task finished. Terminal; cancelled tasks are retained, not deleted.
	StatusCancelled TaskStatus = "cancelled"
)

// String returns the string representation of the status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status is final.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// canTransition reports whether the status may move to next.
func (s TaskStatus) canTransition(next TaskStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// Task is one unit of generated work derived from a feature. Tasks are
// tracked independently of the spec's lifecycle: a feature's removal
// cancels its tasks but never erases them.
type Task struct {
	ID        string     `json:"id"`
	FeatureID string     `json:"feature_id"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`

	// Source is the requirement or acceptance criterion the task was
	// decomposed from; it identifies covered scope across regenerations.
	Source string `json:"source,omitempty"`

	// Verify marks acceptance-criterion tasks, which depend on the
	// feature's implementation tasks.
	Verify bool `json:"verify,omitempty"`

	// DependsOn lists task IDs that must complete first.
	DependsOn []string `json:"depends_on,omitempty"`

	// Backlog accumulates requirements observed while the task was
	// in-progress; appended, never replacing in-flight scope.
	Backlog []string `json:"backlog,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	cp := t
	cp.DependsOn = append([]string(nil), t.DependsOn...)
	cp.Backlog = append([]string(nil), t.Backlog...)
	return cp
}

// TaskSeed is a decomposition strategy's description of one task to
// create. The planner assigns IDs, owners, and cross-feature edges.
type TaskSeed struct {
	Title  string
	Source string
	Verify bool
}

// Strategy decomposes a feature into task seeds. Implementations must be
// deterministic for a given feature value; the planner decides when to
// invoke them.
type Strategy interface {
	Decompose(f spec.Feature) []TaskSeed
}

// RegenerationResult summarizes one reconciliation pass, published for an
// external execution orchestrator.
type RegenerationResult struct {
	// SpecSeq is the commit sequence number the graph was reconciled to.
	SpecSeq int `json:"spec_seq"`

	TasksAdded     int `json:"tasks_added"`
	TasksCancelled int `json:"tasks_cancelled"`
	TasksPreserved int `json:"tasks_preserved"`

	// ReadyQueue lists pending task IDs whose dependencies are all
	// completed, in deterministic dependency-then-priority order.
	ReadyQueue []string `json:"ready_queue"`
}

// ResultListener receives regeneration results as they are produced.
type ResultListener interface {
	OnRegeneration(RegenerationResult)
}

// ResultFunc adapts a function to the ResultListener interface.
type ResultFunc func(RegenerationResult)

// OnRegeneration calls f.
func (f ResultFunc) OnRegeneration(r RegenerationResult) { f(r) }
