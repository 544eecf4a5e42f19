package planner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"specsync/internal/errors"
	"specsync/internal/event"
	"specsync/internal/logging"
	"specsync/internal/spec"
)

// Sentinel errors returned by task state operations.
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Option configures a Planner.
type Option func(*Planner)

// WithStrategy overrides the decomposition strategy.
func WithStrategy(s Strategy) Option {
	return func(p *Planner) {
		if s != nil {
			p.strategy = s
		}
	}
}

// Planner owns the task graph. It implements event.Listener; change events
// are queued and reconciled on a single background goroutine so the
// committer is never blocked by regeneration work.
type Planner struct {
	strategy Strategy
	log      *logging.Logger

	mu        sync.Mutex
	tasks     map[string]*Task
	byFeature map[string][]string // feature ID -> task IDs, creation order

	resMu      sync.RWMutex
	resSubs    []ResultListener
	lastResult *RegenerationResult

	qMu     sync.Mutex
	queue   []event.ChangeEvent
	wake    chan struct{}
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Planner with the default requirement-based strategy.
func New(log *logging.Logger, opts ...Option) *Planner {
	if log == nil {
		log = logging.NopLogger()
	}
	p := &Planner{
		strategy:  RequirementStrategy{},
		log:       log.WithComponent("planner"),
		tasks:     make(map[string]*Task),
		byFeature: make(map[string][]string),
		wake:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the background reconciliation goroutine.
func (p *Planner) Start(ctx context.Context) {
	p.qMu.Lock()
	defer p.qMu.Unlock()
	if p.started {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.started = true
	go p.run(ctx)
}

// Stop drains nothing further and waits for the reconciliation goroutine
// to exit. Queued events are dropped.
func (p *Planner) Stop() {
	p.qMu.Lock()
	if !p.started {
		p.qMu.Unlock()
		return
	}
	p.started = false
	cancel, done := p.cancel, p.done
	p.qMu.Unlock()

	cancel()
	<-done
}

// OnChange implements event.Listener. It only enqueues; reconciliation
// happens on the planner's own goroutine, off the commit path.
func (p *Planner) OnChange(e event.ChangeEvent) {
	p.qMu.Lock()
	p.queue = append(p.queue, e)
	p.qMu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Planner) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		}
		for {
			p.qMu.Lock()
			if len(p.queue) == 0 {
				p.qMu.Unlock()
				break
			}
			e := p.queue[0]
			p.queue = p.queue[1:]
			p.qMu.Unlock()

			p.reconcile(e)
		}
	}
}

// Seed builds the initial graph from a full specification, as if every
// feature had just been added. Used once at engine startup.
func (p *Planner) Seed(s *spec.Specification, seq int) {
	if s == nil {
		return
	}
	now := time.Now()

	p.mu.Lock()
	added := 0
	for _, id := range s.FeatureIDs() {
		if len(p.byFeature[id]) > 0 {
			continue // already planned, e.g. restored from a state file
		}
		added += p.generateLocked(s.Features[id], now)
	}
	p.rewireLocked(s, s.FeatureIDs())
	result := p.buildResultLocked(s, seq, added, 0, p.activeCountLocked()-added)
	p.mu.Unlock()

	p.publish(result)
}

// reconcile applies one change event to the graph. Only features the
// event's diff names, plus their direct dependents, are touched.
func (p *Planner) reconcile(e event.ChangeEvent) {
	d := e.Diff
	if len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0 {
		// Metadata-only or no-op commit: the graph is already current,
		// but downstream consumers still want the seq acknowledged.
		p.mu.Lock()
		result := p.buildResultLocked(e.Spec, e.Seq, 0, 0, p.activeCountLocked())
		p.mu.Unlock()
		p.publish(result)
		return
	}

	now := e.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	p.mu.Lock()
	before := p.activeCountLocked()

	added, cancelled, discarded := 0, 0, 0
	for _, fid := range d.Removed {
		cancelled += p.cancelFeatureLocked(fid, now)
	}
	for _, fid := range d.Added {
		if f, ok := e.Spec.Features[fid]; ok {
			added += p.generateLocked(f, now)
		}
	}
	for _, fid := range d.Updated {
		f, ok := e.Spec.Features[fid]
		if !ok {
			continue
		}
		if !scopeChanged(d.FieldChanges[fid]) {
			continue // cosmetic change: tasks preserved verbatim
		}
		a, d := p.updateFeatureLocked(f, now)
		added += a
		discarded += d
	}

	touched := append(append(append([]string(nil), d.Removed...), d.Added...), d.Updated...)
	p.rewireLocked(e.Spec, touched)

	preserved := before - cancelled - discarded
	result := p.buildResultLocked(e.Spec, e.Seq, added, cancelled, preserved)
	p.mu.Unlock()

	p.log.Info("graph reconciled",
		"seq", e.Seq,
		"added", added,
		"cancelled", cancelled,
		"preserved", preserved,
		"ready", len(result.ReadyQueue))
	p.publish(result)
}

// scopeChanged reports whether the changed fields affect task decomposition.
// Name, description, and priority changes preserve existing tasks.
func scopeChanged(fields []string) bool {
	for _, f := range fields {
		switch f {
		case "requirements", "acceptance_criteria", "depends_on":
			return true
		}
	}
	return false
}

// cancelFeatureLocked cancels all non-completed tasks of a removed
// feature. Tasks are never deleted.
func (p *Planner) cancelFeatureLocked(fid string, now time.Time) int {
	cancelled := 0
	for _, id := range p.byFeature[fid] {
		t := p.tasks[id]
		if t.Status.IsTerminal() {
			continue
		}
		t.Status = StatusCancelled
		t.UpdatedAt = now
		cancelled++
	}
	return cancelled
}

// generateLocked creates fresh pending tasks for a feature from the
// decomposition strategy. Cross-feature edges are wired afterwards by
// rewireLocked.
func (p *Planner) generateLocked(f spec.Feature, now time.Time) int {
	seeds := p.strategy.Decompose(f)
	for _, seed := range seeds {
		p.insertLocked(f.ID, seed, now)
	}
	return len(seeds)
}

// updateFeatureLocked reconciles an updated feature: completed tasks
// untouched, in-progress tasks get newly observed scope appended to their
// backlog, pending tasks are discarded and regenerated for scope not
// already covered by completed or in-progress tasks. Returns the number
// of tasks added and the number of pending tasks discarded.
func (p *Planner) updateFeatureLocked(f spec.Feature, now time.Time) (int, int) {
	// Scope covered by tasks that must not be regenerated fully, and by
	// every existing task for backlog purposes.
	covered := make(map[string]bool)  // source -> held by completed/in-progress
	observed := make(map[string]bool) // source -> known to any task
	for _, id := range p.byFeature[f.ID] {
		t := p.tasks[id]
		if t.Status == StatusCancelled {
			continue
		}
		observed[t.Source] = true
		if t.Status == StatusCompleted || t.Status == StatusInProgress {
			covered[t.Source] = true
		}
	}

	// Discard pending tasks; they are regenerated from current scope.
	discarded := 0
	kept := p.byFeature[f.ID][:0]
	for _, id := range p.byFeature[f.ID] {
		t := p.tasks[id]
		if t.Status == StatusPending {
			delete(p.tasks, id)
			discarded++
			continue
		}
		kept = append(kept, id)
	}
	p.byFeature[f.ID] = kept

	// Regenerate from the strategy, skipping scope held in flight or done.
	added := 0
	var newlyObserved []string
	for _, seed := range p.strategy.Decompose(f) {
		if !observed[seed.Source] {
			newlyObserved = append(newlyObserved, seed.Source)
		}
		if covered[seed.Source] {
			continue
		}
		p.insertLocked(f.ID, seed, now)
		added++
	}

	// Newly observed scope lands on in-progress backlogs so in-flight
	// executors see the growth without their scope being replaced.
	if len(newlyObserved) > 0 {
		for _, id := range p.byFeature[f.ID] {
			t := p.tasks[id]
			if t.Status != StatusInProgress {
				continue
			}
			for _, src := range newlyObserved {
				if !containsString(t.Backlog, src) {
					t.Backlog = append(t.Backlog, src)
				}
			}
			t.UpdatedAt = now
		}
	}
	return added, discarded
}

func (p *Planner) insertLocked(fid string, seed TaskSeed, now time.Time) {
	t := &Task{
		ID:        uuid.NewString(),
		FeatureID: fid,
		Title:     seed.Title,
		Source:    seed.Source,
		Verify:    seed.Verify,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.tasks[t.ID] = t
	p.byFeature[fid] = append(p.byFeature[fid], t.ID)
}

// MarkInProgress transitions a pending task to in-progress.
func (p *Planner) MarkInProgress(taskID string) error {
	return p.transition(taskID, StatusInProgress)
}

// MarkCompleted transitions an in-progress task to completed.
func (p *Planner) MarkCompleted(taskID string) error {
	return p.transition(taskID, StatusCompleted)
}

func (p *Planner) transition(taskID string, next TaskStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if !t.Status.canTransition(next) {
		return fmt.Errorf("%w: cannot move %s from %s to %s", ErrInvalidTransition, taskID, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = time.Now()
	return nil
}

// Task returns a copy of the task with the given ID.
func (p *Planner) Task(taskID string) (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return t.Clone(), true
}

// FeatureTasks returns copies of all tasks owned by the given feature, in
// creation order.
func (p *Planner) FeatureTasks(featureID string) []Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Task, 0, len(p.byFeature[featureID]))
	for _, id := range p.byFeature[featureID] {
		out = append(out, p.tasks[id].Clone())
	}
	return out
}

// Snapshot returns copies of every task in the graph, sorted by feature
// then creation time.
func (p *Planner) Snapshot() []Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FeatureID != out[j].FeatureID {
			return out[i].FeatureID < out[j].FeatureID
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SubscribeResults registers a listener for regeneration results.
func (p *Planner) SubscribeResults(l ResultListener) {
	p.resMu.Lock()
	defer p.resMu.Unlock()
	p.resSubs = append(p.resSubs, l)
}

// LastResult returns the most recent regeneration result, or false when
// no reconciliation has run yet. Pull interface for the execution
// orchestrator.
func (p *Planner) LastResult() (RegenerationResult, bool) {
	p.resMu.RLock()
	defer p.resMu.RUnlock()
	if p.lastResult == nil {
		return RegenerationResult{}, false
	}
	return *p.lastResult, true
}

func (p *Planner) publish(r RegenerationResult) {
	p.resMu.Lock()
	cp := r
	p.lastResult = &cp
	subs := make([]ResultListener, len(p.resSubs))
	copy(subs, p.resSubs)
	p.resMu.Unlock()

	for _, l := range subs {
		p.safeNotify(l, r)
	}
}

func (p *Planner) safeNotify(l ResultListener, r RegenerationResult) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("result listener panicked", "seq", r.SpecSeq, "panic", rec)
		}
	}()
	l.OnRegeneration(r)
}

func (p *Planner) activeCountLocked() int {
	n := 0
	for _, t := range p.tasks {
		if t.Status != StatusCancelled {
			n++
		}
	}
	return n
}

func containsString(in []string, s string) bool {
	for _, v := range in {
		if v == s {
			return true
		}
	}
	return false
}
