package controller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"specsync/internal/errors"
	"specsync/internal/event"
	"specsync/internal/intent"
	"specsync/internal/ledger"
	"specsync/internal/logging"
	"specsync/internal/spec"
	"specsync/internal/store"
)

// DefaultLockTimeout bounds the wait for the write lock before an apply
// fails with LockTimeoutError.
const DefaultLockTimeout = 5 * time.Second

// AuthorExternal is the author recorded for mutations originating from
// out-of-band edits to the backing store.
const AuthorExternal = "external"

// Option configures a Controller.
type Option func(*Controller)

// WithLockTimeout overrides the bounded wait for the write lock.
func WithLockTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.lockTimeout = d
		}
	}
}

// Controller is the sole mutation gateway over the specification store.
// Construct one per store with New and pass it by handle; there is no
// package-level instance.
type Controller struct {
	store       *store.Store
	ledger      *ledger.Ledger
	feed        *event.Feed
	log         *logging.Logger
	lockTimeout time.Duration

	// writeSem is the exclusive write lock; a buffered channel so
	// acquisition can race a timeout.
	writeSem chan struct{}

	// histMu guards the ledger: Apply holds it briefly for the append,
	// Versions/version lookups take the read side. Broadcaster and feed
	// registration locks are disjoint from this.
	histMu sync.RWMutex

	// snapshot is the committed immutable specification. Readers load it
	// without locking and receive deep clones.
	snapshot atomic.Pointer[spec.Specification]
}

// New creates a Controller over the given collaborators. All dependencies
// are explicit; none may be nil except the logger.
func New(st *store.Store, led *ledger.Ledger, feed *event.Feed, log *logging.Logger, opts ...Option) (*Controller, error) {
	if st == nil {
		return nil, errors.New("controller: store is required")
	}
	if led == nil {
		return nil, errors.New("controller: ledger is required")
	}
	if feed == nil {
		return nil, errors.New("controller: feed is required")
	}
	if log == nil {
		log = logging.NopLogger()
	}

	c := &Controller{
		store:       st,
		ledger:      led,
		feed:        feed,
		log:         log.WithComponent("controller"),
		lockTimeout: DefaultLockTimeout,
		writeSem:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Load reads and validates the backing store, installing the committed
// snapshot. Unparseable content surfaces as CorruptStoreError; the caller
// can recover by rolling back to a retained version entry.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	doc, err := c.store.Load()
	if err != nil {
		return err
	}
	if err := spec.Validate(doc); err != nil {
		return errors.NewCorruptStoreError(c.store.Path(), err)
	}
	c.snapshot.Store(doc)
	c.log.Info("specification loaded", "project", doc.Project, "features", len(doc.Features))
	return nil
}

// Init creates and persists an empty specification for the given project.
// It fails if a snapshot is already loaded.
func (c *Controller) Init(ctx context.Context, project string) error {
	if project == "" {
		return errors.NewValidationError("project", "must not be empty")
	}
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	if c.snapshot.Load() != nil {
		return errors.New("controller: specification already initialized")
	}
	doc := spec.NewSpecification(project)
	doc.UpdatedAt = time.Now()
	if err := c.store.Save(doc); err != nil {
		return err
	}
	c.snapshot.Store(doc)
	c.log.Info("specification initialized", "project", project)
	return nil
}

// Apply validates and commits one structured edit. On success the returned
// ChangeEvent has already been delivered to all subscribers. The context
// gates only lock acquisition; once the lock is held, the commit runs to
// completion even if the caller abandons the wait.
func (c *Controller) Apply(ctx context.Context, edit spec.StructuredEdit, author string) (event.ChangeEvent, error) {
	if edit == nil {
		return event.ChangeEvent{}, errors.NewValidationError("", "edit is nil")
	}
	if err := c.acquire(ctx); err != nil {
		return event.ChangeEvent{}, err
	}
	defer c.release()

	return c.commit(edit, author, summaryFor(edit))
}

// commit performs the locked portion of an apply. The caller must hold the
// write lock.
func (c *Controller) commit(edit spec.StructuredEdit, author, summary string) (event.ChangeEvent, error) {
	base := c.snapshot.Load()
	if base == nil {
		return event.ChangeEvent{}, errors.New("controller: no specification loaded")
	}

	// Mutate a clone; the committed snapshot stays untouched until the
	// durable write succeeds.
	next := base.Clone()
	affected, err := spec.Apply(next, edit, time.Now())
	if err != nil {
		return event.ChangeEvent{}, err
	}
	if err := spec.Validate(next); err != nil {
		return event.ChangeEvent{}, err
	}

	persistStart := time.Now()
	if err := c.store.Save(next); err != nil {
		return event.ChangeEvent{}, fmt.Errorf("persist specification: %w", err)
	}

	c.histMu.Lock()
	entry := c.ledger.Append(author, summary, next)
	c.histMu.Unlock()

	c.snapshot.Store(next)

	ev := event.ChangeEvent{
		Seq:       entry.Index,
		Kind:      kindFor(edit),
		Affected:  affected,
		Spec:      next.Clone(),
		Diff:      spec.DiffSpecs(base, next),
		Timestamp: entry.Timestamp,
		Author:    author,
	}
	c.feed.Publish(ev)

	c.log.Info("mutation committed",
		"seq", entry.Index,
		"kind", ev.Kind.String(),
		"affected", affected,
		"author", author,
		"persist_ms", time.Since(persistStart).Milliseconds())
	return ev, nil
}

// Current returns a deep clone of the committed snapshot without locking,
// or nil when nothing is loaded.
func (c *Controller) Current() *spec.Specification {
	return c.snapshot.Load().Clone()
}

// Versions returns the retained version entries, newest first.
func (c *Controller) Versions() []ledger.VersionEntry {
	c.histMu.RLock()
	defer c.histMu.RUnlock()
	return c.ledger.List()
}

// Version returns the retained entry with the given index.
func (c *Controller) Version(index int) (ledger.VersionEntry, error) {
	c.histMu.RLock()
	defer c.histMu.RUnlock()
	return c.ledger.Get(index)
}

// Rollback restores the snapshot at the given version index as a fresh
// mutation: a new ledger entry is appended and a change event published.
// History is never rewritten. Fails with UnknownVersionError when the
// index was evicted.
func (c *Controller) Rollback(ctx context.Context, index int, author string) (event.ChangeEvent, error) {
	if err := c.acquire(ctx); err != nil {
		return event.ChangeEvent{}, err
	}
	defer c.release()

	c.histMu.RLock()
	entry, err := c.ledger.Get(index)
	c.histMu.RUnlock()
	if err != nil {
		return event.ChangeEvent{}, err
	}

	base := c.snapshot.Load()
	if base == nil {
		return event.ChangeEvent{}, errors.New("controller: no specification loaded")
	}

	next := entry.Snapshot.Clone()
	next.UpdatedAt = time.Now()
	if err := spec.Validate(next); err != nil {
		return event.ChangeEvent{}, err
	}
	if err := c.store.Save(next); err != nil {
		return event.ChangeEvent{}, fmt.Errorf("persist specification: %w", err)
	}

	diff := spec.DiffSpecs(base, next)

	c.histMu.Lock()
	newEntry := c.ledger.Append(author, fmt.Sprintf("rollback to version %d", index), next)
	c.histMu.Unlock()

	c.snapshot.Store(next)

	ev := event.ChangeEvent{
		Seq:       newEntry.Index,
		Kind:      kindForDiff(diff),
		Affected:  diff.AffectedFeatures(),
		Spec:      next.Clone(),
		Diff:      diff,
		Timestamp: newEntry.Timestamp,
		Author:    author,
	}
	c.feed.Publish(ev)

	c.log.Info("rolled back", "to_version", index, "new_version", newEntry.Index, "author", author)
	return ev, nil
}

// Subscribe registers an in-process listener on the change feed and
// returns its subscription ID.
func (c *Controller) Subscribe(l event.Listener) string {
	return c.feed.Subscribe(l)
}

// Unsubscribe removes a feed subscription by ID.
func (c *Controller) Unsubscribe(id string) bool {
	return c.feed.Unsubscribe(id)
}

// ParsePreview translates free text into a structured edit proposal. The
// second return is false when the text is unrecognized. Parsing never
// mutates state; the proposal must be confirmed and passed to Apply.
func (c *Controller) ParsePreview(text string) (spec.StructuredEdit, bool) {
	return intent.Parse(text)
}

// acquire takes the write lock, bounded by the lock timeout and the
// caller's context.
func (c *Controller) acquire(ctx context.Context) error {
	timer := time.NewTimer(c.lockTimeout)
	defer timer.Stop()

	select {
	case c.writeSem <- struct{}{}:
		return nil
	case <-timer.C:
		return errors.NewLockTimeoutError(c.lockTimeout.String())
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) release() {
	<-c.writeSem
}

func kindFor(edit spec.StructuredEdit) event.ChangeKind {
	switch edit.(type) {
	case spec.AddFeature:
		return event.KindFeatureAdded
	case spec.RemoveFeature:
		return event.KindFeatureRemoved
	case spec.UpdateFeature:
		return event.KindFeatureUpdated
	default:
		return event.KindMetadataUpdated
	}
}

// kindForDiff classifies a multi-feature diff, as produced by rollback or
// an external document edit batch, under the closest single change kind.
func kindForDiff(d spec.Diff) event.ChangeKind {
	switch {
	case len(d.Added) > 0 && len(d.Removed) == 0 && len(d.Updated) == 0:
		return event.KindFeatureAdded
	case len(d.Removed) > 0 && len(d.Added) == 0 && len(d.Updated) == 0:
		return event.KindFeatureRemoved
	case len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Updated) > 0:
		return event.KindFeatureUpdated
	default:
		return event.KindMetadataUpdated
	}
}

func summaryFor(edit spec.StructuredEdit) string {
	switch e := edit.(type) {
	case spec.AddFeature:
		return fmt.Sprintf("add feature %s", e.ID)
	case spec.RemoveFeature:
		return fmt.Sprintf("remove feature %s", e.ID)
	case spec.UpdateFeature:
		return fmt.Sprintf("update feature %s", e.ID)
	case spec.UpdateMetadata:
		return "update metadata"
	default:
		return fmt.Sprintf("%T", edit)
	}
}
