// Package watch detects out-of-band edits to the backing store and routes
// them through the controller's ordinary apply path, so external edits get
// the same validation, versioning, and event guarantees as any other
// channel.
//
// Self-write suppression uses a content-checksum handshake: the store
// records the SHA-256 of every document it writes, and the adapter compares
// the on-disk checksum against that record before reacting. Timing
// heuristics are not used anywhere; they are racy under rapid successive
// writes.
//
// Filesystem event bursts (editors commonly emit several events per save)
// are debounced into a single reload per quiet window.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"specsync/internal/controller"
	"specsync/internal/errors"
	"specsync/internal/logging"
	"specsync/internal/spec"
	"specsync/internal/store"
)

// DefaultDebounce is the quiet window collapsing a burst of filesystem
// events into one reload.
const DefaultDebounce = 750 * time.Millisecond

// Option configures an Adapter.
type Option func(*Adapter)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.debounce = d
		}
	}
}

// Adapter watches the store document's directory and funnels genuine
// external changes through the controller.
type Adapter struct {
	store    *store.Store
	ctrl     *controller.Controller
	log      *logging.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an Adapter over the given store and controller.
func New(st *store.Store, ctrl *controller.Controller, log *logging.Logger, opts ...Option) (*Adapter, error) {
	if st == nil {
		return nil, errors.New("watch: store is required")
	}
	if ctrl == nil {
		return nil, errors.New("watch: controller is required")
	}
	if log == nil {
		log = logging.NopLogger()
	}
	a := &Adapter{
		store:    st,
		ctrl:     ctrl,
		log:      log.WithComponent("watch"),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Start begins the background monitoring loop. Watching the parent
// directory rather than the file itself survives the atomic
// rename-into-place the store performs.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return errors.New("watch: already started")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(a.store.Path())); err != nil {
		_ = watcher.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	a.watcher = watcher
	a.cancel = cancel
	a.done = make(chan struct{})
	a.started = true

	go a.loop(ctx)
	a.log.Info("watching store", "path", a.store.Path(), "debounce", a.debounce.String())
	return nil
}

// Stop terminates the monitoring loop and waits for it to exit.
func (a *Adapter) Stop() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	cancel, done, watcher := a.cancel, a.done, a.watcher
	a.mu.Unlock()

	cancel()
	_ = watcher.Close()
	<-done
}

// loop processes filesystem events, debouncing bursts into one reload.
func (a *Adapter) loop(ctx context.Context) {
	defer close(a.done)

	debounce := time.NewTimer(a.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	target := filepath.Base(a.store.Path())

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-a.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = true
			if !debounce.Stop() {
				// Drain a fire that raced this event so the reset
				// starts a full quiet window.
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(a.debounce)

		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			a.handleChange()

		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
			a.log.Warn("watcher error", "error", err.Error())
		}
	}
}

// handleChange decides whether the on-disk document changed externally and
// if so replays the difference through the controller.
func (a *Adapter) handleChange() {
	onDisk, err := a.store.CurrentChecksum()
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
			a.log.Warn("store document missing", "path", a.store.Path())
			return
		}
		a.log.Warn("checksum store document", "error", err.Error())
		return
	}

	// Checksum handshake: our own writes leave the recorded checksum
	// matching the disk content.
	if onDisk == a.store.LastChecksum() {
		a.log.Debug("ignoring self-write", "checksum", onDisk[:12])
		return
	}

	external, err := a.store.Load()
	if err != nil {
		// Corrupt external content is surfaced and skipped; the committed
		// snapshot and ledger are untouched and remain recoverable.
		if errors.Is(err, errors.ErrCorruptStore) {
			a.log.Error("external edit is unparseable, keeping prior state", "error", err.Error())
		} else {
			a.log.Warn("reload store document", "error", err.Error())
		}
		return
	}

	current := a.ctrl.Current()
	edits := spec.EditsFor(current, external)
	if len(edits) == 0 {
		a.log.Debug("external write carried no structural change")
		return
	}

	a.log.Info("external edit detected", "edits", len(edits))
	for _, edit := range edits {
		ctx, cancelApply := context.WithTimeout(context.Background(), controller.DefaultLockTimeout)
		_, err := a.ctrl.Apply(ctx, edit, controller.AuthorExternal)
		cancelApply()
		if err != nil {
			a.log.Error("apply external edit", "error", err.Error())
		}
	}
}
