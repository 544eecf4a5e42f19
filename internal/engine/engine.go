// Package engine wires the specsync components together for a single
// store: store, ledger, change feed, controller, planner, file watch
// adapter, and broadcaster. It is the one construction point; every
// component is built explicitly and passed by handle, with no package
// globals.
package engine

import (
	"context"
	"os"
	"sync"

	"specsync/internal/broadcast"
	"specsync/internal/config"
	"specsync/internal/controller"
	"specsync/internal/errors"
	"specsync/internal/event"
	"specsync/internal/ledger"
	"specsync/internal/logging"
	"specsync/internal/planner"
	"specsync/internal/store"
	"specsync/internal/watch"
)

// Engine owns the lifecycle of one specification's synchronization stack.
type Engine struct {
	cfg *config.Config
	log *logging.Logger

	store       *store.Store
	ledger      *ledger.Ledger
	feed        *event.Feed
	controller  *controller.Controller
	planner     *planner.Planner
	watcher     *watch.Adapter
	broadcaster *broadcast.Broadcaster

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// New constructs an Engine from configuration. Nothing is started and no
// file is read; call Start.
func New(cfg *config.Config, log *logging.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine: config is required")
	}
	if log == nil {
		log = logging.NopLogger()
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	led := ledger.New(cfg.Ledger.Capacity)
	feed := event.NewFeed(log)

	ctrl, err := controller.New(st, led, feed, log,
		controller.WithLockTimeout(cfg.LockTimeout()))
	if err != nil {
		return nil, err
	}

	pl := planner.New(log)

	wa, err := watch.New(st, ctrl, log, watch.WithDebounce(cfg.Debounce()))
	if err != nil {
		return nil, err
	}

	bc := broadcast.New(log,
		broadcast.WithProbeInterval(cfg.ProbeInterval()),
		broadcast.WithSendTimeout(cfg.SendTimeout()))

	return &Engine{
		cfg:         cfg,
		log:         log.WithComponent("engine"),
		store:       st,
		ledger:      led,
		feed:        feed,
		controller:  ctrl,
		planner:     pl,
		watcher:     wa,
		broadcaster: bc,
	}, nil
}

// Start loads the specification (initializing an empty one for the given
// project if the store document does not exist yet), restores the planner
// state, seeds the task graph, subscribes the planner and broadcaster to
// the change feed, and launches the background loops.
func (e *Engine) Start(ctx context.Context, project string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return errors.New("engine: already started")
	}

	ctx, cancel := context.WithCancel(ctx)

	if e.store.Exists() {
		if err := e.controller.Load(ctx); err != nil {
			cancel()
			return err
		}
	} else {
		if err := e.controller.Init(ctx, project); err != nil {
			cancel()
			return err
		}
	}

	if err := os.MkdirAll(e.cfg.Store.StateDir, 0755); err != nil {
		cancel()
		return err
	}
	if err := e.planner.LoadState(e.cfg.Store.StateDir); err != nil {
		e.log.Warn("task graph state unreadable, starting fresh", "error", err.Error())
	}

	e.controller.Subscribe(e.planner)
	e.controller.Subscribe(e.broadcaster)

	e.planner.Start(ctx)
	e.broadcaster.Start(ctx)
	if e.cfg.Watch.Enabled {
		if err := e.watcher.Start(ctx); err != nil {
			cancel()
			e.planner.Stop()
			e.broadcaster.Stop()
			return err
		}
	}

	// Seed after Start so the initial result reaches subscribers.
	if cur := e.controller.Current(); cur != nil {
		seq := -1
		if latest, ok := e.ledger.Latest(); ok {
			seq = latest.Index
		}
		e.planner.Seed(cur, seq)
	}

	e.cancel = cancel
	e.started = true
	e.log.Info("engine started", "store", e.cfg.Store.Path)
	return nil
}

// Stop shuts down the background loops and persists the planner state.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	cancel := e.cancel
	e.mu.Unlock()

	if e.cfg.Watch.Enabled {
		e.watcher.Stop()
	}
	e.planner.Stop()
	e.broadcaster.Stop()
	cancel()

	if err := e.planner.SaveState(e.cfg.Store.StateDir); err != nil {
		e.log.Error("persist task graph state", "error", err.Error())
	}
	e.log.Info("engine stopped")
}

// Controller returns the mutation gateway.
func (e *Engine) Controller() *controller.Controller { return e.controller }

// Planner returns the task graph owner.
func (e *Engine) Planner() *planner.Planner { return e.planner }

// Broadcaster returns the remote observer fan-out.
func (e *Engine) Broadcaster() *broadcast.Broadcaster { return e.broadcaster }

// Feed returns the in-process change feed.
func (e *Engine) Feed() *event.Feed { return e.feed }
