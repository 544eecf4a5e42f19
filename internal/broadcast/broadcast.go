// Package broadcast fans committed change events out to remote observers.
//
// Each registered connection is delivered to on its own goroutine with a
// bounded per-send timeout, so one slow or failed observer never delays
// its peers or the publisher. Dead connections are pruned by a periodic
// liveness probe rather than per-message acknowledgment; a slow consumer
// is bounded by the probe timeout, never by backpressure on the producer.
//
// The connection registry has its own lock, disjoint from the controller's
// write path, so observer churn never blocks specification mutation.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"specsync/internal/event"
	"specsync/internal/logging"
)

// Defaults for probe cadence and send bounds.
const (
	DefaultProbeInterval = 30 * time.Second
	DefaultSendTimeout   = 100 * time.Millisecond

	// maxSendFailures is the consecutive-failure count after which a
	// connection is dropped without waiting for the next probe.
	maxSendFailures = 3
)

// Conn is one remote observer connection. Implementations must be safe
// for concurrent Send and Ping calls.
type Conn interface {
	// ID identifies the connection for registration bookkeeping.
	ID() string

	// Send delivers one event, honoring the context deadline.
	Send(ctx context.Context, e event.ChangeEvent) error

	// Ping checks liveness, honoring the context deadline.
	Ping(ctx context.Context) error

	// Close releases the connection's resources.
	Close() error
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithProbeInterval overrides the liveness probe cadence.
func WithProbeInterval(d time.Duration) Option {
	return func(b *Broadcaster) {
		if d > 0 {
			b.probeInterval = d
		}
	}
}

// WithSendTimeout overrides the per-connection send bound.
func WithSendTimeout(d time.Duration) Option {
	return func(b *Broadcaster) {
		if d > 0 {
			b.sendTimeout = d
		}
	}
}

// conn wraps a registered connection with its failure bookkeeping.
type conn struct {
	c        Conn
	failures int
}

// Broadcaster tracks live observer connections and fans events out to all
// of them. It implements event.Listener so it subscribes directly to the
// change feed.
type Broadcaster struct {
	log           *logging.Logger
	probeInterval time.Duration
	sendTimeout   time.Duration

	// mu guards only the connection set; it is never held across a Send
	// or Ping.
	mu    sync.Mutex
	conns map[string]*conn

	lifeMu  sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Broadcaster.
func New(log *logging.Logger, opts ...Option) *Broadcaster {
	if log == nil {
		log = logging.NopLogger()
	}
	b := &Broadcaster{
		log:           log.WithComponent("broadcast"),
		probeInterval: DefaultProbeInterval,
		sendTimeout:   DefaultSendTimeout,
		conns:         make(map[string]*conn),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds a connection to the broadcast set, replacing any prior
// connection with the same ID.
func (b *Broadcaster) Register(c Conn) {
	b.mu.Lock()
	old := b.conns[c.ID()]
	b.conns[c.ID()] = &conn{c: c}
	n := len(b.conns)
	b.mu.Unlock()

	if old != nil {
		_ = old.c.Close()
	}
	b.log.Info("connection registered", "conn", c.ID(), "total", n)
}

// Unregister removes and closes a connection. Removing an unknown ID is a
// no-op.
func (b *Broadcaster) Unregister(id string) {
	b.mu.Lock()
	c, ok := b.conns[id]
	if ok {
		delete(b.conns, id)
	}
	n := len(b.conns)
	b.mu.Unlock()

	if ok {
		_ = c.c.Close()
		b.log.Info("connection unregistered", "conn", id, "total", n)
	}
}

// ConnectionCount returns the number of live connections.
func (b *Broadcaster) ConnectionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// OnChange implements event.Listener by broadcasting the event.
func (b *Broadcaster) OnChange(e event.ChangeEvent) {
	b.Broadcast(e)
}

// Broadcast delivers the event to every connection concurrently and
// returns once all sends have finished or timed out. Per-connection
// failures are counted; a connection exceeding the failure threshold is
// dropped immediately.
func (b *Broadcaster) Broadcast(e event.ChangeEvent) {
	b.mu.Lock()
	targets := make([]*conn, 0, len(b.conns))
	for _, c := range b.conns {
		targets = append(targets, c)
	}
	b.mu.Unlock()

	var wg conc.WaitGroup
	for _, c := range targets {
		c := c
		wg.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), b.sendTimeout)
			defer cancel()

			if err := c.c.Send(ctx, e); err != nil {
				b.noteFailure(c, err)
				return
			}
			b.noteSuccess(c)
		})
	}
	if recovered := wg.WaitAndRecover(); recovered != nil {
		b.log.Error("connection send panicked", "panic", recovered.String())
	}
}

func (b *Broadcaster) noteFailure(c *conn, err error) {
	b.mu.Lock()
	c.failures++
	drop := c.failures >= maxSendFailures
	if drop {
		delete(b.conns, c.c.ID())
	}
	b.mu.Unlock()

	if drop {
		_ = c.c.Close()
		b.log.Warn("connection dropped after repeated failures", "conn", c.c.ID(), "error", err.Error())
	} else {
		b.log.Debug("send failed", "conn", c.c.ID(), "error", err.Error())
	}
}

func (b *Broadcaster) noteSuccess(c *conn) {
	b.mu.Lock()
	c.failures = 0
	b.mu.Unlock()
}

// Start launches the background liveness loop.
func (b *Broadcaster) Start(ctx context.Context) {
	b.lifeMu.Lock()
	defer b.lifeMu.Unlock()
	if b.started {
		return
	}
	ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})
	b.started = true
	go b.probeLoop(ctx)
}

// Stop terminates the liveness loop and closes every connection.
func (b *Broadcaster) Stop() {
	b.lifeMu.Lock()
	if !b.started {
		b.lifeMu.Unlock()
		return
	}
	b.started = false
	cancel, done := b.cancel, b.done
	b.lifeMu.Unlock()

	cancel()
	<-done

	b.mu.Lock()
	conns := b.conns
	b.conns = make(map[string]*conn)
	b.mu.Unlock()
	for _, c := range conns {
		_ = c.c.Close()
	}
}

// probeLoop pings every connection at the probe interval and prunes the
// ones that fail.
func (b *Broadcaster) probeLoop(ctx context.Context) {
	defer close(b.done)

	ticker := time.NewTicker(b.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.probe(ctx)
		}
	}
}

func (b *Broadcaster) probe(ctx context.Context) {
	b.mu.Lock()
	targets := make([]*conn, 0, len(b.conns))
	for _, c := range b.conns {
		targets = append(targets, c)
	}
	b.mu.Unlock()

	var wg conc.WaitGroup
	for _, c := range targets {
		c := c
		wg.Go(func() {
			probeCtx, cancel := context.WithTimeout(ctx, b.sendTimeout)
			defer cancel()

			if err := c.c.Ping(probeCtx); err != nil {
				b.mu.Lock()
				delete(b.conns, c.c.ID())
				b.mu.Unlock()
				_ = c.c.Close()
				b.log.Info("connection pruned by liveness probe", "conn", c.c.ID(), "error", err.Error())
			}
		})
	}
	if recovered := wg.WaitAndRecover(); recovered != nil {
		b.log.Error("connection ping panicked", "panic", recovered.String())
	}
}
