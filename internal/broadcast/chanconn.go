package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"specsync/internal/errors"
	"specsync/internal/event"
)

// ErrConnClosed is returned by Send and Ping after Close.
var ErrConnClosed = errors.New("connection closed")

// ChanConn is a channel-backed Conn for in-process observers and tests.
// Events are delivered to the Events channel; a full channel makes Send
// block until the context deadline, mimicking a slow remote consumer.
type ChanConn struct {
	id     string
	events chan event.ChangeEvent

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewChanConn creates a ChanConn with the given delivery buffer size.
func NewChanConn(buffer int) *ChanConn {
	if buffer < 0 {
		buffer = 0
	}
	return &ChanConn{
		id:     uuid.NewString(),
		events: make(chan event.ChangeEvent, buffer),
		done:   make(chan struct{}),
	}
}

// ID implements Conn.
func (c *ChanConn) ID() string { return c.id }

// Events returns the delivery channel.
func (c *ChanConn) Events() <-chan event.ChangeEvent { return c.events }

// Send implements Conn.
func (c *ChanConn) Send(ctx context.Context, e event.ChangeEvent) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.events <- e:
		return nil
	case <-c.done:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ping implements Conn.
func (c *ChanConn) Ping(ctx context.Context) error {
	select {
	case <-c.done:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Close implements Conn. Closing twice is safe.
func (c *ChanConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

var _ Conn = (*ChanConn)(nil)
