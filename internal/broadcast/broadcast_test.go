package broadcast

import (
	"context"
	"testing"
	"time"

	"specsync/internal/errors"
	"specsync/internal/event"
	"specsync/internal/spec"
)

func testEvent(seq int) event.ChangeEvent {
	return event.ChangeEvent{
		Seq:  seq,
		Kind: event.KindFeatureAdded,
		Spec: spec.NewSpecification("demo"),
	}
}

func TestBroadcaster_FansOutToAllConnections(t *testing.T) {
	b := New(nil)
	a := NewChanConn(1)
	c := NewChanConn(1)
	b.Register(a)
	b.Register(c)

	b.Broadcast(testEvent(0))

	for _, conn := range []*ChanConn{a, c} {
		select {
		case e := <-conn.Events():
			if e.Seq != 0 {
				t.Errorf("Expected seq 0, got %d", e.Seq)
			}
		default:
			t.Errorf("Connection %s did not receive the event", conn.ID())
		}
	}
}

func TestBroadcaster_SlowConsumerDoesNotBlockPeers(t *testing.T) {
	b := New(nil, WithSendTimeout(50*time.Millisecond))

	slow := NewChanConn(0) // nothing draining: every send times out
	fast := NewChanConn(4)
	b.Register(slow)
	b.Register(fast)

	start := time.Now()
	b.Broadcast(testEvent(0))
	elapsed := time.Since(start)

	select {
	case <-fast.Events():
	default:
		t.Error("Fast connection should receive the event despite the slow peer")
	}
	if elapsed > time.Second {
		t.Errorf("Broadcast should be bounded by the send timeout, took %s", elapsed)
	}
}

func TestBroadcaster_DropsAfterRepeatedFailures(t *testing.T) {
	b := New(nil, WithSendTimeout(10*time.Millisecond))

	slow := NewChanConn(0)
	b.Register(slow)

	for i := 0; i < maxSendFailures; i++ {
		b.Broadcast(testEvent(i))
	}

	if b.ConnectionCount() != 0 {
		t.Errorf("Connection should be dropped after %d failures, count %d", maxSendFailures, b.ConnectionCount())
	}

	// The dropped connection is closed.
	if err := slow.Ping(context.Background()); !errors.Is(err, ErrConnClosed) {
		t.Errorf("Dropped connection should be closed, got %v", err)
	}
}

func TestBroadcaster_SuccessResetsFailureCount(t *testing.T) {
	b := New(nil, WithSendTimeout(10*time.Millisecond))

	conn := NewChanConn(1)
	b.Register(conn)

	// Two failures, then a drain and a success, then two more failures:
	// the reset means the connection survives all five sends.
	b.Broadcast(testEvent(0)) // fills the buffer
	b.Broadcast(testEvent(1)) // timeout
	b.Broadcast(testEvent(2)) // timeout
	<-conn.Events()
	b.Broadcast(testEvent(3)) // success, resets counter
	b.Broadcast(testEvent(4)) // timeout

	if b.ConnectionCount() != 1 {
		t.Error("A successful send should reset the failure counter")
	}
}

func TestBroadcaster_RegisterReplacesSameID(t *testing.T) {
	b := New(nil)
	conn := NewChanConn(1)
	b.Register(conn)
	b.Register(conn) // same ID: replaced, old handle closed

	if b.ConnectionCount() != 1 {
		t.Errorf("Expected 1 connection, got %d", b.ConnectionCount())
	}
}

func TestBroadcaster_Unregister(t *testing.T) {
	b := New(nil)
	conn := NewChanConn(1)
	b.Register(conn)

	b.Unregister(conn.ID())
	if b.ConnectionCount() != 0 {
		t.Errorf("Expected 0 connections, got %d", b.ConnectionCount())
	}
	if err := conn.Ping(context.Background()); !errors.Is(err, ErrConnClosed) {
		t.Error("Unregistered connection should be closed")
	}

	b.Unregister("no-such-id") // no-op
}

func TestBroadcaster_ProbePrunesDeadConnections(t *testing.T) {
	b := New(nil, WithProbeInterval(20*time.Millisecond))

	dead := NewChanConn(1)
	live := NewChanConn(1)
	b.Register(dead)
	b.Register(live)
	_ = dead.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)
	defer b.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for b.ConnectionCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("Probe did not prune the dead connection")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := live.Ping(context.Background()); err != nil {
		t.Errorf("Live connection should survive the probe, got %v", err)
	}
}

func TestBroadcaster_StopClosesConnections(t *testing.T) {
	b := New(nil)
	conn := NewChanConn(1)
	b.Register(conn)

	b.Start(context.Background())
	b.Stop()

	if err := conn.Ping(context.Background()); !errors.Is(err, ErrConnClosed) {
		t.Error("Stop should close registered connections")
	}
	if b.ConnectionCount() != 0 {
		t.Errorf("Expected 0 connections after stop, got %d", b.ConnectionCount())
	}
}

func TestBroadcaster_ImplementsListener(t *testing.T) {
	var _ event.Listener = New(nil)

	b := New(nil)
	conn := NewChanConn(1)
	b.Register(conn)

	b.OnChange(testEvent(7))

	select {
	case e := <-conn.Events():
		if e.Seq != 7 {
			t.Errorf("Expected seq 7, got %d", e.Seq)
		}
	default:
		t.Error("OnChange should broadcast the event")
	}
}

func TestChanConn_SendAfterClose(t *testing.T) {
	conn := NewChanConn(1)
	_ = conn.Close()
	_ = conn.Close() // idempotent

	err := conn.Send(context.Background(), testEvent(0))
	if !errors.Is(err, ErrConnClosed) {
		t.Errorf("Expected ErrConnClosed, got %v", err)
	}
}

func TestChanConn_SendHonorsContext(t *testing.T) {
	conn := NewChanConn(0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := conn.Send(ctx, testEvent(0))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}
