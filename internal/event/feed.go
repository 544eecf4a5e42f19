package event

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"specsync/internal/logging"
)

// subscription pairs a listener with its registration ID.
type subscription struct {
	id       string
	listener Listener
}

// Feed is a synchronous pub-sub dispatcher for change events. It allows
// the controller to notify collaborators without direct dependencies.
// All methods are safe for concurrent use.
type Feed struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID atomic.Uint64
	log    *logging.Logger
}

// NewFeed creates a Feed that logs listener failures to the given logger.
func NewFeed(log *logging.Logger) *Feed {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Feed{log: log}
}

// Subscribe registers a listener and returns a subscription ID for
// Unsubscribe. Listeners are invoked in registration order.
func (f *Feed) Subscribe(l Listener) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := fmt.Sprintf("sub-%d", f.nextID.Add(1))
	f.subs = append(f.subs, subscription{id: id, listener: l})
	return id
}

// Unsubscribe removes a subscription by ID. Returns true if the
// subscription was found and removed.
func (f *Feed) Unsubscribe(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, sub := range f.subs {
		if sub.id == id {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers the event to every listener in registration order.
// The committer calls this while holding the write lock, so listeners
// observe commits in serialization order. A panicking listener is
// recovered and logged; delivery continues to the remaining listeners.
func (f *Feed) Publish(e ChangeEvent) {
	f.mu.RLock()
	subs := make([]subscription, len(f.subs))
	copy(subs, f.subs)
	f.mu.RUnlock()

	for _, sub := range subs {
		f.safeDeliver(sub, e)
	}
}

// safeDeliver invokes one listener and recovers from any panic so one
// misbehaving subscriber cannot block the commit or its peers.
func (f *Feed) safeDeliver(sub subscription, e ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("change listener panicked",
				"subscription", sub.id,
				"event_kind", e.Kind.String(),
				"seq", e.Seq,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	sub.listener.OnChange(e)
}

// SubscriberCount returns the number of active subscriptions.
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
