// Package event provides the change feed: an in-process pub-sub bus that
// delivers committed specification mutations to subscribers.
//
// # Main Types
//
//   - [ChangeEvent]: immutable record of one committed mutation
//   - [Listener]: interface with a single OnChange method
//   - [Feed]: ordered, synchronous dispatcher with per-listener isolation
//
// # Delivery Semantics
//
// The controller publishes from its committing path while holding the write
// lock, so events for distinct commits reach every listener in the order
// the commits were serialized. A listener that panics is recovered and
// logged; it never blocks the committer or its peer listeners. Listeners
// that need to do slow work must hand the event off to their own goroutine.
package event
