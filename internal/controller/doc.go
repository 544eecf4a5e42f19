// Package controller implements the specification controller, the sole
// mutation gateway for the spec document.
//
// Every mutation, regardless of origin channel (structured API call,
// confirmed intent proposal, out-of-band file edit), flows through
// [Controller.Apply]: validate against the committed snapshot, mutate a
// clone under the exclusive write lock, persist atomically, append a
// version ledger entry, and publish a change event. An apply either fully
// succeeds (ledger entry and event both exist) or fully fails (no trace in
// store or ledger).
//
// # Concurrency
//
// Writes serialize behind a bounded-wait exclusive lock; acquisition
// failure surfaces as LockTimeoutError rather than queueing indefinitely.
// Reads take no lock: the committed snapshot lives behind an atomic
// pointer and is deep-cloned on every read (copy-on-write). Two racing
// applies are ordered by commit, not submission; the second is validated
// against the first's committed result, and an edit whose target was
// concurrently removed fails with StaleReferenceError instead of silently
// applying against outdated state.
//
// Once the lock is acquired a commit runs to completion even if the caller
// abandons the wait: the context passed to Apply gates only lock
// acquisition.
package controller
