// Package store persists the specification document.
//
// The backing store is a single JSON document at a fixed location. Writes
// are atomic: the document is written to a temporary file and renamed into
// place, so a partially written document is never observable. Transient
// write failures are retried a bounded number of times with backoff.
//
// After every successful write the store records the SHA-256 checksum of
// the written bytes. The file watch adapter compares the on-disk checksum
// against this record to distinguish the engine's own writes from genuine
// external edits; this content handshake is the only wire contract between
// the store and the watcher.
//
// A flock(2)-based file lock provides cross-process exclusion around the
// document for the case where a CLI process and a watcher daemon share the
// same store directory.
package store
