// Package ledger retains a bounded history of specification snapshots.
//
// The ledger is a fixed-capacity ring buffer: appending past capacity
// evicts the oldest entry. Capacity is fixed at construction so eviction is
// an explicit design decision rather than a silent data-loss surprise.
// Entries are immutable after append; snapshots are deep-cloned on the way
// in and out. Version indexes are globally monotonic and survive eviction,
// so a rollback against an evicted index fails loudly with
// UnknownVersionError instead of silently resolving to the wrong snapshot.
package ledger

import (
	"time"

	"specsync/internal/errors"
	"specsync/internal/spec"
)

// DefaultCapacity is the number of entries retained when no explicit
// capacity is given.
const DefaultCapacity = 10

// VersionEntry is one retained snapshot of the specification.
type VersionEntry struct {
	Index     int                 `json:"index"`
	Timestamp time.Time           `json:"timestamp"`
	Author    string              `json:"author"`
	Snapshot  *spec.Specification `json:"snapshot"`
	Summary   string              `json:"summary"`
}

// Ledger is a bounded ring buffer of version entries. It is not safe for
// concurrent use on its own; the controller mutates it only while holding
// the write lock.
type Ledger struct {
	entries  []VersionEntry // oldest first
	capacity int
	next     int // next index to assign
}

// New creates a Ledger with the given capacity. A capacity below one falls
// back to DefaultCapacity.
func New(capacity int) *Ledger {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Ledger{
		entries:  make([]VersionEntry, 0, capacity),
		capacity: capacity,
	}
}

// Append records a new snapshot and returns the entry as stored, with its
// assigned index. The snapshot is deep-cloned so later mutations of the
// caller's copy cannot alter history. The oldest entry is evicted once the
// ring is full.
func (l *Ledger) Append(author, summary string, snapshot *spec.Specification) VersionEntry {
	entry := VersionEntry{
		Index:     l.next,
		Timestamp: time.Now(),
		Author:    author,
		Snapshot:  snapshot.Clone(),
		Summary:   summary,
	}
	l.next++

	if len(l.entries) == l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries[len(l.entries)-1] = entry
	} else {
		l.entries = append(l.entries, entry)
	}
	return entry
}

// List returns the retained entries newest first. Snapshots are cloned.
func (l *Ledger) List() []VersionEntry {
	out := make([]VersionEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		e.Snapshot = e.Snapshot.Clone()
		out = append(out, e)
	}
	return out
}

// Get returns the entry with the given index, or an UnknownVersionError if
// it was evicted or never assigned. The snapshot is cloned.
func (l *Ledger) Get(index int) (VersionEntry, error) {
	if len(l.entries) == 0 {
		return VersionEntry{}, errors.NewUnknownVersionError(index, -1, -1)
	}
	oldest := l.entries[0].Index
	newest := l.entries[len(l.entries)-1].Index
	if index < oldest || index > newest {
		return VersionEntry{}, errors.NewUnknownVersionError(index, oldest, newest)
	}
	e := l.entries[index-oldest]
	e.Snapshot = e.Snapshot.Clone()
	return e, nil
}

// Latest returns the newest entry and true, or false when empty.
func (l *Ledger) Latest() (VersionEntry, bool) {
	if len(l.entries) == 0 {
		return VersionEntry{}, false
	}
	e := l.entries[len(l.entries)-1]
	e.Snapshot = e.Snapshot.Clone()
	return e, true
}

// Len returns the number of retained entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Capacity returns the fixed capacity set at construction.
func (l *Ledger) Capacity() int {
	return l.capacity
}
