package event

import (
	"time"

	"specsync/internal/spec"
)

// ChangeKind identifies the shape of a committed mutation.
type ChangeKind string

const (
	KindFeatureAdded    ChangeKind = "feature_added"
	KindFeatureRemoved  ChangeKind = "feature_removed"
	KindFeatureUpdated  ChangeKind = "feature_updated"
	KindMetadataUpdated ChangeKind = "metadata_updated"
)

// String returns the string representation of the change kind.
func (k ChangeKind) String() string {
	return string(k)
}

// ChangeEvent is the immutable record of one committed specification
// mutation. It is created once per commit and delivered, never persisted.
// The embedded snapshot and diff are private clones; listeners may read
// them freely without racing the committer.
type ChangeEvent struct {
	// Seq is the commit sequence number, identical to the version ledger
	// index assigned to this mutation.
	Seq int

	// Kind identifies the mutation shape.
	Kind ChangeKind

	// Affected lists the feature IDs the mutation touched, sorted.
	// Metadata-only mutations carry an empty list.
	Affected []string

	// Spec is the post-mutation snapshot.
	Spec *spec.Specification

	// Diff is the structural difference from the previous snapshot.
	Diff spec.Diff

	// Timestamp is when the commit was serialized.
	Timestamp time.Time

	// Author identifies the mutation's origin channel or user.
	Author string
}

// Listener receives committed change events. Implementations must not
// mutate the event's snapshot; they receive a shared clone. The explicit
// interface (rather than a bare callback) lets the feed enforce failure
// isolation structurally.
type Listener interface {
	OnChange(ChangeEvent)
}

// Func adapts a plain function to the Listener interface.
type Func func(ChangeEvent)

// OnChange calls f.
func (f Func) OnChange(e ChangeEvent) { f(e) }
