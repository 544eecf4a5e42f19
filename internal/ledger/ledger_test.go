package ledger

import (
	"testing"

	"specsync/internal/errors"
	"specsync/internal/spec"
)

func snapshotFor(project string) *spec.Specification {
	return spec.NewSpecification(project)
}

func TestLedger_AppendAssignsMonotonicIndexes(t *testing.T) {
	l := New(3)

	for i := 0; i < 5; i++ {
		entry := l.Append("cli", "edit", snapshotFor("demo"))
		if entry.Index != i {
			t.Errorf("Expected index %d, got %d", i, entry.Index)
		}
	}
}

func TestLedger_EvictsOldest(t *testing.T) {
	l := New(3)

	for i := 0; i < 5; i++ {
		l.Append("cli", "edit", snapshotFor("demo"))
	}

	if l.Len() != 3 {
		t.Fatalf("Expected 3 retained entries, got %d", l.Len())
	}

	// Indexes 0 and 1 were evicted; 2..4 remain.
	for _, idx := range []int{0, 1} {
		if _, err := l.Get(idx); !errors.Is(err, errors.ErrUnknownVersion) {
			t.Errorf("Expected unknown version for evicted index %d, got %v", idx, err)
		}
	}
	for _, idx := range []int{2, 3, 4} {
		if _, err := l.Get(idx); err != nil {
			t.Errorf("Expected retained index %d, got error %v", idx, err)
		}
	}
}

func TestLedger_IndexesSurviveEviction(t *testing.T) {
	l := New(2)

	l.Append("cli", "first", snapshotFor("demo"))
	l.Append("cli", "second", snapshotFor("demo"))
	l.Append("cli", "third", snapshotFor("demo"))

	entry := l.Append("cli", "fourth", snapshotFor("demo"))
	if entry.Index != 3 {
		t.Errorf("Index assignment must not reset after eviction, got %d", entry.Index)
	}
}

func TestLedger_GetOutOfRange(t *testing.T) {
	l := New(3)

	_, err := l.Get(0)
	if !errors.Is(err, errors.ErrUnknownVersion) {
		t.Errorf("Expected unknown version on empty ledger, got %v", err)
	}

	l.Append("cli", "edit", snapshotFor("demo"))
	_, err = l.Get(7)
	if !errors.Is(err, errors.ErrUnknownVersion) {
		t.Errorf("Expected unknown version for future index, got %v", err)
	}

	var uve *errors.UnknownVersionError
	if !errors.As(err, &uve) {
		t.Fatal("Expected UnknownVersionError")
	}
	if uve.Oldest != 0 || uve.Newest != 0 {
		t.Errorf("Expected retained range 0..0, got %d..%d", uve.Oldest, uve.Newest)
	}
}

func TestLedger_ListNewestFirst(t *testing.T) {
	l := New(5)
	l.Append("cli", "first", snapshotFor("demo"))
	l.Append("watcher", "second", snapshotFor("demo"))
	l.Append("cli", "third", snapshotFor("demo"))

	entries := l.List()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	for i, want := range []int{2, 1, 0} {
		if entries[i].Index != want {
			t.Errorf("Expected entry %d to have index %d, got %d", i, want, entries[i].Index)
		}
	}
	if entries[0].Summary != "third" {
		t.Errorf("Expected newest entry first, got %q", entries[0].Summary)
	}
}

func TestLedger_SnapshotsAreIsolated(t *testing.T) {
	l := New(3)

	snap := snapshotFor("demo")
	snap.Features["auth"] = spec.Feature{ID: "auth", Name: "auth", Priority: spec.PriorityLow}
	entry := l.Append("cli", "edit", snap)

	// Mutating the caller's copy must not alter history.
	snap.Features["auth"] = spec.Feature{ID: "auth", Name: "tampered", Priority: spec.PriorityLow}

	stored, err := l.Get(entry.Index)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Snapshot.Features["auth"].Name != "auth" {
		t.Error("Ledger snapshot was mutated through the caller's reference")
	}

	// Mutating a returned snapshot must not alter history either.
	stored.Snapshot.Project = "tampered"
	again, _ := l.Get(entry.Index)
	if again.Snapshot.Project != "demo" {
		t.Error("Ledger snapshot was mutated through a returned clone")
	}
}

func TestLedger_Latest(t *testing.T) {
	l := New(3)

	if _, ok := l.Latest(); ok {
		t.Error("Latest on empty ledger should report false")
	}

	l.Append("cli", "first", snapshotFor("demo"))
	l.Append("cli", "second", snapshotFor("demo"))

	latest, ok := l.Latest()
	if !ok || latest.Index != 1 {
		t.Errorf("Expected latest index 1, got %+v ok=%v", latest, ok)
	}
}

func TestLedger_CapacityFallback(t *testing.T) {
	if got := New(0).Capacity(); got != DefaultCapacity {
		t.Errorf("Expected default capacity %d, got %d", DefaultCapacity, got)
	}
	if got := New(-3).Capacity(); got != DefaultCapacity {
		t.Errorf("Expected default capacity %d, got %d", DefaultCapacity, got)
	}
}
