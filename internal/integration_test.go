// Package internal contains integration tests that verify the engine's
// components work together: controller commits flowing through the change
// feed into the planner and broadcaster, external edits routed by the
// watcher, and version history driving rollback.
package internal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"specsync/internal/broadcast"
	"specsync/internal/config"
	"specsync/internal/controller"
	"specsync/internal/engine"
	"specsync/internal/planner"
	"specsync/internal/spec"
)

func newTestEngine(t *testing.T, watch bool) (*engine.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(dir, "spec.json")
	cfg.Store.StateDir = dir
	cfg.Watch.Enabled = watch
	cfg.Watch.DebounceMs = 50

	eng, err := engine.New(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	if err := eng.Start(context.Background(), "integration"); err != nil {
		t.Fatalf("Failed to start engine: %v", err)
	}
	t.Cleanup(eng.Stop)
	return eng, cfg.Store.Path
}

func waitUntil(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestCommitFanOut verifies one commit reaches the planner and a remote
// observer connection, with matching sequence numbers.
func TestCommitFanOut(t *testing.T) {
	eng, _ := newTestEngine(t, false)

	conn := broadcast.NewChanConn(4)
	eng.Broadcaster().Register(conn)

	ev, err := eng.Controller().Apply(context.Background(), spec.AddFeature{
		ID:           "auth",
		Name:         "Authentication",
		Priority:     spec.PriorityHigh,
		Requirements: []string{"login", "logout"},
	}, "cli")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	select {
	case got := <-conn.Events():
		if got.Seq != ev.Seq {
			t.Errorf("Observer saw seq %d, committed %d", got.Seq, ev.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("Observer did not receive the commit")
	}

	waitUntil(t, 2*time.Second, "planner reconciliation", func() bool {
		res, ok := eng.Planner().LastResult()
		return ok && res.SpecSeq == ev.Seq
	})
	res, _ := eng.Planner().LastResult()
	if res.TasksAdded != 2 {
		t.Errorf("Expected 2 tasks for 2 requirements, got %d", res.TasksAdded)
	}
	if len(res.ReadyQueue) != 2 {
		t.Errorf("Both tasks should be ready, got %d", len(res.ReadyQueue))
	}
}

// TestExternalEditFullPath verifies a manual document edit lands in the
// task graph via watcher, controller, feed, and planner.
func TestExternalEditFullPath(t *testing.T) {
	eng, path := newTestEngine(t, true)

	doc := eng.Controller().Current()
	doc.Features["imports"] = spec.Feature{
		ID:           "imports",
		Name:         "Imports",
		Priority:     spec.PriorityMedium,
		Requirements: []string{"csv upload"},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	// Write past the store so no self-write checksum is recorded.
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("External write failed: %v", err)
	}

	waitUntil(t, 3*time.Second, "external edit to reach the planner", func() bool {
		return len(eng.Planner().FeatureTasks("imports")) == 1
	})

	versions := eng.Controller().Versions()
	if versions[0].Author != controller.AuthorExternal {
		t.Errorf("External commit should carry the external author, got %q", versions[0].Author)
	}
}

// TestRollbackReplansTasks verifies a rollback commit reconciles the graph
// back to the restored scope, cancelling tasks of re-removed features.
func TestRollbackReplansTasks(t *testing.T) {
	eng, _ := newTestEngine(t, false)
	ctx := context.Background()

	if _, err := eng.Controller().Apply(ctx, spec.AddFeature{ID: "auth", Name: "auth", Requirements: []string{"login"}}, "cli"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	target := eng.Controller().Versions()[0].Index

	if _, err := eng.Controller().Apply(ctx, spec.AddFeature{ID: "extra", Name: "extra", Requirements: []string{"later"}}, "cli"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	waitUntil(t, 2*time.Second, "extra feature to be planned", func() bool {
		return len(eng.Planner().FeatureTasks("extra")) == 1
	})

	ev, err := eng.Controller().Rollback(ctx, target, "cli")
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	waitUntil(t, 2*time.Second, "rollback reconciliation", func() bool {
		res, ok := eng.Planner().LastResult()
		return ok && res.SpecSeq == ev.Seq
	})

	// The rolled-back feature's task is cancelled, never deleted.
	extras := eng.Planner().FeatureTasks("extra")
	if len(extras) != 1 {
		t.Fatalf("Cancelled task must be retained, got %d", len(extras))
	}
	if extras[0].Status != planner.StatusCancelled {
		t.Errorf("Expected cancelled, got %s", extras[0].Status)
	}
	if _, ok := eng.Controller().Current().Features["extra"]; ok {
		t.Error("Rollback should remove the later feature from the spec")
	}
}
