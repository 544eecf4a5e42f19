package planner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPersist_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	p := New(nil)
	s := specWith(feature("auth", []string{"login", "logout"}, []string{"session persists"}))
	p.Seed(s, 0)

	impl := pendingTasks(p, "auth")[0]
	if err := p.MarkInProgress(impl.ID); err != nil {
		t.Fatalf("MarkInProgress failed: %v", err)
	}

	if err := p.SaveState(dir); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	restored := New(nil)
	if err := restored.LoadState(dir); err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}

	if got := len(restored.FeatureTasks("auth")); got != 3 {
		t.Fatalf("Expected 3 restored tasks, got %d", got)
	}
	task, ok := restored.Task(impl.ID)
	if !ok {
		t.Fatal("Restored planner is missing a task")
	}
	if task.Status != StatusInProgress {
		t.Errorf("Expected restored status in_progress, got %s", task.Status)
	}
}

func TestPersist_MissingStateIsNotAnError(t *testing.T) {
	p := New(nil)
	if err := p.LoadState(t.TempDir()); err != nil {
		t.Errorf("Missing state file should load clean, got %v", err)
	}
	if len(p.Snapshot()) != 0 {
		t.Error("Planner should start empty without a state file")
	}
}

func TestPersist_CorruptStateFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, stateFileName), []byte("{oops"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt state: %v", err)
	}

	p := New(nil)
	if err := p.LoadState(dir); err == nil {
		t.Error("Corrupt state file should be reported")
	}
}

func TestPersist_SeedSkipsRestoredFeatures(t *testing.T) {
	dir := t.TempDir()

	p := New(nil)
	s := specWith(feature("auth", []string{"login"}, nil))
	p.Seed(s, 0)
	originalID := pendingTasks(p, "auth")[0].ID

	if err := p.SaveState(dir); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	restored := New(nil)
	if err := restored.LoadState(dir); err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	restored.Seed(s, 0)

	tasks := restored.FeatureTasks("auth")
	if len(tasks) != 1 {
		t.Fatalf("Seeding over restored state must not duplicate tasks, got %d", len(tasks))
	}
	if tasks[0].ID != originalID {
		t.Error("Restored task identity should survive the seed")
	}
}

func TestPersist_SeedPreservedCountExcludesCancelled(t *testing.T) {
	dir := t.TempDir()

	p := New(nil)
	both := specWith(
		feature("auth", []string{"login"}, nil),
		feature("extra", []string{"later"}, nil),
	)
	p.Seed(both, 0)

	only := specWith(feature("auth", []string{"login"}, nil))
	p.reconcile(changeEvent(1, both, only))

	if err := p.SaveState(dir); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	restored := New(nil)
	if err := restored.LoadState(dir); err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	restored.Seed(only, 1)

	res, ok := restored.LastResult()
	if !ok {
		t.Fatal("Seed should publish a result")
	}
	if res.TasksAdded != 0 {
		t.Errorf("Seeding over restored state adds nothing, got %d", res.TasksAdded)
	}
	if res.TasksPreserved != 1 {
		t.Errorf("Preserved count must skip cancelled tasks, got %d", res.TasksPreserved)
	}
}

func TestPersist_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()

	p := New(nil)
	p.Seed(specWith(feature("auth", []string{"login"}, nil)), 0)
	if err := p.SaveState(dir); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, stateFileName+".tmp")); !os.IsNotExist(err) {
		t.Error("Temp file should be renamed away after save")
	}
}
