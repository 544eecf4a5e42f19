package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("Log line is not JSON: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specsync.log")
	log, err := NewLogger(path, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.Info("mutation committed", "seq", 3, "author", "cli")
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readEntries(t, path)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0]["msg"] != "mutation committed" {
		t.Errorf("Unexpected message %v", entries[0]["msg"])
	}
	if entries[0]["author"] != "cli" {
		t.Errorf("Expected author attribute, got %v", entries[0]["author"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specsync.log")
	log, err := NewLogger(path, LevelWarn)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("visible")
	log.Error("also visible")
	_ = log.Close()

	entries := readEntries(t, path)
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries at WARN level, got %d", len(entries))
	}
}

func TestLogger_ComponentPropagation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specsync.log")
	log, err := NewLogger(path, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := log.WithComponent("controller").With("store", "spec.json")
	child.Info("loaded")
	_ = log.Close()

	entries := readEntries(t, path)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0]["component"] != "controller" {
		t.Errorf("Expected component controller, got %v", entries[0]["component"])
	}
	if entries[0]["store"] != "spec.json" {
		t.Errorf("Expected store attribute, got %v", entries[0]["store"])
	}
}

func TestLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specsync.log")
	log, err := NewLogger(path, "chatty")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.Debug("hidden")
	log.Info("visible")
	_ = log.Close()

	if entries := readEntries(t, path); len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}
}

func TestNopLogger(t *testing.T) {
	log := NopLogger()
	log.Info("discarded")
	log.WithComponent("x").Error("discarded")
	if err := log.Close(); err != nil {
		t.Errorf("Close on nop logger should be a no-op, got %v", err)
	}
}
