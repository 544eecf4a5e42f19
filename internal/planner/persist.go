package planner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const stateFileName = "taskgraph-state.json"

// persistedState is the serializable representation of the task graph.
type persistedState struct {
	Tasks     map[string]*Task    `json:"tasks"`
	ByFeature map[string][]string `json:"by_feature"`
}

// SaveState writes the task graph to a JSON file in the given directory.
// The write is atomic: data goes to a temporary file first, then is
// renamed into place, so cancelled and completed history survives
// restarts without a torn state file ever being observable.
func (p *Planner) SaveState(dir string) error {
	p.mu.Lock()
	data, err := json.MarshalIndent(persistedState{
		Tasks:     p.tasks,
		ByFeature: p.byFeature,
	}, "", "  ")
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal task graph: %w", err)
	}

	target := filepath.Join(dir, stateFileName)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// LoadState restores a previously saved task graph from the given
// directory, replacing the planner's current state. A missing state file
// is not an error; the planner simply starts empty.
func (p *Planner) LoadState(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, stateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("unmarshal task graph: %w", err)
	}
	if state.Tasks == nil {
		state.Tasks = make(map[string]*Task)
	}
	if state.ByFeature == nil {
		state.ByFeature = make(map[string][]string)
	}

	p.mu.Lock()
	p.tasks = state.Tasks
	p.byFeature = state.ByFeature
	p.mu.Unlock()
	return nil
}
