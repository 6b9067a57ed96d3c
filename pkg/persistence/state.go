package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// DefaultPath is the state file used when none is configured.
const DefaultPath = ".regflow/state.json"

// State is the persisted outcome of previous runs.
type State struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Input is the register source the state refers to.
	Input string `json:"input,omitempty"`

	// RunID of the run that last saved the state.
	RunID string `json:"run_id,omitempty"`

	// Targets holds the last successful generation per target name.
	Targets map[string]TargetState `json:"targets,omitempty"`
}

// TargetState records one successful generator run.
type TargetState struct {
	// Fingerprint is the hex blake2b-256 of the RDL the target consumed.
	Fingerprint string `json:"fingerprint"`

	// OptionsHash covers the generator arguments besides the RDL.
	OptionsHash string `json:"options_hash,omitempty"`

	// Output is the directory or file the target wrote.
	Output string `json:"output"`

	CompletedAt time.Time `json:"completed_at"`
}

// Target returns the recorded state for name.
func (s *State) Target(name string) (TargetState, bool) {
	if s == nil || s.Targets == nil {
		return TargetState{}, false
	}
	ts, ok := s.Targets[name]
	return ts, ok
}

// SetTarget records ts for name.
func (s *State) SetTarget(name string, ts TargetState) {
	if s.Targets == nil {
		s.Targets = make(map[string]TargetState)
	}
	s.Targets[name] = ts
}

// UpToDate reports whether name was generated from fingerprint with the
// same options into output, and output still exists.
func (s *State) UpToDate(name, fingerprint, optionsHash, output string) bool {
	ts, ok := s.Target(name)
	if !ok {
		return false
	}
	if ts.Fingerprint != fingerprint || ts.OptionsHash != optionsHash || ts.Output != output {
		return false
	}
	_, err := os.Stat(output)
	return err == nil
}

// StateStore manages persistence of run state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a new state store.
func NewStateStore(path string) *StateStore {
	if path == "" {
		path = DefaultPath
	}
	return &StateStore{path: path}
}

// Path returns the state file path.
func (s *StateStore) Path() string {
	return s.path
}

// Save persists the state to disk.
func (s *StateStore) Save(state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *StateStore) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
