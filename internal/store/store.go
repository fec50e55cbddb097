package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"TrendWarden/internal/model"
)

// Store reads and writes the persisted bot state as a single JSON document.
// The state is read once at run start and written once at run end.
type Store struct {
	path string
}

// New creates a Store for the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the state file. A missing file yields defaults: no positions,
// nil equity and cash, zeroed day risk. Unknown fields in the file are
// ignored so older binaries can read newer state.
func (s *Store) Load() (*model.BotState, error) {
	st := &model.BotState{
		Version:   model.StateVersion,
		Positions: make(map[string]model.Position),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if st.Positions == nil {
		st.Positions = make(map[string]model.Position)
	}
	if st.Version == 0 {
		st.Version = model.StateVersion
	}
	return st, nil
}

// Save writes the state with an atomic replace (write-temp then rename) so
// a concurrently starting run never observes a torn file.
func (s *Store) Save(st *model.BotState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	return writeFileAtomic(s.path, data)
}

// writeFileAtomic writes data via a temp file, fsync, and rename, then
// best-effort fsyncs the parent directory to harden the rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
