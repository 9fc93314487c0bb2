package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type fileFormat struct {
	Version   int        `yaml:"version"`
	Snapshots []Snapshot `yaml:"snapshots"`
}

// WriteFile stores every snapshot at path, least recently used first.
func (s *Store) WriteFile(path string) error {
	recent := s.Recent()
	out := fileFormat{Version: 1, Snapshots: make([]Snapshot, 0, len(recent))}
	for i := len(recent) - 1; i >= 0; i-- {
		out.Snapshots = append(out.Snapshots, recent[i])
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write sessions: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace sessions file: %w", err)
	}
	return nil
}

// ReadFile loads snapshots written by WriteFile, keeping their recency
// order and timestamps. A missing file is not an error.
func (s *Store) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read sessions: %w", err)
	}

	var in fileFormat
	if err := yaml.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to parse sessions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range in.Snapshots {
		if snap.ID == "" {
			continue
		}
		s.cache.Add(snap.ID, snap)
	}
	return nil
}
