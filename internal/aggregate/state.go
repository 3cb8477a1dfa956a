package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultStateName is used when a state store is given no name.
const DefaultStateName = "aggregate"

const maxStateNameLen = 128

// StateStore persists how many journal records have been exported.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, offset uint64) error
}

// FileStateStore keeps named offsets in a local JSON file, one entry per Name, so several
// journals can share a state file the way they share the run_state table. An empty Name means
// DefaultStateName.
type FileStateStore struct {
	Path string
	Name string
}

type stateFile struct {
	Offsets map[string]stateEntry `json:"offsets"`
}

type stateEntry struct {
	Offset    uint64 `json:"offset"`
	UpdatedAt string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	name, err := stateName(s.Name)
	if err != nil {
		return 0, false, err
	}
	file, err := s.read()
	if err != nil {
		return 0, false, err
	}
	entry, ok := file.Offsets[name]
	if !ok {
		return 0, false, nil
	}
	return entry.Offset, true, nil
}

// Save rewrites the file through a temporary sibling, keeping the other names' entries.
func (s *FileStateStore) Save(ctx context.Context, offset uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	name, err := stateName(s.Name)
	if err != nil {
		return err
	}
	file, err := s.read()
	if err != nil {
		return err
	}
	file.Offsets[name] = stateEntry{
		Offset:    offset,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func (s *FileStateStore) read() (stateFile, error) {
	file := stateFile{Offsets: make(map[string]stateEntry)}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return file, nil
		}
		return file, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse state %s: %w", s.Path, err)
	}
	if file.Offsets == nil {
		file.Offsets = make(map[string]stateEntry)
	}
	return file, nil
}

// stateName applies the default and rejects names no progress row should carry.
func stateName(name string) (string, error) {
	if name == "" {
		return DefaultStateName, nil
	}
	if strings.TrimSpace(name) != name || len(name) > maxStateNameLen {
		return "", fmt.Errorf("invalid state name %q", name)
	}
	return name, nil
}
