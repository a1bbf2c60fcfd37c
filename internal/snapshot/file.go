package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"scanattend/internal/attendance"
)

// ErrCorrupt marks a snapshot that exists but cannot be decoded. Callers are
// expected to log it and start from an empty registry.
var ErrCorrupt = errors.New("snapshot corrupt")

// FileStore persists the registry as a single JSON document on disk.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store, creating the parent directory if
// needed.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the snapshot. A missing file is not an error, it yields an empty
// registry.
func (s *FileStore) Load(_ context.Context) (map[string]attendance.Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]attendance.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var records map[string]attendance.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if records == nil {
		records = map[string]attendance.Record{}
	}
	return records, nil
}

// Save rewrites the full snapshot. The write goes through a temp file and a
// rename so a crash mid-write never clobbers the last good snapshot.
func (s *FileStore) Save(_ context.Context, records map[string]attendance.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
