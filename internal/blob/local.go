package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LocalStorage implements Store using the local filesystem.
// Useful for development, the CLI and testing.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

func (s *LocalStorage) path(kind, id string) string {
	return filepath.Join(s.BaseDir, kind, id+".json")
}

// Put writes through a temp file so readers never see a partial document.
func (s *LocalStorage) Put(ctx context.Context, kind, id string, data []byte) error {
	p := s.path(kind, id)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", p, err)
	}
	return nil
}

// Get retrieves a blob.
func (s *LocalStorage) Get(ctx context.Context, kind, id string) ([]byte, error) {
	data, err := os.ReadFile(s.path(kind, id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", kind, id, ErrNotFound)
	}
	return data, err
}

// Delete removes a blob.
func (s *LocalStorage) Delete(ctx context.Context, kind, id string) error {
	err := os.Remove(s.path(kind, id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s/%s: %w", kind, id, err)
	}
	return nil
}

// List returns the sorted ids stored under kind.
func (s *LocalStorage) List(ctx context.Context, kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.BaseDir, kind))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id := idFromKey("", e.Name()); id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
