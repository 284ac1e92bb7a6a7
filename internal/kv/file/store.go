// Package file implements a key-value backend that keeps one file per
// key under a directory. Writes go through a temp file, are read back
// and verified, and are then renamed into place, so a crash mid-write
// leaves the previous value intact.
package file

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv"
)

type Store struct {
	dir string
}

var _ kv.Backend = (*Store)(nil)

// NewStore creates the directory if needed and returns a store rooted
// at it.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// path maps a key to a file name. Keys are percent-escaped so festival
// IDs with separators or spaces cannot walk out of the directory.
func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".kv")
}

func (s *Store) GetString(ctx context.Context, key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("get %q: %w", key, kv.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", key, err)
	}
	return string(data), nil
}

func (s *Store) SetString(ctx context.Context, key, value string) error {
	path := s.path(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write temp file for %q: %w", key, err)
	}

	// Read back and verify before the rename makes it visible.
	back, err := os.ReadFile(tmp)
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to read back %q: %w", key, err)
	}
	if !bytes.Equal(back, []byte(value)) {
		os.Remove(tmp)
		return fmt.Errorf("read-back mismatch for %q", key)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename %q into place: %w", key, err)
	}
	return nil
}

// Delete removes the key. Deleting a key that does not exist is not an
// error.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}
