// Package home manages the application home directory layout.
//
// The home directory owns all local state: the config file, tasting log
// documents, and cached catalog snapshots.
//
// Layout:
//
//	<root>/
//	  config.json     (application configuration)
//	  tastinglog/     (file store: one document per festival)
//	  snapshots/      (compressed catalog snapshots for offline use)
//	  tasting.db      (sqlite store, when configured)
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir represents an application home directory.
type Dir struct {
	root string
}

// New creates a Dir with an explicit root path.
func New(root string) Dir {
	return Dir{root: root}
}

// Default returns a Dir using the platform-appropriate default location:
//   - Linux:   ~/.config/cbf
//   - macOS:   ~/Library/Application Support/cbf
//   - Windows: %APPDATA%/cbf
func Default() (Dir, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return Dir{}, fmt.Errorf("determine config directory: %w", err)
	}
	return Dir{root: filepath.Join(base, "cbf")}, nil
}

// Root returns the home directory path.
func (d Dir) Root() string {
	return d.root
}

// ConfigPath returns the path to the config JSON file.
func (d Dir) ConfigPath() string {
	return filepath.Join(d.root, "config.json")
}

// TastingLogDir returns the directory the file store writes tasting log
// documents into.
func (d Dir) TastingLogDir() string {
	return filepath.Join(d.root, "tastinglog")
}

// SnapshotDir returns the directory for cached catalog snapshots.
func (d Dir) SnapshotDir() string {
	return filepath.Join(d.root, "snapshots")
}

// SQLitePath returns the default path for the sqlite tasting log store.
func (d Dir) SQLitePath() string {
	return filepath.Join(d.root, "tasting.db")
}

// EnsureExists creates the home directory (and parents) if it doesn't exist.
func (d Dir) EnsureExists() error {
	if err := os.MkdirAll(d.root, 0o750); err != nil {
		return fmt.Errorf("create home directory %s: %w", d.root, err)
	}
	return nil
}
