package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// currentVersion is the config file format version written by Save.
// Load rejects files with a newer version.
const currentVersion = 1

// envelope wraps the config document with a format version so newer
// releases can detect and migrate older files.
type envelope struct {
	Version int     `json:"version"`
	Config  *Config `json:"config"`
}

// Store persists the configuration document as a single JSON file.
//
// Load returns nil when the file does not exist; callers fall back to
// Default. Save is atomic: the document is written to a temp file,
// verified, then renamed over the target.
type Store struct {
	path string
}

// NewStore creates a store backed by the JSON file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string { return s.path }

// Load reads the configuration. Returns (nil, nil) when the file does not
// exist (first-run signal).
func (s *Store) Load(ctx context.Context) (*Config, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", s.path, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", s.path, err)
	}
	if env.Version == 0 {
		return nil, fmt.Errorf("config %s has no version field", s.path)
	}
	if env.Version > currentVersion {
		return nil, fmt.Errorf("config %s is version %d, newer than supported version %d", s.path, env.Version, currentVersion)
	}
	if env.Config == nil {
		return nil, fmt.Errorf("config %s has no config section", s.path)
	}
	return env.Config, nil
}

// Save writes the configuration atomically.
func (s *Store) Save(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("saving config: nil config")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir %s: %w", dir, err)
	}

	env := envelope{Version: currentVersion, Config: cfg}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	data = append(data, '\n')

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", tmpPath, err)
	}

	// The temp file must parse before it replaces the target.
	readBack, err := os.ReadFile(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("verifying config %s: %w", tmpPath, err)
	}
	var check envelope
	if err := json.Unmarshal(readBack, &check); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("verifying config %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing config %s: %w", s.path, err)
	}
	return nil
}
