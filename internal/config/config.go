// Package config defines the application configuration document and its
// on-disk persistence.
//
// Config is declarative: it names the festivals the app knows about, the
// catalog source they are fetched from, the key-value backend that persists
// tasting logs, and the refresh schedule. Type-specific params are opaque
// string maps; parsing and validation are the responsibility of the factory
// that consumes them, and unknown Type values are rejected by the wiring
// that instantiates components.
package config

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Config describes the desired application shape.
// It is declarative: it defines what should exist, not how to create it.
type Config struct {
	// Festivals lists the festivals the app can activate.
	Festivals []FestivalConfig `json:"festivals,omitempty"`

	// DefaultFestival is activated when no festival is named on the command
	// line. Must match the ID of an entry in Festivals when set.
	DefaultFestival string `json:"defaultFestival,omitempty"`

	// Source describes where drink catalogs come from.
	Source SourceConfig `json:"source"`

	// Store describes where tasting logs are persisted.
	Store StoreConfig `json:"store"`

	// Refresh schedules automatic catalog refreshes in watch mode.
	Refresh RefreshConfig `json:"refresh"`

	// DataDir is the base directory for local state (file store, catalog
	// snapshots). Empty means the command-line default.
	DataDir string `json:"dataDir,omitempty"`
}

// FestivalConfig names a festival the app can activate.
type FestivalConfig struct {
	// ID is the stable festival identifier. It partitions tasting logs and
	// is substituted into source URL and path templates.
	ID string `json:"id"`

	// Name is a human-readable label for listings.
	Name string `json:"name,omitempty"`

	// Params overlay the source params while this festival is active
	// (e.g. a festival-specific "url").
	Params map[string]string `json:"params,omitempty"`
}

// SourceConfig describes the catalog source to instantiate.
type SourceConfig struct {
	// Type identifies the source implementation (e.g. "http", "file", "demo").
	Type string `json:"type"`

	// Params contains type-specific configuration as opaque string key-value
	// pairs. Parsing and validation are the responsibility of the factory
	// that consumes the params.
	Params map[string]string `json:"params,omitempty"`

	// Cache keeps a compressed snapshot of every successful fetch under the
	// data dir and serves the latest one when the source is unreachable.
	Cache bool `json:"cache,omitempty"`
}

// StoreConfig describes the key-value backend that persists tasting logs.
type StoreConfig struct {
	// Type identifies the backend implementation (e.g. "memory", "file",
	// "sqlite", "redis", "s3", "gcs", "azblob").
	Type string `json:"type"`

	// Params contains type-specific configuration as opaque string key-value
	// pairs (e.g. "dir" for file, "path" for sqlite, "addr" for redis).
	// Parsing and validation are the responsibility of the factory that
	// consumes the params.
	Params map[string]string `json:"params,omitempty"`
}

// RefreshConfig schedules automatic catalog refreshes.
// Interval and Cron are mutually exclusive. Neither set disables scheduling.
// All fields are optional (nil = not set).
type RefreshConfig struct {
	// Interval refreshes on a fixed cadence.
	// Uses Go duration format (e.g. "5m", "1h").
	Interval *string `json:"interval,omitempty"`

	// Cron refreshes on a fixed schedule using standard 5-field cron syntax
	// (e.g. "*/15 * * * *").
	Cron *string `json:"cron,omitempty"`
}

// IntervalDuration parses the Interval field.
// Returns 0 if Interval is nil or empty.
func (c RefreshConfig) IntervalDuration() (time.Duration, error) {
	if c.Interval == nil || *c.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(*c.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid interval: must be positive")
	}
	return d, nil
}

// ValidateCron checks whether the Cron field contains a valid cron expression.
// Returns nil if Cron is nil or valid, an error otherwise.
func (c RefreshConfig) ValidateCron() error {
	if c.Cron == nil || *c.Cron == "" {
		return nil
	}
	cr := gocron.NewDefaultCron(false)
	if err := cr.IsValid(*c.Cron, time.UTC, time.Now()); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// cronSet reports whether a cron expression is configured.
func (c RefreshConfig) cronSet() bool {
	return c.Cron != nil && *c.Cron != ""
}

// intervalSet reports whether an interval is configured.
func (c RefreshConfig) intervalSet() bool {
	return c.Interval != nil && *c.Interval != ""
}

// Validate checks the structural invariants of the config document:
// festival IDs are non-empty and unique, the default festival exists,
// source and store name a type, and the refresh schedule is well-formed.
//
// Params are not inspected here.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Festivals))
	for i, f := range c.Festivals {
		if f.ID == "" {
			return fmt.Errorf("festival %d: missing id", i)
		}
		if seen[f.ID] {
			return fmt.Errorf("festival %q: duplicate id", f.ID)
		}
		seen[f.ID] = true
	}
	if c.DefaultFestival != "" && !seen[c.DefaultFestival] {
		return fmt.Errorf("default festival %q is not in the festivals list", c.DefaultFestival)
	}
	if c.Source.Type == "" {
		return fmt.Errorf("source: missing type")
	}
	if c.Store.Type == "" {
		return fmt.Errorf("store: missing type")
	}
	if c.Refresh.intervalSet() && c.Refresh.cronSet() {
		return fmt.Errorf("refresh: interval and cron are mutually exclusive")
	}
	if _, err := c.Refresh.IntervalDuration(); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	if err := c.Refresh.ValidateCron(); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// FindFestival returns the festival config with the given ID.
func (c *Config) FindFestival(id string) (FestivalConfig, bool) {
	for _, f := range c.Festivals {
		if f.ID == id {
			return f, true
		}
	}
	return FestivalConfig{}, false
}

// Default returns the configuration used when no config file exists: a
// synthetic demo festival backed by the demo source, with tasting logs in
// a file store under the data dir.
func Default() *Config {
	return &Config{
		Festivals: []FestivalConfig{
			{ID: "demo", Name: "Demo Beer Festival"},
		},
		DefaultFestival: "demo",
		Source:          SourceConfig{Type: "demo"},
		Store:           StoreConfig{Type: "file"},
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
