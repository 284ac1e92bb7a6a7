// Package file loads drink catalogs from JSON files on disk.
//
// Patterns are doublestar globs and may contain a {festival} placeholder
// that is substituted with the festival ID before matching, so one source
// can serve several festivals from a shared data directory:
//
//	/data/{festival}/*.json
//
// Each matched file holds a JSON array of drinks. Matches are read in
// lexical path order and concatenated; duplicate drink IDs keep the
// first occurrence.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/logging"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source"
)

const defaultPollInterval = 30 * time.Second

// Config carries the settings for a file source.
type Config struct {
	// Patterns are doublestar globs, optionally containing {festival}.
	Patterns []string

	// PollInterval is the fallback rescan cadence for Watch, covering
	// filesystems that do not deliver change events (NFS, some
	// containers). Zero means defaultPollInterval; negative disables
	// polling entirely.
	PollInterval time.Duration

	Logger *slog.Logger
}

// Source reads drink catalogs from local JSON files.
type Source struct {
	patterns     []string
	pollInterval time.Duration
	logger       *slog.Logger
}

var (
	_ source.Source  = (*Source)(nil)
	_ source.Watcher = (*Source)(nil)
)

// NewSource creates a file source. At least one pattern is required and
// every pattern must be valid glob syntax.
func NewSource(cfg Config) (*Source, error) {
	if len(cfg.Patterns) == 0 {
		return nil, fmt.Errorf("at least one pattern is required")
	}
	for _, p := range cfg.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
	}
	interval := cfg.PollInterval
	if interval == 0 {
		interval = defaultPollInterval
	}
	return &Source{
		patterns:     append([]string(nil), cfg.Patterns...),
		pollInterval: interval,
		logger:       logging.Default(cfg.Logger).With("component", "source", "type", "file"),
	}, nil
}

// festivalPatterns substitutes the {festival} placeholder in every
// pattern. Substitution happens before globbing; a literal {festival}
// in a pattern would otherwise be read as glob alternation.
func (s *Source) festivalPatterns(festivalID string) []string {
	patterns := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		patterns[i] = strings.ReplaceAll(p, "{festival}", festivalID)
	}
	return patterns
}

// FetchDrinks reads every matched file and returns the normalized
// concatenation. A file that cannot be read or parsed fails the whole
// fetch; callers keep their last good catalog on error.
func (s *Source) FetchDrinks(ctx context.Context, festivalID string) ([]catalog.Drink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	patterns := s.festivalPatterns(festivalID)
	files, err := discoverFiles(patterns)
	if err != nil {
		return nil, fmt.Errorf("discovering catalog files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no catalog files match %v", patterns)
	}

	var all []catalog.Drink
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var drinks []catalog.Drink
		if err := json.Unmarshal(data, &drinks); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		all = append(all, drinks...)
	}

	s.logger.Debug("loaded catalog files", "festival", festivalID, "files", len(files), "drinks", len(all))
	return source.Normalize(all, s.logger), nil
}

// Watch signals on changed whenever a matched file is written, created,
// removed, or renamed. It blocks until ctx is cancelled. Sends are
// non-blocking; coalesced ticks are fine because the receiver refetches
// the whole catalog anyway.
func (s *Source) Watch(ctx context.Context, festivalID string, changed chan<- struct{}) error {
	patterns := s.festivalPatterns(festivalID)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range watchDirs(patterns) {
		if err := watcher.Add(dir); err != nil {
			// The directory may not exist yet; polling covers it.
			s.logger.Warn("cannot watch directory", "dir", dir, "error", err)
		}
	}

	var tickCh <-chan time.Time
	if s.pollInterval > 0 {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		tickCh = ticker.C
	}

	lastFP := fingerprint(patterns)

	notify := func() {
		lastFP = fingerprint(patterns)
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			if !matchesAnyPattern(event.Name, patterns) {
				continue
			}
			s.logger.Debug("catalog file changed", "path", event.Name, "op", event.Op.String())
			notify()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", "error", err)

		case <-tickCh:
			if fp := fingerprint(patterns); fp != lastFP {
				s.logger.Debug("catalog change detected by poll")
				notify()
			}
		}
	}
}

// NewFactory returns a factory that builds file sources from string
// params. Recognized params:
//
//	paths         JSON array of glob patterns (required)
//	poll_interval Go duration for the rescan fallback (optional)
func NewFactory() source.Factory {
	return func(params map[string]string, logger *slog.Logger) (source.Source, error) {
		raw, ok := params["paths"]
		if !ok || raw == "" {
			return nil, fmt.Errorf("paths parameter is required")
		}
		var patterns []string
		if err := json.Unmarshal([]byte(raw), &patterns); err != nil {
			return nil, fmt.Errorf("invalid paths %q: %w", raw, err)
		}

		cfg := Config{Patterns: patterns, Logger: logger}
		if v, ok := params["poll_interval"]; ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("invalid poll_interval %q: %w", v, err)
			}
			cfg.PollInterval = d
		}
		return NewSource(cfg)
	}
}
