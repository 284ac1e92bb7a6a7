// Package cache wraps another source with an on-disk snapshot of the
// last successful fetch. Festival networks are flaky; when the upstream
// fails, the snapshot is served instead so the catalog survives losing
// connectivity in a field full of tents.
//
// Snapshots are msgpack-encoded, zstd-compressed, and written atomically
// via temp-file-then-rename. A corrupt or missing snapshot never masks
// the upstream error.
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/logging"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source"
)

const (
	snapshotVersion = 1
	snapshotExt     = ".snap"
)

var (
	// Package-level codec state, concurrent-safe, shared by all caches.
	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder
)

func init() {
	var err error
	zstdEnc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("zstd: init encoder: " + err.Error())
	}
	zstdDec, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("zstd: init decoder: " + err.Error())
	}
}

// snapshot is the on-disk payload, one per festival.
type snapshot struct {
	Version    int             `json:"version"`
	FestivalID string          `json:"festival_id"`
	FetchedAt  time.Time       `json:"fetched_at"`
	Drinks     []catalog.Drink `json:"drinks"`
}

// Config carries the settings for a caching source.
type Config struct {
	// Upstream is the source being cached. Required.
	Upstream source.Source

	// Dir is where snapshots live, one file per festival. Required.
	Dir string

	Logger *slog.Logger
}

// Source serves the upstream's catalog, falling back to the last
// snapshot when the upstream fails.
type Source struct {
	upstream source.Source
	dir      string
	logger   *slog.Logger
}

var _ source.Source = (*Source)(nil)

// watchSource additionally forwards Watch when the upstream supports it.
type watchSource struct {
	*Source
	watcher source.Watcher
}

var _ source.Watcher = (*watchSource)(nil)

// New wraps cfg.Upstream. The returned source implements source.Watcher
// exactly when the upstream does, so callers probing with a type
// assertion see through the cache.
func New(cfg Config) (source.Source, error) {
	if cfg.Upstream == nil {
		return nil, fmt.Errorf("upstream source is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}
	s := &Source{
		upstream: cfg.Upstream,
		dir:      cfg.Dir,
		logger:   logging.Default(cfg.Logger).With("component", "source", "type", "cache"),
	}
	if w, ok := cfg.Upstream.(source.Watcher); ok {
		return &watchSource{Source: s, watcher: w}, nil
	}
	return s, nil
}

// FetchDrinks fetches from the upstream. On success the result is
// snapshotted best-effort; a snapshot write failure is logged, never
// surfaced. On upstream failure the last snapshot is served if one can
// be read, otherwise the upstream error propagates.
func (s *Source) FetchDrinks(ctx context.Context, festivalID string) ([]catalog.Drink, error) {
	drinks, err := s.upstream.FetchDrinks(ctx, festivalID)
	if err == nil {
		if werr := s.writeSnapshot(festivalID, drinks); werr != nil {
			s.logger.Warn("cannot persist catalog snapshot", "festival", festivalID, "error", werr)
		}
		return drinks, nil
	}

	snap, serr := s.readSnapshot(festivalID)
	if serr != nil {
		if !errors.Is(serr, fs.ErrNotExist) {
			s.logger.Warn("cannot read catalog snapshot", "festival", festivalID, "error", serr)
		}
		return nil, err
	}

	s.logger.Warn("serving stale catalog from snapshot",
		"festival", festivalID, "fetched_at", snap.FetchedAt, "drinks", len(snap.Drinks), "error", err)
	return snap.Drinks, nil
}

func (ws *watchSource) Watch(ctx context.Context, festivalID string, changed chan<- struct{}) error {
	return ws.watcher.Watch(ctx, festivalID, changed)
}

func (s *Source) snapshotPath(festivalID string) string {
	return filepath.Join(s.dir, url.PathEscape(festivalID)+snapshotExt)
}

func (s *Source) writeSnapshot(festivalID string, drinks []catalog.Drink) error {
	snap := snapshot{
		Version:    snapshotVersion,
		FestivalID: festivalID,
		FetchedAt:  time.Now().UTC(),
		Drinks:     drinks,
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	compressed := zstdEnc.EncodeAll(buf.Bytes(), nil)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".snap-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(compressed); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, s.snapshotPath(festivalID))
}

func (s *Source) readSnapshot(festivalID string) (*snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(festivalID))
	if err != nil {
		return nil, err
	}

	raw, err := zstdDec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing snapshot: %w", err)
	}

	var snap snapshot
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot version %d not supported", snap.Version)
	}
	return &snap, nil
}
