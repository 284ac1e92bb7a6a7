package tastinglog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/logging"
)

// ErrEmptyFestival is returned for operations without a festival ID.
var ErrEmptyFestival = errors.New("empty festival id")

// Store persists tasting-log partitions through a key-value backend,
// one blob per festival under the festival's favorites key.
//
// Loads are forgiving: a blob that cannot be parsed, or entries within
// it that fail validation, are dropped and reported, never fatal. A
// backend that cannot be reached at all is a different matter and
// surfaces as an error. Saves to the same festival are serialized;
// saves to different festivals may run in parallel.
type Store struct {
	backend   kv.Backend
	logger    *slog.Logger
	onCorrupt func(festivalID string, err error)

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	loads        atomic.Int64
	saves        atomic.Int64
	corruptBlobs atomic.Int64
	droppedItems atomic.Int64
}

// Config configures a Store. OnCorrupt, when set, receives one call
// per dropped blob or entry; it must not block.
type Config struct {
	Backend   kv.Backend
	Logger    *slog.Logger
	OnCorrupt func(festivalID string, err error)
}

// NewStore creates a Store over the given backend.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("tastinglog store: nil backend")
	}
	return &Store{
		backend:   cfg.Backend,
		logger:    logging.Default(cfg.Logger).With("component", "tastinglog"),
		onCorrupt: cfg.OnCorrupt,
		locks:     make(map[string]*sync.Mutex),
	}, nil
}

// Key returns the backend key holding a festival's partition.
func Key(festivalID string) string {
	return festivalID + "_favorites"
}

func (s *Store) festivalLock(festivalID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[festivalID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[festivalID] = l
	}
	return l
}

func (s *Store) reportCorrupt(festivalID string, err error) {
	s.logger.Warn("dropping corrupt tasting log data",
		"festival", festivalID,
		"error", err)
	if s.onCorrupt != nil {
		s.onCorrupt(festivalID, err)
	}
}

// Load reads a festival's partition. A festival that has never been
// saved loads as an empty log, as does a blob too corrupt to parse.
// Only a failing backend produces an error.
func (s *Store) Load(ctx context.Context, festivalID string) (Log, error) {
	if festivalID == "" {
		return nil, ErrEmptyFestival
	}
	s.loads.Add(1)

	value, err := s.backend.GetString(ctx, Key(festivalID))
	if errors.Is(err, kv.ErrNotFound) {
		return NewLog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tasting log for %q: %w", festivalID, err)
	}

	l, errs := decodeLog([]byte(value))
	if l == nil {
		// The blob as a whole is unreadable. Starting over with an
		// empty partition beats refusing to start.
		s.corruptBlobs.Add(1)
		for _, err := range errs {
			s.reportCorrupt(festivalID, err)
		}
		return NewLog(), nil
	}
	if len(errs) > 0 {
		s.droppedItems.Add(int64(len(errs)))
		for _, err := range errs {
			s.reportCorrupt(festivalID, err)
		}
	}
	return l, nil
}

// Save writes a festival's partition, replacing whatever was stored.
// Concurrent saves for the same festival are applied one at a time.
func (s *Store) Save(ctx context.Context, festivalID string, l Log) error {
	if festivalID == "" {
		return ErrEmptyFestival
	}

	data, err := encodeLog(l)
	if err != nil {
		return err
	}

	lock := s.festivalLock(festivalID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.backend.SetString(ctx, Key(festivalID), string(data)); err != nil {
		return fmt.Errorf("save tasting log for %q: %w", festivalID, err)
	}
	s.saves.Add(1)
	return nil
}

// Delete removes a festival's partition entirely.
func (s *Store) Delete(ctx context.Context, festivalID string) error {
	if festivalID == "" {
		return ErrEmptyFestival
	}

	lock := s.festivalLock(festivalID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.backend.Delete(ctx, Key(festivalID)); err != nil {
		return fmt.Errorf("delete tasting log for %q: %w", festivalID, err)
	}
	return nil
}

// Stats is a point-in-time snapshot of store counters.
type Stats struct {
	Loads        int64
	Saves        int64
	CorruptBlobs int64
	DroppedItems int64
}

func (s *Store) Stats() Stats {
	return Stats{
		Loads:        s.loads.Load(),
		Saves:        s.saves.Load(),
		CorruptBlobs: s.corruptBlobs.Load(),
		DroppedItems: s.droppedItems.Load(),
	}
}
