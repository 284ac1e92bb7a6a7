// Package orchestrator coordinates the catalog session: the active
// festival, the drink snapshot, filter criteria, sort order, and the
// festival's tasting log. It owns no business rules itself; filtering
// and sorting live in catalog, the state machine lives in tastinglog.
//
// Concurrency model:
//   - One RWMutex guards all session state. Mutations take the write
//     lock, accessors the read lock.
//   - Subscriber callbacks and events are dispatched after the lock is
//     released, so a callback may call back into the orchestrator.
//   - Tasting-log persistence is asynchronous: mutations enqueue the
//     newest snapshot per festival and a single save worker writes it.
//     A second save for a festival never starts before the prior one
//     completes, and only the newest snapshot is written.
package orchestrator

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/logging"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/notify"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/tastinglog"
)

var (
	// ErrClosed is returned by operations on a closed orchestrator.
	ErrClosed = errors.New("orchestrator is closed")
	// ErrNoFestival is returned when an operation needs an active
	// festival and none has been activated.
	ErrNoFestival = errors.New("no active festival")
)

// refreshTimeout bounds refreshes the orchestrator triggers itself
// (scheduler ticks, watcher ticks). Caller-initiated refreshes use the
// caller's context instead.
const refreshTimeout = 2 * time.Minute

// Config carries the orchestrator's collaborators and settings.
type Config struct {
	// Source supplies drink catalogs. Required. If it also implements
	// source.Watcher, the orchestrator refreshes when the source
	// signals a change.
	Source source.Source

	// Store persists tasting logs. Required.
	Store *tastinglog.Store

	// RefreshInterval enables periodic catalog refresh. Mutually
	// exclusive with RefreshCron.
	RefreshInterval time.Duration

	// RefreshCron enables cron-scheduled catalog refresh, standard
	// five-field syntax.
	RefreshCron string

	Logger *slog.Logger

	// Now overrides the clock for tests.
	Now func() time.Time
}

// Orchestrator is the session-state container. One instance serves one
// user session; create it once and share it between the UI-facing
// reader and whatever triggers refreshes.
type Orchestrator struct {
	source source.Source
	store  *tastinglog.Store
	logger *slog.Logger
	now    func() time.Time

	mu         sync.RWMutex
	closed     bool
	festivalID string
	drinks     []catalog.Drink
	criteria   catalog.Criteria
	sortKey    catalog.SortKey
	log        tastinglog.Log
	visible    []catalog.Drink

	subs    *notify.Registry[Event]
	changed *notify.Signal

	// Save queue: newest pending snapshot per festival, written by a
	// single worker. saveCond signals queue drain for FlushSaves.
	saveMu      sync.Mutex
	saveCond    *sync.Cond
	pendingSave map[string]tastinglog.Log
	saveBusy    bool
	savesClosed bool
	saveKick    chan struct{}
	saveWg      sync.WaitGroup

	scheduler gocron.Scheduler

	watchCancel func()
	watchWg     sync.WaitGroup
}

// New creates an orchestrator and starts its save worker and, when
// configured, the refresh scheduler. Close releases both.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("tasting log store is required")
	}
	if cfg.RefreshInterval > 0 && cfg.RefreshCron != "" {
		return nil, fmt.Errorf("refresh interval and refresh cron are mutually exclusive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	o := &Orchestrator{
		source:      cfg.Source,
		store:       cfg.Store,
		logger:      logging.Default(cfg.Logger).With("component", "orchestrator"),
		now:         now,
		sortKey:     catalog.DefaultSortKey,
		log:         tastinglog.NewLog(),
		subs:        notify.NewRegistry[Event](),
		changed:     notify.NewSignal(),
		pendingSave: make(map[string]tastinglog.Log),
		saveKick:    make(chan struct{}, 1),
	}
	o.saveCond = sync.NewCond(&o.saveMu)

	if err := o.startScheduler(cfg); err != nil {
		return nil, err
	}

	o.saveWg.Go(o.runSaves)
	return o, nil
}

// FestivalID returns the active festival, or "" before activation.
func (o *Orchestrator) FestivalID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.festivalID
}

// VisibleDrinks returns a copy of the current visible list: the drink
// snapshot filtered by the criteria, then sorted by the sort key.
func (o *Orchestrator) VisibleDrinks() []catalog.Drink {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.visible)
}

// Criteria returns a copy of the active filter criteria.
func (o *Orchestrator) Criteria() catalog.Criteria {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.criteria.Clone()
}

// SortKey returns the active sort key.
func (o *Orchestrator) SortKey() catalog.SortKey {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sortKey
}

// Favorite returns the tasting-log item for a drink and whether one
// exists in the active festival's log.
func (o *Orchestrator) Favorite(drinkID string) (tastinglog.Item, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	it, ok := o.log[drinkID]
	if !ok {
		return tastinglog.Item{}, false
	}
	return it.Clone(), true
}

// Log returns a deep copy of the active festival's tasting log.
func (o *Orchestrator) Log() tastinglog.Log {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.log.Clone()
}

// Changed returns a channel that is closed on the next state change.
// Poll-style consumers re-call Changed after each wakeup; callers that
// want the event itself use Subscribe.
func (o *Orchestrator) Changed() <-chan struct{} {
	return o.changed.C()
}

// Subscribe registers a callback for session events. Callbacks run on
// the mutating goroutine after state and the visible list are updated,
// outside the state lock, and should return quickly.
func (o *Orchestrator) Subscribe(fn func(Event)) uuid.UUID {
	return o.subs.Subscribe(fn)
}

// Unsubscribe drops a subscription. Unknown tokens are ignored.
func (o *Orchestrator) Unsubscribe(token uuid.UUID) {
	o.subs.Unsubscribe(token)
}

// rebuildLocked recomputes the visible list. Callers hold the write lock.
func (o *Orchestrator) rebuildLocked() {
	o.visible = catalog.Sort(catalog.Filter(o.drinks, o.criteria, o.log.IDs()), o.sortKey)
}

func (o *Orchestrator) isClosed() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.closed
}

// publish delivers events to subscribers and wakes Changed waiters.
// Never call while holding o.mu.
func (o *Orchestrator) publish(events ...Event) {
	for _, ev := range events {
		o.subs.Notify(ev)
	}
	if len(events) > 0 {
		o.changed.Notify()
	}
}

// Close stops the orchestrator.
//
// Ordered shutdown:
//  1. Stop the refresh scheduler; no new self-triggered refreshes.
//  2. Cancel the source watcher and wait for it to exit.
//  3. Close the save queue; the worker drains pending snapshots, so
//     every acknowledged mutation reaches the backend before return.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	watchCancel := o.watchCancel
	o.watchCancel = nil
	o.mu.Unlock()

	if o.scheduler != nil {
		if err := o.scheduler.Shutdown(); err != nil {
			o.logger.Warn("refresh scheduler shutdown", "error", err)
		}
	}

	if watchCancel != nil {
		watchCancel()
	}
	o.watchWg.Wait()

	o.saveMu.Lock()
	o.savesClosed = true
	o.saveMu.Unlock()
	close(o.saveKick)
	o.saveWg.Wait()

	o.logger.Info("orchestrator closed")
	return nil
}
