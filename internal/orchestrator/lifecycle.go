package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/tastinglog"
)

// ActivateFestival switches the session to a festival: pending saves
// for the outgoing partition are flushed first, then the new festival's
// catalog and tasting log are loaded concurrently. Criteria and sort
// key are session state and survive the switch.
//
// Activation succeeds degraded: a fetch failure leaves an empty
// catalog, a load failure an empty log, each reported through its own
// event before the closing EventFestivalActivated. Only a cancelled
// context, a closed orchestrator, or an empty ID fail the call.
func (o *Orchestrator) ActivateFestival(ctx context.Context, festivalID string) error {
	if festivalID == "" {
		return fmt.Errorf("festival ID is required")
	}
	if o.isClosed() {
		return ErrClosed
	}

	// A quick switch away and back must not resurrect a stale log, so
	// the outgoing partition is durable before the new one loads.
	o.FlushSaves()

	var (
		drinks   []catalog.Drink
		fetchErr error
		log      tastinglog.Log
		loadErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		drinks, fetchErr = o.source.FetchDrinks(gctx, festivalID)
		return nil
	})
	g.Go(func() error {
		log, loadErr = o.store.Load(gctx, festivalID)
		return nil
	})
	// Failures are soft; the group only propagates ctx cancellation.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	events := make([]Event, 0, 3)
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	o.festivalID = festivalID
	if fetchErr != nil {
		o.drinks = nil
		events = append(events, Event{Kind: EventFetchFailed, FestivalID: festivalID, Err: fetchErr})
	} else {
		o.drinks = drinks
	}
	if loadErr != nil {
		o.log = tastinglog.NewLog()
		events = append(events, Event{Kind: EventLoadFailed, FestivalID: festivalID, Err: loadErr})
	} else {
		o.log = log
	}
	o.rebuildLocked()
	o.mu.Unlock()

	if fetchErr != nil {
		o.logger.Warn("catalog fetch failed on activation", "festival", festivalID, "error", fetchErr)
	}
	if loadErr != nil {
		o.logger.Warn("tasting log load failed on activation", "festival", festivalID, "error", loadErr)
	}
	o.logger.Info("festival activated", "festival", festivalID, "drinks", len(drinks))

	events = append(events, Event{Kind: EventFestivalActivated, FestivalID: festivalID})
	o.publish(events...)

	o.startWatching(festivalID)
	return nil
}

// Refresh re-fetches the active festival's catalog wholesale. On
// failure the last good snapshot stays visible and the error is both
// returned and reported as EventFetchFailed.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if o.isClosed() {
		return ErrClosed
	}
	o.mu.RLock()
	festivalID := o.festivalID
	o.mu.RUnlock()
	if festivalID == "" {
		return ErrNoFestival
	}

	drinks, err := o.source.FetchDrinks(ctx, festivalID)
	if err != nil {
		o.logger.Warn("catalog refresh failed", "festival", festivalID, "error", err)
		o.publish(Event{Kind: EventFetchFailed, FestivalID: festivalID, Err: err})
		return fmt.Errorf("refreshing catalog: %w", err)
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.festivalID != festivalID {
		// The session moved on mid-fetch; this snapshot is for the
		// wrong festival.
		o.mu.Unlock()
		return nil
	}
	o.drinks = drinks
	o.rebuildLocked()
	o.mu.Unlock()

	o.logger.Debug("catalog refreshed", "festival", festivalID, "drinks", len(drinks))
	o.publish(Event{Kind: EventCatalogRefreshed, FestivalID: festivalID})
	return nil
}

// startWatching restarts the source watcher for the given festival.
// Sources that do not implement source.Watcher are never watched.
func (o *Orchestrator) startWatching(festivalID string) {
	w, ok := o.source.(source.Watcher)
	if !ok {
		return
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if o.watchCancel != nil {
		o.watchCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.watchCancel = cancel
	o.mu.Unlock()

	o.watchWg.Go(func() { o.watchLoop(ctx, w, festivalID) })
}

// watchLoop funnels source change ticks into Refresh until cancelled.
func (o *Orchestrator) watchLoop(ctx context.Context, w source.Watcher, festivalID string) {
	changed := make(chan struct{}, 1)
	o.watchWg.Go(func() {
		if err := w.Watch(ctx, festivalID, changed); err != nil && !errors.Is(err, context.Canceled) {
			o.logger.Warn("catalog watch ended", "festival", festivalID, "error", err)
		}
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			rctx, cancel := context.WithTimeout(ctx, refreshTimeout)
			err := o.Refresh(rctx)
			cancel()
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrClosed) {
				o.logger.Warn("watch-triggered refresh failed", "error", err)
			}
		}
	}
}
