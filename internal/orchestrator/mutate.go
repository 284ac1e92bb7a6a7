package orchestrator

import (
	"slices"
	"time"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/tastinglog"
)

// CriteriaPatch updates a subset of the filter criteria. Nil fields are
// left unchanged; a non-nil field overwrites, so new([]string) clears
// the style set and new("") clears the query.
type CriteriaPatch struct {
	Category        *string
	Styles          *[]string
	FavoritesOnly   *bool
	HideUnavailable *bool
	Query           *string
}

func (p CriteriaPatch) apply(c *catalog.Criteria) {
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Styles != nil {
		c.Styles = slices.Clone(*p.Styles)
	}
	if p.FavoritesOnly != nil {
		c.FavoritesOnly = *p.FavoritesOnly
	}
	if p.HideUnavailable != nil {
		c.HideUnavailable = *p.HideUnavailable
	}
	if p.Query != nil {
		c.Query = *p.Query
	}
}

// SetCriteria applies a patch to the filter criteria and recomputes the
// visible list, filter before sort. A patch that changes nothing emits
// no event. Criteria may be set before a festival is active.
func (o *Orchestrator) SetCriteria(patch CriteriaPatch) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	next := o.criteria.Clone()
	patch.apply(&next)
	if next.Equal(o.criteria) {
		o.mu.Unlock()
		return nil
	}
	o.criteria = next
	o.rebuildLocked()
	festivalID := o.festivalID
	o.mu.Unlock()

	o.publish(Event{Kind: EventCriteriaChanged, FestivalID: festivalID})
	return nil
}

// SetSortKey changes the sort order and recomputes the visible list.
// Unknown keys degrade to catalog.DefaultSortKey rather than failing.
func (o *Orchestrator) SetSortKey(key catalog.SortKey) error {
	if parsed, err := catalog.ParseSortKey(string(key)); err == nil {
		key = parsed
	} else {
		key = catalog.DefaultSortKey
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if key == o.sortKey {
		o.mu.Unlock()
		return nil
	}
	o.sortKey = key
	o.rebuildLocked()
	festivalID := o.festivalID
	o.mu.Unlock()

	o.publish(Event{Kind: EventSortChanged, FestivalID: festivalID})
	return nil
}

// mutateLog runs one tasting-log operation under the write lock. When
// the operation changed the log, the newest snapshot is queued for the
// save worker and the visible list is recomputed if favorites filtering
// is active. The caller publishes the event.
func (o *Orchestrator) mutateLog(fn func(l tastinglog.Log, now time.Time) (tastinglog.Item, bool)) (tastinglog.Item, bool, string, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return tastinglog.Item{}, false, "", ErrClosed
	}
	if o.festivalID == "" {
		o.mu.Unlock()
		return tastinglog.Item{}, false, "", ErrNoFestival
	}

	it, changed := fn(o.log, o.now())

	var festivalID string
	var snapshot tastinglog.Log
	if changed {
		festivalID = o.festivalID
		snapshot = o.log.Clone()
		if o.criteria.FavoritesOnly {
			o.rebuildLocked()
		}
	}
	o.mu.Unlock()

	if changed {
		o.enqueueSave(festivalID, snapshot)
	}
	return it, changed, festivalID, nil
}

// ToggleFavorite flips a drink's presence in the tasting log. The
// returned bool reports whether the drink has an entry afterwards; a
// tasted entry resists toggling off and stays.
func (o *Orchestrator) ToggleFavorite(drinkID string) (tastinglog.Item, bool, error) {
	var present bool
	it, changed, festivalID, err := o.mutateLog(func(l tastinglog.Log, now time.Time) (tastinglog.Item, bool) {
		it, changed := l.Toggle(drinkID, now)
		_, present = l[drinkID]
		return it, changed
	})
	if err != nil {
		return tastinglog.Item{}, false, err
	}
	if changed {
		o.publish(Event{Kind: EventLogChanged, FestivalID: festivalID, DrinkID: drinkID})
	}
	return it, present, nil
}

// MarkTasted records a try at the current time, creating the entry as
// tasted if the drink was not in the log.
func (o *Orchestrator) MarkTasted(drinkID string) (tastinglog.Item, error) {
	it, changed, festivalID, err := o.mutateLog(func(l tastinglog.Log, now time.Time) (tastinglog.Item, bool) {
		return l.MarkTasted(drinkID, now)
	})
	if err != nil {
		return tastinglog.Item{}, err
	}
	if changed {
		o.publish(Event{Kind: EventLogChanged, FestivalID: festivalID, DrinkID: drinkID})
	}
	return it, nil
}

// DeleteTry removes the try matching ts at millisecond granularity. The
// returned bool reports whether a try was actually removed; a missing
// drink or unmatched timestamp is a no-op.
func (o *Orchestrator) DeleteTry(drinkID string, ts time.Time) (tastinglog.Item, bool, error) {
	it, changed, festivalID, err := o.mutateLog(func(l tastinglog.Log, now time.Time) (tastinglog.Item, bool) {
		return l.DeleteTry(drinkID, ts, now)
	})
	if err != nil {
		return tastinglog.Item{}, false, err
	}
	if changed {
		o.publish(Event{Kind: EventLogChanged, FestivalID: festivalID, DrinkID: drinkID})
	}
	return it, changed, nil
}

// SetNotes patches an existing entry's notes. Notes never create
// entries; the returned bool reports whether anything was applied.
func (o *Orchestrator) SetNotes(drinkID string, patch tastinglog.NotePatch) (tastinglog.Item, bool, error) {
	it, changed, festivalID, err := o.mutateLog(func(l tastinglog.Log, now time.Time) (tastinglog.Item, bool) {
		return l.SetNotes(drinkID, patch, now)
	})
	if err != nil {
		return tastinglog.Item{}, false, err
	}
	if changed {
		o.publish(Event{Kind: EventLogChanged, FestivalID: festivalID, DrinkID: drinkID})
	}
	return it, changed, nil
}
