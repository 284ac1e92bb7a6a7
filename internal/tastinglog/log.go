package tastinglog

import "time"

// Log is one festival's tasting log, keyed by drink ID. Its methods
// implement the entry state machine; they mutate the map in place and
// report whether anything changed, so callers can skip persistence and
// notification for no-ops.
//
// A Log is not safe for concurrent use. The orchestrator owns the
// active partition and serializes access to it.
type Log map[string]Item

// NewLog returns an empty partition.
func NewLog() Log {
	return make(Log)
}

// Clone returns a deep copy. Snapshots handed to the save worker are
// clones, so later mutations cannot race the encoder.
func (l Log) Clone() Log {
	out := make(Log, len(l))
	for id, it := range l {
		out[id] = it.Clone()
	}
	return out
}

// IDs returns the set of drink IDs present in the log, in the shape
// the catalog filter consumes.
func (l Log) IDs() map[string]bool {
	out := make(map[string]bool, len(l))
	for id := range l {
		out[id] = true
	}
	return out
}

// Toggle flips a drink's presence in the log. A missing drink gains a
// want-to-try entry. An existing entry with no tries is removed. An
// entry with recorded tries stays: tries are evidence, and evidence is
// only discarded try by try.
func (l Log) Toggle(drinkID string, now time.Time) (Item, bool) {
	it, ok := l[drinkID]
	if !ok {
		it = Item{
			DrinkID:   drinkID,
			Status:    StatusWantToTry,
			CreatedAt: now,
			UpdatedAt: now,
		}
		l[drinkID] = it
		return it, true
	}
	if !it.Tasted() {
		delete(l, drinkID)
		return Item{}, true
	}
	return it, false
}

// MarkTasted appends a try at now and moves the entry to tasted. A
// missing drink gets a fresh entry created directly in the tasted
// state, skipping want-to-try.
func (l Log) MarkTasted(drinkID string, now time.Time) (Item, bool) {
	it, ok := l[drinkID]
	if !ok {
		it = Item{DrinkID: drinkID, CreatedAt: now}
	}
	it.Tries = append(it.Tries, now)
	it.Status = StatusTasted
	it.UpdatedAt = now
	l[drinkID] = it
	return it, true
}

// DeleteTry removes the try matching ts at millisecond granularity,
// which is the precision tries survive a save/load round trip at.
// Removing the last try reverts the entry to want-to-try; the entry
// itself is kept. A missing drink or a timestamp that matches no try
// is a no-op.
func (l Log) DeleteTry(drinkID string, ts time.Time, now time.Time) (Item, bool) {
	it, ok := l[drinkID]
	if !ok {
		return Item{}, false
	}
	idx := -1
	for i, try := range it.Tries {
		if sameMillisecond(try, ts) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return it, false
	}
	it.Tries = append(it.Tries[:idx:idx], it.Tries[idx+1:]...)
	if len(it.Tries) == 0 {
		it.Tries = nil
		it.Status = StatusWantToTry
	}
	it.UpdatedAt = now
	l[drinkID] = it
	return it, true
}

// SetNotes applies a note patch to an existing entry. Notes never
// create entries: patching a missing drink is a no-op, as is an
// unchanged patch or setting notes to their current value.
func (l Log) SetNotes(drinkID string, patch NotePatch, now time.Time) (Item, bool) {
	it, ok := l[drinkID]
	if !ok || !patch.Set() || it.Notes == patch.Value() {
		return it, false
	}
	it.Notes = patch.Value()
	it.UpdatedAt = now
	l[drinkID] = it
	return it, true
}

func sameMillisecond(a, b time.Time) bool {
	return a.UTC().Truncate(time.Millisecond).Equal(b.UTC().Truncate(time.Millisecond))
}
