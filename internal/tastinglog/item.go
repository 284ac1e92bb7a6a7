// Package tastinglog implements the per-festival record of drinks the
// user wants to try or has tried. Each festival has its own partition;
// entries reference catalog drinks by ID only, so a log survives
// catalog refreshes and even drinks vanishing from the feed.
package tastinglog

import (
	"slices"
	"time"
)

// Status is the lifecycle state of a log entry.
type Status string

const (
	StatusWantToTry Status = "want_to_try"
	StatusTasted    Status = "tasted"
)

// Item is one tasting-log entry.
//
// Status and Tries are coupled: an item is tasted exactly when it has
// at least one try. Every mutation in this package maintains that, so
// deleting the last try reverts the item to want-to-try rather than
// leaving a tasted entry with no evidence.
type Item struct {
	DrinkID   string
	Status    Status
	Tries     []time.Time // chronological
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy that shares no state with the original.
func (it Item) Clone() Item {
	it.Tries = slices.Clone(it.Tries)
	return it
}

// Tasted reports whether at least one try has been recorded.
func (it Item) Tasted() bool {
	return len(it.Tries) > 0
}

// NotePatch is a tri-state notes update: leave the notes alone, or set
// them to a value, where the empty value clears them. The zero patch
// changes nothing.
type NotePatch struct {
	set   bool
	value string
}

// NoteUnchanged leaves existing notes as they are.
func NoteUnchanged() NotePatch { return NotePatch{} }

// NoteSetTo replaces the notes with v. NoteSetTo("") clears them.
func NoteSetTo(v string) NotePatch { return NotePatch{set: true, value: v} }

// Set reports whether the patch carries a value.
func (p NotePatch) Set() bool { return p.set }

// Value returns the value carried by the patch, which is only
// meaningful when Set reports true.
func (p NotePatch) Value() string { return p.value }
