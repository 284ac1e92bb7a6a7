package catalog

import (
	"slices"
	"strings"
)

// Criteria describes the active catalog filters. All populated criteria
// must hold at once for a drink to pass, except Styles, which matches
// if the drink's style equals any member. Zero-valued criteria are
// inactive, so the zero Criteria passes everything.
//
// Criteria are session state: they are never persisted and reset when a
// festival is activated.
type Criteria struct {
	// Category filters on exact category name ("beer", "cider", ...).
	Category string
	// Styles is an OR-matched set of style names, compared
	// case-insensitively against the whole style.
	Styles []string
	// FavoritesOnly keeps only drinks present in the tasting log.
	FavoritesOnly bool
	// HideUnavailable drops drinks that are out. Low stock, not yet
	// available, and unknown availability all stay visible.
	HideUnavailable bool
	// Query is a case-insensitive substring matched against name,
	// brewery, style, and notes.
	Query string
}

// Clone returns an independent copy. Criteria share no state with their
// clones, so a patched clone can be swapped in without locking the
// original.
func (c Criteria) Clone() Criteria {
	c.Styles = slices.Clone(c.Styles)
	return c
}

// IsZero reports whether no criterion is active.
func (c Criteria) IsZero() bool {
	return c.Category == "" && len(c.Styles) == 0 &&
		!c.FavoritesOnly && !c.HideUnavailable && strings.TrimSpace(c.Query) == ""
}

// Equal reports whether two criteria are the same selection. Styles are
// compared in order; a reordering counts as a change.
func (c Criteria) Equal(other Criteria) bool {
	return c.Category == other.Category &&
		slices.Equal(c.Styles, other.Styles) &&
		c.FavoritesOnly == other.FavoritesOnly &&
		c.HideUnavailable == other.HideUnavailable &&
		c.Query == other.Query
}

// matcher is the lowered form of Criteria used during a single pass:
// the query is folded once and the style set is kept pre-folded so the
// per-drink test does no allocation.
type matcher struct {
	category        string
	styles          []string
	favoritesOnly   bool
	hideUnavailable bool
	query           string
}

func compile(c Criteria) matcher {
	m := matcher{
		category:        c.Category,
		favoritesOnly:   c.FavoritesOnly,
		hideUnavailable: c.HideUnavailable,
		query:           strings.ToLower(strings.TrimSpace(c.Query)),
	}
	for _, s := range c.Styles {
		m.styles = append(m.styles, strings.ToLower(s))
	}
	return m
}

func (m matcher) match(d Drink, favorites map[string]bool) bool {
	if m.category != "" && d.Category != m.category {
		return false
	}
	if len(m.styles) > 0 && !slices.Contains(m.styles, strings.ToLower(d.Style)) {
		return false
	}
	if m.favoritesOnly && !favorites[d.ID] {
		return false
	}
	if m.hideUnavailable && d.Availability == AvailabilityOut {
		return false
	}
	if m.query != "" && !m.matchQuery(d) {
		return false
	}
	return true
}

func (m matcher) matchQuery(d Drink) bool {
	for _, field := range []string{d.Name, d.Brewery, d.Style, d.Notes} {
		if strings.Contains(strings.ToLower(field), m.query) {
			return true
		}
	}
	return false
}

// Filter returns the drinks that satisfy every active criterion, in
// their original order. favorites is the set of drink IDs present in
// the active tasting log; it is only consulted when FavoritesOnly is
// set, so nil is fine otherwise.
//
// Filtering never reorders and never invents entries, which makes it
// idempotent: filtering its own output with the same criteria returns
// the same drinks.
func Filter(drinks []Drink, c Criteria, favorites map[string]bool) []Drink {
	m := compile(c)
	out := make([]Drink, 0, len(drinks))
	for _, d := range drinks {
		if m.match(d, favorites) {
			out = append(out, d)
		}
	}
	return out
}
