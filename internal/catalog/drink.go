// Package catalog defines the drink catalog model and the pure engines
// that derive the visible list from it: a multi-criteria filter and a
// multi-key sorter.
//
// The catalog is a read-only projection of whatever the active festival
// publishes. Sources replace it wholesale on every fetch; nothing in
// this package mutates a Drink after it has been produced, and both
// engines return fresh slices instead of reordering their input.
package catalog

import "strings"

// Availability reports how much of a drink the festival has left.
//
// Feeds are inconsistent about this field, so the zero value means the
// feed said nothing usable. Unknown availability never hides a drink.
type Availability string

const (
	AvailabilityUnknown Availability = ""
	AvailabilityPlenty  Availability = "plenty"
	AvailabilityLow     Availability = "low"
	AvailabilityOut     Availability = "out"
	AvailabilityNotYet  Availability = "not_yet_available"
)

// ParseAvailability maps the spellings seen in the wild onto the
// canonical levels. Anything unrecognised becomes AvailabilityUnknown
// rather than an error; a drink with a garbled stock level is still a
// drink.
func ParseAvailability(s string) Availability {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plenty", "lots", "loads":
		return AvailabilityPlenty
	case "low", "running low", "nearly out":
		return AvailabilityLow
	case "out", "out of stock", "sold out", "gone", "none":
		return AvailabilityOut
	case "not_yet_available", "not yet available", "not yet ready", "arriving":
		return AvailabilityNotYet
	default:
		return AvailabilityUnknown
	}
}

// Drink is a single catalog entry. IDs are unique within one festival's
// catalog and are the only link between the catalog and the tasting
// log; two festivals may reuse the same ID for different drinks.
type Drink struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Category        string       `json:"category,omitempty"`
	Style           string       `json:"style,omitempty"`
	ABV             float64      `json:"abv,omitempty"`
	Brewery         string       `json:"brewery,omitempty"`
	BreweryLocation string       `json:"brewery_location,omitempty"`
	Availability    Availability `json:"availability,omitempty"`
	Rating          int          `json:"rating,omitempty"`
	Notes           string       `json:"notes,omitempty"`
}

// Rated reports whether the drink carries a crowd rating. Zero means
// unrated, valid ratings are 1 through 5.
func (d Drink) Rated() bool {
	return d.Rating >= 1 && d.Rating <= 5
}
