package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortKey selects the ordering of the visible list.
type SortKey string

const (
	SortNameAsc  SortKey = "name_asc"
	SortNameDesc SortKey = "name_desc"
	SortABVHigh  SortKey = "abv_high"
	SortABVLow   SortKey = "abv_low"
	SortBrewery  SortKey = "brewery"
	SortStyle    SortKey = "style"
)

// DefaultSortKey is used when no ordering has been chosen.
const DefaultSortKey = SortNameAsc

// ParseSortKey validates a sort key from config or a flag.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortNameAsc, SortNameDesc, SortABVHigh, SortABVLow, SortBrewery, SortStyle:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// Sort returns the drinks ordered by key, leaving the input untouched.
// Every ordering is total: non-name keys break ties by ascending name,
// and the underlying sort is stable so equal drinks keep their input
// order. An unknown key falls back to DefaultSortKey.
//
// Name, brewery, and style compare case-insensitively. Drinks without a
// style sort after all drinks that have one.
func Sort(drinks []Drink, key SortKey) []Drink {
	out := slices.Clone(drinks)
	slices.SortStableFunc(out, comparator(key))
	return out
}

func comparator(key SortKey) func(a, b Drink) int {
	switch key {
	case SortNameDesc:
		return func(a, b Drink) int { return compareName(b, a) }
	case SortABVHigh:
		return func(a, b Drink) int {
			if c := cmp.Compare(b.ABV, a.ABV); c != 0 {
				return c
			}
			return compareName(a, b)
		}
	case SortABVLow:
		return func(a, b Drink) int {
			if c := cmp.Compare(a.ABV, b.ABV); c != 0 {
				return c
			}
			return compareName(a, b)
		}
	case SortBrewery:
		return func(a, b Drink) int {
			if c := compareFold(a.Brewery, b.Brewery); c != 0 {
				return c
			}
			return compareName(a, b)
		}
	case SortStyle:
		return func(a, b Drink) int {
			if c := compareStyle(a.Style, b.Style); c != 0 {
				return c
			}
			return compareName(a, b)
		}
	default:
		return compareName
	}
}

func compareName(a, b Drink) int {
	return compareFold(a.Name, b.Name)
}

func compareFold(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

// compareStyle orders known styles alphabetically and pushes drinks
// with no style to the end.
func compareStyle(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	default:
		return compareFold(a, b)
	}
}
