// Package demo synthesizes a plausible drink catalog from nothing, so
// the app has something to show before a real feed is configured and so
// tests have a source with no I/O behind it.
//
// Names come from petname's word lists and the rest of each drink is
// drawn from a seeded generator, so a given festival ID always produces
// the same catalog within a process. Availability is rerolled on every
// fetch, which makes manual refreshes visibly do something.
package demo

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	petname "github.com/dustinkirkland/golang-petname"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/logging"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source"
)

const defaultDrinkCount = 48

// Config carries the settings for a demo source.
type Config struct {
	// Drinks is the catalog size per festival. Zero means
	// defaultDrinkCount.
	Drinks int

	// Seed varies the generated catalog. The same seed and festival ID
	// produce the same drinks.
	Seed uint64

	Logger *slog.Logger
}

// Source generates synthetic drink catalogs.
type Source struct {
	drinks int
	seed   uint64
	logger *slog.Logger

	// petname draws from a process-global sequence, so the base catalog
	// is generated once per festival and memoized rather than rebuilt on
	// every fetch.
	mu   sync.Mutex
	base map[string][]catalog.Drink
}

var _ source.Source = (*Source)(nil)

// NewSource creates a demo source.
func NewSource(cfg Config) *Source {
	drinks := cfg.Drinks
	if drinks <= 0 {
		drinks = defaultDrinkCount
	}
	return &Source{
		drinks: drinks,
		seed:   cfg.Seed,
		logger: logging.Default(cfg.Logger).With("component", "source", "type", "demo"),
		base:   make(map[string][]catalog.Drink),
	}
}

// FetchDrinks returns the festival's synthetic catalog with freshly
// rolled availability. It never fails except on a cancelled context.
func (s *Source) FetchDrinks(ctx context.Context, festivalID string) ([]catalog.Drink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	base, ok := s.base[festivalID]
	if !ok {
		base = s.generate(festivalID)
		s.base[festivalID] = base
		s.logger.Debug("generated demo catalog", "festival", festivalID, "drinks", len(base))
	}
	s.mu.Unlock()

	rng := rand.New(rand.NewPCG(s.seed^hashString(festivalID), uint64(time.Now().UnixNano())))
	out := make([]catalog.Drink, len(base))
	for i, d := range base {
		out[i] = d
		out[i].Availability = rollAvailability(rng)
	}
	return source.Normalize(out, s.logger), nil
}

type drinkShape struct {
	category string
	styles   []string
	abvMin   float64
	abvMax   float64
	weight   int
}

var drinkShapes = []drinkShape{
	{"beer", []string{"ipa", "bitter", "stout", "porter", "golden ale", "pale ale", "mild", "barley wine"}, 3.4, 9.5, 12},
	{"cider", []string{"dry", "medium", "sweet"}, 4.5, 8.0, 4},
	{"perry", []string{"dry", "medium", "sweet"}, 5.0, 8.5, 2},
	{"mead", []string{"traditional", "melomel", "metheglin"}, 8.0, 14.0, 2},
}

var breweries = []struct{ name, location string }{
	{"Milton Brewery", "Cambridge"},
	{"Oakham Ales", "Peterborough"},
	{"Elgood's", "Wisbech"},
	{"Adnams", "Southwold"},
	{"Woodforde's", "Woodbastwick"},
	{"Moonshine", "Fulbourn"},
	{"Turpin's", "Pampisford"},
	{"Calverley's", "Cambridge"},
	{"Lord Conrad's", "Dry Drayton"},
	{"Three Blind Mice", "Little Downham"},
}

var tastingNotes = []string{
	"Hoppy with a dry finish",
	"Rich and warming",
	"Crisp, light body",
	"Roasty with a hint of coffee",
	"Floral nose, gentle bitterness",
	"Sharp and refreshing",
}

func (s *Source) generate(festivalID string) []catalog.Drink {
	rng := rand.New(rand.NewPCG(s.seed, hashString(festivalID)))

	drinks := make([]catalog.Drink, 0, s.drinks)
	usedNames := make(map[string]bool)
	for len(drinks) < s.drinks {
		name := titleCase(petname.Generate(2, " "))
		if usedNames[name] {
			continue
		}
		usedNames[name] = true

		shape := pickShape(rng)
		brewery := breweries[rng.IntN(len(breweries))]

		d := catalog.Drink{
			ID:              fmt.Sprintf("demo-%s-%04d", festivalID, len(drinks)+1),
			Name:            name,
			Category:        shape.category,
			Style:           shape.styles[rng.IntN(len(shape.styles))],
			ABV:             math.Round((shape.abvMin+rng.Float64()*(shape.abvMax-shape.abvMin))*10) / 10,
			Brewery:         brewery.name,
			BreweryLocation: brewery.location,
		}
		if rng.IntN(4) == 0 {
			d.Rating = 1 + rng.IntN(5)
		}
		if rng.IntN(3) == 0 {
			d.Notes = tastingNotes[rng.IntN(len(tastingNotes))]
		}
		drinks = append(drinks, d)
	}
	return drinks
}

func pickShape(rng *rand.Rand) drinkShape {
	total := 0
	for _, s := range drinkShapes {
		total += s.weight
	}
	r := rng.IntN(total)
	for _, s := range drinkShapes {
		if r < s.weight {
			return s
		}
		r -= s.weight
	}
	return drinkShapes[0]
}

func rollAvailability(rng *rand.Rand) catalog.Availability {
	switch r := rng.IntN(10); {
	case r < 6:
		return catalog.AvailabilityPlenty
	case r < 8:
		return catalog.AvailabilityLow
	case r < 9:
		return catalog.AvailabilityOut
	default:
		return catalog.AvailabilityNotYet
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// NewFactory returns a factory that builds demo sources from string
// params. Recognized params:
//
//	drinks  catalog size per festival (optional)
//	seed    generator seed (optional)
func NewFactory() source.Factory {
	return func(params map[string]string, logger *slog.Logger) (source.Source, error) {
		cfg := Config{Logger: logger}
		if v, ok := params["drinks"]; ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid drinks %q: %w", v, err)
			}
			if n <= 0 {
				return nil, fmt.Errorf("invalid drinks %q: must be positive", v)
			}
			cfg.Drinks = n
		}
		if v, ok := params["seed"]; ok && v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid seed %q: %w", v, err)
			}
			cfg.Seed = n
		}
		return NewSource(cfg), nil
	}
}
