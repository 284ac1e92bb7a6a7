// Package source defines where drink catalogs come from. A source owns
// transport, decoding, and feed quirks; the orchestrator just asks it
// for the full catalog of a festival and replaces its snapshot with
// whatever comes back.
package source

import (
	"context"
	"log/slog"
	"strings"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/logging"
)

// Source fetches the complete drink catalog for a festival. Each fetch
// stands alone: partial updates do not exist in this model.
type Source interface {
	FetchDrinks(ctx context.Context, festivalID string) ([]catalog.Drink, error)
}

// Watcher is implemented by sources that can detect upstream changes on
// their own. Watch sends on changed (without blocking; ticks may be
// dropped) until ctx is done, then returns ctx's error.
type Watcher interface {
	Watch(ctx context.Context, festivalID string, changed chan<- struct{}) error
}

// Factory creates a Source from opaque string params. Factories
// validate params but do not fetch; a bad feed shows up on first use.
type Factory func(params map[string]string, logger *slog.Logger) (Source, error)

// Normalize enforces the catalog's model constraints on decoded feed
// data: IDs and names are trimmed, drinks without an ID are dropped,
// duplicate IDs keep their first occurrence, negative ABVs and
// out-of-range ratings are zeroed. Order is preserved otherwise.
func Normalize(drinks []catalog.Drink, logger *slog.Logger) []catalog.Drink {
	logger = logging.Default(logger)
	seen := make(map[string]bool, len(drinks))
	out := make([]catalog.Drink, 0, len(drinks))
	for _, d := range drinks {
		d.ID = strings.TrimSpace(d.ID)
		d.Name = strings.TrimSpace(d.Name)
		if d.ID == "" {
			logger.Debug("dropping drink without id", "name", d.Name)
			continue
		}
		if seen[d.ID] {
			logger.Debug("dropping duplicate drink id", "id", d.ID)
			continue
		}
		seen[d.ID] = true
		if d.ABV < 0 {
			d.ABV = 0
		}
		if d.Rating < 0 || d.Rating > 5 {
			d.Rating = 0
		}
		out = append(out, d)
	}
	return out
}
