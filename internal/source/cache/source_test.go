package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"slices"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/logging"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source"
)

type stubSource struct {
	drinks []catalog.Drink
	err    error
	calls  int
}

func (s *stubSource) FetchDrinks(ctx context.Context, festivalID string) ([]catalog.Drink, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.drinks), nil
}

type stubWatchSource struct {
	stubSource
}

func (s *stubWatchSource) Watch(ctx context.Context, festivalID string, changed chan<- struct{}) error {
	<-ctx.Done()
	return ctx.Err()
}

func testDrinks() []catalog.Drink {
	return []catalog.Drink{
		{ID: "b1", Name: "Citra", Category: "beer", Style: "ipa", ABV: 4.2,
			Brewery: "Oakham Ales", BreweryLocation: "Peterborough",
			Availability: catalog.AvailabilityPlenty, Rating: 4, Notes: "Grapefruit hit"},
		{ID: "c1", Name: "Scrumpy Jack", Category: "cider", ABV: 6.0,
			Brewery: "Orchard Farm", Availability: catalog.AvailabilityLow},
	}
}

func TestServesSnapshotWhenUpstreamFails(t *testing.T) {
	upstream := &stubSource{drinks: testDrinks()}
	src, err := New(Config{Upstream: upstream, Dir: t.TempDir(), Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	fresh, err := src.FetchDrinks(ctx, "cbf2026")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	upstream.err = errors.New("network unreachable")
	stale, err := src.FetchDrinks(ctx, "cbf2026")
	if err != nil {
		t.Fatalf("fallback fetch: %v", err)
	}

	if len(stale) != len(fresh) {
		t.Fatalf("snapshot has %d drinks, fetch had %d", len(stale), len(fresh))
	}
	for i := range fresh {
		if stale[i] != fresh[i] {
			t.Errorf("drink %d changed through snapshot:\n  %+v\n  %+v", i, fresh[i], stale[i])
		}
	}
}

func TestUpstreamErrorWithoutSnapshot(t *testing.T) {
	upstreamErr := errors.New("connection refused")
	upstream := &stubSource{err: upstreamErr}
	src, err := New(Config{Upstream: upstream, Dir: t.TempDir(), Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = src.FetchDrinks(context.Background(), "cbf2026")
	if !errors.Is(err, upstreamErr) {
		t.Errorf("got error %v, want upstream error to propagate", err)
	}
}

func TestCorruptSnapshotPropagatesUpstreamError(t *testing.T) {
	dir := t.TempDir()
	upstreamErr := errors.New("timeout")
	upstream := &stubSource{err: upstreamErr}
	src, err := New(Config{Upstream: upstream, Dir: dir, Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	inner := src.(*Source)
	if err := os.WriteFile(inner.snapshotPath("cbf2026"), []byte("not a snapshot"), 0o644); err != nil {
		t.Fatalf("writing corrupt snapshot: %v", err)
	}

	_, err = src.FetchDrinks(context.Background(), "cbf2026")
	if !errors.Is(err, upstreamErr) {
		t.Errorf("got error %v, want upstream error despite corrupt snapshot", err)
	}
}

func TestSnapshotVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	upstream := &stubSource{drinks: testDrinks()}
	src, err := New(Config{Upstream: upstream, Dir: dir, Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	inner := src.(*Source)

	// writeSnapshot always stamps the current version, so plant a
	// future-version snapshot by hand.
	snap := snapshot{Version: snapshotVersion + 1, FestivalID: "cbf2026", Drinks: testDrinks()}
	plantSnapshot(t, inner, "cbf2026", snap)

	upstreamErr := errors.New("timeout")
	upstream.err = upstreamErr
	_, err = src.FetchDrinks(context.Background(), "cbf2026")
	if !errors.Is(err, upstreamErr) {
		t.Errorf("got error %v, want upstream error for unsupported snapshot version", err)
	}
}

func plantSnapshot(t *testing.T, s *Source, festivalID string, snap snapshot) {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(snap); err != nil {
		t.Fatalf("encoding snapshot: %v", err)
	}
	data := zstdEnc.EncodeAll(buf.Bytes(), nil)
	if err := os.WriteFile(s.snapshotPath(festivalID), data, 0o644); err != nil {
		t.Fatalf("writing snapshot: %v", err)
	}
}

func TestSnapshotIsolatedPerFestival(t *testing.T) {
	upstream := &stubSource{drinks: testDrinks()}
	src, err := New(Config{Upstream: upstream, Dir: t.TempDir(), Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if _, err := src.FetchDrinks(ctx, "cbf2026"); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	// Another festival never fetched successfully has no snapshot.
	upstreamErr := errors.New("down")
	upstream.err = upstreamErr
	if _, err := src.FetchDrinks(ctx, "octfest"); !errors.Is(err, upstreamErr) {
		t.Errorf("got error %v, want upstream error for festival without snapshot", err)
	}

	// The snapshotted festival still works.
	if _, err := src.FetchDrinks(ctx, "cbf2026"); err != nil {
		t.Errorf("snapshotted festival failed: %v", err)
	}
}

func TestWatcherVisibleThroughCache(t *testing.T) {
	plain, err := New(Config{Upstream: &stubSource{}, Dir: t.TempDir(), Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := plain.(source.Watcher); ok {
		t.Error("cache over plain source must not claim to be a watcher")
	}

	watching, err := New(Config{Upstream: &stubWatchSource{}, Dir: t.TempDir(), Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := watching.(source.Watcher); !ok {
		t.Error("cache over watching source must expose the watcher")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Dir: t.TempDir()}); err == nil {
		t.Error("expected error for missing upstream")
	}
	if _, err := New(Config{Upstream: &stubSource{}}); err == nil {
		t.Error("expected error for missing dir")
	}
}
