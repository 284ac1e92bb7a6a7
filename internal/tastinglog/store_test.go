package tastinglog_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv/memory"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/tastinglog"
)

func newStore(t *testing.T, backend kv.Backend) *tastinglog.Store {
	t.Helper()
	s, err := tastinglog.NewStore(tastinglog.Config{Backend: backend})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t, memory.NewStore())
	ctx := context.Background()

	try := time.Date(2026, 5, 20, 19, 33, 12, 481_000_000, time.UTC)
	l := tastinglog.NewLog()
	l.Toggle("b1", try.Add(-time.Hour))
	l.MarkTasted("b1", try)
	l.SetNotes("b1", tastinglog.NoteSetTo("surprisingly sessionable"), try)
	l.Toggle("b2", try)

	if err := s.Save(ctx, "cbf2026", l); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "cbf2026")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	b1 := got["b1"]
	if b1.Status != tastinglog.StatusTasted || len(b1.Tries) != 1 {
		t.Fatalf("b1: status %q with %d tries", b1.Status, len(b1.Tries))
	}
	if !b1.Tries[0].Equal(try) {
		t.Errorf("try drifted across the round trip: got %v, want %v", b1.Tries[0], try)
	}
	if b1.Notes != "surprisingly sessionable" {
		t.Errorf("notes: got %q", b1.Notes)
	}
	if got["b2"].Status != tastinglog.StatusWantToTry {
		t.Errorf("b2 status: got %q", got["b2"].Status)
	}
}

func TestLoadMissingFestival(t *testing.T) {
	s := newStore(t, memory.NewStore())
	got, err := s.Load(context.Background(), "never-saved")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d entries from a festival never saved, want 0", len(got))
	}
}

func TestLoadCorruptBlob(t *testing.T) {
	backend := memory.NewStore()
	ctx := context.Background()
	if err := backend.SetString(ctx, tastinglog.Key("cbf2026"), `{"truncated`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var reported []error
	s, err := tastinglog.NewStore(tastinglog.Config{
		Backend:   backend,
		OnCorrupt: func(festivalID string, err error) { reported = append(reported, err) },
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	got, err := s.Load(ctx, "cbf2026")
	if err != nil {
		t.Fatalf("a corrupt blob must not fail the load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d entries from a corrupt blob, want 0", len(got))
	}
	if len(reported) == 0 {
		t.Error("corruption was not reported")
	}
	if stats := s.Stats(); stats.CorruptBlobs != 1 {
		t.Errorf("CorruptBlobs: got %d, want 1", stats.CorruptBlobs)
	}

	// The log still works end to end after recovery.
	l := got
	l.Toggle("b1", time.Now())
	if err := s.Save(ctx, "cbf2026", l); err != nil {
		t.Fatalf("Save after recovery: %v", err)
	}
	reloaded, err := s.Load(ctx, "cbf2026")
	if err != nil || len(reloaded) != 1 {
		t.Fatalf("reload after recovery: %d entries, %v", len(reloaded), err)
	}
}

func TestLoadPartialCorruption(t *testing.T) {
	backend := memory.NewStore()
	ctx := context.Background()
	blob := `{
		"good": {"status":"want_to_try","createdAt":"2026-05-20T18:00:00.000Z","updatedAt":"2026-05-20T18:00:00.000Z"},
		"bad":  {"status":"abandoned"}
	}`
	if err := backend.SetString(ctx, tastinglog.Key("cbf2026"), blob); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := newStore(t, backend)
	got, err := s.Load(ctx, "cbf2026")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := got["good"]; !ok {
		t.Error("good entry dropped")
	}
	if stats := s.Stats(); stats.DroppedItems != 1 {
		t.Errorf("DroppedItems: got %d, want 1", stats.DroppedItems)
	}
}

type failingBackend struct{ err error }

func (f failingBackend) GetString(context.Context, string) (string, error) { return "", f.err }
func (f failingBackend) SetString(context.Context, string, string) error   { return f.err }
func (f failingBackend) Delete(context.Context, string) error              { return f.err }

func TestLoadBackendError(t *testing.T) {
	wantErr := errors.New("disk on fire")
	s := newStore(t, failingBackend{err: wantErr})

	_, err := s.Load(context.Background(), "cbf2026")
	if !errors.Is(err, wantErr) {
		t.Fatalf("backend error not propagated: got %v", err)
	}
}

func TestSaveBackendError(t *testing.T) {
	wantErr := errors.New("disk on fire")
	s := newStore(t, failingBackend{err: wantErr})

	err := s.Save(context.Background(), "cbf2026", tastinglog.NewLog())
	if !errors.Is(err, wantErr) {
		t.Fatalf("backend error not propagated: got %v", err)
	}
}

func TestPartitionIsolation(t *testing.T) {
	s := newStore(t, memory.NewStore())
	ctx := context.Background()
	now := time.Now()

	summer := tastinglog.NewLog()
	summer.Toggle("b1", now)
	winter := tastinglog.NewLog()
	winter.MarkTasted("b1", now)
	winter.Toggle("b2", now)

	if err := s.Save(ctx, "cbf2026", summer); err != nil {
		t.Fatalf("Save summer: %v", err)
	}
	if err := s.Save(ctx, "oct2026", winter); err != nil {
		t.Fatalf("Save winter: %v", err)
	}

	// The same drink ID means different things in different festivals.
	gotSummer, err := s.Load(ctx, "cbf2026")
	if err != nil {
		t.Fatalf("Load summer: %v", err)
	}
	if gotSummer["b1"].Status != tastinglog.StatusWantToTry {
		t.Errorf("summer b1: got %q, want %q", gotSummer["b1"].Status, tastinglog.StatusWantToTry)
	}

	if err := s.Delete(ctx, "oct2026"); err != nil {
		t.Fatalf("Delete winter: %v", err)
	}
	gotSummer, err = s.Load(ctx, "cbf2026")
	if err != nil || len(gotSummer) != 1 {
		t.Fatalf("deleting winter disturbed summer: %d entries, %v", len(gotSummer), err)
	}
	gotWinter, err := s.Load(ctx, "oct2026")
	if err != nil || len(gotWinter) != 0 {
		t.Fatalf("winter partition survived delete: %d entries, %v", len(gotWinter), err)
	}
}

func TestKeyShape(t *testing.T) {
	if got, want := tastinglog.Key("cbf2026"), "cbf2026_favorites"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// The blob must land under exactly that key.
	backend := memory.NewStore()
	s := newStore(t, backend)
	if err := s.Save(context.Background(), "cbf2026", tastinglog.NewLog()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := backend.GetString(context.Background(), "cbf2026_favorites"); err != nil {
		t.Fatalf("blob not stored under the favorites key: %v", err)
	}
}

func TestEmptyFestivalID(t *testing.T) {
	s := newStore(t, memory.NewStore())
	ctx := context.Background()

	if _, err := s.Load(ctx, ""); !errors.Is(err, tastinglog.ErrEmptyFestival) {
		t.Errorf("Load: got %v", err)
	}
	if err := s.Save(ctx, "", tastinglog.NewLog()); !errors.Is(err, tastinglog.ErrEmptyFestival) {
		t.Errorf("Save: got %v", err)
	}
	if err := s.Delete(ctx, ""); !errors.Is(err, tastinglog.ErrEmptyFestival) {
		t.Errorf("Delete: got %v", err)
	}
}

func TestConcurrentSaves(t *testing.T) {
	s := newStore(t, memory.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := tastinglog.NewLog()
			l.Toggle(fmt.Sprintf("b%d", i), time.Now())
			if err := s.Save(ctx, "cbf2026", l); err != nil {
				t.Errorf("Save: %v", err)
			}
		}()
	}
	wg.Wait()

	// Whole-value writes: the surviving blob is one of the eight, intact.
	got, err := s.Load(ctx, "cbf2026")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want exactly 1 surviving snapshot", len(got))
	}
}
