package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv/kvtest"
)

func TestConformance(t *testing.T) {
	kvtest.TestBackend(t, func(t *testing.T) kv.Backend {
		s, err := NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewStore: %v", err)
		}
		return s
	})
}

func TestNewStoreEmptyDir(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.SetString(context.Background(), "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestKeyEscaping(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()

	// A separator in the key must not escape the store directory.
	key := "../outside/cbf2026_favorites"
	if err := s.SetString(ctx, key, "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.GetString(ctx, key)
	if err != nil || got != "v" {
		t.Fatalf("round trip: got %q, %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "outside")); !os.IsNotExist(err) {
		t.Fatal("key escaped the store directory")
	}
}

func TestSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s1.SetString(ctx, "cbf2026_favorites", `{"b1":{}}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s2, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := s2.GetString(ctx, "cbf2026_favorites")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got != `{"b1":{}}` {
		t.Errorf("expected %q, got %q", `{"b1":{}}`, got)
	}
}
