// Package kvtest provides a shared conformance test suite for
// kv.Backend implementations. Each backend (memory, file, sqlite, and
// the remote ones behind env guards) wires this suite to verify it
// satisfies the full contract.
package kvtest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv"
)

// TestBackend runs the full conformance suite against a backend.
// newBackend must return a fresh, empty backend for each sub-test.
func TestBackend(t *testing.T, newBackend func(t *testing.T) kv.Backend) {
	t.Run("GetMissing", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.GetString(context.Background(), "absent")
		if !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		if err := b.SetString(ctx, "cbf2026_favorites", `{"b1":{}}`); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := b.GetString(ctx, "cbf2026_favorites")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != `{"b1":{}}` {
			t.Errorf("expected %q, got %q", `{"b1":{}}`, got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		for _, v := range []string{"first", "second", "third"} {
			if err := b.SetString(ctx, "k", v); err != nil {
				t.Fatalf("Set %q: %v", v, err)
			}
		}
		got, err := b.GetString(ctx, "k")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != "third" {
			t.Errorf("expected %q, got %q", "third", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		if err := b.SetString(ctx, "k", "v"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := b.Delete(ctx, "k"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := b.GetString(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		b := newBackend(t)
		if err := b.Delete(context.Background(), "never-set"); err != nil {
			t.Fatalf("deleting a missing key should succeed, got %v", err)
		}
	})

	t.Run("EmptyValue", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		if err := b.SetString(ctx, "empty", ""); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := b.GetString(ctx, "empty")
		if err != nil {
			t.Fatalf("an empty value is still a value: %v", err)
		}
		if got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("KeyIsolation", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		if err := b.SetString(ctx, "oct2026_favorites", "a"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := b.SetString(ctx, "cbf2026_favorites", "b"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := b.Delete(ctx, "oct2026_favorites"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		got, err := b.GetString(ctx, "cbf2026_favorites")
		if err != nil || got != "b" {
			t.Fatalf("neighbour key disturbed: got %q, %v", got, err)
		}
	})

	t.Run("LargeValue", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		// A festival of a thousand favorites is well past any page size.
		value := strings.Repeat(`{"status":"tasted"}`, 4096)
		if err := b.SetString(ctx, "big", value); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := b.GetString(ctx, "big")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != value {
			t.Errorf("large value mangled: got %d bytes, want %d", len(got), len(value))
		}
	})

	t.Run("UnicodeValue", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		value := `{"notes":"bière de garde, très bon 🍺"}`
		if err := b.SetString(ctx, "uni", value); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := b.GetString(ctx, "uni")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != value {
			t.Errorf("expected %q, got %q", value, got)
		}
	})
}
