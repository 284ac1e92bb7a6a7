package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	d := New("/tmp/cbf-test")
	if d.Root() != "/tmp/cbf-test" {
		t.Errorf("expected root /tmp/cbf-test, got %s", d.Root())
	}
}

func TestDefault(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if d.Root() == "" {
		t.Fatal("expected non-empty root")
	}
	// Should end with "cbf".
	if filepath.Base(d.Root()) != "cbf" {
		t.Errorf("expected root to end with 'cbf', got %s", d.Root())
	}
}

func TestPaths(t *testing.T) {
	d := New("/data")
	if got := d.ConfigPath(); got != "/data/config.json" {
		t.Errorf("ConfigPath: got %s", got)
	}
	if got := d.TastingLogDir(); got != "/data/tastinglog" {
		t.Errorf("TastingLogDir: got %s", got)
	}
	if got := d.SnapshotDir(); got != "/data/snapshots" {
		t.Errorf("SnapshotDir: got %s", got)
	}
	if got := d.SQLitePath(); got != "/data/tasting.db" {
		t.Errorf("SQLitePath: got %s", got)
	}
}

func TestEnsureExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "cbf")
	d := New(root)
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory")
	}

	// Calling again should be idempotent.
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists (idempotent): %v", err)
	}
}
