package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStoreLoadNotExist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	s := NewStore(path)
	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Fatalf("expected nil config, got %+v", cfg)
	}
}

func TestStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	s := NewStore(path)
	ctx := context.Background()

	original := &Config{
		Festivals: []FestivalConfig{
			{ID: "cbf2026", Name: "Cambridge Beer Festival 2026", Params: map[string]string{"url": "https://data.cambridgebeerfestival.com/cbf2026/beer.json"}},
			{ID: "octfest", Name: "Cambridge Octoberfest"},
		},
		DefaultFestival: "cbf2026",
		Source:          SourceConfig{Type: "http", Cache: true},
		Store:           StoreConfig{Type: "sqlite", Params: map[string]string{"path": "/var/lib/cbf/tasting.db"}},
		Refresh:         RefreshConfig{Interval: StringPtr("10m")},
	}

	if err := s.Save(ctx, original); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file should exist: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("temp file should be gone after save, stat err = %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected config, got nil")
	}

	if len(loaded.Festivals) != 2 {
		t.Fatalf("expected 2 festivals, got %d", len(loaded.Festivals))
	}
	if loaded.Festivals[0].ID != "cbf2026" {
		t.Errorf("festival[0] ID: expected %q, got %q", "cbf2026", loaded.Festivals[0].ID)
	}
	if got := loaded.Festivals[0].Params["url"]; !strings.Contains(got, "cbf2026") {
		t.Errorf("festival[0] Params[url]: got %q", got)
	}
	if loaded.DefaultFestival != "cbf2026" {
		t.Errorf("DefaultFestival: expected %q, got %q", "cbf2026", loaded.DefaultFestival)
	}
	if !loaded.Source.Cache {
		t.Error("Source.Cache: expected true")
	}
	if loaded.Store.Type != "sqlite" {
		t.Errorf("Store.Type: expected %q, got %q", "sqlite", loaded.Store.Type)
	}
	if loaded.Refresh.Interval == nil || *loaded.Refresh.Interval != "10m" {
		t.Errorf("Refresh.Interval: expected %q, got %v", "10m", loaded.Refresh.Interval)
	}
}

func TestStoreReloadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	ctx := context.Background()

	s1 := NewStore(path)
	if err := s1.Save(ctx, Default()); err != nil {
		t.Fatalf("save: %v", err)
	}

	s2 := NewStore(path)
	loaded, err := s2.Load(ctx)
	if err != nil {
		t.Fatalf("load from new store: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected config, got nil")
	}
	if loaded.Source.Type != "demo" {
		t.Errorf("Source.Type: expected %q, got %q", "demo", loaded.Source.Type)
	}
}

func TestStoreSaveOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	ctx := context.Background()
	s := NewStore(path)

	first := Default()
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := Default()
	second.Store.Type = "redis"
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Store.Type != "redis" {
		t.Errorf("Store.Type: expected %q, got %q", "redis", loaded.Store.Type)
	}
}

func TestStoreSaveCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "config.json")
	s := NewStore(path)

	if err := s.Save(context.Background(), Default()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file should exist: %v", err)
	}
}

func TestStoreSaveNilConfig(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "config.json"))
	if err := s.Save(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestStoreLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "corrupt json",
			data:    "not a config file",
			wantErr: "parsing config",
		},
		{
			name:    "unversioned",
			data:    `{"config":{"source":{"type":"demo"},"store":{"type":"file"}}}`,
			wantErr: "no version field",
		},
		{
			name:    "future version",
			data:    `{"version":99,"config":{"source":{"type":"demo"},"store":{"type":"file"}}}`,
			wantErr: "newer than supported",
		},
		{
			name:    "missing config section",
			data:    `{"version":1}`,
			wantErr: "no config section",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(tc.data), 0o644); err != nil {
				t.Fatalf("write fixture: %v", err)
			}

			_, err := NewStore(path).Load(context.Background())
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestStoreRoundTripPreservesValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	ctx := context.Background()
	s := NewStore(path)

	cfg := Default()
	cfg.Refresh.Cron = StringPtr("*/15 * * * *")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fixture should validate: %v", err)
	}

	if err := s.Save(ctx, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
	if loaded.Refresh.Cron == nil || *loaded.Refresh.Cron != "*/15 * * * *" {
		t.Errorf("Refresh.Cron: got %v, want %q", loaded.Refresh.Cron, "*/15 * * * *")
	}
}
