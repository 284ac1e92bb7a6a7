package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/config"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/home"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/logging"
)

func TestResolveFestival(t *testing.T) {
	two := &config.Config{
		Festivals: []config.FestivalConfig{
			{ID: "cbf2026", Name: "Cambridge Beer Festival 2026"},
			{ID: "octfest", Name: "Cambridge Octoberfest"},
		},
		DefaultFestival: "cbf2026",
	}
	one := &config.Config{
		Festivals: []config.FestivalConfig{{ID: "only"}},
	}
	none := &config.Config{}

	tests := []struct {
		name    string
		id      string
		cfg     *config.Config
		want    string
		wantErr string
	}{
		{"explicit id", "octfest", two, "octfest", ""},
		{"config default", "", two, "cbf2026", ""},
		{"sole festival", "", one, "only", ""},
		{"unknown id", "nope", two, "", "unknown festival"},
		{"nothing selected", "", none, "", "no festival selected"},
		{"unlisted id with empty config", "adhoc", none, "adhoc", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := resolveFestival(tc.id, tc.cfg)
			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tc.wantErr)
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("error = %q, want substring %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.ID != tc.want {
				t.Errorf("festival = %q, want %q", f.ID, tc.want)
			}
		})
	}
}

func TestMergeParams(t *testing.T) {
	base := map[string]string{"url": "https://example.com/{festival}.json", "rate": "2"}
	overlay := map[string]string{"url": "https://example.com/special.json"}

	merged := mergeParams(base, overlay)
	if merged["url"] != "https://example.com/special.json" {
		t.Errorf("overlay should win: got %q", merged["url"])
	}
	if merged["rate"] != "2" {
		t.Errorf("base param should survive: got %q", merged["rate"])
	}
	if base["url"] != "https://example.com/{festival}.json" {
		t.Error("base map was modified")
	}

	if got := mergeParams(nil, nil); len(got) != 0 {
		t.Errorf("nil inputs should merge to empty, got %v", got)
	}
}

func TestCriteriaFromFlags(t *testing.T) {
	cmd := newListCmd()
	if err := cmd.ParseFlags([]string{"--category", "beer", "--favorites", "--style", "ipa", "--style", "stout"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	patch := criteriaFromFlags(cmd)
	if patch.Category == nil || *patch.Category != "beer" {
		t.Errorf("Category = %v, want beer", patch.Category)
	}
	if patch.FavoritesOnly == nil || !*patch.FavoritesOnly {
		t.Errorf("FavoritesOnly = %v, want true", patch.FavoritesOnly)
	}
	if patch.Styles == nil || len(*patch.Styles) != 2 || (*patch.Styles)[0] != "ipa" {
		t.Errorf("Styles = %v, want [ipa stout]", patch.Styles)
	}
	if patch.HideUnavailable != nil {
		t.Error("untouched flag should stay nil")
	}
	if patch.Query != nil {
		t.Error("untouched flag should stay nil")
	}
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	logger := logging.Discard()

	t.Run("memory", func(t *testing.T) {
		b, err := openBackend(ctx, config.StoreConfig{Type: "memory"}, home.New(t.TempDir()), logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b == nil {
			t.Fatal("expected backend")
		}
	})

	t.Run("file with dir param", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs")
		cfg := config.StoreConfig{Type: "file", Params: map[string]string{"dir": dir}}
		if _, err := openBackend(ctx, cfg, home.New(t.TempDir()), logger); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("file defaults into data dir", func(t *testing.T) {
		data := home.New(t.TempDir())
		if _, err := openBackend(ctx, config.StoreConfig{Type: "file"}, data, logger); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("sqlite defaults into data dir", func(t *testing.T) {
		data := home.New(t.TempDir())
		b, err := openBackend(ctx, config.StoreConfig{Type: "sqlite"}, data, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		closeBackend(b, logger)
	})

	t.Run("redis rejects bad db", func(t *testing.T) {
		cfg := config.StoreConfig{Type: "redis", Params: map[string]string{"addr": "localhost:6379", "db": "two"}}
		if _, err := openBackend(ctx, cfg, home.New(t.TempDir()), logger); err == nil {
			t.Fatal("expected error for non-numeric db")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := openBackend(ctx, config.StoreConfig{Type: "etcd"}, home.New(t.TempDir()), logger)
		if err == nil || !strings.Contains(err.Error(), "unknown store type") {
			t.Fatalf("expected unknown type error, got %v", err)
		}
	})
}

func TestBuildSourceUnknownType(t *testing.T) {
	_, err := buildSource(config.SourceConfig{Type: "carrier-pigeon"}, config.FestivalConfig{}, home.New(t.TempDir()), logging.Discard())
	if err == nil || !strings.Contains(err.Error(), "unknown source type") {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestBuildSourceCacheWrap(t *testing.T) {
	data := home.New(t.TempDir())
	cfg := config.SourceConfig{Type: "demo", Cache: true}
	src, err := buildSource(cfg, config.FestivalConfig{}, data, logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	drinks, err := src.FetchDrinks(context.Background(), "testfest")
	if err != nil {
		t.Fatalf("fetch through cache: %v", err)
	}
	if len(drinks) == 0 {
		t.Fatal("expected demo drinks through the cache wrapper")
	}
}

func TestBuildSourceFestivalParamsOverride(t *testing.T) {
	cfg := config.SourceConfig{Type: "demo", Params: map[string]string{"drinks": "5"}}
	fest := config.FestivalConfig{ID: "f1", Params: map[string]string{"drinks": "7"}}

	src, err := buildSource(cfg, fest, home.New(t.TempDir()), logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drinks, err := src.FetchDrinks(context.Background(), "f1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(drinks) != 7 {
		t.Errorf("festival params should win: got %d drinks, want 7", len(drinks))
	}
}
