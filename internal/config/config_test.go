package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
	if _, ok := cfg.FindFestival(cfg.DefaultFestival); !ok {
		t.Errorf("default festival %q not in festivals list", cfg.DefaultFestival)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults pass",
			mutate: func(c *Config) {},
		},
		{
			name: "duplicate festival id",
			mutate: func(c *Config) {
				c.Festivals = append(c.Festivals, FestivalConfig{ID: "demo"})
			},
			wantErr: "duplicate id",
		},
		{
			name: "empty festival id",
			mutate: func(c *Config) {
				c.Festivals = append(c.Festivals, FestivalConfig{Name: "Nameless"})
			},
			wantErr: "missing id",
		},
		{
			name: "unknown default festival",
			mutate: func(c *Config) {
				c.DefaultFestival = "cbf2026"
			},
			wantErr: "not in the festivals list",
		},
		{
			name: "missing source type",
			mutate: func(c *Config) {
				c.Source.Type = ""
			},
			wantErr: "source: missing type",
		},
		{
			name: "missing store type",
			mutate: func(c *Config) {
				c.Store.Type = ""
			},
			wantErr: "store: missing type",
		},
		{
			name: "interval and cron together",
			mutate: func(c *Config) {
				c.Refresh.Interval = StringPtr("5m")
				c.Refresh.Cron = StringPtr("*/15 * * * *")
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "valid interval",
			mutate: func(c *Config) {
				c.Refresh.Interval = StringPtr("90s")
			},
		},
		{
			name: "malformed interval",
			mutate: func(c *Config) {
				c.Refresh.Interval = StringPtr("soon")
			},
			wantErr: "invalid interval",
		},
		{
			name: "negative interval",
			mutate: func(c *Config) {
				c.Refresh.Interval = StringPtr("-5m")
			},
			wantErr: "must be positive",
		},
		{
			name: "valid cron",
			mutate: func(c *Config) {
				c.Refresh.Cron = StringPtr("*/15 * * * *")
			},
		},
		{
			name: "malformed cron",
			mutate: func(c *Config) {
				c.Refresh.Cron = StringPtr("every now and then")
			},
			wantErr: "invalid cron expression",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestIntervalDuration(t *testing.T) {
	var zero RefreshConfig
	d, err := zero.IntervalDuration()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 0 {
		t.Errorf("unset interval = %v, want 0", d)
	}

	set := RefreshConfig{Interval: StringPtr("15m")}
	d, err = set.IntervalDuration()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 15*time.Minute {
		t.Errorf("interval = %v, want 15m", d)
	}
}

func TestFindFestival(t *testing.T) {
	cfg := &Config{
		Festivals: []FestivalConfig{
			{ID: "cbf2026", Name: "Cambridge Beer Festival 2026"},
			{ID: "octfest", Name: "Cambridge Octoberfest"},
		},
	}

	f, ok := cfg.FindFestival("octfest")
	if !ok {
		t.Fatal("expected to find octfest")
	}
	if f.Name != "Cambridge Octoberfest" {
		t.Errorf("Name = %q, want %q", f.Name, "Cambridge Octoberfest")
	}

	if _, ok := cfg.FindFestival("nope"); ok {
		t.Error("expected lookup miss for unknown id")
	}
}
