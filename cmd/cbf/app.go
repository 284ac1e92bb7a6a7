package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/config"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/home"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv"
	kvazblob "github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv/azblob"
	kvfile "github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv/file"
	kvgcs "github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv/gcs"
	kvmem "github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv/memory"
	kvredis "github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv/redis"
	kvs3 "github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv/s3"
	kvsqlite "github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/kv/sqlite"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/logging"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/orchestrator"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source"
	sourcecache "github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source/cache"
	sourcedemo "github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source/demo"
	sourcefile "github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source/file"
	sourcehttp "github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source/http"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/tastinglog"
)

// app bundles the wired stack a subcommand works against.
type app struct {
	cfg      *config.Config
	festival config.FestivalConfig
	data     home.Dir
	logger   *slog.Logger
	backend  kv.Backend
	store    *tastinglog.Store
	orch     *orchestrator.Orchestrator
}

// setup wires the full stack from flags and the config file. schedule
// enables the config's refresh schedule; one-shot commands leave it off
// so they never start a scheduler they will not live to see fire.
func setup(cmd *cobra.Command, schedule bool) (*app, error) {
	logger, err := loggerFromCmd(cmd)
	if err != nil {
		return nil, err
	}

	cfg, data, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	festivalFlag, _ := cmd.Flags().GetString("festival")
	fest, err := resolveFestival(festivalFlag, cfg)
	if err != nil {
		return nil, err
	}

	if err := data.EnsureExists(); err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	backend, err := openBackend(ctx, cfg.Store, data, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Type, err)
	}

	store, err := tastinglog.NewStore(tastinglog.Config{Backend: backend, Logger: logger})
	if err != nil {
		closeBackend(backend, logger)
		return nil, err
	}

	src, err := buildSource(cfg.Source, fest, data, logger)
	if err != nil {
		closeBackend(backend, logger)
		return nil, err
	}

	ocfg := orchestrator.Config{Source: src, Store: store, Logger: logger}
	if schedule {
		interval, err := cfg.Refresh.IntervalDuration()
		if err != nil {
			closeBackend(backend, logger)
			return nil, err
		}
		ocfg.RefreshInterval = interval
		if cfg.Refresh.Cron != nil {
			ocfg.RefreshCron = *cfg.Refresh.Cron
		}
	}

	orch, err := orchestrator.New(ocfg)
	if err != nil {
		closeBackend(backend, logger)
		return nil, err
	}

	return &app{
		cfg:      cfg,
		festival: fest,
		data:     data,
		logger:   logger,
		backend:  backend,
		store:    store,
		orch:     orch,
	}, nil
}

// activate makes the selected festival current.
func (a *app) activate(ctx context.Context) error {
	return a.orch.ActivateFestival(ctx, a.festival.ID)
}

// Close shuts the stack down in dependency order: the orchestrator
// first, which drains pending saves, then the backend.
func (a *app) Close() {
	if err := a.orch.Close(); err != nil {
		a.logger.Error("close orchestrator", "error", err)
	}
	closeBackend(a.backend, a.logger)
}

func closeBackend(b kv.Backend, logger *slog.Logger) {
	if c, ok := b.(kv.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Error("close store backend", "error", err)
		}
	}
}

// loggerFromCmd builds the base logger from the persistent logging flags.
func loggerFromCmd(cmd *cobra.Command) (*slog.Logger, error) {
	format, _ := cmd.Flags().GetString("log-format")
	level, _ := cmd.Flags().GetString("log-level")
	return logging.NewLogger(os.Stderr, format, level)
}

// resolveHome returns a Dir from the --home flag, or the platform default.
func resolveHome(cmd *cobra.Command) (home.Dir, error) {
	if v, _ := cmd.Flags().GetString("home"); v != "" {
		return home.New(v), nil
	}
	return home.Default()
}

// loadConfig reads the config file, falling back to defaults when none
// exists, and resolves the data directory. The config file lives in the
// home dir; dataDir in the config may point state somewhere else.
func loadConfig(cmd *cobra.Command) (*config.Config, home.Dir, error) {
	hd, err := resolveHome(cmd)
	if err != nil {
		return nil, home.Dir{}, err
	}
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = hd.ConfigPath()
	}

	cfg, err := config.NewStore(path).Load(cmd.Context())
	if err != nil {
		return nil, home.Dir{}, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, home.Dir{}, fmt.Errorf("config %s: %w", path, err)
	}

	data := hd
	if cfg.DataDir != "" {
		data = home.New(cfg.DataDir)
	}
	return cfg, data, nil
}

// resolveFestival picks the active festival: the explicit id if given,
// then the config default, then a sole configured festival.
func resolveFestival(id string, cfg *config.Config) (config.FestivalConfig, error) {
	if id == "" {
		id = cfg.DefaultFestival
	}
	if id == "" && len(cfg.Festivals) == 1 {
		id = cfg.Festivals[0].ID
	}
	if id == "" {
		return config.FestivalConfig{}, fmt.Errorf("no festival selected: pass --festival or set defaultFestival in the config")
	}
	if f, ok := cfg.FindFestival(id); ok {
		return f, nil
	}
	if len(cfg.Festivals) == 0 {
		return config.FestivalConfig{ID: id}, nil
	}
	ids := make([]string, 0, len(cfg.Festivals))
	for _, f := range cfg.Festivals {
		ids = append(ids, f.ID)
	}
	return config.FestivalConfig{}, fmt.Errorf("unknown festival %q (configured: %s)", id, strings.Join(ids, ", "))
}

// openBackend creates the tasting-log backend named by cfg. File-based
// types default their paths into the data dir when no param overrides
// them.
func openBackend(ctx context.Context, cfg config.StoreConfig, data home.Dir, logger *slog.Logger) (kv.Backend, error) {
	p := cfg.Params
	switch cfg.Type {
	case "memory":
		return kvmem.NewStore(), nil
	case "file":
		dir := p["dir"]
		if dir == "" {
			dir = data.TastingLogDir()
		}
		return kvfile.NewStore(dir)
	case "sqlite":
		path := p["path"]
		if path == "" {
			path = data.SQLitePath()
		}
		return kvsqlite.NewStore(path)
	case "redis":
		db := 0
		if v, ok := p["db"]; ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid redis db %q: %w", v, err)
			}
			db = n
		}
		return kvredis.NewStore(kvredis.Config{
			Addr:     p["addr"],
			Password: p["password"],
			DB:       db,
			Prefix:   p["prefix"],
		})
	case "s3":
		return kvs3.NewStore(ctx, kvs3.Config{
			Bucket:    p["bucket"],
			Prefix:    p["prefix"],
			Region:    p["region"],
			Endpoint:  p["endpoint"],
			AccessKey: p["access_key"],
			SecretKey: p["secret_key"],
		})
	case "gcs":
		return kvgcs.NewStore(ctx, kvgcs.Config{
			Bucket:          p["bucket"],
			Prefix:          p["prefix"],
			CredentialsFile: p["credentials_file"],
		})
	case "azblob":
		return kvazblob.NewStore(kvazblob.Config{
			ConnectionString: p["connection_string"],
			Container:        p["container"],
			Prefix:           p["prefix"],
		})
	default:
		return nil, fmt.Errorf("unknown store type: %q", cfg.Type)
	}
}

// sourceFactories maps config source types to their factories.
func sourceFactories() map[string]source.Factory {
	return map[string]source.Factory{
		"demo": sourcedemo.NewFactory(),
		"file": sourcefile.NewFactory(),
		"http": sourcehttp.NewFactory(),
	}
}

// buildSource creates the catalog source named by cfg, overlaying the
// festival's params and wrapping the result in the snapshot cache when
// configured.
func buildSource(cfg config.SourceConfig, fest config.FestivalConfig, data home.Dir, logger *slog.Logger) (source.Source, error) {
	factory, ok := sourceFactories()[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown source type: %q", cfg.Type)
	}
	src, err := factory(mergeParams(cfg.Params, fest.Params), logger)
	if err != nil {
		return nil, fmt.Errorf("create %s source: %w", cfg.Type, err)
	}
	if !cfg.Cache {
		return src, nil
	}
	return sourcecache.New(sourcecache.Config{Upstream: src, Dir: data.SnapshotDir(), Logger: logger})
}

// mergeParams overlays festival params on the source params. Neither
// input map is modified.
func mergeParams(base, overlay map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overlay))
	maps.Copy(merged, base)
	maps.Copy(merged, overlay)
	return merged
}
