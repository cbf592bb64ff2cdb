// Command hexfront runs the match scheduler and the read-only HTTP API over
// a SQLite store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/hexfront/internal/api"
	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/config"
	"github.com/talgya/hexfront/internal/logging"
	"github.com/talgya/hexfront/internal/persistence"
	"github.com/talgya/hexfront/internal/scenario"
	"github.com/talgya/hexfront/internal/scheduler"
	"github.com/talgya/hexfront/internal/world"
)

func main() {
	configDir := flag.String("config", ".", "directory containing hexfront.{yaml,json,toml}")
	flag.Parse()

	if err := run(*configDir); err != nil {
		slog.Error("hexfront exited", "error", err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	logs := logging.NewManager()
	logger, err := logs.SetupFile(os.Stdout, cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logs.Close()
	slog.SetDefault(logger)
	if f := config.ConfigFileUsed(); f != "" {
		slog.Info("config loaded", "file", f)
	}

	// ── Catalog ───────────────────────────────────────────────────────
	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		if cat, err = catalog.Load(cfg.Catalog.Path); err != nil {
			return err
		}
	}
	slog.Info("unit catalog ready", "types", len(cat.IDs()), "path", cfg.Catalog.Path)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DB.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := persistence.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DB.Path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seed(ctx, db, cfg, cat); err != nil {
		return err
	}

	// ── Scheduler + HTTP API ──────────────────────────────────────────
	sched, err := scheduler.New(db, cat, scheduler.Options{
		Interval:    cfg.Scheduler.Interval,
		Parallelism: cfg.Scheduler.Parallelism,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	if cfg.API.Enabled {
		srv := api.NewServer(db, cat, cfg.API)
		g.Go(func() error { return srv.ListenAndServe(gctx) })
	} else {
		slog.Warn("HTTP API disabled")
	}

	slog.Info("hexfront running")
	err = g.Wait()

	if serr := db.SaveMeta(context.Background(), "last_shutdown", time.Now().UTC().Format(time.RFC3339)); serr != nil {
		slog.Error("failed to record shutdown", "error", serr)
	}
	slog.Info("shutdown complete")
	return err
}

// seed stores a demo match when the database has none.
func seed(ctx context.Context, db *persistence.DB, cfg config.Config, cat *catalog.Catalog) error {
	games, err := db.ListGames(ctx)
	if err != nil {
		return err
	}
	if len(games) > 0 {
		slog.Info("found saved matches", "games", len(games))
		return nil
	}
	if !cfg.Scenario.Enabled {
		slog.Info("no matches stored and demo seeding disabled")
		return nil
	}

	s, err := scenario.Build(scenario.FromConfig(cfg.Scenario, cfg.Rules, time.Now()), cat)
	if err != nil {
		return err
	}
	m := world.NewMap(cfg.Scenario.Radius)
	for c, h := range s.Hexes {
		m.Set(c, h.Terrain)
	}
	for t, c := range world.TerrainCounts(m) {
		slog.Info("terrain", "type", t, "count", c)
	}
	if err := db.SaveSnapshot(ctx, s); err != nil {
		return err
	}
	if err := db.SaveMeta(ctx, "seeded_game", string(s.Game.ID)); err != nil {
		return err
	}
	slog.Info("demo match seeded",
		"game", s.Game.ID,
		"name", s.Game.Name,
		"players", len(s.Players),
		"units", len(s.Units),
		"start", s.Game.State.StartDate,
	)
	return nil
}
