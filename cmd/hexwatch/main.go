// Command hexwatch is the operator watchdog for a hexfront server. It
// polls the read-only API, grades each match's clock health and logs
// matches whose grade changed since the last cycle.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/hexfront/internal/config"
	"github.com/talgya/hexfront/internal/logging"
	"github.com/talgya/hexfront/internal/watch"
)

func main() {
	configDir := flag.String("config", ".", "directory containing hexfront.{yaml,json,toml}")
	flag.Parse()

	if err := run(*configDir); err != nil {
		slog.Error("hexwatch exited", "error", err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	logs := logging.NewManager()
	slog.SetDefault(logs.Setup(os.Stdout, nil, cfg.LogLevel))
	defer logs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wc := cfg.Watch
	slog.Info("hexwatch starting", "api_url", wc.APIURL, "interval", wc.Interval)

	observer := watch.NewObserver(wc.APIURL)
	if err := observer.WaitReady(ctx, 5*time.Minute); err != nil {
		return err
	}

	memory := watch.LoadMemory(wc.MemoryFile)
	th := watch.Thresholds{Overdue: wc.Overdue, Stalled: wc.Stalled}

	runCycle(ctx, observer, memory, th)

	ticker := time.NewTicker(wc.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			runCycle(ctx, observer, memory, th)
		case <-ctx.Done():
			slog.Info("hexwatch stopped")
			return nil
		}
	}
}

// runCycle executes one observe, triage, remember cycle.
func runCycle(ctx context.Context, observer *watch.Observer, memory *watch.Memory, th watch.Thresholds) {
	obs, err := observer.Observe(ctx)
	if err != nil {
		slog.Error("observation failed", "error", err)
		return
	}

	findings := watch.Triage(obs, th)
	for _, f := range memory.Update(findings, obs.At) {
		attrs := []any{"game", f.Game, "name", f.Name, "tick", f.Tick, "level", f.Level, "reason", f.Reason, "lag", f.Lag}
		switch f.Level {
		case watch.Critical:
			slog.Error("match grade changed", attrs...)
		case watch.Warning, watch.Watch:
			slog.Warn("match grade changed", attrs...)
		default:
			slog.Info("match grade changed", attrs...)
		}
	}

	reports := 0
	for _, rs := range obs.Reports {
		reports += len(rs)
	}
	slog.Info("watch cycle complete",
		"games", obs.Status.Games,
		"overall", watch.Overall(findings),
		"recent_reports", reports,
	)

	if err := memory.Save(); err != nil {
		slog.Error("failed to save watch memory", "error", err)
	}
}
