// Package scheduler drives every stored match forward on the wall clock.
// Each pass looks at all games, starts those whose start date has come and
// advances each active game by at most one tick.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/engine"
	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/persistence"
)

// Store is the persistence surface the scheduler needs.
type Store interface {
	ListGames(ctx context.Context) ([]game.Game, error)
	LoadSnapshot(ctx context.Context, id game.GameID, cat *catalog.Catalog) (*game.Snapshot, error)
	ApplyDiff(ctx context.Context, base *game.Snapshot, d *game.Diff) (*game.Snapshot, error)
}

// Options tune a Scheduler. Zero values take defaults.
type Options struct {
	Interval    time.Duration
	Parallelism int
	Now         func() time.Time
	Leases      *Leases
}

// Scheduler advances matches held in a Store.
type Scheduler struct {
	store       Store
	catalog     *catalog.Catalog
	interval    time.Duration
	parallelism int
	now         func() time.Time
	leases      *Leases
	metrics     *instruments
}

// Summary counts what one pass did.
type Summary struct {
	Activated int
	Ticked    int
	Cycles    int
	Skipped   int
	Failed    int
}

// New creates a scheduler over store.
func New(store Store, cat *catalog.Catalog, opts Options) (*Scheduler, error) {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Leases == nil {
		opts.Leases = NewLeases()
	}
	ins, err := newInstruments()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		store:       store,
		catalog:     cat,
		interval:    opts.Interval,
		parallelism: opts.Parallelism,
		now:         opts.Now,
		leases:      opts.Leases,
		metrics:     ins,
	}, nil
}

// Run performs a pass every interval until ctx is cancelled. A pass that
// is already computing a tick finishes it before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler started", "interval", s.interval, "parallelism", s.parallelism)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx, s.now()); err != nil {
			slog.Error("scheduler pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce makes one pass over all games at now. Games run in parallel up
// to the configured limit. A failing game does not stop the others; the
// per-game errors are joined into the returned error.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (Summary, error) {
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list games: %w", err)
	}

	var (
		mu   sync.Mutex
		sum  Summary
		errs []error
	)
	record := func(o outcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch o {
		case activated:
			sum.Activated++
		case ticked:
			sum.Ticked++
		case tickedCycle:
			sum.Ticked++
			sum.Cycles++
		case skipped:
			sum.Skipped++
		}
		if err != nil {
			sum.Failed++
			errs = append(errs, err)
		}
	}

	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for _, gm := range games {
		if !s.wants(gm, now) {
			continue
		}
		gm := gm
		g.Go(func() error {
			record(s.step(ctx, gm.ID, now))
			return nil
		})
	}
	_ = g.Wait()

	if sum.Activated+sum.Ticked+sum.Failed > 0 {
		slog.Info("scheduler pass",
			"activated", sum.Activated,
			"ticked", sum.Ticked,
			"cycles", sum.Cycles,
			"skipped", sum.Skipped,
			"failed", sum.Failed,
		)
	}
	return sum, errors.Join(errs...)
}

type outcome int

const (
	idle outcome = iota
	activated
	ticked
	tickedCycle
	skipped
)

// wants reports whether gm has work at now, judged from the listing.
func (s *Scheduler) wants(gm game.Game, now time.Time) bool {
	if gm.State.Status == game.GamePending {
		return !now.Before(gm.State.StartDate)
	}
	return engine.TickDue(gm, now)
}

// step handles one game under its lease. The work runs on a context that
// ignores cancellation so an in-flight tick is always stored or dropped
// whole.
func (s *Scheduler) step(ctx context.Context, id game.GameID, now time.Time) (outcome, error) {
	if !s.leases.TryAcquire(id) {
		slog.Debug("game busy, skipping", "game", id)
		return skipped, nil
	}
	defer s.leases.Release(id)

	ctx = context.WithoutCancel(ctx)
	snap, err := s.store.LoadSnapshot(ctx, id, s.catalog)
	if err != nil {
		return idle, fmt.Errorf("game %s: load: %w", id, err)
	}

	if snap.Game.State.Status == game.GamePending {
		return s.activate(ctx, snap, now)
	}
	return s.tick(ctx, snap, now)
}

func (s *Scheduler) activate(ctx context.Context, snap *game.Snapshot, now time.Time) (outcome, error) {
	if now.Before(snap.Game.State.StartDate) {
		return idle, nil
	}
	next := snap.Clone()
	next.Game.State.Status = game.GameActive
	if _, err := s.store.ApplyDiff(ctx, snap, game.ComputeDiff(snap, next)); err != nil {
		return idle, s.storeErr(snap.Game.ID, "activate", err)
	}
	slog.Info("game started", "game", snap.Game.ID, "name", snap.Game.Name, "start", snap.Game.State.StartDate)
	return activated, nil
}

func (s *Scheduler) tick(ctx context.Context, snap *game.Snapshot, now time.Time) (outcome, error) {
	started := time.Now()
	res, err := engine.Advance(snap, now)
	if err != nil {
		return idle, fmt.Errorf("game %s: advance: %w", snap.Game.ID, err)
	}
	if res == nil {
		return idle, nil
	}
	next, err := s.store.ApplyDiff(ctx, snap, res.Diff)
	if err != nil {
		return idle, s.storeErr(snap.Game.ID, "store tick", err)
	}

	attrs := metric.WithAttributes(attribute.String("game", string(snap.Game.ID)))
	s.metrics.ticks.Add(ctx, 1, attrs)
	s.metrics.reports.Add(ctx, int64(len(res.Diff.Reports)), attrs)
	s.metrics.anomalies.Add(ctx, int64(len(res.Anomalies)), attrs)
	s.metrics.duration.Record(ctx, time.Since(started).Seconds(), attrs)

	if res.Cycle {
		s.metrics.cycles.Add(ctx, 1, attrs)
		slog.Info("cycle processed",
			"game", snap.Game.ID,
			"cycle", next.Game.State.CurrentCycle,
			"attrition", res.Attrition,
		)
		return tickedCycle, nil
	}
	return ticked, nil
}

// storeErr treats a lost optimistic race as a skip rather than a failure.
func (s *Scheduler) storeErr(id game.GameID, op string, err error) error {
	if errors.Is(err, persistence.ErrConflict) {
		slog.Warn("game changed underneath, dropping result", "game", id, "op", op)
		return nil
	}
	return fmt.Errorf("game %s: %s: %w", id, op, err)
}
