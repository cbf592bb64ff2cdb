package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/game/gametest"
	"github.com/talgya/hexfront/internal/persistence"
	"github.com/talgya/hexfront/internal/world"
)

func openDB(t *testing.T) *persistence.DB {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "hexfront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// quiet is a standoff: two capitals, one idle cruiser each, nothing in
// range of anything.
func quiet(t *testing.T, id game.GameID, adjust ...func(*gametest.Builder)) *game.Snapshot {
	b := gametest.New(4).ID(id)
	b.Player("red")
	b.Player("blue")
	b.OwnArea("red", world.Coord(-3, 0), 1)
	b.OwnArea("blue", world.Coord(3, 0), 1)
	b.Planet("cap-red", "red", world.Coord(-3, 0), true)
	b.Planet("cap-blue", "blue", world.Coord(3, 0), true)
	b.Unit("r1", "red", "cruiser", world.Coord(-3, 0), 2)
	b.Unit("b1", "blue", "cruiser", world.Coord(3, 0), 2)
	for _, fn := range adjust {
		fn(b)
	}
	return b.Build(t)
}

func seed(t *testing.T, db *persistence.DB, snaps ...*game.Snapshot) {
	t.Helper()
	for _, s := range snaps {
		require.NoError(t, db.SaveSnapshot(context.Background(), s))
	}
}

func newScheduler(t *testing.T, store Store, opts Options) *Scheduler {
	t.Helper()
	s, err := New(store, catalog.Default(), opts)
	require.NoError(t, err)
	return s
}

func currentTick(t *testing.T, db *persistence.DB, id game.GameID) uint64 {
	t.Helper()
	g, err := db.GetGame(context.Background(), id)
	require.NoError(t, err)
	return g.State.CurrentTick
}

func at(n int) time.Time {
	return gametest.Start.Add(time.Duration(n) * time.Minute)
}

func TestRunOnce_AdvancesDueGameOnce(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	seed(t, db, quiet(t, "game-1"))
	s := newScheduler(t, db, Options{})

	sum, err := s.RunOnce(ctx, at(1).Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum, "nothing due before the first tick")

	sum, err = s.RunOnce(ctx, at(1))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Ticked)
	assert.Equal(t, uint64(1), currentTick(t, db, "game-1"))

	sum, err = s.RunOnce(ctx, at(1))
	require.NoError(t, err)
	assert.Zero(t, sum.Ticked, "tick 1 must not be processed twice")
	assert.Equal(t, uint64(1), currentTick(t, db, "game-1"))
}

func TestRunOnce_LateSchedulerCatchesUpOneTickPerPass(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	seed(t, db, quiet(t, "game-1"))
	s := newScheduler(t, db, Options{})

	late := at(10)
	for want := uint64(1); want <= 3; want++ {
		sum, err := s.RunOnce(ctx, late)
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Ticked)
		assert.Zero(t, sum.Cycles)
		assert.Equal(t, want, currentTick(t, db, "game-1"))
	}

	// Tick 4 closes the first cycle.
	sum, err := s.RunOnce(ctx, late)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Cycles)

	g, err := db.GetGame(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), g.State.CurrentTick)
	assert.Equal(t, uint64(1), g.State.CurrentCycle)
}

func TestRunOnce_ActivatesPendingGame(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	seed(t, db, quiet(t, "game-1", func(b *gametest.Builder) {
		b.State(func(st *game.State) { st.Status = game.GamePending })
	}))
	s := newScheduler(t, db, Options{})

	sum, err := s.RunOnce(ctx, gametest.Start.Add(-time.Second))
	require.NoError(t, err)
	assert.Zero(t, sum.Activated)

	sum, err = s.RunOnce(ctx, gametest.Start)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Activated)
	assert.Zero(t, sum.Ticked, "activation does not process a tick")

	g, err := db.GetGame(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, game.GameActive, g.State.Status)
	assert.Zero(t, g.State.CurrentTick)

	sum, err = s.RunOnce(ctx, at(1))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Ticked)
}

func TestRunOnce_SkipsLeasedGame(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	seed(t, db, quiet(t, "game-1"))
	leases := NewLeases()
	s := newScheduler(t, db, Options{Leases: leases})

	require.True(t, leases.TryAcquire("game-1"))
	sum, err := s.RunOnce(ctx, at(1))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, currentTick(t, db, "game-1"))

	leases.Release("game-1")
	sum, err = s.RunOnce(ctx, at(1))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Ticked)
	assert.False(t, leases.Held("game-1"), "lease is released after the pass")
}

func TestRunOnce_GamesRunIndependently(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	seed(t, db, quiet(t, "game-a"), quiet(t, "game-b"), quiet(t, "game-c"))
	s := newScheduler(t, db, Options{Parallelism: 2})

	sum, err := s.RunOnce(ctx, at(1))
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Ticked)
	for _, id := range []game.GameID{"game-a", "game-b", "game-c"} {
		assert.Equal(t, uint64(1), currentTick(t, db, id), id)
	}
}

// failingStore refuses to load one game.
type failingStore struct {
	*persistence.DB
	broken game.GameID
}

func (f failingStore) LoadSnapshot(ctx context.Context, id game.GameID, cat *catalog.Catalog) (*game.Snapshot, error) {
	if id == f.broken {
		return nil, errors.New("disk on fire")
	}
	return f.DB.LoadSnapshot(ctx, id, cat)
}

func TestRunOnce_FailureDoesNotStopOtherGames(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	seed(t, db, quiet(t, "game-a"), quiet(t, "game-b"))
	s := newScheduler(t, failingStore{DB: db, broken: "game-a"}, Options{Parallelism: 2})

	sum, err := s.RunOnce(ctx, at(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game-a")
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Ticked)
	assert.Equal(t, uint64(1), currentTick(t, db, "game-b"))
	assert.Zero(t, currentTick(t, db, "game-a"))
}

// staleStore hands the scheduler an outdated snapshot, as if another
// process had advanced the game since it was listed.
type staleStore struct {
	*persistence.DB
	stale *game.Snapshot
}

func (f staleStore) LoadSnapshot(context.Context, game.GameID, *catalog.Catalog) (*game.Snapshot, error) {
	return f.stale.Clone(), nil
}

func TestRunOnce_LostRaceIsNotAFailure(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	base := quiet(t, "game-1")
	seed(t, db, base)

	direct := newScheduler(t, db, Options{})
	_, err := direct.RunOnce(ctx, at(1))
	require.NoError(t, err)

	s := newScheduler(t, staleStore{DB: db, stale: base}, Options{})
	sum, err := s.RunOnce(ctx, at(2))
	require.NoError(t, err)
	assert.Zero(t, sum.Failed)
	assert.Zero(t, sum.Ticked)
	assert.Equal(t, uint64(1), currentTick(t, db, "game-1"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	db := openDB(t)
	seed(t, db, quiet(t, "game-1"))
	s := newScheduler(t, db, Options{
		Interval: 10 * time.Millisecond,
		Now:      func() time.Time { return at(1) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return currentTick(t, db, "game-1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, uint64(1), currentTick(t, db, "game-1"), "clock never passes tick 1")
}

func TestLeases(t *testing.T) {
	l := NewLeases()
	assert.True(t, l.TryAcquire("a"))
	assert.False(t, l.TryAcquire("a"))
	assert.True(t, l.TryAcquire("b"), "other games are independent")
	l.Release("a")
	assert.False(t, l.Held("a"))
	assert.True(t, l.TryAcquire("a"))
}

func TestLeases_ConcurrentAcquire(t *testing.T) {
	l := NewLeases()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire("g") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
