package persistence_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/engine"
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

// battle is a red cruiser about to overrun a blue frigate on a blue planet.
func battle(t *testing.T) *game.Snapshot {
	b := gametest.New(3)
	b.Player("red")
	b.Player("blue")
	b.OwnArea("red", world.Coord(-2, 0), 1)
	b.Planet("cap-red", "red", world.Coord(-2, 0), true)
	b.Own("blue", world.Coord(1, 0), world.Coord(2, 0))
	b.Planet("outpost", "blue", world.Coord(1, 0), false)
	b.Planet("cap-blue", "blue", world.Coord(2, 0), true)
	b.Station("st-red", "red", world.Coord(-1, 0))
	b.Terrain(world.Coord(0, 2), world.TerrainNebula)

	r1 := b.Unit("r1", "red", "cruiser", world.Coord(0, 0), 3)
	r1.Steps[1].Specialist = game.SpecialistArmor
	r1.Status = game.StatusPreparing
	r1.Combat = &game.CombatIntent{Target: world.Coord(1, 0), Operation: game.OpStandard, AdvanceOnVictory: true, ResolveAt: 1}
	r2 := b.Unit("r2", "red", "scout", world.Coord(-1, 1), 1)
	r2.Status = game.StatusMoving
	r2.Path = []world.HexCoord{world.Coord(-1, 2)}
	b.Unit("b1", "blue", "frigate", world.Coord(1, 0), 1)
	return b.Build(t)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	s := battle(t)

	require.NoError(t, db.SaveSnapshot(ctx, s))
	loaded, err := db.LoadSnapshot(ctx, s.Game.ID, catalog.Default())
	require.NoError(t, err)

	assert.True(t, game.ComputeDiff(s, loaded).Empty(), "loaded snapshot differs from saved")
	assert.Equal(t, s.Game.Settings, loaded.Game.Settings)
	assert.Equal(t, s.Game.Name, loaded.Game.Name)
	assert.True(t, s.Game.State.StartDate.Equal(loaded.Game.State.StartDate))
	assert.Equal(t, world.TerrainNebula, loaded.Hexes[world.Coord(0, 2)].Terrain)
	assert.Equal(t, game.SpecialistArmor, loaded.Units["r1"].Steps[1].Specialist)
	assert.Equal(t, s.Units["r1"].Combat, loaded.Units["r1"].Combat)
	assert.Equal(t, s.Hexes[world.Coord(1, 0)].ZOC, loaded.Hexes[world.Coord(1, 0)].ZOC)
}

func TestSaveSnapshotReplaces(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	s := battle(t)
	require.NoError(t, db.SaveSnapshot(ctx, s))

	smaller := s.Clone()
	smaller.RemoveUnit("r2")
	require.NoError(t, db.SaveSnapshot(ctx, smaller))

	loaded, err := db.LoadSnapshot(ctx, s.Game.ID, catalog.Default())
	require.NoError(t, err)
	assert.NotContains(t, loaded.Units, game.UnitID("r2"))
	assert.Len(t, loaded.Units, 2)
}

func TestApplyDiff(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	s := battle(t)
	require.NoError(t, db.SaveSnapshot(ctx, s))

	res, err := engine.ProcessTick(s)
	require.NoError(t, err)
	require.Len(t, res.Diff.Reports, 1)

	next, err := db.ApplyDiff(ctx, s, res.Diff)
	require.NoError(t, err)
	assert.True(t, game.ComputeDiff(s.Apply(res.Diff), next).Empty())

	loaded, err := db.LoadSnapshot(ctx, s.Game.ID, catalog.Default())
	require.NoError(t, err)
	assert.True(t, game.ComputeDiff(next, loaded).Empty(), "stored state differs from applied snapshot")
	assert.NotContains(t, loaded.Units, game.UnitID("b1"))
	assert.Equal(t, game.PlayerID("red"), loaded.Planets["outpost"].Owner)
	assert.Equal(t, uint64(1), loaded.Game.State.CurrentTick)
	assert.True(t, engine.TickAt(s.Game, 1).Equal(loaded.Game.State.LastTickAt))

	reports, err := db.RecentReports(ctx, s.Game.ID, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, res.Diff.Reports[0], reports[0])
}

func TestApplyDiff_StaleBaseConflicts(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	s := battle(t)
	require.NoError(t, db.SaveSnapshot(ctx, s))

	res, err := engine.ProcessTick(s)
	require.NoError(t, err)
	_, err = db.ApplyDiff(ctx, s, res.Diff)
	require.NoError(t, err)

	_, err = db.ApplyDiff(ctx, s, res.Diff)
	assert.ErrorIs(t, err, persistence.ErrConflict)

	reports, err := db.RecentReports(ctx, s.Game.ID, 10)
	require.NoError(t, err)
	assert.Len(t, reports, 1, "the refused write left nothing behind")
}

func TestGames(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	_, err := db.GetGame(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	_, err = db.LoadSnapshot(ctx, "missing", catalog.Default())
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	s := battle(t)
	require.NoError(t, db.SaveSnapshot(ctx, s))
	games, err := db.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, s.Game.ID, games[0].ID)
	assert.Equal(t, game.GameActive, games[0].State.Status)

	g, err := db.GetGame(ctx, s.Game.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Game.Settings.TickDuration, g.Settings.TickDuration)
}

func TestMeta(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	_, err := db.GetMeta(ctx, "seed")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, db.SaveMeta(ctx, "seed", "42"))
	require.NoError(t, db.SaveMeta(ctx, "seed", "43"))
	v, err := db.GetMeta(ctx, "seed")
	require.NoError(t, err)
	assert.Equal(t, "43", v)
}
