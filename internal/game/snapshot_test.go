package game_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/game/gametest"
	"github.com/talgya/hexfront/internal/world"
)

func baseSnapshot(t *testing.T) *game.Snapshot {
	b := gametest.New(3)
	b.Player("red")
	b.Player("blue")
	b.OwnArea("red", world.Coord(-2, 0), 1)
	b.Planet("red-cap", "red", world.Coord(-2, 0), true)
	b.Unit("u-red", "red", "frigate", world.Coord(-1, 0), 3)
	b.Unit("u-blue", "blue", "scout", world.Coord(2, 0), 1)
	b.Station("st-red", "red", world.Coord(-2, 1))
	return b.Build(t)
}

func TestNewSnapshot_RejectsDuplicateCoordinate(t *testing.T) {
	hexes := []*game.Hex{
		{Coord: world.Coord(0, 0)},
		{Coord: world.Coord(0, 0)},
	}
	_, err := game.NewSnapshot(game.Game{}, catalog.Default(), hexes, nil, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, game.ErrInvariant)
}

func TestValidate_DetectsViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *game.Snapshot)
	}{
		{"unit without steps", func(s *game.Snapshot) { s.Units["u-red"].Steps = nil }},
		{"hex back-reference broken", func(s *game.Snapshot) { s.Hexes[world.Coord(-1, 0)].UnitID = "" }},
		{"hex points to missing unit", func(s *game.Snapshot) { s.Hexes[world.Coord(0, 0)].UnitID = "ghost" }},
		{"stale ZOC entry", func(s *game.Snapshot) {
			h := s.Hexes[world.Coord(1, 1)]
			h.ZOC = append(h.ZOC, game.ZOCEntry{Player: "red", Unit: "ghost"})
		}},
		{"root out of supply", func(s *game.Snapshot) { s.Planets["red-cap"].Supply.InSupply = false }},
		{"capital not root", func(s *game.Snapshot) { s.Planets["red-cap"].Supply.IsRoot = false }},
		{"unknown type", func(s *game.Snapshot) { s.Units["u-blue"].Type = "battlestar" }},
		{"station as root", func(s *game.Snapshot) { s.Stations["st-red"].Supply.IsRoot = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSnapshot(t)
			require.NoError(t, s.Validate())
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, game.ErrInvariant)
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	s := baseSnapshot(t)
	c := s.Clone()

	c.Units["u-red"].Steps[0].Suppressed = true
	c.Hexes[world.Coord(-1, 0)].ZOC = nil
	c.Players["red"].Prestige = 99

	assert.False(t, s.Units["u-red"].Steps[0].Suppressed)
	assert.NotEmpty(t, s.Hexes[world.Coord(-1, 0)].ZOC)
	assert.Equal(t, 0, s.Players["red"].Prestige)
}

func TestComputeDiff_ApplyRoundTrip(t *testing.T) {
	before := baseSnapshot(t)
	after := before.Clone()

	after.MoveUnit("u-blue", world.Coord(2, -1))
	after.Units["u-blue"].MP = 1
	after.Units["u-blue"].Status = game.StatusMoving
	after.Units["u-blue"].Path = []world.HexCoord{world.Coord(2, -2)}
	after.Units["u-red"].Steps = after.Units["u-red"].Steps[:2]
	after.Units["u-red"].Combat = &game.CombatIntent{Target: world.Coord(0, 0), Operation: game.OpFeint}
	after.Capture(world.Coord(-2, 1), "blue")
	after.RemoveStation("st-red")
	after.Players["red"].Victory = 4
	after.Game.State.CurrentTick = 7

	d := game.ComputeDiff(before, after)
	require.False(t, d.Empty())
	assert.Contains(t, d.RemovedStations, game.StationID("st-red"))
	assert.Equal(t, 4, d.Players["red"].VictoryDelta)
	require.NotNil(t, d.Game)
	assert.Equal(t, uint64(7), *d.Game.CurrentTick)

	applied := before.Apply(d)
	assert.True(t, game.ComputeDiff(applied, after).Empty())

	// The source snapshot is untouched.
	assert.Equal(t, world.Coord(2, 0), before.Units["u-blue"].Location)
	assert.Contains(t, before.Stations, game.StationID("st-red"))
}

func TestComputeDiff_NoChange(t *testing.T) {
	s := baseSnapshot(t)
	assert.True(t, game.ComputeDiff(s, s.Clone()).Empty())
}

func TestDiff_JSONShape(t *testing.T) {
	before := baseSnapshot(t)
	after := before.Clone()
	after.Units["u-red"].Combat = &game.CombatIntent{Target: world.Coord(0, 0), Operation: game.OpSuppressiveFire}

	b, err := json.Marshal(game.ComputeDiff(before, after))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"SUPPRESSIVE_FIRE"`)
	assert.Contains(t, string(b), `"u-red"`)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, game.CanTransition(game.StatusIdle, game.StatusMoving))
	assert.True(t, game.CanTransition(game.StatusPreparing, game.StatusRegrouping))
	assert.True(t, game.CanTransition(game.StatusRegrouping, game.StatusIdle))
	assert.False(t, game.CanTransition(game.StatusMoving, game.StatusPreparing))
	assert.False(t, game.CanTransition(game.StatusRegrouping, game.StatusMoving))
	assert.False(t, game.CanTransition(game.StatusIdle, game.StatusRegrouping))
}

func TestEnums_TextRoundTrip(t *testing.T) {
	op, err := game.ParseOperation("FEINT")
	require.NoError(t, err)
	assert.Equal(t, game.OpFeint, op)

	_, err = game.ParseOperation("ORBITAL_STRIKE")
	assert.Error(t, err)

	var st game.UnitStatus
	require.NoError(t, st.UnmarshalText([]byte("REGROUPING")))
	assert.Equal(t, game.StatusRegrouping, st)
	assert.Error(t, st.UnmarshalText([]byte("SLEEPING")))
}
