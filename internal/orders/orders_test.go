package orders_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/game/gametest"
	"github.com/talgya/hexfront/internal/movement"
	"github.com/talgya/hexfront/internal/orders"
	"github.com/talgya/hexfront/internal/world"
	"github.com/talgya/hexfront/internal/zoc"
)

// front: red holds the west around its capital, blue sits two hexes east of
// the red cruiser.
func front(t *testing.T, adjust ...func(b *gametest.Builder)) *game.Snapshot {
	b := gametest.New(3)
	b.Player("red").Prestige = 10
	b.Player("blue")
	b.OwnArea("red", world.Coord(-2, 0), 1)
	b.Planet("cap-red", "red", world.Coord(-2, 0), true)
	b.Unit("r1", "red", "cruiser", world.Coord(0, 0), 3)
	b.Unit("b1", "blue", "frigate", world.Coord(2, 0), 2)
	for _, fn := range adjust {
		fn(b)
	}
	return b.Build(t)
}

func assertReason(t *testing.T, err error, want orders.Reason) {
	t.Helper()
	require.Error(t, err)
	got, ok := orders.ReasonOf(err)
	require.True(t, ok, "not a reject error: %v", err)
	assert.Equal(t, want, got, err.Error())
}

func TestDeclareMove_AcceptsPathPastCurrentMP(t *testing.T) {
	s := front(t)
	path := []world.HexCoord{world.Coord(0, -1), world.Coord(0, -2), world.Coord(-1, -2)}

	d, err := orders.DeclareMove(s, "red", "r1", path)
	require.NoError(t, err)

	next := s.Apply(d)
	u := next.Units["r1"]
	assert.Equal(t, game.StatusMoving, u.Status)
	assert.Equal(t, path, u.Path)
	assert.Equal(t, world.Coord(0, 0), u.Location)
}

func TestDeclareMove_TruncatesAtZOC(t *testing.T) {
	s := front(t)
	d, err := orders.DeclareMove(s, "red", "r1", []world.HexCoord{world.Coord(1, 0), world.Coord(1, 1)})
	require.NoError(t, err)
	assert.Equal(t, []world.HexCoord{world.Coord(1, 0)}, s.Apply(d).Units["r1"].Path)
}

func TestDeclareMove_Rejections(t *testing.T) {
	long := []world.HexCoord{
		world.Coord(0, -1), world.Coord(0, -2), world.Coord(0, -3),
		world.Coord(1, -3), world.Coord(2, -3),
	}

	_, err := orders.DeclareMove(front(t), "red", "r1", long)
	assertReason(t, err, orders.ReasonInsufficientMP)
	assert.True(t, errors.Is(err, movement.ErrInsufficientMP))

	_, err = orders.DeclareMove(front(t), "blue", "r1", long[:1])
	assertReason(t, err, orders.ReasonNotOwner)

	_, err = orders.DeclareMove(front(t), "red", "ghost", long[:1])
	assertReason(t, err, orders.ReasonUnknownEntity)

	_, err = orders.DeclareMove(front(t), "red", "r1", []world.HexCoord{world.Coord(0, -2)})
	assertReason(t, err, orders.ReasonInvalidPath)

	moving := front(t, func(b *gametest.Builder) {
		u := b.Unit("r2", "red", "scout", world.Coord(-1, 1), 1)
		u.Status = game.StatusMoving
		u.Path = []world.HexCoord{world.Coord(-1, 2)}
	})
	_, err = orders.DeclareMove(moving, "red", "r2", []world.HexCoord{world.Coord(0, 1)})
	assertReason(t, err, orders.ReasonWrongState)

	regrouping := front(t, func(b *gametest.Builder) {
		u := b.Unit("r2", "red", "scout", world.Coord(-1, 1), 1)
		u.Status = game.StatusRegrouping
		u.RegroupUntil = 3
	})
	_, err = orders.DeclareMove(regrouping, "red", "r2", []world.HexCoord{world.Coord(0, 1)})
	assertReason(t, err, orders.ReasonRegrouping)

	pending := front(t, func(b *gametest.Builder) {
		b.State(func(st *game.State) { st.Status = game.GamePending })
	})
	_, err = orders.DeclareMove(pending, "red", "r1", long[:1])
	assertReason(t, err, orders.ReasonGameNotActive)
}

// contact moves the blue frigate next to the red cruiser.
func contact(b *gametest.Builder) {
	b.Unit("b2", "blue", "frigate", world.Coord(1, -1), 1)
}

func TestDeclareAttack_Accepted(t *testing.T) {
	s := front(t, contact, func(b *gametest.Builder) {
		b.State(func(st *game.State) { st.CurrentTick = 6 })
	})

	d, err := orders.DeclareAttack(s, "red", "r1", orders.Attack{Target: world.Coord(1, -1), Operation: game.OpStandard, AdvanceOnVictory: true})
	require.NoError(t, err)

	u := s.Apply(d).Units["r1"]
	assert.Equal(t, game.StatusPreparing, u.Status)
	assert.Equal(t, 2, u.AP)
	require.NotNil(t, u.Combat)
	assert.Equal(t, uint64(7), u.Combat.ResolveAt)
	assert.True(t, u.Combat.AdvanceOnVictory)
}

func TestDeclareAttack_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		adjust func(b *gametest.Builder)
		attack orders.Attack
		want   orders.Reason
	}{
		{"not adjacent", contact, orders.Attack{Target: world.Coord(2, 0)}, orders.ReasonNotAdjacent},
		{"friendly", func(b *gametest.Builder) { b.Unit("r2", "red", "scout", world.Coord(-1, 0), 1) },
			orders.Attack{Target: world.Coord(-1, 0)}, orders.ReasonFriendlyTarget},
		{"feint on empty hex", nil, orders.Attack{Target: world.Coord(1, -1), Operation: game.OpFeint}, orders.ReasonNoTarget},
		{"standard without advance on empty hex", nil, orders.Attack{Target: world.Coord(1, -1)}, orders.ReasonNoTarget},
		{"no artillery", contact, orders.Attack{Target: world.Coord(1, -1), Operation: game.OpSuppressiveFire}, orders.ReasonMissingSpecialist},
		{"no AP", contact, orders.Attack{Target: world.Coord(1, -1)}, orders.ReasonInsufficientAP},
		{"mutual attack", func(b *gametest.Builder) {
			u := b.Unit("b2", "blue", "frigate", world.Coord(1, -1), 1)
			u.Status = game.StatusPreparing
			u.Combat = &game.CombatIntent{Target: world.Coord(0, 0), ResolveAt: 1}
		}, orders.Attack{Target: world.Coord(1, -1)}, orders.ReasonMutualAttack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var adjust []func(b *gametest.Builder)
			if tt.adjust != nil {
				adjust = append(adjust, tt.adjust)
			}
			s := front(t, adjust...)
			if tt.want == orders.ReasonInsufficientAP {
				s.Units["r1"].AP = 0
			}
			_, err := orders.DeclareAttack(s, "red", "r1", tt.attack)
			assertReason(t, err, tt.want)
		})
	}
}

func TestDeclareAttack_EmptyHexWithAdvance(t *testing.T) {
	s := front(t)
	_, err := orders.DeclareAttack(s, "red", "r1", orders.Attack{Target: world.Coord(1, -1), Operation: game.OpStandard, AdvanceOnVictory: true})
	assert.NoError(t, err)
}

func TestCancel(t *testing.T) {
	s := front(t, contact)
	d, err := orders.DeclareAttack(s, "red", "r1", orders.Attack{Target: world.Coord(1, -1), Operation: game.OpFeint})
	require.NoError(t, err)
	s = s.Apply(d)

	d, err = orders.Cancel(s, "red", "r1")
	require.NoError(t, err)
	s = s.Apply(d)
	u := s.Units["r1"]
	assert.Equal(t, game.StatusIdle, u.Status)
	assert.Nil(t, u.Combat)
	assert.Equal(t, 2, u.AP, "spent AP is not refunded")

	_, err = orders.Cancel(s, "red", "r1")
	assertReason(t, err, orders.ReasonWrongState)
}

func TestCancel_TooLate(t *testing.T) {
	s := front(t, func(b *gametest.Builder) {
		b.State(func(st *game.State) { st.CurrentTick = 4 })
		u := b.Unit("r2", "red", "frigate", world.Coord(-1, 1), 1)
		u.Status = game.StatusPreparing
		u.Combat = &game.CombatIntent{Target: world.Coord(0, 1), ResolveAt: 4}
	})
	_, err := orders.Cancel(s, "red", "r2")
	assertReason(t, err, orders.ReasonWrongState)
}

func TestDeploy(t *testing.T) {
	s := front(t)
	d, id, err := orders.Deploy(s, "red", "corvette", world.Coord(-2, 0))
	require.NoError(t, err)
	require.Len(t, d.CreatedUnits, 1)

	next := s.Apply(d)
	u := next.Units[id]
	require.NotNil(t, u)
	assert.Equal(t, game.StatusIdle, u.Status)
	assert.Len(t, u.Steps, 1)
	assert.Equal(t, id, next.Hexes[world.Coord(-2, 0)].UnitID)
	assert.Equal(t, 6, next.Players["red"].Prestige)
	require.NoError(t, next.Validate())

	_, _, err = orders.Deploy(next, "red", "scout", world.Coord(-2, 0))
	assertReason(t, err, orders.ReasonOccupied)

	_, _, err = orders.Deploy(s, "red", "dreadnought", world.Coord(-2, 0))
	assertReason(t, err, orders.ReasonInsufficientPrestige)

	_, _, err = orders.Deploy(s, "red", "corvette", world.Coord(-1, 0))
	assertReason(t, err, orders.ReasonNotDeployable)

	_, _, err = orders.Deploy(s, "red", "battlestar", world.Coord(-2, 0))
	assertReason(t, err, orders.ReasonNotDeployable)
}

func TestDeploy_ProjectsZOC(t *testing.T) {
	s := front(t)
	d, id, err := orders.Deploy(s, "red", "frigate", world.Coord(-2, 0))
	require.NoError(t, err)

	next := s.Apply(d)
	assert.Contains(t, next.Hexes[world.Coord(-1, 0)].ZOC, game.ZOCEntry{Player: "red", Unit: id})
	assert.NoError(t, zoc.Verify(next))
}

func TestUpgrade(t *testing.T) {
	s := front(t)

	d, err := orders.Upgrade(s, "red", "r1", game.SpecialistNone)
	require.NoError(t, err)
	next := s.Apply(d)
	assert.Len(t, next.Units["r1"].Steps, 4)
	assert.Equal(t, 7, next.Players["red"].Prestige)

	_, err = orders.Upgrade(next, "red", "r1", game.SpecialistNone)
	assertReason(t, err, orders.ReasonStepLimit)

	d, err = orders.Upgrade(next, "red", "r1", game.SpecialistArtillery)
	require.NoError(t, err)
	next = next.Apply(d)
	assert.Equal(t, game.SpecialistArtillery, next.Units["r1"].Steps[0].Specialist)
	assert.Equal(t, 3, next.Players["red"].Prestige)

	_, err = orders.Upgrade(next, "red", "r1", game.SpecialistArmor)
	assertReason(t, err, orders.ReasonInsufficientPrestige)
}

func TestScrap(t *testing.T) {
	s := front(t)
	d, err := orders.Scrap(s, "blue", "b1")
	require.NoError(t, err)
	s = s.Apply(d)
	assert.Len(t, s.Units["b1"].Steps, 1)

	d, err = orders.Scrap(s, "blue", "b1")
	require.NoError(t, err)
	assert.Equal(t, []game.UnitID{"b1"}, d.RemovedUnits)
	s = s.Apply(d)
	assert.NotContains(t, s.Units, game.UnitID("b1"))
	assert.Empty(t, s.Hexes[world.Coord(2, 0)].UnitID)
	assert.Empty(t, s.Hexes[world.Coord(3, 0)].ZOC)
	assert.NoError(t, s.Validate())
}

func TestBuildStation(t *testing.T) {
	s := front(t, func(b *gametest.Builder) {
		b.Own("red", world.Coord(2, -3))
	})

	d, id, err := orders.BuildStation(s, "red", world.Coord(-1, 0))
	require.NoError(t, err)
	next := s.Apply(d)
	require.Contains(t, next.Stations, id)
	assert.Equal(t, id, next.Hexes[world.Coord(-1, 0)].StationID)
	assert.Equal(t, 5, next.Players["red"].Prestige)

	_, _, err = orders.BuildStation(s, "red", world.Coord(-2, 0))
	assertReason(t, err, orders.ReasonOccupied)

	_, _, err = orders.BuildStation(s, "red", world.Coord(2, -3))
	assertReason(t, err, orders.ReasonNotInSupply)

	_, _, err = orders.BuildStation(s, "red", world.Coord(1, 1))
	assertReason(t, err, orders.ReasonNotOwner)
}
