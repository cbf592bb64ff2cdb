// Package gametest builds small match snapshots for tests.
package gametest

import (
	"testing"
	"time"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/world"
	"github.com/talgya/hexfront/internal/zoc"
)

// Start is the fixed start date of every built game.
var Start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// Builder assembles a snapshot from a hex disc of open space.
type Builder struct {
	game     game.Game
	cat      *catalog.Catalog
	hexes    map[world.HexCoord]*game.Hex
	units    []*game.Unit
	planets  []*game.Planet
	stations []*game.Station
	players  []*game.Player
}

// New returns a builder for an ACTIVE game on a disc of the given radius.
func New(radius int) *Builder {
	b := &Builder{
		game: game.Game{
			ID:   "game-1",
			Name: "test",
			Settings: game.Settings{
				PlayerCount:      2,
				TicksPerCycle:    4,
				TickDuration:     time.Minute,
				VictoryThreshold: 100,
				Rules:            game.DefaultRules(),
			},
			State: game.State{
				Status:    game.GameActive,
				StartDate: Start,
			},
		},
		cat:   catalog.Default(),
		hexes: make(map[world.HexCoord]*game.Hex),
	}
	for _, c := range world.Spiral(world.HexCoord{}, radius) {
		b.hexes[c] = &game.Hex{Coord: c, Terrain: world.TerrainSpace}
	}
	return b
}

// ID renames the game.
func (b *Builder) ID(id game.GameID) *Builder {
	b.game.ID = id
	return b
}

// Catalog replaces the default catalog.
func (b *Builder) Catalog(c *catalog.Catalog) *Builder {
	b.cat = c
	return b
}

// Settings lets a test adjust match settings.
func (b *Builder) Settings(fn func(*game.Settings)) *Builder {
	fn(&b.game.Settings)
	return b
}

// State lets a test adjust the match clock and status.
func (b *Builder) State(fn func(*game.State)) *Builder {
	fn(&b.game.State)
	return b
}

// Terrain sets the terrain of a hex.
func (b *Builder) Terrain(c world.HexCoord, t world.Terrain) *Builder {
	b.hexes[c].Terrain = t
	return b
}

// Own assigns hexes to a player.
func (b *Builder) Own(p game.PlayerID, coords ...world.HexCoord) *Builder {
	for _, c := range coords {
		b.hexes[c].Owner = p
	}
	return b
}

// OwnArea assigns every hex within radius of center to a player.
func (b *Builder) OwnArea(p game.PlayerID, center world.HexCoord, radius int) *Builder {
	for _, c := range world.Spiral(center, radius) {
		if h, ok := b.hexes[c]; ok {
			h.Owner = p
		}
	}
	return b
}

// Player adds an ACTIVE player.
func (b *Builder) Player(id game.PlayerID) *game.Player {
	p := &game.Player{ID: id, Name: string(id), Status: game.PlayerActive}
	b.players = append(b.players, p)
	return p
}

// Unit places an IDLE, in-supply unit with full AP/MP and the given number
// of plain steps. The returned pointer may be adjusted before Build.
func (b *Builder) Unit(id game.UnitID, owner game.PlayerID, typ catalog.TypeID, at world.HexCoord, steps int) *game.Unit {
	t, err := b.cat.Get(typ)
	if err != nil {
		panic(err)
	}
	u := &game.Unit{
		ID:       id,
		Owner:    owner,
		Type:     typ,
		Location: at,
		Steps:    make([]game.Step, steps),
		Status:   game.StatusIdle,
		AP:       t.MaxAP,
		MP:       t.MaxMP,
		Supply:   game.SupplyState{InSupply: true},
	}
	b.hexes[at].UnitID = id
	b.units = append(b.units, u)
	return u
}

// Planet places a planet. Capitals are supply roots.
func (b *Builder) Planet(id game.PlanetID, owner game.PlayerID, at world.HexCoord, capital bool) *game.Planet {
	p := &game.Planet{
		ID:       id,
		Name:     string(id),
		Owner:    owner,
		Location: at,
		Capital:  capital,
		Supply:   game.SupplySource{InSupply: capital, IsRoot: capital},
	}
	b.hexes[at].PlanetID = id
	b.planets = append(b.planets, p)
	return p
}

// Station places a station.
func (b *Builder) Station(id game.StationID, owner game.PlayerID, at world.HexCoord) *game.Station {
	st := &game.Station{
		ID:       id,
		Owner:    owner,
		Location: at,
		Supply:   game.SupplySource{InSupply: true},
		Counters: game.SupplyState{InSupply: true},
	}
	b.hexes[at].StationID = id
	b.stations = append(b.stations, st)
	return st
}

// Build returns a validated snapshot with the ZOC index rebuilt from the
// unit positions.
func (b *Builder) Build(tb testing.TB) *game.Snapshot {
	tb.Helper()

	hexes := make([]*game.Hex, 0, len(b.hexes))
	for _, h := range b.hexes {
		h = h.Clone()
		h.ZOC = nil
		hexes = append(hexes, h)
	}
	units := make([]*game.Unit, 0, len(b.units))
	for _, u := range b.units {
		units = append(units, u.Clone())
	}
	planets := make([]*game.Planet, 0, len(b.planets))
	for _, p := range b.planets {
		planets = append(planets, p.Clone())
	}
	stations := make([]*game.Station, 0, len(b.stations))
	for _, st := range b.stations {
		stations = append(stations, st.Clone())
	}
	players := make([]*game.Player, 0, len(b.players))
	for _, p := range b.players {
		players = append(players, p.Clone())
	}

	snap, err := game.NewSnapshot(b.game, b.cat, hexes, units, planets, stations, players)
	if err != nil {
		tb.Fatalf("gametest: %v", err)
	}
	zoc.Rebuild(snap)
	if err := snap.Validate(); err != nil {
		tb.Fatalf("gametest: %v", err)
	}
	return snap
}
