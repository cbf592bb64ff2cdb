// Package scenario seeds a playable demo match: a generated terrain disc,
// one capital and a starting squadron per player, and neutral planets to
// fight over. The same seed always yields the same map and layout.
package scenario

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/config"
	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/world"
	"github.com/talgya/hexfront/internal/zoc"
)

const (
	MaxPlayers = 6
	MinRadius  = 4

	// territoryRadius is how far around its capital a player starts owning.
	territoryRadius = 2
)

var (
	playerNames = [MaxPlayers]string{"Red", "Blue", "Green", "Gold", "Violet", "Cyan"}
	planetNames = []string{
		"Kepler", "Tau Ceti", "Vega", "Altair", "Deneb", "Rigel", "Sirius",
		"Procyon", "Castor", "Pollux", "Antares", "Mira", "Izar", "Hadar",
	}

	// Starting squadrons cycle through this roster, skipping types the
	// catalog does not define.
	roster = []catalog.TypeID{"cruiser", "frigate", "scout", "corvette", "dreadnought"}
)

// Params describe a demo match.
type Params struct {
	Name             string
	Players          int
	Radius           int
	Seed             int64
	UnitsPerPlayer   int
	TicksPerCycle    uint64
	TickDuration     time.Duration
	VictoryThreshold int
	Rules            game.Rules
	StartDate        time.Time
}

// FromConfig turns scenario settings into Params starting at now plus the
// configured delay.
func FromConfig(cfg config.ScenarioConfig, rules game.Rules, now time.Time) Params {
	return Params{
		Name:             cfg.Name,
		Players:          cfg.Players,
		Radius:           cfg.Radius,
		Seed:             cfg.Seed,
		UnitsPerPlayer:   cfg.UnitsPerPlayer,
		TicksPerCycle:    cfg.TicksPerCycle,
		TickDuration:     cfg.TickDuration,
		VictoryThreshold: cfg.VictoryThreshold,
		Rules:            rules,
		StartDate:        now.Add(cfg.StartDelay).UTC().Truncate(time.Second),
	}
}

func (p Params) validate() error {
	switch {
	case p.Players < 2 || p.Players > MaxPlayers:
		return fmt.Errorf("scenario: players must be 2..%d, got %d", MaxPlayers, p.Players)
	case p.Radius < MinRadius:
		return fmt.Errorf("scenario: radius must be at least %d, got %d", MinRadius, p.Radius)
	case p.UnitsPerPlayer < 1 || p.UnitsPerPlayer > 7:
		return fmt.Errorf("scenario: units per player must be 1..7, got %d", p.UnitsPerPlayer)
	case p.TicksPerCycle == 0:
		return errors.New("scenario: ticks per cycle must be positive")
	case p.TickDuration <= 0:
		return errors.New("scenario: tick duration must be positive")
	case p.VictoryThreshold <= 0:
		return errors.New("scenario: victory threshold must be positive")
	}
	return nil
}

// Build generates a PENDING match. The scheduler starts it once StartDate
// has passed.
func Build(p Params, cat *catalog.Catalog) (*game.Snapshot, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	types := squadronTypes(cat)
	if len(types) == 0 {
		return nil, errors.New("scenario: catalog has no unit types")
	}

	gen := world.DefaultGenConfig()
	gen.Radius = p.Radius
	gen.Seed = p.Seed
	m := world.Generate(gen)

	hexes := make(map[world.HexCoord]*game.Hex, m.HexCount())
	for c, t := range m.Terrain {
		hexes[c] = &game.Hex{Coord: c, Terrain: t}
	}

	g := game.Game{
		ID:   game.GameID(game.NewID()),
		Name: p.Name,
		Settings: game.Settings{
			PlayerCount:      p.Players,
			TicksPerCycle:    p.TicksPerCycle,
			TickDuration:     p.TickDuration,
			VictoryThreshold: p.VictoryThreshold,
			Rules:            p.Rules,
		},
		State: game.State{
			Status:    game.GamePending,
			StartDate: p.StartDate,
		},
	}

	var (
		players []*game.Player
		planets []*game.Planet
		units   []*game.Unit
	)
	seats := capitalSeats(p.Radius, p.Players)
	for i, seat := range seats {
		pl := &game.Player{
			ID:     game.PlayerID(game.NewID()),
			Name:   playerNames[i],
			Status: game.PlayerActive,
		}
		players = append(players, pl)

		// Clear the home system so the squadron can deploy and move out.
		for _, c := range world.Spiral(seat, 1) {
			hexes[c].Terrain = world.TerrainSpace
		}
		for _, c := range world.Spiral(seat, territoryRadius) {
			if h, ok := hexes[c]; ok && h.Terrain.Passable() && closestSeat(c, seats) == i {
				h.Owner = pl.ID
			}
		}

		capital := &game.Planet{
			ID:       game.PlanetID(game.NewID()),
			Name:     pl.Name + " Prime",
			Owner:    pl.ID,
			Location: seat,
			Capital:  true,
			Supply:   game.SupplySource{InSupply: true, IsRoot: true},
		}
		hexes[seat].PlanetID = capital.ID
		planets = append(planets, capital)

		for j, c := range world.Spiral(seat, 1)[:p.UnitsPerPlayer] {
			t, err := cat.Get(types[j%len(types)])
			if err != nil {
				return nil, err
			}
			u := &game.Unit{
				ID:       game.UnitID(game.NewID()),
				Owner:    pl.ID,
				Type:     t.ID,
				Location: c,
				Steps:    make([]game.Step, t.MaxSteps),
				Status:   game.StatusIdle,
				AP:       t.MaxAP,
				MP:       t.MaxMP,
				Supply:   game.SupplyState{InSupply: true},
			}
			hexes[c].UnitID = u.ID
			units = append(units, u)
		}
	}

	rng := rand.New(rand.NewSource(p.Seed + 500))
	for i, c := range neutralSites(m, hexes, seats, rng, p.Players*2) {
		pl := &game.Planet{
			ID:       game.PlanetID(game.NewID()),
			Name:     planetNames[i%len(planetNames)],
			Location: c,
		}
		hexes[c].PlanetID = pl.ID
		planets = append(planets, pl)
	}

	list := make([]*game.Hex, 0, len(hexes))
	for _, h := range hexes {
		list = append(list, h)
	}
	s, err := game.NewSnapshot(g, cat, list, units, planets, nil, players)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	zoc.Rebuild(s)
	return s, nil
}

// capitalSeats spreads n capitals evenly around the ring one hex inside
// the map edge.
func capitalSeats(radius, n int) []world.HexCoord {
	ring := world.Ring(world.HexCoord{}, radius-1)
	seats := make([]world.HexCoord, n)
	for i := range seats {
		seats[i] = ring[i*len(ring)/n]
	}
	return seats
}

// neutralSites picks up to n passable, unowned hexes at least two hexes
// from any capital and from each other.
func neutralSites(m *world.Map, hexes map[world.HexCoord]*game.Hex, seats []world.HexCoord, rng *rand.Rand, n int) []world.HexCoord {
	var candidates []world.HexCoord
	for _, c := range world.Spiral(world.HexCoord{}, m.Radius) {
		h := hexes[c]
		if h.Owner == "" && h.Terrain.Passable() && h.UnitID == "" && h.PlanetID == "" {
			candidates = append(candidates, c)
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	taken := append([]world.HexCoord(nil), seats...)
	var sites []world.HexCoord
	for _, c := range candidates {
		if len(sites) == n {
			break
		}
		if nearAny(c, taken, 2) {
			continue
		}
		sites = append(sites, c)
		taken = append(taken, c)
	}
	return sites
}

// closestSeat returns the index of the seat strictly nearest to c, or -1
// on a tie.
func closestSeat(c world.HexCoord, seats []world.HexCoord) int {
	best, bestDist, tie := -1, 0, false
	for i, seat := range seats {
		d := world.Distance(c, seat)
		switch {
		case best < 0 || d < bestDist:
			best, bestDist, tie = i, d, false
		case d == bestDist:
			tie = true
		}
	}
	if tie {
		return -1
	}
	return best
}

func nearAny(c world.HexCoord, others []world.HexCoord, within int) bool {
	for _, o := range others {
		if world.Distance(c, o) < within {
			return true
		}
	}
	return false
}

func squadronTypes(cat *catalog.Catalog) []catalog.TypeID {
	var out []catalog.TypeID
	for _, id := range roster {
		if cat.Has(id) {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		out = cat.IDs()
	}
	return out
}
