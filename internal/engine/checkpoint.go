package engine

import (
	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/world"
)

// checkpoint holds copies of everything one unit's work can touch: every
// hex within one step of the unit's location, path or attack target, and
// the units, planets and stations on those hexes.
type checkpoint struct {
	hexes    map[world.HexCoord]*game.Hex
	units    map[game.UnitID]*game.Unit
	planets  map[game.PlanetID]*game.Planet
	stations map[game.StationID]*game.Station
}

func takeCheckpoint(s *game.Snapshot, u *game.Unit) *checkpoint {
	cp := &checkpoint{
		hexes:    make(map[world.HexCoord]*game.Hex),
		units:    map[game.UnitID]*game.Unit{u.ID: u.Clone()},
		planets:  make(map[game.PlanetID]*game.Planet),
		stations: make(map[game.StationID]*game.Station),
	}
	centers := append([]world.HexCoord{u.Location}, u.Path...)
	if u.Combat != nil {
		centers = append(centers, u.Combat.Target)
	}
	for _, center := range centers {
		for _, c := range world.Spiral(center, 1) {
			h, ok := s.Hexes[c]
			if !ok {
				continue
			}
			if _, done := cp.hexes[c]; done {
				continue
			}
			cp.hexes[c] = h.Clone()
			if o := s.Units[h.UnitID]; o != nil {
				cp.units[o.ID] = o.Clone()
			}
			if p := s.Planets[h.PlanetID]; p != nil {
				cp.planets[p.ID] = p.Clone()
			}
			if st := s.Stations[h.StationID]; st != nil {
				cp.stations[st.ID] = st.Clone()
			}
		}
	}
	return cp
}

// restore puts the saved entities back, re-adding any that were removed.
func (cp *checkpoint) restore(s *game.Snapshot) {
	for c, h := range cp.hexes {
		s.Hexes[c] = h
	}
	for id, u := range cp.units {
		s.Units[id] = u
	}
	for id, p := range cp.planets {
		s.Planets[id] = p
	}
	for id, st := range cp.stations {
		s.Stations[id] = st
	}
}
