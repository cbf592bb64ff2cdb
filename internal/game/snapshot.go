package game

import (
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/world"
)

// ErrInvariant marks data that violates the entity invariants. It is a
// programming or data error and aborts the computation that found it.
var ErrInvariant = errors.New("invariant violation")

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...)
}

// Snapshot is a consistent view of one match's full entity set.
// The engine treats a snapshot as immutable and works on clones.
type Snapshot struct {
	Game     Game
	Hexes    map[world.HexCoord]*Hex
	Units    map[UnitID]*Unit
	Planets  map[PlanetID]*Planet
	Stations map[StationID]*Station
	Players  map[PlayerID]*Player
	Catalog  *catalog.Catalog
}

// NewSnapshot indexes loaded entity lists and validates the invariants.
// Duplicate identities or coordinates are rejected.
func NewSnapshot(g Game, cat *catalog.Catalog, hexes []*Hex, units []*Unit, planets []*Planet, stations []*Station, players []*Player) (*Snapshot, error) {
	if cat == nil {
		return nil, errors.New("snapshot: nil catalog")
	}
	s := &Snapshot{
		Game:     g,
		Hexes:    make(map[world.HexCoord]*Hex, len(hexes)),
		Units:    make(map[UnitID]*Unit, len(units)),
		Planets:  make(map[PlanetID]*Planet, len(planets)),
		Stations: make(map[StationID]*Station, len(stations)),
		Players:  make(map[PlayerID]*Player, len(players)),
		Catalog:  cat,
	}
	for _, h := range hexes {
		if _, dup := s.Hexes[h.Coord]; dup {
			return nil, invariantf("duplicate hex coordinate %v", h.Coord)
		}
		s.Hexes[h.Coord] = h
	}
	for _, u := range units {
		if _, dup := s.Units[u.ID]; dup {
			return nil, invariantf("duplicate unit %s", u.ID)
		}
		s.Units[u.ID] = u
	}
	for _, p := range planets {
		if _, dup := s.Planets[p.ID]; dup {
			return nil, invariantf("duplicate planet %s", p.ID)
		}
		s.Planets[p.ID] = p
	}
	for _, st := range stations {
		if _, dup := s.Stations[st.ID]; dup {
			return nil, invariantf("duplicate station %s", st.ID)
		}
		s.Stations[st.ID] = st
	}
	for _, p := range players {
		if _, dup := s.Players[p.ID]; dup {
			return nil, invariantf("duplicate player %s", p.ID)
		}
		s.Players[p.ID] = p
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks every entity invariant and returns the first violation.
func (s *Snapshot) Validate() error {
	for coord, h := range s.Hexes {
		if !coord.Valid() || h.Coord != coord {
			return invariantf("hex %v: malformed or mis-keyed coordinate", coord)
		}
		if h.UnitID != "" {
			u, ok := s.Units[h.UnitID]
			if !ok {
				return invariantf("hex %v references missing unit %s", coord, h.UnitID)
			}
			if u.Location != coord {
				return invariantf("hex %v references unit %s located at %v", coord, u.ID, u.Location)
			}
		}
		if h.PlanetID != "" {
			if p, ok := s.Planets[h.PlanetID]; !ok || p.Location != coord {
				return invariantf("hex %v has dangling planet reference %s", coord, h.PlanetID)
			}
		}
		if h.StationID != "" {
			if st, ok := s.Stations[h.StationID]; !ok || st.Location != coord {
				return invariantf("hex %v has dangling station reference %s", coord, h.StationID)
			}
		}
		for _, z := range h.ZOC {
			u, ok := s.Units[z.Unit]
			if !ok {
				return invariantf("hex %v: ZOC entry for missing unit %s", coord, z.Unit)
			}
			if u.Owner != z.Player || world.Distance(u.Location, coord) > 1 {
				return invariantf("hex %v: stale ZOC entry for unit %s", coord, z.Unit)
			}
		}
	}
	for id, u := range s.Units {
		if u.ID != id {
			return invariantf("unit %s keyed as %s", u.ID, id)
		}
		if len(u.Steps) == 0 {
			return invariantf("unit %s has no steps", id)
		}
		if !s.Catalog.Has(u.Type) {
			return invariantf("unit %s has unknown type %q", id, u.Type)
		}
		h, ok := s.Hexes[u.Location]
		if !ok {
			return invariantf("unit %s located off-map at %v", id, u.Location)
		}
		if h.UnitID != id {
			return invariantf("unit %s at %v but hex references %q", id, u.Location, h.UnitID)
		}
	}
	for id, p := range s.Planets {
		if p.Capital && !p.Supply.IsRoot {
			return invariantf("capital planet %s is not a supply root", id)
		}
		if p.Supply.IsRoot && !p.Supply.InSupply {
			return invariantf("supply root %s marked out of supply", id)
		}
		if h, ok := s.Hexes[p.Location]; !ok || h.PlanetID != id {
			return invariantf("planet %s not referenced by its hex", id)
		}
	}
	for id, st := range s.Stations {
		if st.Supply.IsRoot {
			return invariantf("station %s marked as supply root", id)
		}
		if h, ok := s.Hexes[st.Location]; !ok || h.StationID != id {
			return invariantf("station %s not referenced by its hex", id)
		}
	}
	return nil
}

// Clone returns a deep copy sharing only the immutable catalog.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Game:     s.Game,
		Hexes:    make(map[world.HexCoord]*Hex, len(s.Hexes)),
		Units:    make(map[UnitID]*Unit, len(s.Units)),
		Planets:  make(map[PlanetID]*Planet, len(s.Planets)),
		Stations: make(map[StationID]*Station, len(s.Stations)),
		Players:  make(map[PlayerID]*Player, len(s.Players)),
		Catalog:  s.Catalog,
	}
	for k, v := range s.Hexes {
		c.Hexes[k] = v.Clone()
	}
	for k, v := range s.Units {
		c.Units[k] = v.Clone()
	}
	for k, v := range s.Planets {
		c.Planets[k] = v.Clone()
	}
	for k, v := range s.Stations {
		c.Stations[k] = v.Clone()
	}
	for k, v := range s.Players {
		c.Players[k] = v.Clone()
	}
	return c
}

// UnitType returns the catalog record for a unit. Types are checked by
// Validate, so a miss here means the snapshot was built around it.
func (s *Snapshot) UnitType(u *Unit) *catalog.UnitType {
	t, err := s.Catalog.Get(u.Type)
	if err != nil {
		panic(fmt.Sprintf("game: %v", err))
	}
	return t
}

// UnitAt returns the unit occupying a hex, or nil.
func (s *Snapshot) UnitAt(c world.HexCoord) *Unit {
	h, ok := s.Hexes[c]
	if !ok || h.UnitID == "" {
		return nil
	}
	return s.Units[h.UnitID]
}

// PlanetAt returns the planet on a hex, or nil.
func (s *Snapshot) PlanetAt(c world.HexCoord) *Planet {
	h, ok := s.Hexes[c]
	if !ok || h.PlanetID == "" {
		return nil
	}
	return s.Planets[h.PlanetID]
}

// StationAt returns the station on a hex, or nil.
func (s *Snapshot) StationAt(c world.HexCoord) *Station {
	h, ok := s.Hexes[c]
	if !ok || h.StationID == "" {
		return nil
	}
	return s.Stations[h.StationID]
}

// UnitIDs returns unit ids in sorted order, the engine's processing order.
func (s *Snapshot) UnitIDs() []UnitID {
	ids := make([]UnitID, 0, len(s.Units))
	for id := range s.Units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PlayerIDs returns player ids in sorted order.
func (s *Snapshot) PlayerIDs() []PlayerID {
	ids := make([]PlayerID, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SortedCoords returns hex coordinates in a stable order (q, then r).
func (s *Snapshot) SortedCoords() []world.HexCoord {
	coords := make([]world.HexCoord, 0, len(s.Hexes))
	for c := range s.Hexes {
		coords = append(coords, c)
	}
	SortCoords(coords)
	return coords
}

// SortCoords orders coordinates by q, then r.
func SortCoords(coords []world.HexCoord) {
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Q != coords[j].Q {
			return coords[i].Q < coords[j].Q
		}
		return coords[i].R < coords[j].R
	})
}

// RemoveUnit deletes a unit and clears its hex reference. ZOC entries are
// the caller's responsibility (zoc.Withdraw) so the index stays explicit.
func (s *Snapshot) RemoveUnit(id UnitID) {
	u, ok := s.Units[id]
	if !ok {
		return
	}
	if h, ok := s.Hexes[u.Location]; ok && h.UnitID == id {
		h.UnitID = ""
	}
	delete(s.Units, id)
}

// RemoveStation deletes a station and clears its hex reference.
func (s *Snapshot) RemoveStation(id StationID) {
	st, ok := s.Stations[id]
	if !ok {
		return
	}
	if h, ok := s.Hexes[st.Location]; ok && h.StationID == id {
		h.StationID = ""
	}
	delete(s.Stations, id)
}

// MoveUnit relocates a unit, keeping both hex references consistent.
func (s *Snapshot) MoveUnit(id UnitID, to world.HexCoord) {
	u := s.Units[id]
	if h, ok := s.Hexes[u.Location]; ok && h.UnitID == id {
		h.UnitID = ""
	}
	u.Location = to
	s.Hexes[to].UnitID = id
}

// Capture transfers a hex and any planet or station on it to a player.
// Returns the captured planet and station ids, empty when none changed hands.
func (s *Snapshot) Capture(c world.HexCoord, player PlayerID) (PlanetID, StationID) {
	h := s.Hexes[c]
	h.Owner = player

	var planet PlanetID
	var station StationID
	if p := s.PlanetAt(c); p != nil && p.Owner != player {
		p.Owner = player
		planet = p.ID
	}
	if st := s.StationAt(c); st != nil && st.Owner != player {
		st.Owner = player
		station = st.ID
	}
	return planet, station
}

// Hex returns the hex at c, or nil when c is off the map.
func (s *Snapshot) Hex(c world.HexCoord) *Hex {
	return s.Hexes[c]
}

// OccupantOwner returns the owner of the unit on c, if any.
func (s *Snapshot) OccupantOwner(c world.HexCoord) (PlayerID, bool) {
	u := s.UnitAt(c)
	if u == nil {
		return "", false
	}
	return u.Owner, true
}
