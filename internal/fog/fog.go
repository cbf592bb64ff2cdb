// Package fog derives what one player can see of a match and masks the rest
// for presentation. It is the only part of the core called per viewer
// rather than per tick.
package fog

import (
	"sort"

	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/world"
)

// Spectator is the viewer with no player context.
const Spectator game.PlayerID = ""

// Intent is a unit's combat intent as shown to a viewer. Operation and
// AdvanceOnVictory are nil when masked; the target is always kept.
type Intent struct {
	Target           world.HexCoord  `json:"target"`
	ResolveAt        uint64          `json:"resolve_at"`
	Operation        *game.Operation `json:"operation"`
	AdvanceOnVictory *bool           `json:"advance_on_victory"`
}

// Unit is a unit as shown to a viewer.
type Unit struct {
	ID           game.UnitID      `json:"id"`
	Owner        game.PlayerID    `json:"owner"`
	Type         string           `json:"type"`
	Location     world.HexCoord   `json:"location"`
	Steps        []game.Step      `json:"steps"`
	Status       game.UnitStatus  `json:"status"`
	AP           int              `json:"ap"`
	MP           int              `json:"mp"`
	Path         []world.HexCoord `json:"path,omitempty"`
	Combat       *Intent          `json:"combat,omitempty"`
	Supply       game.SupplyState `json:"supply"`
	RegroupUntil uint64           `json:"regroup_until,omitempty"`
	Masked       bool             `json:"masked"`
}

// View is one viewer's filtered copy of a match. Everything in it is a
// copy; the snapshot is never modified.
type View struct {
	Game     game.Game        `json:"game"`
	Viewer   game.PlayerID    `json:"viewer,omitempty"`
	Hexes    []*game.Hex      `json:"hexes"`
	Units    []Unit           `json:"units"`
	Planets  []*game.Planet   `json:"planets"`
	Stations []*game.Station  `json:"stations"`
	Visible  []world.HexCoord `json:"visible"`
}

// Vision returns a unit's sensing radius: its type's vision plus one per
// active recon step.
func Vision(s *game.Snapshot, u *game.Unit) int {
	return s.UnitType(u).Vision + u.ActiveSpecialists(game.SpecialistRecon)
}

// VisibleHexes returns the union of vision ranges around the viewer's
// units, planets and stations. A spectator sees no hex.
func VisibleHexes(s *game.Snapshot, viewer game.PlayerID) map[world.HexCoord]struct{} {
	visible := make(map[world.HexCoord]struct{})
	if viewer == Spectator {
		return visible
	}
	reveal := func(center world.HexCoord, radius int) {
		for _, c := range world.Spiral(center, radius) {
			if _, ok := s.Hexes[c]; ok {
				visible[c] = struct{}{}
			}
		}
	}
	for _, u := range s.Units {
		if u.Owner == viewer {
			reveal(u.Location, Vision(s, u))
		}
	}
	rules := s.Game.Settings.Rules
	for _, p := range s.Planets {
		if p.Owner == viewer {
			reveal(p.Location, rules.PlanetVision)
		}
	}
	for _, st := range s.Stations {
		if st.Owner == viewer {
			reveal(st.Location, rules.StationVision)
		}
	}
	return visible
}

// Filter returns the match as the viewer may see it.
//
// Own units are unmasked. Enemy units appear only on visible hexes, with
// their path cut to its first waypoint and the kind of any pending attack
// hidden. A PENDING game shows a player only their own units; a spectator
// sees the map, ownership and planets but no units. A COMPLETED game is
// shown to everyone in full.
func Filter(s *game.Snapshot, viewer game.PlayerID) View {
	v := View{Game: s.Game, Viewer: viewer}
	if s.Game.State.Status == game.GameCompleted {
		return fullView(s, v)
	}

	visible := VisibleHexes(s, viewer)
	seen := func(c world.HexCoord) bool {
		_, ok := visible[c]
		return ok
	}
	enemiesShown := viewer != Spectator && s.Game.State.Status != game.GamePending

	shown := make(map[game.UnitID]bool)
	for _, id := range s.UnitIDs() {
		u := s.Units[id]
		switch {
		case viewer != Spectator && u.Owner == viewer:
			v.Units = append(v.Units, unitView(u, false))
		case enemiesShown && seen(u.Location):
			v.Units = append(v.Units, unitView(u, true))
		default:
			continue
		}
		shown[id] = true
	}

	for _, c := range s.SortedCoords() {
		h := s.Hexes[c].Clone()
		if h.UnitID != "" && !shown[h.UnitID] {
			h.UnitID = ""
		}
		switch {
		case viewer == Spectator:
			h.ZOC = nil
		case !seen(c):
			h.ZOC = ownZOC(h.ZOC, viewer)
		default:
			h.ZOC = shownZOC(h.ZOC, shown)
		}
		if h.StationID != "" && !stationShown(s.Stations[h.StationID], viewer, seen) {
			h.StationID = ""
		}
		v.Hexes = append(v.Hexes, h)
	}

	for _, p := range sortedPlanets(s) {
		p = p.Clone()
		if viewer == Spectator || (p.Owner != viewer && !seen(p.Location)) {
			p.Supply = game.SupplySource{}
		}
		v.Planets = append(v.Planets, p)
	}

	for _, st := range sortedStations(s) {
		if !stationShown(st, viewer, seen) {
			continue
		}
		st = st.Clone()
		if viewer == Spectator {
			st.Supply = game.SupplySource{}
			st.Counters = game.SupplyState{}
		}
		v.Stations = append(v.Stations, st)
	}

	v.Visible = make([]world.HexCoord, 0, len(visible))
	for c := range visible {
		v.Visible = append(v.Visible, c)
	}
	game.SortCoords(v.Visible)
	return v
}

func fullView(s *game.Snapshot, v View) View {
	for _, c := range s.SortedCoords() {
		v.Hexes = append(v.Hexes, s.Hexes[c].Clone())
	}
	for _, id := range s.UnitIDs() {
		v.Units = append(v.Units, unitView(s.Units[id], false))
	}
	for _, p := range sortedPlanets(s) {
		v.Planets = append(v.Planets, p.Clone())
	}
	for _, st := range sortedStations(s) {
		v.Stations = append(v.Stations, st.Clone())
	}
	v.Visible = s.SortedCoords()
	return v
}

// stationShown: own stations always; enemy ones on visible hexes; all of
// them, stripped of supply data, for a spectator.
func stationShown(st *game.Station, viewer game.PlayerID, seen func(world.HexCoord) bool) bool {
	if st == nil {
		return false
	}
	return viewer == Spectator || st.Owner == viewer || seen(st.Location)
}

func unitView(u *game.Unit, masked bool) Unit {
	out := Unit{
		ID:           u.ID,
		Owner:        u.Owner,
		Type:         string(u.Type),
		Location:     u.Location,
		Steps:        append([]game.Step(nil), u.Steps...),
		Status:       u.Status,
		AP:           u.AP,
		MP:           u.MP,
		Supply:       u.Supply,
		RegroupUntil: u.RegroupUntil,
		Masked:       masked,
	}
	path := u.Path
	if masked && len(path) > 1 {
		path = path[:1]
	}
	if len(path) > 0 {
		out.Path = append([]world.HexCoord(nil), path...)
	}
	if u.Combat != nil {
		in := &Intent{Target: u.Combat.Target, ResolveAt: u.Combat.ResolveAt}
		if !masked {
			op, adv := u.Combat.Operation, u.Combat.AdvanceOnVictory
			in.Operation, in.AdvanceOnVictory = &op, &adv
		}
		out.Combat = in
	}
	return out
}

func ownZOC(entries []game.ZOCEntry, viewer game.PlayerID) []game.ZOCEntry {
	var own []game.ZOCEntry
	for _, e := range entries {
		if e.Player == viewer {
			own = append(own, e)
		}
	}
	return own
}

// shownZOC keeps the entries projected by units the viewer can see.
func shownZOC(entries []game.ZOCEntry, shown map[game.UnitID]bool) []game.ZOCEntry {
	var out []game.ZOCEntry
	for _, e := range entries {
		if shown[e.Unit] {
			out = append(out, e)
		}
	}
	return out
}

func sortedPlanets(s *game.Snapshot) []*game.Planet {
	out := make([]*game.Planet, 0, len(s.Planets))
	for _, p := range s.Planets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedStations(s *game.Snapshot) []*game.Station {
	out := make([]*game.Station, 0, len(s.Stations))
	for _, st := range s.Stations {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
