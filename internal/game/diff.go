package game

import (
	"sort"
	"time"

	"github.com/talgya/hexfront/internal/world"
)

// UnitUpdate carries only the fields of a unit that changed.
type UnitUpdate struct {
	Owner        *PlayerID         `json:"owner,omitempty"`
	Location     *world.HexCoord   `json:"location,omitempty"`
	Steps        []Step            `json:"steps,omitempty"` // nil = unchanged; never empty when set
	Status       *UnitStatus       `json:"status,omitempty"`
	AP           *int              `json:"ap,omitempty"`
	MP           *int              `json:"mp,omitempty"`
	Path         *[]world.HexCoord `json:"path,omitempty"`
	Combat       *CombatIntent     `json:"combat,omitempty"`
	ClearCombat  bool              `json:"clear_combat,omitempty"`
	Supply       *SupplyState      `json:"supply,omitempty"`
	RegroupUntil *uint64           `json:"regroup_until,omitempty"`
}

// HexUpdate carries ownership, occupant and ZOC changes of a hex.
type HexUpdate struct {
	Owner     *PlayerID   `json:"owner,omitempty"`
	PlanetID  *PlanetID   `json:"planet_id,omitempty"`
	StationID *StationID  `json:"station_id,omitempty"`
	UnitID    *UnitID     `json:"unit_id,omitempty"`
	ZOC       *[]ZOCEntry `json:"zoc,omitempty"`
}

// PlanetUpdate carries ownership and supply changes of a planet.
type PlanetUpdate struct {
	Owner  *PlayerID     `json:"owner,omitempty"`
	Supply *SupplySource `json:"supply,omitempty"`
}

// StationUpdate carries ownership and supply changes of a station.
type StationUpdate struct {
	Owner    *PlayerID     `json:"owner,omitempty"`
	Supply   *SupplySource `json:"supply,omitempty"`
	Counters *SupplyState  `json:"counters,omitempty"`
}

// PlayerUpdate carries the new prestige/victory totals and the deltas that
// produced them.
type PlayerUpdate struct {
	Prestige      *int          `json:"prestige,omitempty"`
	Victory       *int          `json:"victory,omitempty"`
	Status        *PlayerStatus `json:"status,omitempty"`
	PrestigeDelta int           `json:"prestige_delta"`
	VictoryDelta  int           `json:"victory_delta"`
}

// GameUpdate carries clock and lifecycle changes.
type GameUpdate struct {
	Status       *GameStatus `json:"status,omitempty"`
	CurrentTick  *uint64     `json:"current_tick,omitempty"`
	CurrentCycle *uint64     `json:"current_cycle,omitempty"`
	LastTickAt   *time.Time  `json:"last_tick_at,omitempty"`
	EndedAt      *time.Time  `json:"ended_at,omitempty"`
	Winner       *PlayerID   `json:"winner,omitempty"`
}

// Diff describes the changes a computation wants applied to a snapshot.
type Diff struct {
	Units        map[UnitID]*UnitUpdate `json:"units,omitempty"`
	RemovedUnits []UnitID               `json:"removed_units,omitempty"`
	CreatedUnits []*Unit                `json:"created_units,omitempty"`

	Hexes   map[world.HexCoord]*HexUpdate `json:"hexes,omitempty"`
	Planets map[PlanetID]*PlanetUpdate    `json:"planets,omitempty"`

	Stations        map[StationID]*StationUpdate `json:"stations,omitempty"`
	RemovedStations []StationID                  `json:"removed_stations,omitempty"`
	CreatedStations []*Station                   `json:"created_stations,omitempty"`

	Players map[PlayerID]*PlayerUpdate `json:"players,omitempty"`
	Game    *GameUpdate                `json:"game,omitempty"`

	Reports []CombatReport `json:"reports,omitempty"`
}

// NewDiff returns an empty diff with initialised maps.
func NewDiff() *Diff {
	return &Diff{
		Units:    make(map[UnitID]*UnitUpdate),
		Hexes:    make(map[world.HexCoord]*HexUpdate),
		Planets:  make(map[PlanetID]*PlanetUpdate),
		Stations: make(map[StationID]*StationUpdate),
		Players:  make(map[PlayerID]*PlayerUpdate),
	}
}

// Empty reports whether the diff changes nothing.
func (d *Diff) Empty() bool {
	return len(d.Units) == 0 && len(d.RemovedUnits) == 0 && len(d.CreatedUnits) == 0 &&
		len(d.Hexes) == 0 && len(d.Planets) == 0 &&
		len(d.Stations) == 0 && len(d.RemovedStations) == 0 && len(d.CreatedStations) == 0 &&
		len(d.Players) == 0 && d.Game == nil && len(d.Reports) == 0
}

// ComputeDiff derives the diff that turns before into after.
func ComputeDiff(before, after *Snapshot) *Diff {
	d := NewDiff()

	for _, id := range after.UnitIDs() {
		a := after.Units[id]
		b, ok := before.Units[id]
		if !ok {
			d.CreatedUnits = append(d.CreatedUnits, a.Clone())
			continue
		}
		if up := diffUnit(b, a); up != nil {
			d.Units[id] = up
		}
	}
	for _, id := range before.UnitIDs() {
		if _, ok := after.Units[id]; !ok {
			d.RemovedUnits = append(d.RemovedUnits, id)
		}
	}

	for c, a := range after.Hexes {
		if b, ok := before.Hexes[c]; ok {
			if up := diffHex(b, a); up != nil {
				d.Hexes[c] = up
			}
		}
	}

	for id, a := range after.Planets {
		if b, ok := before.Planets[id]; ok {
			if up := diffPlanet(b, a); up != nil {
				d.Planets[id] = up
			}
		}
	}

	for _, id := range sortedStationIDs(after.Stations) {
		a := after.Stations[id]
		b, ok := before.Stations[id]
		if !ok {
			d.CreatedStations = append(d.CreatedStations, a.Clone())
			continue
		}
		if up := diffStation(b, a); up != nil {
			d.Stations[id] = up
		}
	}
	for _, id := range sortedStationIDs(before.Stations) {
		if _, ok := after.Stations[id]; !ok {
			d.RemovedStations = append(d.RemovedStations, id)
		}
	}

	for id, a := range after.Players {
		if b, ok := before.Players[id]; ok {
			if up := diffPlayer(b, a); up != nil {
				d.Players[id] = up
			}
		}
	}

	d.Game = diffGame(before.Game.State, after.Game.State)
	return d
}

func sortedStationIDs(m map[StationID]*Station) []StationID {
	ids := make([]StationID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func ptr[T any](v T) *T { return &v }

func diffUnit(b, a *Unit) *UnitUpdate {
	up := &UnitUpdate{}
	changed := false
	if a.Owner != b.Owner {
		up.Owner, changed = ptr(a.Owner), true
	}
	if a.Location != b.Location {
		up.Location, changed = ptr(a.Location), true
	}
	if !stepsEqual(a.Steps, b.Steps) {
		up.Steps, changed = append([]Step(nil), a.Steps...), true
	}
	if a.Status != b.Status {
		up.Status, changed = ptr(a.Status), true
	}
	if a.AP != b.AP {
		up.AP, changed = ptr(a.AP), true
	}
	if a.MP != b.MP {
		up.MP, changed = ptr(a.MP), true
	}
	if !coordsEqual(a.Path, b.Path) {
		p := append([]world.HexCoord{}, a.Path...)
		up.Path, changed = &p, true
	}
	if !combatEqual(a.Combat, b.Combat) {
		if a.Combat == nil {
			up.ClearCombat = true
		} else {
			ci := *a.Combat
			up.Combat = &ci
		}
		changed = true
	}
	if a.Supply != b.Supply {
		up.Supply, changed = ptr(a.Supply), true
	}
	if a.RegroupUntil != b.RegroupUntil {
		up.RegroupUntil, changed = ptr(a.RegroupUntil), true
	}
	if !changed {
		return nil
	}
	return up
}

func diffHex(b, a *Hex) *HexUpdate {
	up := &HexUpdate{}
	changed := false
	if a.Owner != b.Owner {
		up.Owner, changed = ptr(a.Owner), true
	}
	if a.PlanetID != b.PlanetID {
		up.PlanetID, changed = ptr(a.PlanetID), true
	}
	if a.StationID != b.StationID {
		up.StationID, changed = ptr(a.StationID), true
	}
	if a.UnitID != b.UnitID {
		up.UnitID, changed = ptr(a.UnitID), true
	}
	if !zocEqual(a.ZOC, b.ZOC) {
		z := append([]ZOCEntry{}, a.ZOC...)
		up.ZOC, changed = &z, true
	}
	if !changed {
		return nil
	}
	return up
}

func diffPlanet(b, a *Planet) *PlanetUpdate {
	up := &PlanetUpdate{}
	changed := false
	if a.Owner != b.Owner {
		up.Owner, changed = ptr(a.Owner), true
	}
	if a.Supply != b.Supply {
		up.Supply, changed = ptr(a.Supply), true
	}
	if !changed {
		return nil
	}
	return up
}

func diffStation(b, a *Station) *StationUpdate {
	up := &StationUpdate{}
	changed := false
	if a.Owner != b.Owner {
		up.Owner, changed = ptr(a.Owner), true
	}
	if a.Supply != b.Supply {
		up.Supply, changed = ptr(a.Supply), true
	}
	if a.Counters != b.Counters {
		up.Counters, changed = ptr(a.Counters), true
	}
	if !changed {
		return nil
	}
	return up
}

func diffPlayer(b, a *Player) *PlayerUpdate {
	if *a == *b {
		return nil
	}
	up := &PlayerUpdate{
		PrestigeDelta: a.Prestige - b.Prestige,
		VictoryDelta:  a.Victory - b.Victory,
	}
	if a.Prestige != b.Prestige {
		up.Prestige = ptr(a.Prestige)
	}
	if a.Victory != b.Victory {
		up.Victory = ptr(a.Victory)
	}
	if a.Status != b.Status {
		up.Status = ptr(a.Status)
	}
	return up
}

func diffGame(b, a State) *GameUpdate {
	up := &GameUpdate{}
	changed := false
	if a.Status != b.Status {
		up.Status, changed = ptr(a.Status), true
	}
	if a.CurrentTick != b.CurrentTick {
		up.CurrentTick, changed = ptr(a.CurrentTick), true
	}
	if a.CurrentCycle != b.CurrentCycle {
		up.CurrentCycle, changed = ptr(a.CurrentCycle), true
	}
	if !a.LastTickAt.Equal(b.LastTickAt) {
		up.LastTickAt, changed = ptr(a.LastTickAt), true
	}
	if !a.EndedAt.Equal(b.EndedAt) {
		up.EndedAt, changed = ptr(a.EndedAt), true
	}
	if a.Winner != b.Winner {
		up.Winner, changed = ptr(a.Winner), true
	}
	if !changed {
		return nil
	}
	return up
}

func stepsEqual(a, b []Step) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func coordsEqual(a, b []world.HexCoord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func zocEqual(a, b []ZOCEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func combatEqual(a, b *CombatIntent) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Apply returns a new snapshot with d applied. The receiver is not modified.
// Reports are audit records and do not change entity state.
func (s *Snapshot) Apply(d *Diff) *Snapshot {
	n := s.Clone()
	if d == nil {
		return n
	}

	for _, id := range d.RemovedUnits {
		delete(n.Units, id)
	}
	for _, u := range d.CreatedUnits {
		n.Units[u.ID] = u.Clone()
	}
	for id, up := range d.Units {
		u, ok := n.Units[id]
		if !ok {
			continue
		}
		applyUnit(u, up)
	}

	for c, up := range d.Hexes {
		h, ok := n.Hexes[c]
		if !ok {
			continue
		}
		if up.Owner != nil {
			h.Owner = *up.Owner
		}
		if up.PlanetID != nil {
			h.PlanetID = *up.PlanetID
		}
		if up.StationID != nil {
			h.StationID = *up.StationID
		}
		if up.UnitID != nil {
			h.UnitID = *up.UnitID
		}
		if up.ZOC != nil {
			h.ZOC = append([]ZOCEntry(nil), (*up.ZOC)...)
		}
	}

	for id, up := range d.Planets {
		p, ok := n.Planets[id]
		if !ok {
			continue
		}
		if up.Owner != nil {
			p.Owner = *up.Owner
		}
		if up.Supply != nil {
			p.Supply = *up.Supply
		}
	}

	for _, id := range d.RemovedStations {
		delete(n.Stations, id)
	}
	for _, st := range d.CreatedStations {
		n.Stations[st.ID] = st.Clone()
	}
	for id, up := range d.Stations {
		st, ok := n.Stations[id]
		if !ok {
			continue
		}
		if up.Owner != nil {
			st.Owner = *up.Owner
		}
		if up.Supply != nil {
			st.Supply = *up.Supply
		}
		if up.Counters != nil {
			st.Counters = *up.Counters
		}
	}

	for id, up := range d.Players {
		p, ok := n.Players[id]
		if !ok {
			continue
		}
		if up.Prestige != nil {
			p.Prestige = *up.Prestige
		}
		if up.Victory != nil {
			p.Victory = *up.Victory
		}
		if up.Status != nil {
			p.Status = *up.Status
		}
	}

	if g := d.Game; g != nil {
		st := &n.Game.State
		if g.Status != nil {
			st.Status = *g.Status
		}
		if g.CurrentTick != nil {
			st.CurrentTick = *g.CurrentTick
		}
		if g.CurrentCycle != nil {
			st.CurrentCycle = *g.CurrentCycle
		}
		if g.LastTickAt != nil {
			st.LastTickAt = *g.LastTickAt
		}
		if g.EndedAt != nil {
			st.EndedAt = *g.EndedAt
		}
		if g.Winner != nil {
			st.Winner = *g.Winner
		}
	}
	return n
}

func applyUnit(u *Unit, up *UnitUpdate) {
	if up.Owner != nil {
		u.Owner = *up.Owner
	}
	if up.Location != nil {
		u.Location = *up.Location
	}
	if up.Steps != nil {
		u.Steps = append([]Step(nil), up.Steps...)
	}
	if up.Status != nil {
		u.Status = *up.Status
	}
	if up.AP != nil {
		u.AP = *up.AP
	}
	if up.MP != nil {
		u.MP = *up.MP
	}
	if up.Path != nil {
		u.Path = append([]world.HexCoord(nil), (*up.Path)...)
	}
	if up.ClearCombat {
		u.Combat = nil
	}
	if up.Combat != nil {
		ci := *up.Combat
		u.Combat = &ci
	}
	if up.Supply != nil {
		u.Supply = *up.Supply
	}
	if up.RegroupUntil != nil {
		u.RegroupUntil = *up.RegroupUntil
	}
}
