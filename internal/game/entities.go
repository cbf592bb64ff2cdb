// Package game defines the match entity model: hexes, units, planets,
// stations, players and the game clock, plus snapshots of one match and the
// diffs the engine produces against them.
package game

import (
	"time"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/world"
)

// ZOCEntry records one unit's zone of control over a hex.
type ZOCEntry struct {
	Player PlayerID `json:"player"`
	Unit   UnitID   `json:"unit"`
}

// Hex is one tile of a match. Created at world generation, never destroyed.
type Hex struct {
	Coord   world.HexCoord `json:"coord"`
	Owner   PlayerID       `json:"owner,omitempty"`
	Terrain world.Terrain  `json:"terrain"`

	// Occupants; at most one of each.
	PlanetID  PlanetID  `json:"planet_id,omitempty"`
	StationID StationID `json:"station_id,omitempty"`
	UnitID    UnitID    `json:"unit_id,omitempty"`

	// Kept sorted by (player, unit); see zoc package.
	ZOC []ZOCEntry `json:"zoc,omitempty"`
}

// Clone returns a deep copy.
func (h *Hex) Clone() *Hex {
	c := *h
	c.ZOC = append([]ZOCEntry(nil), h.ZOC...)
	return &c
}

// Step is a discrete strength point of a unit.
type Step struct {
	Suppressed bool       `json:"suppressed,omitempty"`
	Specialist Specialist `json:"specialist,omitempty"`
}

// CombatIntent is a declared attack awaiting resolution.
type CombatIntent struct {
	Target           world.HexCoord `json:"target"`
	Operation        Operation      `json:"operation"`
	AdvanceOnVictory bool           `json:"advance_on_victory"`
	ResolveAt        uint64         `json:"resolve_at"` // first tick at which the attack is due
}

// SupplyState counts consecutive supply evaluations (one per cycle).
type SupplyState struct {
	InSupply         bool `json:"in_supply"`
	TicksInSupply    int  `json:"ticks_in_supply"`
	TicksOutOfSupply int  `json:"ticks_out_of_supply"`
}

// Unit is a military formation made of steps.
type Unit struct {
	ID       UnitID         `json:"id"`
	Owner    PlayerID       `json:"owner"`
	Type     catalog.TypeID `json:"type"`
	Location world.HexCoord `json:"location"`
	Steps    []Step         `json:"steps"`
	Status   UnitStatus     `json:"status"`
	AP       int            `json:"ap"`
	MP       int            `json:"mp"`

	Path   []world.HexCoord `json:"path,omitempty"`
	Combat *CombatIntent    `json:"combat,omitempty"`
	Supply SupplyState      `json:"supply"`

	// Tick at which a REGROUPING unit returns to IDLE.
	RegroupUntil uint64 `json:"regroup_until,omitempty"`
}

// Clone returns a deep copy.
func (u *Unit) Clone() *Unit {
	c := *u
	c.Steps = append([]Step(nil), u.Steps...)
	if u.Path != nil {
		c.Path = append([]world.HexCoord{}, u.Path...)
	}
	if u.Combat != nil {
		ci := *u.Combat
		c.Combat = &ci
	}
	return &c
}

// ActiveSteps counts non-suppressed steps.
func (u *Unit) ActiveSteps() int {
	n := 0
	for _, s := range u.Steps {
		if !s.Suppressed {
			n++
		}
	}
	return n
}

// ActiveSpecialists counts non-suppressed steps carrying the given tag.
func (u *Unit) ActiveSpecialists(kind Specialist) int {
	n := 0
	for _, s := range u.Steps {
		if !s.Suppressed && s.Specialist == kind {
			n++
		}
	}
	return n
}

// SupplySource describes a planet or station's role in the supply network.
type SupplySource struct {
	InSupply bool `json:"in_supply"`
	IsRoot   bool `json:"is_root"`
}

// Planet is a fixed map feature that can be owned and captured.
type Planet struct {
	ID       PlanetID       `json:"id"`
	Name     string         `json:"name"`
	Owner    PlayerID       `json:"owner,omitempty"`
	Location world.HexCoord `json:"location"`
	Capital  bool           `json:"capital"`
	Supply   SupplySource   `json:"supply"`
}

// Clone returns a copy.
func (p *Planet) Clone() *Planet {
	c := *p
	return &c
}

// Station is a player-built supply extender. Never a root.
type Station struct {
	ID       StationID      `json:"id"`
	Owner    PlayerID       `json:"owner"`
	Location world.HexCoord `json:"location"`
	Supply   SupplySource   `json:"supply"`
	Counters SupplyState    `json:"counters"`
}

// Clone returns a copy.
func (s *Station) Clone() *Station {
	c := *s
	return &c
}

// Player is a participant in a match.
type Player struct {
	ID       PlayerID     `json:"id"`
	Name     string       `json:"name"`
	Prestige int          `json:"prestige"`
	Victory  int          `json:"victory"`
	Status   PlayerStatus `json:"status"`
}

// Clone returns a copy.
func (p *Player) Clone() *Player {
	c := *p
	return &c
}

// Settings are fixed when a match is created.
type Settings struct {
	PlayerCount      int           `json:"player_count"`
	TicksPerCycle    uint64        `json:"ticks_per_cycle"`
	TickDuration     time.Duration `json:"tick_duration"`
	VictoryThreshold int           `json:"victory_threshold"`
	Rules            Rules         `json:"rules"`
}

// State is the authoritative clock and lifecycle of a match.
type State struct {
	Status       GameStatus `json:"status"`
	CurrentTick  uint64     `json:"current_tick"`
	CurrentCycle uint64     `json:"current_cycle"`
	StartDate    time.Time  `json:"start_date"`
	LastTickAt   time.Time  `json:"last_tick_at"`
	EndedAt      time.Time  `json:"ended_at"`
	Winner       PlayerID   `json:"winner,omitempty"`
}

// Game is the match record.
type Game struct {
	ID       GameID   `json:"id"`
	Name     string   `json:"name"`
	Settings Settings `json:"settings"`
	State    State    `json:"state"`
}
