package game

import "github.com/talgya/hexfront/internal/world"

// CombatReport is the audit record of one resolved engagement.
type CombatReport struct {
	ID     string `json:"id"`
	GameID GameID `json:"game_id"`
	Tick   uint64 `json:"tick"`

	Attacker      UnitID         `json:"attacker"`
	AttackerOwner PlayerID       `json:"attacker_owner"`
	Defender      UnitID         `json:"defender,omitempty"`
	DefenderOwner PlayerID       `json:"defender_owner,omitempty"`
	Target        world.HexCoord `json:"target"`
	Operation     Operation      `json:"operation"`

	AttackStrength  int `json:"attack_strength"`
	DefenseStrength int `json:"defense_strength"`

	AttackerLosses     int `json:"attacker_losses"`
	DefenderLosses     int `json:"defender_losses"`
	AttackerSuppressed int `json:"attacker_suppressed"`
	DefenderSuppressed int `json:"defender_suppressed"`

	AttackerDestroyed bool `json:"attacker_destroyed"`
	DefenderDestroyed bool `json:"defender_destroyed"`

	Captured        bool      `json:"captured"`
	CapturedPlanet  PlanetID  `json:"captured_planet,omitempty"`
	CapturedStation StationID `json:"captured_station,omitempty"`

	Outcome Outcome `json:"outcome"`
}
