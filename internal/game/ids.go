package game

import "github.com/google/uuid"

// GameID identifies a match.
type GameID string

// PlayerID identifies a player within a match. The empty value means
// "no player" wherever ownership is nullable.
type PlayerID string

// UnitID identifies a unit. Empty means no unit.
type UnitID string

// PlanetID identifies a planet. Empty means no planet.
type PlanetID string

// StationID identifies a station. Empty means no station.
type StationID string

// NewID returns a fresh random identifier for any entity kind.
func NewID() string {
	return uuid.NewString()
}
