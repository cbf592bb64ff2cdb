package world

import "fmt"

// Terrain types for hex tiles.
type Terrain uint8

const (
	TerrainSpace       Terrain = iota // Open space, baseline cost
	TerrainNebula                     // Sensor clutter, slows movement, cover
	TerrainAsteroids                  // Dense fields, slows movement, cover
	TerrainGravityWell                // Deep well around stellar bodies
	TerrainVoid                       // Impassable
)

// Impassable is the movement cost reported for terrain that cannot be entered.
const Impassable = -1

var terrainNames = [...]string{
	TerrainSpace:       "space",
	TerrainNebula:      "nebula",
	TerrainAsteroids:   "asteroids",
	TerrainGravityWell: "gravity_well",
	TerrainVoid:        "void",
}

// MoveCost returns the movement points needed to enter a hex of this terrain,
// or Impassable.
func (t Terrain) MoveCost() int {
	switch t {
	case TerrainSpace:
		return 1
	case TerrainNebula, TerrainAsteroids:
		return 2
	case TerrainGravityWell:
		return 3
	default:
		return Impassable
	}
}

// Passable reports whether units may enter the terrain at all.
func (t Terrain) Passable() bool {
	return t.MoveCost() != Impassable
}

// DefenseBonus is added to a defender's strength in combat.
func (t Terrain) DefenseBonus() int {
	switch t {
	case TerrainNebula, TerrainAsteroids:
		return 1
	default:
		return 0
	}
}

// String implements fmt.Stringer.
func (t Terrain) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return fmt.Sprintf("terrain(%d)", uint8(t))
}

// MarshalText encodes the terrain name.
func (t Terrain) MarshalText() ([]byte, error) {
	if int(t) >= len(terrainNames) {
		return nil, fmt.Errorf("unknown terrain %d", uint8(t))
	}
	return []byte(terrainNames[t]), nil
}

// UnmarshalText decodes a terrain name.
func (t *Terrain) UnmarshalText(b []byte) error {
	parsed, err := ParseTerrain(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTerrain returns the terrain for a name produced by String.
func ParseTerrain(name string) (Terrain, error) {
	for i, n := range terrainNames {
		if n == name {
			return Terrain(i), nil
		}
	}
	return 0, fmt.Errorf("unknown terrain %q", name)
}
