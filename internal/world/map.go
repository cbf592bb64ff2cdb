package world

import "fmt"

// Map holds a generated terrain layout. It is the seed material a match's
// hexes are created from; ownership and occupants live on game.Hex.
type Map struct {
	Terrain map[HexCoord]Terrain `json:"-"`
	Radius  int                  `json:"radius"`
}

// NewMap creates an empty map with the given radius.
// A hex grid of radius R contains hexes where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	return &Map{
		Terrain: make(map[HexCoord]Terrain),
		Radius:  radius,
	}
}

// Get returns the terrain at the given coordinate and whether it exists.
func (m *Map) Get(coord HexCoord) (Terrain, bool) {
	t, ok := m.Terrain[coord]
	return t, ok
}

// Set places terrain at the given coordinate.
func (m *Map) Set(coord HexCoord, t Terrain) {
	m.Terrain[coord] = t
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return Distance(coord, HexCoord{}) <= m.Radius
}

// HexCount returns the total number of hexes in the map.
func (m *Map) HexCount() int {
	return len(m.Terrain)
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, hexes=%d)", m.Radius, m.HexCount())
}
