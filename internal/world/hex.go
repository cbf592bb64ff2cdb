// Package world provides hex-grid geometry and terrain.
// Uses cube coordinates (q, r, s) with the invariant q + r + s == 0.
package world

import (
	"fmt"
	"strconv"
	"strings"
)

// HexCoord represents a position on the hex grid using cube coordinates.
// Identity is the triple; values are compared, never mutated.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
	S int `json:"s"`
}

// Coord builds a cube coordinate from axial (q, r), deriving s.
func Coord(q, r int) HexCoord {
	return HexCoord{Q: q, R: r, S: -q - r}
}

// MustCoord builds a cube coordinate from an explicit triple.
// Panics when q + r + s != 0; a malformed triple is a programming error.
func MustCoord(q, r, s int) HexCoord {
	h := HexCoord{Q: q, R: r, S: s}
	if !h.Valid() {
		panic(fmt.Sprintf("world: malformed cube coordinate (%d,%d,%d)", q, r, s))
	}
	return h
}

// Valid reports whether the cube invariant holds.
func (h HexCoord) Valid() bool {
	return h.Q+h.R+h.S == 0
}

// Add returns h offset by d.
func (h HexCoord) Add(d HexCoord) HexCoord {
	return HexCoord{Q: h.Q + d.Q, R: h.R + d.R, S: h.S + d.S}
}

// Scale returns h multiplied by k.
func (h HexCoord) Scale(k int) HexCoord {
	return HexCoord{Q: h.Q * k, R: h.R * k, S: h.S * k}
}

// Key returns the canonical "q,r,s" form, usable as a map or column key.
func (h HexCoord) Key() string {
	return strconv.Itoa(h.Q) + "," + strconv.Itoa(h.R) + "," + strconv.Itoa(h.S)
}

// String implements fmt.Stringer.
func (h HexCoord) String() string {
	return "(" + h.Key() + ")"
}

// MarshalText lets HexCoord key JSON objects.
func (h HexCoord) MarshalText() ([]byte, error) {
	return []byte(h.Key()), nil
}

// UnmarshalText parses the "q,r,s" form produced by Key.
func (h *HexCoord) UnmarshalText(b []byte) error {
	c, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*h = c
	return nil
}

// ParseKey parses a "q,r,s" key. The cube invariant is checked.
func ParseKey(key string) (HexCoord, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 3 {
		return HexCoord{}, fmt.Errorf("hex key %q: want 3 components", key)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return HexCoord{}, fmt.Errorf("hex key %q: %w", key, err)
		}
		v[i] = n
	}
	h := HexCoord{Q: v[0], R: v[1], S: v[2]}
	if !h.Valid() {
		return HexCoord{}, fmt.Errorf("hex key %q: q+r+s != 0", key)
	}
	return h, nil
}

// HexNeighborDirections defines the six neighbor offsets in cube coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0, S: -1},
	{Q: 1, R: -1, S: 0},
	{Q: 0, R: -1, S: 1},
	{Q: -1, R: 0, S: 1},
	{Q: -1, R: 1, S: 0},
	{Q: 0, R: 1, S: -1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = h.Add(dir)
	}
	return result
}

// Neighbors is the free-function form of HexCoord.Neighbors.
func Neighbors(h HexCoord) [6]HexCoord {
	return h.Neighbors()
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	return (abs(a.Q-b.Q) + abs(a.R-b.R) + abs(a.S-b.S)) / 2
}

// IsNeighbor reports whether a and b are adjacent.
func IsNeighbor(a, b HexCoord) bool {
	return Distance(a, b) == 1
}

// Ring returns the hexes at exactly radius from center, in a stable order.
// Radius 0 yields the center alone.
func Ring(center HexCoord, radius int) []HexCoord {
	if radius <= 0 {
		return []HexCoord{center}
	}
	results := make([]HexCoord, 0, 6*radius)
	h := center.Add(HexNeighborDirections[4].Scale(radius))
	for side := 0; side < 6; side++ {
		for step := 0; step < radius; step++ {
			results = append(results, h)
			h = h.Add(HexNeighborDirections[side])
		}
	}
	return results
}

// Spiral returns every hex within radius of center, center first,
// then ring by ring.
func Spiral(center HexCoord, radius int) []HexCoord {
	results := []HexCoord{center}
	for k := 1; k <= radius; k++ {
		results = append(results, Ring(center, k)...)
	}
	return results
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
