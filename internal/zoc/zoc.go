// Package zoc maintains the zone-of-control index stored on hexes: for each
// hex, the (player, unit) pairs projected by ZOC-capable units on that hex
// or one of its six neighbours.
package zoc

import (
	"fmt"
	"sort"

	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/world"
)

// area returns the hex itself followed by its six neighbours.
func area(c world.HexCoord) [7]world.HexCoord {
	var out [7]world.HexCoord
	out[0] = c
	for i, n := range c.Neighbors() {
		out[i+1] = n
	}
	return out
}

// Project adds the unit's entry to its hex and the six neighbours. Units
// whose type does not project ZOC are ignored. Idempotent.
func Project(s *game.Snapshot, u *game.Unit) {
	if !s.UnitType(u).ProjectsZOC {
		return
	}
	entry := game.ZOCEntry{Player: u.Owner, Unit: u.ID}
	for _, c := range area(u.Location) {
		h, ok := s.Hexes[c]
		if !ok || contains(h.ZOC, entry) {
			continue
		}
		h.ZOC = append(h.ZOC, entry)
		sortEntries(h.ZOC)
	}
}

// Withdraw removes every entry referencing the unit from the seven hexes
// around its current location.
func Withdraw(s *game.Snapshot, u *game.Unit) {
	for _, c := range area(u.Location) {
		if h, ok := s.Hexes[c]; ok {
			h.ZOC = filter(h.ZOC, func(e game.ZOCEntry) bool { return e.Unit != u.ID })
		}
	}
}

// RemovePlayer drops every entry belonging to a player.
func RemovePlayer(s *game.Snapshot, player game.PlayerID) {
	for _, h := range s.Hexes {
		h.ZOC = filter(h.ZOC, func(e game.ZOCEntry) bool { return e.Player != player })
	}
}

// Rebuild recomputes the whole index from unit positions.
func Rebuild(s *game.Snapshot) {
	for _, h := range s.Hexes {
		h.ZOC = nil
	}
	for _, id := range s.UnitIDs() {
		Project(s, s.Units[id])
	}
}

// EnemyZOC reports whether any unit not owned by player projects into h.
func EnemyZOC(h *game.Hex, player game.PlayerID) bool {
	for _, e := range h.ZOC {
		if e.Player != player {
			return true
		}
	}
	return false
}

// Controllers returns the distinct players projecting into h, sorted.
func Controllers(h *game.Hex) []game.PlayerID {
	var out []game.PlayerID
	for _, e := range h.ZOC {
		if len(out) == 0 || out[len(out)-1] != e.Player {
			out = append(out, e.Player)
		}
	}
	return out
}

func contains(entries []game.ZOCEntry, e game.ZOCEntry) bool {
	for _, x := range entries {
		if x == e {
			return true
		}
	}
	return false
}

func filter(entries []game.ZOCEntry, keep func(game.ZOCEntry) bool) []game.ZOCEntry {
	if len(entries) == 0 {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sortEntries(entries []game.ZOCEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Player != entries[j].Player {
			return entries[i].Player < entries[j].Player
		}
		return entries[i].Unit < entries[j].Unit
	})
}

// Verify checks that the stored index equals the one implied by unit
// positions. Stale or missing entries wrap game.ErrInvariant.
func Verify(s *game.Snapshot) error {
	want := s.Clone()
	Rebuild(want)
	for _, c := range s.SortedCoords() {
		got := s.Hexes[c].ZOC
		exp := want.Hexes[c].ZOC
		if len(got) != len(exp) {
			return fmt.Errorf("%w: hex %v has %d ZOC entries, want %d", game.ErrInvariant, c, len(got), len(exp))
		}
		for i := range got {
			if got[i] != exp[i] {
				return fmt.Errorf("%w: hex %v ZOC entry %v, want %v", game.ErrInvariant, c, got[i], exp[i])
			}
		}
	}
	return nil
}
