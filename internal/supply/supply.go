// Package supply computes each player's supply network and marks units,
// stations and planets in or out of supply.
//
// A network grows from the player's roots (capitals and other root planets)
// through hexes the player owns. With an unlimited range it is the whole
// contiguous owned territory; with a range of N it reaches N hops from a
// root, and every owned station reached restarts the count.
package supply

import (
	"sort"

	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/world"
)

// Policy configures propagation. MaxRange 0 means unlimited.
type Policy struct {
	MaxRange int
}

// PolicyFrom derives the policy from match rules.
func PolicyFrom(r game.Rules) Policy {
	return Policy{MaxRange: r.SupplyRange}
}

// Network is the set of hexes one player can supply.
type Network map[world.HexCoord]struct{}

// Contains reports whether c is supplied.
func (n Network) Contains(c world.HexCoord) bool {
	_, ok := n[c]
	return ok
}

// Networks holds one network per player.
type Networks map[game.PlayerID]Network

// Supplied reports whether a player supplies c.
func (n Networks) Supplied(p game.PlayerID, c world.HexCoord) bool {
	if p == "" {
		return false
	}
	return n[p].Contains(c)
}

// Compute builds the network of every player in the snapshot.
func Compute(s *game.Snapshot, p Policy) Networks {
	nets := make(Networks, len(s.Players))
	for _, pid := range s.PlayerIDs() {
		nets[pid] = compute(s, pid, p)
	}
	return nets
}

func compute(s *game.Snapshot, player game.PlayerID, p Policy) Network {
	var roots []world.HexCoord
	for _, pl := range s.Planets {
		if pl.Owner == player && (pl.Supply.IsRoot || pl.Capital) {
			roots = append(roots, pl.Location)
		}
	}
	game.SortCoords(roots)

	// remaining holds the best hop budget seen per hex; budgets only grow,
	// so the relaxation settles on the same fixpoint in any visiting order.
	full := p.MaxRange
	remaining := make(map[world.HexCoord]int, len(roots))
	queue := make([]world.HexCoord, 0, len(roots))
	for _, r := range roots {
		remaining[r] = full
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		budget := remaining[cur]
		if p.MaxRange > 0 && budget == 0 {
			continue
		}
		for _, next := range cur.Neighbors() {
			h, ok := s.Hexes[next]
			if !ok || h.Owner != player {
				continue
			}
			nb := budget - 1
			if p.MaxRange == 0 {
				nb = 0
			} else if st := s.StationAt(next); st != nil && st.Owner == player {
				nb = full
			}
			if prev, seen := remaining[next]; seen && prev >= nb {
				continue
			}
			remaining[next] = nb
			queue = append(queue, next)
		}
	}

	net := make(Network, len(remaining))
	for c := range remaining {
		net[c] = struct{}{}
	}
	return net
}

// Apply marks every unit, station and planet in or out of supply and
// advances the consecutive-evaluation counters. Roots stay in supply.
func Apply(s *game.Snapshot, nets Networks) {
	for _, pl := range s.Planets {
		if pl.Supply.IsRoot {
			pl.Supply.InSupply = true
			continue
		}
		pl.Supply.InSupply = nets.Supplied(pl.Owner, pl.Location)
	}
	for _, st := range s.Stations {
		in := nets.Supplied(st.Owner, st.Location)
		st.Supply.InSupply = in
		advance(&st.Counters, in)
	}
	for _, u := range s.Units {
		advance(&u.Supply, nets.Supplied(u.Owner, u.Location))
	}
}

func advance(c *game.SupplyState, in bool) {
	c.InSupply = in
	if in {
		c.TicksInSupply++
		c.TicksOutOfSupply = 0
	} else {
		c.TicksOutOfSupply++
		c.TicksInSupply = 0
	}
}

// AttritionCandidates returns units and stations whose out-of-supply count
// has reached threshold, sorted by id. A threshold below 1 disables
// attrition.
func AttritionCandidates(s *game.Snapshot, threshold int) ([]game.UnitID, []game.StationID) {
	if threshold < 1 {
		return nil, nil
	}
	var units []game.UnitID
	for _, id := range s.UnitIDs() {
		if s.Units[id].Supply.TicksOutOfSupply >= threshold {
			units = append(units, id)
		}
	}
	var stations []game.StationID
	for id, st := range s.Stations {
		if st.Counters.TicksOutOfSupply >= threshold {
			stations = append(stations, id)
		}
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i] < stations[j] })
	return units, stations
}
