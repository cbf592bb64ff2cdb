package movement

import (
	"container/heap"

	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/world"
)

type pathNode struct {
	coord  world.HexCoord
	g      int
	f      int
	seq    int
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

// Less orders by estimated total cost, then insertion order so equal-cost
// routes resolve the same way every run.
func (pq pathQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// FindPath returns the cheapest legal route from one hex to another,
// excluding the origin, and its terrain cost. Occupied hexes are avoided and
// hexes where enemy ZOC would stop movement are only used as the goal.
// Terrain costs are at least 1, so hex distance is an admissible heuristic.
func FindPath(from, to world.HexCoord, player game.PlayerID, l Lookup) ([]world.HexCoord, int, bool) {
	if from == to || l.Hex(to) == nil {
		return nil, 0, false
	}

	open := &pathQueue{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &pathNode{coord: from, f: world.Distance(from, to)})
	gScore := map[world.HexCoord]int{from: 0}
	closed := make(map[world.HexCoord]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if _, seen := closed[current.coord]; seen {
			continue
		}
		closed[current.coord] = struct{}{}
		if current.coord == to {
			return reconstructPath(current), current.g, true
		}
		if current.parent != nil && StopsMovement(l.Hex(current.coord), player) {
			continue
		}

		for _, next := range current.coord.Neighbors() {
			if _, seen := closed[next]; seen {
				continue
			}
			h := l.Hex(next)
			if h == nil || !h.Terrain.Passable() {
				continue
			}
			if _, occupied := l.OccupantOwner(next); occupied {
				continue
			}
			tentative := current.g + h.Terrain.MoveCost()
			if prev, ok := gScore[next]; ok && tentative >= prev {
				continue
			}
			gScore[next] = tentative
			seq++
			heap.Push(open, &pathNode{
				coord:  next,
				g:      tentative,
				f:      tentative + world.Distance(next, to),
				seq:    seq,
				parent: current,
			})
		}
	}
	return nil, 0, false
}

func reconstructPath(end *pathNode) []world.HexCoord {
	var path []world.HexCoord
	for node := end; node.parent != nil; node = node.parent {
		path = append(path, node.coord)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}
