// Package movement validates declared paths and evaluates single steps of
// path execution against terrain, movement points, occupancy and zones of
// control.
package movement

import (
	"errors"
	"fmt"

	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/world"
	"github.com/talgya/hexfront/internal/zoc"
)

// Lookup resolves hex state by coordinate. *game.Snapshot implements it.
type Lookup interface {
	Hex(c world.HexCoord) *game.Hex
	OccupantOwner(c world.HexCoord) (game.PlayerID, bool)
}

// Reason classifies why a path was rejected.
type Reason uint8

const (
	ReasonEmptyPath Reason = iota
	ReasonDiscontinuous
	ReasonUnknownHex
	ReasonImpassable
	ReasonInsufficientMP
	ReasonEnemyOccupied
)

var reasonNames = [...]string{
	ReasonEmptyPath:      "empty path",
	ReasonDiscontinuous:  "path discontinuous",
	ReasonUnknownHex:     "hex not on map",
	ReasonImpassable:     "invalid terrain",
	ReasonInsufficientMP: "insufficient MP",
	ReasonEnemyOccupied:  "blocked by enemy occupant",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

// Sentinels for errors.Is matching against a *Rejection.
var (
	ErrEmptyPath      = errors.New(ReasonEmptyPath.String())
	ErrDiscontinuous  = errors.New(ReasonDiscontinuous.String())
	ErrUnknownHex     = errors.New(ReasonUnknownHex.String())
	ErrImpassable     = errors.New(ReasonImpassable.String())
	ErrInsufficientMP = errors.New(ReasonInsufficientMP.String())
	ErrEnemyOccupied  = errors.New(ReasonEnemyOccupied.String())
)

var reasonErrors = [...]error{
	ReasonEmptyPath:      ErrEmptyPath,
	ReasonDiscontinuous:  ErrDiscontinuous,
	ReasonUnknownHex:     ErrUnknownHex,
	ReasonImpassable:     ErrImpassable,
	ReasonInsufficientMP: ErrInsufficientMP,
	ReasonEnemyOccupied:  ErrEnemyOccupied,
}

// Rejection is returned when a path cannot be accepted.
type Rejection struct {
	Reason Reason
	Index  int            // position in the declared path, -1 when not tied to a step
	At     world.HexCoord // offending hex
}

func (r *Rejection) Error() string {
	if r.Index < 0 {
		return "path rejected: " + r.Reason.String()
	}
	return fmt.Sprintf("path rejected at step %d %v: %s", r.Index, r.At, r.Reason)
}

// Is matches the sentinel for the rejection's reason.
func (r *Rejection) Is(target error) bool {
	return int(r.Reason) < len(reasonErrors) && reasonErrors[r.Reason] == target
}

// Request is a declared path to validate.
type Request struct {
	Origin world.HexCoord
	Path   []world.HexCoord // destinations in order, origin excluded
	MP     int              // movement budget
	Player game.PlayerID
}

// Result is an accepted path.
type Result struct {
	Path      []world.HexCoord
	Cost      int
	Truncated bool // cut short at an enemy zone of control
}

// Validate checks a declared path in order: adjacency, terrain, cumulative
// cost against the budget, enemy occupants, and zones of control. Entering a
// hex under enemy ZOC that the player does not own ends the path there.
// Hexes held by friendly units are accepted; execution re-checks occupancy.
func Validate(req Request, l Lookup) (Result, error) {
	if len(req.Path) == 0 {
		return Result{}, &Rejection{Reason: ReasonEmptyPath, Index: -1}
	}

	res := Result{Path: make([]world.HexCoord, 0, len(req.Path))}
	prev := req.Origin
	for i, c := range req.Path {
		if !world.IsNeighbor(prev, c) {
			return Result{}, &Rejection{Reason: ReasonDiscontinuous, Index: i, At: c}
		}
		h := l.Hex(c)
		if h == nil {
			return Result{}, &Rejection{Reason: ReasonUnknownHex, Index: i, At: c}
		}
		if !h.Terrain.Passable() {
			return Result{}, &Rejection{Reason: ReasonImpassable, Index: i, At: c}
		}
		res.Cost += h.Terrain.MoveCost()
		if res.Cost > req.MP {
			return Result{}, &Rejection{Reason: ReasonInsufficientMP, Index: i, At: c}
		}
		if owner, ok := l.OccupantOwner(c); ok && owner != req.Player {
			return Result{}, &Rejection{Reason: ReasonEnemyOccupied, Index: i, At: c}
		}
		res.Path = append(res.Path, c)
		if StopsMovement(h, req.Player) {
			res.Truncated = i < len(req.Path)-1
			break
		}
		prev = c
	}
	return res, nil
}

// StopsMovement reports whether entering h ends the mover's path: the hex is
// under enemy zone of control and not owned by the mover.
func StopsMovement(h *game.Hex, player game.PlayerID) bool {
	return h.Owner != player && zoc.EnemyZOC(h, player)
}

// StepOutcome is the result of trying to advance one hex during a tick.
type StepOutcome uint8

const (
	StepEnter        StepOutcome = iota // enter and continue
	StepEnterAndStop                    // enter; zone of control ends the path
	StepWait                            // not enough MP left this tick
	StepBlocked                         // hex occupied
	StepInvalid                         // not adjacent, off-map or impassable
)

var stepNames = [...]string{"enter", "enter_and_stop", "wait", "blocked", "invalid"}

func (o StepOutcome) String() string {
	if int(o) < len(stepNames) {
		return stepNames[o]
	}
	return fmt.Sprintf("step(%d)", uint8(o))
}

// Step evaluates moving from one hex to an adjacent one against current
// state. cost is the MP the step consumes when the outcome enters.
func Step(from, to world.HexCoord, mpLeft int, player game.PlayerID, l Lookup) (outcome StepOutcome, cost int) {
	if !world.IsNeighbor(from, to) {
		return StepInvalid, 0
	}
	h := l.Hex(to)
	if h == nil || !h.Terrain.Passable() {
		return StepInvalid, 0
	}
	if _, occupied := l.OccupantOwner(to); occupied {
		return StepBlocked, 0
	}
	cost = h.Terrain.MoveCost()
	if cost > mpLeft {
		return StepWait, 0
	}
	if StopsMovement(h, player) {
		return StepEnterAndStop, cost
	}
	return StepEnter, cost
}
