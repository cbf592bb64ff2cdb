package orders

import (
	"errors"

	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/movement"
	"github.com/talgya/hexfront/internal/world"
)

// DeclareMove stores a validated path on an IDLE unit and sets it MOVING.
// The budget covers the unit's remaining MP plus one full refill, so a path
// may run into the next cycle. A path cut by enemy ZOC is stored truncated.
func DeclareMove(s *game.Snapshot, player game.PlayerID, id game.UnitID, path []world.HexCoord) (*game.Diff, error) {
	if err := requireActive(s); err != nil {
		return nil, err
	}
	u, err := ownedUnit(s, player, id)
	if err != nil {
		return nil, err
	}
	if err := acceptsOrders(u); err != nil {
		return nil, err
	}

	res, err := movement.Validate(movement.Request{
		Origin: u.Location,
		Path:   path,
		MP:     u.MP + s.UnitType(u).MaxMP,
		Player: player,
	}, s)
	if err != nil {
		reason := ReasonInvalidPath
		switch {
		case errors.Is(err, movement.ErrInsufficientMP):
			reason = ReasonInsufficientMP
		case errors.Is(err, movement.ErrEnemyOccupied):
			reason = ReasonOccupied
		}
		return nil, &RejectError{Reason: reason, Err: err}
	}

	after := s.Clone()
	w := after.Units[id]
	w.Path = res.Path
	w.Status = game.StatusMoving
	return game.ComputeDiff(s, after), nil
}

// Attack is a combat declaration.
type Attack struct {
	Target           world.HexCoord
	Operation        game.Operation
	AdvanceOnVictory bool
}

// DeclareAttack validates an attack on an adjacent hex, spends its AP and
// sets the unit PREPARING until the resolving tick. An empty hex can only
// be taken by a STANDARD attack that advances.
func DeclareAttack(s *game.Snapshot, player game.PlayerID, id game.UnitID, a Attack) (*game.Diff, error) {
	if err := requireActive(s); err != nil {
		return nil, err
	}
	u, err := ownedUnit(s, player, id)
	if err != nil {
		return nil, err
	}
	if err := acceptsOrders(u); err != nil {
		return nil, err
	}
	if !world.IsNeighbor(u.Location, a.Target) {
		return nil, reject(ReasonNotAdjacent, "%v is not adjacent to %v", a.Target, u.Location)
	}
	h := s.Hex(a.Target)
	if h == nil {
		return nil, reject(ReasonUnknownEntity, "hex %v", a.Target)
	}

	defender := s.UnitAt(a.Target)
	switch {
	case defender != nil && defender.Owner == player:
		return nil, reject(ReasonFriendlyTarget, "unit %s", defender.ID)
	case defender == nil && (a.Operation != game.OpStandard || !a.AdvanceOnVictory || h.Owner == player):
		return nil, reject(ReasonNoTarget, "no enemy unit at %v", a.Target)
	}

	typ := s.UnitType(u)
	if u.AP < typ.AttackAPCost {
		return nil, reject(ReasonInsufficientAP, "have %d, need %d", u.AP, typ.AttackAPCost)
	}
	if u.ActiveSteps() == 0 {
		return nil, reject(ReasonNoActiveStep, "unit %s", id)
	}
	if a.Operation == game.OpSuppressiveFire && u.ActiveSpecialists(game.SpecialistArtillery) == 0 {
		return nil, reject(ReasonMissingSpecialist, "suppressive fire needs active artillery")
	}
	// Two units may not be preparing attacks on each other.
	if defender != nil && defender.Status == game.StatusPreparing &&
		defender.Combat != nil && defender.Combat.Target == u.Location {
		return nil, reject(ReasonMutualAttack, "unit %s is already attacking %v", defender.ID, u.Location)
	}

	after := s.Clone()
	w := after.Units[id]
	w.AP -= typ.AttackAPCost
	w.Status = game.StatusPreparing
	w.Combat = &game.CombatIntent{
		Target:           a.Target,
		Operation:        a.Operation,
		AdvanceOnVictory: a.AdvanceOnVictory,
		ResolveAt:        s.Game.State.CurrentTick + s.Game.Settings.Rules.PrepareTicks,
	}
	return game.ComputeDiff(s, after), nil
}

// Cancel withdraws a pending move or attack before it resolves. Spent AP is
// not refunded.
func Cancel(s *game.Snapshot, player game.PlayerID, id game.UnitID) (*game.Diff, error) {
	if err := requireActive(s); err != nil {
		return nil, err
	}
	u, err := ownedUnit(s, player, id)
	if err != nil {
		return nil, err
	}
	if !u.Status.Cancellable() {
		return nil, reject(ReasonWrongState, "unit %s is %s", id, u.Status)
	}
	if u.Status == game.StatusPreparing && u.Combat != nil && u.Combat.ResolveAt <= s.Game.State.CurrentTick {
		return nil, reject(ReasonWrongState, "attack already resolving at tick %d", u.Combat.ResolveAt)
	}

	after := s.Clone()
	w := after.Units[id]
	w.Status = game.StatusIdle
	w.Path = nil
	w.Combat = nil
	return game.ComputeDiff(s, after), nil
}
