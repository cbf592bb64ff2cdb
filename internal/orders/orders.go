// Package orders validates player declarations against a match snapshot
// and turns accepted ones into diffs. A rejected declaration changes
// nothing and reports a *RejectError with a closed reason code.
package orders

import (
	"errors"
	"fmt"

	"github.com/talgya/hexfront/internal/game"
)

// Reason is the closed set of declaration rejection codes.
type Reason uint8

const (
	ReasonNotOwner Reason = iota
	ReasonWrongState
	ReasonRegrouping
	ReasonInsufficientAP
	ReasonInsufficientMP
	ReasonNotAdjacent
	ReasonInvalidPath
	ReasonMissingSpecialist
	ReasonNoActiveStep
	ReasonMutualAttack
	ReasonFriendlyTarget
	ReasonNoTarget
	ReasonInsufficientPrestige
	ReasonNotDeployable
	ReasonOccupied
	ReasonStepLimit
	ReasonNoPlainStep
	ReasonNotInSupply
	ReasonGameNotActive
	ReasonUnknownEntity
)

var reasonNames = [...]string{
	ReasonNotOwner:             "NOT_OWNER",
	ReasonWrongState:           "WRONG_STATE",
	ReasonRegrouping:           "REGROUPING",
	ReasonInsufficientAP:       "INSUFFICIENT_AP",
	ReasonInsufficientMP:       "INSUFFICIENT_MP",
	ReasonNotAdjacent:          "NOT_ADJACENT",
	ReasonInvalidPath:          "INVALID_PATH",
	ReasonMissingSpecialist:    "MISSING_SPECIALIST",
	ReasonNoActiveStep:         "NO_ACTIVE_STEP",
	ReasonMutualAttack:         "MUTUAL_ATTACK",
	ReasonFriendlyTarget:       "FRIENDLY_TARGET",
	ReasonNoTarget:             "NO_TARGET",
	ReasonInsufficientPrestige: "INSUFFICIENT_PRESTIGE",
	ReasonNotDeployable:        "NOT_DEPLOYABLE",
	ReasonOccupied:             "OCCUPIED",
	ReasonStepLimit:            "STEP_LIMIT",
	ReasonNoPlainStep:          "NO_PLAIN_STEP",
	ReasonNotInSupply:          "NOT_IN_SUPPLY",
	ReasonGameNotActive:        "GAME_NOT_ACTIVE",
	ReasonUnknownEntity:        "UNKNOWN_ENTITY",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("REASON(%d)", uint8(r))
}

// MarshalText encodes the reason code for API responses.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// RejectError reports why a declaration was refused.
type RejectError struct {
	Reason Reason
	Detail string
	Err    error
}

func (e *RejectError) Error() string {
	msg := "order rejected: " + e.Reason.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RejectError) Unwrap() error { return e.Err }

func reject(r Reason, format string, args ...any) *RejectError {
	return &RejectError{Reason: r, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection code from err.
func ReasonOf(err error) (Reason, bool) {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return 0, false
}

// requireActive rejects declarations against a match that is not running.
func requireActive(s *game.Snapshot) error {
	if s.Game.State.Status != game.GameActive {
		return reject(ReasonGameNotActive, "game is %s", s.Game.State.Status)
	}
	return nil
}

// ownedUnit resolves a unit the player owns.
func ownedUnit(s *game.Snapshot, player game.PlayerID, id game.UnitID) (*game.Unit, error) {
	u, ok := s.Units[id]
	if !ok {
		return nil, reject(ReasonUnknownEntity, "unit %s", id)
	}
	if u.Owner != player {
		return nil, reject(ReasonNotOwner, "unit %s", id)
	}
	return u, nil
}

// acceptsOrders rejects units that are busy or regrouping.
func acceptsOrders(u *game.Unit) error {
	switch {
	case u.Status == game.StatusRegrouping:
		return reject(ReasonRegrouping, "unit %s regrouping until tick %d", u.ID, u.RegroupUntil)
	case !u.Status.AcceptsOrders():
		return reject(ReasonWrongState, "unit %s is %s", u.ID, u.Status)
	}
	return nil
}

// activePlayer resolves a player that is still in the match.
func activePlayer(s *game.Snapshot, id game.PlayerID) (*game.Player, error) {
	p, ok := s.Players[id]
	if !ok {
		return nil, reject(ReasonUnknownEntity, "player %s", id)
	}
	if p.Status != game.PlayerActive {
		return nil, reject(ReasonWrongState, "player %s is %s", id, p.Status)
	}
	return p, nil
}

func spend(p *game.Player, cost int) error {
	if p.Prestige < cost {
		return reject(ReasonInsufficientPrestige, "have %d, need %d", p.Prestige, cost)
	}
	p.Prestige -= cost
	return nil
}
