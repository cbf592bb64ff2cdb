// Package combat resolves a single declared engagement between two units.
// Resolution is deterministic and never mutates its inputs; the caller
// applies the returned post-combat copies to its own working state.
package combat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/world"
)

var (
	ErrNoAttacker   = errors.New("combat: no attacker")
	ErrNoActiveStep = errors.New("combat: attacker has no active step")
	ErrNoArtillery  = errors.New("combat: suppressive fire requires an active artillery step")
	ErrNoDefender   = errors.New("combat: operation requires a defending unit")
)

// reportNamespace seeds name-based report ids so that the same engagement
// always yields the same id.
var reportNamespace = uuid.MustParse("6f1c1d5e-8a4b-4c55-9d0e-2b7f3c1a9e44")

// Engagement is one attack due for resolution.
type Engagement struct {
	GameID           game.GameID
	Tick             uint64
	Attacker         *game.Unit
	Defender         *game.Unit // nil when the target hex is empty
	Target           world.HexCoord
	TargetTerrain    world.Terrain
	Operation        game.Operation
	AdvanceOnVictory bool
}

// Outcome is the result of one engagement. Attacker and Defender are
// post-combat copies; Defender is nil when there was none.
type Outcome struct {
	Report            game.CombatReport
	Attacker          *game.Unit
	Defender          *game.Unit
	AttackerDestroyed bool
	DefenderDestroyed bool
	// Advance is set when the attacker moves into the target hex and
	// takes it. The caller performs the move and the capture.
	Advance bool
}

// AttackStrength counts active steps plus one per active armor or
// artillery specialist.
func AttackStrength(u *game.Unit) int {
	return u.ActiveSteps() + u.ActiveSpecialists(game.SpecialistArmor) + u.ActiveSpecialists(game.SpecialistArtillery)
}

// DefenseStrength counts active steps plus one per active engineer plus the
// terrain bonus.
func DefenseStrength(u *game.Unit, t world.Terrain) int {
	return u.ActiveSteps() + u.ActiveSpecialists(game.SpecialistEngineer) + t.DefenseBonus()
}

// Resolve computes the outcome of an engagement.
func Resolve(e Engagement) (Outcome, error) {
	if e.Attacker == nil {
		return Outcome{}, ErrNoAttacker
	}
	att := e.Attacker.Clone()
	var def *game.Unit
	if e.Defender != nil {
		def = e.Defender.Clone()
	}

	out := Outcome{Attacker: att, Defender: def}
	r := &out.Report
	r.ID = ReportID(e.GameID, e.Tick, att.ID)
	r.GameID = e.GameID
	r.Tick = e.Tick
	r.Attacker = att.ID
	r.AttackerOwner = att.Owner
	r.Target = e.Target
	r.Operation = e.Operation
	r.AttackStrength = AttackStrength(att)
	if def != nil {
		r.Defender = def.ID
		r.DefenderOwner = def.Owner
		r.DefenseStrength = DefenseStrength(def, e.TargetTerrain)
	}

	switch e.Operation {
	case game.OpFeint:
		if att.ActiveSteps() == 0 {
			return Outcome{}, ErrNoActiveStep
		}
		if def == nil {
			return Outcome{}, ErrNoDefender
		}
		if def.AP > 0 {
			def.AP--
		}
		r.Outcome = game.OutcomeFeint
		return out, nil

	case game.OpSuppressiveFire:
		arty := att.ActiveSpecialists(game.SpecialistArtillery)
		if arty == 0 {
			return Outcome{}, ErrNoArtillery
		}
		if def == nil {
			return Outcome{}, ErrNoDefender
		}
		r.DefenderSuppressed = suppress(def, arty)
		r.Outcome = game.OutcomeSuppressed
		return out, nil

	case game.OpStandard:
		if att.ActiveSteps() == 0 {
			return Outcome{}, ErrNoActiveStep
		}
		if def == nil || def.ActiveSteps() == 0 {
			// Nothing can resist: automatic victory without losses.
			victory(&out, e)
			return out, nil
		}
		standard(&out, e)
		return out, nil
	}
	return Outcome{}, fmt.Errorf("combat: unknown operation %v", e.Operation)
}

func standard(out *Outcome, e Engagement) {
	att, def, r := out.Attacker, out.Defender, &out.Report
	a, d := r.AttackStrength, r.DefenseStrength

	switch {
	case a > d:
		r.DefenderLosses = removeActive(def, a-d)
		r.AttackerSuppressed = returnFire(att)
	case d > a:
		r.AttackerLosses = removeActive(att, d-a)
		r.DefenderSuppressed = returnFire(def)
	default:
		r.AttackerSuppressed = returnFire(att)
		r.DefenderSuppressed = returnFire(def)
	}

	if len(att.Steps) == 0 {
		out.AttackerDestroyed = true
		r.AttackerDestroyed = true
	}
	if len(def.Steps) == 0 {
		out.DefenderDestroyed = true
		r.DefenderDestroyed = true
	}
	switch {
	case a > d && def.ActiveSteps() == 0:
		victory(out, e)
	case a == d:
		r.Outcome = game.OutcomeStalemate
	default:
		r.Outcome = game.OutcomeDefenderHeld
	}
}

// returnFire suppresses one active step of a side that did not lose the
// exchange. Its last active step is never suppressed.
func returnFire(u *game.Unit) int {
	if u.ActiveSteps() <= 1 {
		return 0
	}
	return suppress(u, 1)
}

// victory finishes an engagement the attacker has won. With advance the
// defender is overrun and the attacker takes the hex.
func victory(out *Outcome, e Engagement) {
	r := &out.Report
	r.Outcome = game.OutcomeAttackerWon
	if out.AttackerDestroyed || !e.AdvanceOnVictory {
		return
	}
	if out.Defender != nil {
		r.DefenderLosses += len(out.Defender.Steps)
		out.Defender.Steps = nil
		out.DefenderDestroyed = true
		r.DefenderDestroyed = true
	}
	out.Advance = true
	r.Captured = true
}

// removeActive removes up to n active steps, plain steps before
// specialists, and returns how many were removed.
func removeActive(u *game.Unit, n int) int {
	removed := 0
	for _, specialistPass := range []bool{false, true} {
		kept := u.Steps[:0]
		for _, s := range u.Steps {
			isSpecialist := s.Specialist != game.SpecialistNone
			if removed < n && !s.Suppressed && isSpecialist == specialistPass {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		u.Steps = kept
	}
	return removed
}

// suppress marks up to n active steps suppressed, plain steps first.
func suppress(u *game.Unit, n int) int {
	done := 0
	for _, specialistPass := range []bool{false, true} {
		for i := range u.Steps {
			s := &u.Steps[i]
			isSpecialist := s.Specialist != game.SpecialistNone
			if done < n && !s.Suppressed && isSpecialist == specialistPass {
				s.Suppressed = true
				done++
			}
		}
	}
	return done
}

// ReportID derives the stable report id of an engagement.
func ReportID(g game.GameID, tick uint64, attacker game.UnitID) string {
	return uuid.NewSHA1(reportNamespace, []byte(fmt.Sprintf("%s/%d/%s", g, tick, attacker))).String()
}
