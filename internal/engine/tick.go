package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/hexfront/internal/combat"
	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/movement"
	"github.com/talgya/hexfront/internal/world"
	"github.com/talgya/hexfront/internal/zoc"
)

// TickResult is the output of one tick.
type TickResult struct {
	Tick      uint64
	Diff      *game.Diff
	Anomalies []Anomaly
}

type tickProcessor struct {
	w         *game.Snapshot
	tick      uint64
	reports   []game.CombatReport
	anomalies []Anomaly
}

// ProcessTick computes the next tick of a match: regrouping units whose
// cooldown has elapsed return to IDLE, MOVING units advance, then due
// attacks resolve. The input snapshot is not modified.
//
// A unit whose intent can no longer be carried out is cancelled and
// recorded as an anomaly. Only invariant violations fail the tick.
func ProcessTick(s *game.Snapshot) (TickResult, error) {
	if err := s.Validate(); err != nil {
		return TickResult{}, fmt.Errorf("tick input: %w", err)
	}
	if err := zoc.Verify(s); err != nil {
		return TickResult{}, fmt.Errorf("tick input: %w", err)
	}

	p := &tickProcessor{w: s.Clone(), tick: s.Game.State.CurrentTick + 1}

	for _, id := range p.w.UnitIDs() {
		u := p.w.Units[id]
		if u.Status == game.StatusRegrouping && u.RegroupUntil <= p.tick {
			u.Status = game.StatusIdle
			u.RegroupUntil = 0
		}
	}

	// Movement strictly precedes combat.
	for _, id := range p.w.UnitIDs() {
		if u := p.w.Units[id]; u == nil || u.Status != game.StatusMoving {
			continue
		}
		if err := p.isolate(id, PhaseMove, p.advance); err != nil {
			return TickResult{}, err
		}
	}
	for _, id := range p.w.UnitIDs() {
		u := p.w.Units[id]
		if u == nil || u.Status != game.StatusPreparing || (u.Combat != nil && u.Combat.ResolveAt > p.tick) {
			continue
		}
		if err := p.isolate(id, PhaseCombat, p.resolve); err != nil {
			return TickResult{}, err
		}
	}

	p.w.Game.State.CurrentTick = p.tick
	p.w.Game.State.LastTickAt = TickAt(p.w.Game, p.tick)

	if err := p.w.Validate(); err != nil {
		return TickResult{}, fmt.Errorf("tick %d output: %w", p.tick, err)
	}
	if err := zoc.Verify(p.w); err != nil {
		return TickResult{}, fmt.Errorf("tick %d output: %w", p.tick, err)
	}

	d := game.ComputeDiff(s, p.w)
	d.Reports = p.reports
	return TickResult{Tick: p.tick, Diff: d, Anomalies: p.anomalies}, nil
}

// isolate runs one unit's work against a checkpoint of the area it can
// touch. A failure or panic rolls that area back and cancels the unit's
// intent; invariant violations are returned to abort the tick.
func (p *tickProcessor) isolate(id game.UnitID, phase Phase, fn func(u *game.Unit) error) error {
	cp := takeCheckpoint(p.w, p.w.Units[id])
	reports := len(p.reports)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(p.w.Units[id])
	}()
	if err == nil {
		return nil
	}
	if errors.Is(err, game.ErrInvariant) {
		return err
	}

	cp.restore(p.w)
	p.reports = p.reports[:reports]
	if u := p.w.Units[id]; u != nil {
		u.Status = game.StatusIdle
		u.Path = nil
		u.Combat = nil
	}
	p.anomaly(id, phase, err.Error())
	return nil
}

func (p *tickProcessor) anomaly(id game.UnitID, phase Phase, reason string) {
	a := Anomaly{Tick: p.tick, Unit: id, Phase: phase, Reason: reason}
	p.anomalies = append(p.anomalies, a)
	logAnomaly(p.w.Game.ID, a)
}

// advance walks a MOVING unit along its path while MP lasts. Each hex is
// re-checked against the current state; an occupied or impassable hex
// cancels the rest of the path but keeps the progress made.
func (p *tickProcessor) advance(u *game.Unit) error {
	for len(u.Path) > 0 {
		next := u.Path[0]
		outcome, cost := movement.Step(u.Location, next, u.MP, u.Owner, p.w)
		switch outcome {
		case movement.StepWait:
			return nil
		case movement.StepBlocked, movement.StepInvalid:
			u.Path = nil
			u.Status = game.StatusIdle
			p.anomaly(u.ID, PhaseMove, fmt.Sprintf("path %s at %v", outcome, next))
			return nil
		}

		zoc.Withdraw(p.w, u)
		p.w.MoveUnit(u.ID, next)
		zoc.Project(p.w, u)
		u.MP -= cost
		u.Path = u.Path[1:]
		p.occupy(u)

		if outcome == movement.StepEnterAndStop {
			break
		}
	}
	u.Path = nil
	u.Status = game.StatusIdle
	return nil
}

// occupy transfers the unit's hex, and any planet or station on it, to the
// unit's owner.
func (p *tickProcessor) occupy(u *game.Unit) (game.PlanetID, game.StationID) {
	if p.w.Hexes[u.Location].Owner == u.Owner {
		return "", ""
	}
	planet, station := p.w.Capture(u.Location, u.Owner)
	if planet != "" || station != "" {
		slog.Info("captured",
			"game", p.w.Game.ID,
			"tick", p.tick,
			"unit", u.ID,
			"hex", u.Location,
			"planet", planet,
			"station", station,
		)
	}
	return planet, station
}

// resolve settles a PREPARING unit's attack against whatever now occupies
// the target hex.
func (p *tickProcessor) resolve(u *game.Unit) error {
	intent := u.Combat
	if intent == nil {
		return errors.New("preparing without a combat intent")
	}
	if !world.IsNeighbor(u.Location, intent.Target) {
		return fmt.Errorf("target %v no longer adjacent", intent.Target)
	}
	h := p.w.Hex(intent.Target)
	if h == nil {
		return fmt.Errorf("target %v off map", intent.Target)
	}
	def := p.w.UnitAt(intent.Target)
	if def != nil && def.Owner == u.Owner {
		return fmt.Errorf("target %v now held by a friendly unit", intent.Target)
	}
	if def == nil && (intent.Operation != game.OpStandard || !intent.AdvanceOnVictory || h.Owner == u.Owner) {
		return fmt.Errorf("no enemy left at %v", intent.Target)
	}

	out, err := combat.Resolve(combat.Engagement{
		GameID:           p.w.Game.ID,
		Tick:             p.tick,
		Attacker:         u,
		Defender:         def,
		Target:           intent.Target,
		TargetTerrain:    h.Terrain,
		Operation:        intent.Operation,
		AdvanceOnVictory: intent.AdvanceOnVictory,
	})
	if err != nil {
		return err
	}

	if def != nil {
		*def = *out.Defender
		if out.DefenderDestroyed {
			zoc.Withdraw(p.w, def)
			p.w.RemoveUnit(def.ID)
		}
	}
	report := out.Report

	if out.AttackerDestroyed {
		zoc.Withdraw(p.w, u)
		p.w.RemoveUnit(u.ID)
		p.reports = append(p.reports, report)
		return nil
	}

	*u = *out.Attacker
	if out.Advance {
		zoc.Withdraw(p.w, u)
		p.w.MoveUnit(u.ID, intent.Target)
		zoc.Project(p.w, u)
		report.CapturedPlanet, report.CapturedStation = p.occupy(u)
	}
	u.Combat = nil
	u.Path = nil
	u.Status = game.StatusRegrouping
	u.RegroupUntil = p.tick + p.w.Game.Settings.Rules.RegroupTicks

	p.reports = append(p.reports, report)
	return nil
}
