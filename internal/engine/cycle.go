package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/supply"
	"github.com/talgya/hexfront/internal/zoc"
)

// CycleResult is the output of one cycle.
type CycleResult struct {
	Cycle uint64
	Diff  *game.Diff

	// Units and stations lost to attrition this cycle.
	AttritionUnits    []game.UnitID
	AttritionStations []game.StationID
}

// ProcessCycle runs the cycle-boundary systems over a post-tick snapshot:
// supply, attrition, refill of in-supply units, economy, defeat and
// victory. The input snapshot is not modified.
func ProcessCycle(s *game.Snapshot) (CycleResult, error) {
	if err := s.Validate(); err != nil {
		return CycleResult{}, fmt.Errorf("cycle input: %w", err)
	}
	w := s.Clone()
	rules := w.Game.Settings.Rules
	cycle := w.Game.State.CurrentCycle + 1

	supply.Apply(w, supply.Compute(w, supply.PolicyFrom(rules)))

	lostUnits, lostStations := supply.AttritionCandidates(w, rules.AttritionThreshold)
	attrition := make(map[game.PlayerID]int)
	for _, id := range lostUnits {
		u := w.Units[id]
		attrition[u.Owner]++
		zoc.Withdraw(w, u)
		w.RemoveUnit(id)
	}
	for _, id := range lostStations {
		w.RemoveStation(id)
	}
	if len(lostUnits) > 0 || len(lostStations) > 0 {
		slog.Info("attrition",
			"game", w.Game.ID,
			"cycle", cycle,
			"units", len(lostUnits),
			"stations", len(lostStations),
		)
	}

	refill(w)
	collectIncome(w, attrition)
	defeatPlayers(w)
	checkVictory(w)
	w.Game.State.CurrentCycle = cycle

	if err := w.Validate(); err != nil {
		return CycleResult{}, fmt.Errorf("cycle %d output: %w", cycle, err)
	}
	return CycleResult{
		Cycle:             cycle,
		Diff:              game.ComputeDiff(s, w),
		AttritionUnits:    lostUnits,
		AttritionStations: lostStations,
	}, nil
}

// refill restores AP and MP to catalog maximums and rallies suppressed
// steps, for in-supply units only.
func refill(w *game.Snapshot) {
	for _, u := range w.Units {
		if !u.Supply.InSupply {
			continue
		}
		t := w.UnitType(u)
		u.AP = t.MaxAP
		u.MP = t.MaxMP
		for i := range u.Steps {
			u.Steps[i].Suppressed = false
		}
	}
}

// collectIncome pays victory points for held planets and prestige for
// supplied planets and stations, less a penalty per unit lost to attrition.
func collectIncome(w *game.Snapshot, attrition map[game.PlayerID]int) {
	rules := w.Game.Settings.Rules
	planets := make(map[game.PlayerID]int)
	suppliedPlanets := make(map[game.PlayerID]int)
	suppliedStations := make(map[game.PlayerID]int)
	for _, p := range w.Planets {
		if p.Owner == "" {
			continue
		}
		planets[p.Owner]++
		if p.Supply.InSupply {
			suppliedPlanets[p.Owner]++
		}
	}
	for _, st := range w.Stations {
		if st.Supply.InSupply {
			suppliedStations[st.Owner]++
		}
	}

	for _, id := range w.PlayerIDs() {
		p := w.Players[id]
		if p.Status != game.PlayerActive {
			continue
		}
		p.Victory += rules.VictoryPerPlanet * planets[id]
		p.Prestige += rules.PrestigePerPlanet*suppliedPlanets[id] +
			rules.PrestigePerStation*suppliedStations[id] -
			rules.AttritionPenalty*attrition[id]
		if p.Prestige < 0 {
			p.Prestige = 0
		}
	}
}

// defeatPlayers marks players with nothing left on the map as defeated.
func defeatPlayers(w *game.Snapshot) {
	holdings := make(map[game.PlayerID]int)
	for _, u := range w.Units {
		holdings[u.Owner]++
	}
	for _, p := range w.Planets {
		holdings[p.Owner]++
	}
	for _, st := range w.Stations {
		holdings[st.Owner]++
	}
	for _, id := range w.PlayerIDs() {
		p := w.Players[id]
		if p.Status == game.PlayerActive && holdings[id] == 0 {
			p.Status = game.PlayerDefeated
			zoc.RemovePlayer(w, id)
			slog.Info("player defeated", "game", w.Game.ID, "player", id)
		}
	}
}

// checkVictory completes the game when an active player has reached the
// victory threshold (highest total wins, ties to the lowest id) or when a
// single active player remains.
func checkVictory(w *game.Snapshot) {
	var active []game.PlayerID
	var winner game.PlayerID
	best := 0
	threshold := w.Game.Settings.VictoryThreshold
	for _, id := range w.PlayerIDs() {
		p := w.Players[id]
		if p.Status != game.PlayerActive {
			continue
		}
		active = append(active, id)
		if threshold > 0 && p.Victory >= threshold && (winner == "" || p.Victory > best) {
			winner, best = id, p.Victory
		}
	}

	switch {
	case winner != "":
	case len(active) == 1 && len(w.Players) > 1:
		winner = active[0]
	case len(active) == 0 && len(w.Players) > 0:
		// Mutual annihilation: the game ends without a winner.
	default:
		return
	}

	st := &w.Game.State
	st.Status = game.GameCompleted
	st.Winner = winner
	st.EndedAt = TickAt(w.Game, st.CurrentTick)
	slog.Info("game completed", "game", w.Game.ID, "winner", winner, "tick", st.CurrentTick)
}
