package engine

import (
	"log/slog"
	"time"

	"github.com/talgya/hexfront/internal/game"
)

// Result is the combined output of one scheduler invocation.
type Result struct {
	Tick      uint64
	Cycle     bool
	Diff      *game.Diff
	Anomalies []Anomaly
	Attrition int

	// Next is the input snapshot with Diff applied.
	Next *game.Snapshot
}

// Advance processes exactly one tick if one is due at now, and the cycle
// when that tick closes one. The cycle sees the snapshot with the tick's
// diff applied. It returns nil when nothing is due.
func Advance(s *game.Snapshot, now time.Time) (*Result, error) {
	if !TickDue(s.Game, now) {
		return nil, nil
	}

	tr, err := ProcessTick(s)
	if err != nil {
		return nil, err
	}
	next := s.Apply(tr.Diff)
	res := &Result{Tick: tr.Tick, Anomalies: tr.Anomalies}

	if IsCycleTick(s.Game.Settings, tr.Tick) {
		cr, err := ProcessCycle(next)
		if err != nil {
			return nil, err
		}
		next = next.Apply(cr.Diff)
		res.Cycle = true
		res.Attrition = len(cr.AttritionUnits) + len(cr.AttritionStations)
	}

	res.Diff = game.ComputeDiff(s, next)
	res.Diff.Reports = tr.Diff.Reports
	res.Next = next

	slog.Debug("tick processed",
		"game", s.Game.ID,
		"tick", tr.Tick,
		"time", MatchTime(s.Game.Settings, tr.Tick),
		"cycle", res.Cycle,
		"reports", len(res.Diff.Reports),
		"anomalies", len(res.Anomalies),
	)
	return res, nil
}
