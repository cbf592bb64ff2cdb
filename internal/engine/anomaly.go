package engine

import (
	"log/slog"

	"github.com/talgya/hexfront/internal/game"
)

// Phase names where an anomaly occurred.
type Phase string

const (
	PhaseRegroup Phase = "regroup"
	PhaseMove    Phase = "move"
	PhaseCombat  Phase = "combat"
)

// Anomaly is a declared intent that could not be carried out when its tick
// arrived. The intent is cancelled and processing continues.
type Anomaly struct {
	Tick   uint64      `json:"tick"`
	Unit   game.UnitID `json:"unit"`
	Phase  Phase       `json:"phase"`
	Reason string      `json:"reason"`
}

func logAnomaly(g game.GameID, a Anomaly) {
	slog.Warn("tick anomaly",
		"game", g,
		"tick", a.Tick,
		"unit", a.Unit,
		"phase", a.Phase,
		"reason", a.Reason,
	)
}
