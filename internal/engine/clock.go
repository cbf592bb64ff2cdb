// Package engine advances a match by one tick: movement, then combat, and
// on cycle boundaries supply, attrition, refill, economy and victory. Every
// processor is a pure function of the snapshot it is given and returns a
// diff for the host to apply.
package engine

import (
	"fmt"
	"time"

	"github.com/talgya/hexfront/internal/game"
)

// TickAt returns the wall-clock time at which tick n becomes due. It is
// computed from the fixed start date so that delays never accumulate.
func TickAt(g game.Game, n uint64) time.Time {
	return g.State.StartDate.Add(time.Duration(n) * g.Settings.TickDuration)
}

// NextTickAt returns when the next unprocessed tick becomes due.
func NextTickAt(g game.Game) time.Time {
	return TickAt(g, g.State.CurrentTick+1)
}

// TickDue reports whether an ACTIVE game has a tick to process at now.
// Only one tick is ever due per call; a late caller catches up one tick at
// a time.
func TickDue(g game.Game, now time.Time) bool {
	if g.State.Status != game.GameActive || g.Settings.TickDuration <= 0 {
		return false
	}
	return !now.Before(NextTickAt(g))
}

// IsCycleTick reports whether tick n closes a cycle.
func IsCycleTick(s game.Settings, n uint64) bool {
	return s.TicksPerCycle > 0 && n%s.TicksPerCycle == 0
}

// MatchTime returns a human-readable position of tick n in the match.
func MatchTime(s game.Settings, n uint64) string {
	if s.TicksPerCycle == 0 {
		return fmt.Sprintf("tick %d", n)
	}
	cycle := n / s.TicksPerCycle
	within := n % s.TicksPerCycle
	return fmt.Sprintf("cycle %d, tick %d/%d", cycle+1, within, s.TicksPerCycle)
}
