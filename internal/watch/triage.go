package watch

import (
	"fmt"
	"time"
)

// Level grades how far a match has drifted from its clock.
type Level uint8

const (
	Healthy Level = iota
	Watch
	Warning
	Critical
)

var levelNames = [...]string{"HEALTHY", "WATCH", "WARNING", "CRITICAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", uint8(l))
}

// Thresholds bound acceptable scheduling lag.
type Thresholds struct {
	// Overdue is how late a tick or start may be before it is flagged.
	Overdue time.Duration
	// Stalled is the lag at which the scheduler is presumed stuck.
	Stalled time.Duration
}

// Finding is the graded state of one match.
type Finding struct {
	Game   string
	Name   string
	Tick   uint64
	Level  Level
	Reason string
	Lag    time.Duration
}

// Triage grades every match in an observation. Lag is measured against
// the server's clock when it reported one.
func Triage(obs *Observation, th Thresholds) []Finding {
	now := obs.At
	if !obs.Status.Time.IsZero() {
		now = obs.Status.Time
	}

	findings := make([]Finding, 0, len(obs.Games))
	for _, g := range obs.Games {
		f := Finding{Game: g.ID, Name: g.Name, Tick: g.Tick, Reason: "on schedule"}
		switch g.Status {
		case "ACTIVE":
			if g.NextTickAt != nil {
				f.Lag = max(now.Sub(*g.NextTickAt), 0)
			}
			switch {
			case f.Lag > th.Stalled:
				f.Level = Critical
				f.Reason = "scheduler stalled"
			case f.Lag > th.Overdue:
				f.Level = Warning
				f.Reason = "tick overdue"
			}
		case "PENDING":
			f.Reason = "waiting to start"
			if lag := now.Sub(g.StartDate); lag > th.Overdue {
				f.Lag = lag
				f.Level = Watch
				f.Reason = "start overdue"
			}
		case "COMPLETED":
			f.Reason = "completed"
			if g.Winner != "" {
				f.Reason = "won by " + g.Winner
			}
		default:
			f.Level = Watch
			f.Reason = "unknown status " + g.Status
		}
		findings = append(findings, f)
	}
	return findings
}

// Overall returns the worst level among findings.
func Overall(findings []Finding) Level {
	worst := Healthy
	for _, f := range findings {
		worst = max(worst, f.Level)
	}
	return worst
}
