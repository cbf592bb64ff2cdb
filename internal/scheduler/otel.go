package scheduler

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/talgya/hexfront/internal/scheduler"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type instruments struct {
	ticks     metric.Int64Counter
	cycles    metric.Int64Counter
	reports   metric.Int64Counter
	anomalies metric.Int64Counter
	duration  metric.Float64Histogram
}

// newInstruments registers the scheduler's metrics on the global meter
// (no-op unless the host installs an SDK).
func newInstruments() (*instruments, error) {
	m := meter()
	ins := &instruments{}
	var err error

	if ins.ticks, err = m.Int64Counter(
		"hexfront.ticks.processed",
		metric.WithDescription("Ticks processed across all games"),
	); err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	if ins.cycles, err = m.Int64Counter(
		"hexfront.cycles.processed",
		metric.WithDescription("Cycles processed across all games"),
	); err != nil {
		return nil, fmt.Errorf("creating cycles counter: %w", err)
	}
	if ins.reports, err = m.Int64Counter(
		"hexfront.combat.reports",
		metric.WithDescription("Combat engagements resolved"),
	); err != nil {
		return nil, fmt.Errorf("creating reports counter: %w", err)
	}
	if ins.anomalies, err = m.Int64Counter(
		"hexfront.anomalies",
		metric.WithDescription("Intents cancelled at resolution time"),
	); err != nil {
		return nil, fmt.Errorf("creating anomalies counter: %w", err)
	}
	if ins.duration, err = m.Float64Histogram(
		"hexfront.tick.duration",
		metric.WithDescription("Wall time to compute and store one tick"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	return ins, nil
}
