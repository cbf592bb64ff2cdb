package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/hexfront/internal/game"
)

func insertReports(ctx context.Context, tx *sqlx.Tx, reports []game.CombatReport) error {
	for _, r := range reports {
		body, err := encode(r)
		if err != nil {
			return fmt.Errorf("encode report %s: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO combat_reports (id, game_id, tick, report_json) VALUES (?, ?, ?, ?)",
			r.ID, r.GameID, int64(r.Tick), body,
		); err != nil {
			return fmt.Errorf("insert report %s: %w", r.ID, err)
		}
	}
	return nil
}

// RecentReports returns the most recent combat reports of a game, newest
// tick first.
func (db *DB) RecentReports(ctx context.Context, id game.GameID, limit int) ([]game.CombatReport, error) {
	var bodies []string
	err := db.conn.SelectContext(ctx, &bodies,
		"SELECT report_json FROM combat_reports WHERE game_id = ? ORDER BY tick DESC, id LIMIT ?",
		id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent reports: %w", err)
	}
	reports := make([]game.CombatReport, 0, len(bodies))
	for _, b := range bodies {
		var r game.CombatReport
		if err := decode(b, &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}
