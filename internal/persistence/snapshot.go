package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/game"
)

const (
	upsertGame = `INSERT OR REPLACE INTO games
		(id, name, status, current_tick, current_cycle, start_date, last_tick_at, ended_at, winner, settings_json)
		VALUES (:id, :name, :status, :current_tick, :current_cycle, :start_date, :last_tick_at, :ended_at, :winner, :settings_json)`

	upsertPlayer = `INSERT OR REPLACE INTO players
		(game_id, id, name, prestige, victory, status)
		VALUES (:game_id, :id, :name, :prestige, :victory, :status)`

	upsertHex = `INSERT OR REPLACE INTO hexes
		(game_id, q, r, owner, terrain, planet_id, station_id, unit_id, zoc_json)
		VALUES (:game_id, :q, :r, :owner, :terrain, :planet_id, :station_id, :unit_id, :zoc_json)`

	upsertUnit = `INSERT OR REPLACE INTO units
		(game_id, id, owner, type, q, r, status, ap, mp, regroup_until, steps_json, path_json, combat_json, supply_json)
		VALUES (:game_id, :id, :owner, :type, :q, :r, :status, :ap, :mp, :regroup_until, :steps_json, :path_json, :combat_json, :supply_json)`

	upsertPlanet = `INSERT OR REPLACE INTO planets
		(game_id, id, name, owner, q, r, capital, in_supply, is_root)
		VALUES (:game_id, :id, :name, :owner, :q, :r, :capital, :in_supply, :is_root)`

	upsertStation = `INSERT OR REPLACE INTO stations
		(game_id, id, owner, q, r, in_supply, counters_json)
		VALUES (:game_id, :id, :owner, :q, :r, :in_supply, :counters_json)`
)

// SaveSnapshot writes a full match (full replace of that game's rows).
// Combat reports already stored for the game are kept.
func (db *DB) SaveSnapshot(ctx context.Context, s *game.Snapshot) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id := s.Game.ID
	for _, table := range []string{"players", "hexes", "units", "planets", "stations"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE game_id = ?", id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	row, err := toGameRow(s.Game)
	if err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, upsertGame, row); err != nil {
		return fmt.Errorf("save game %s: %w", id, err)
	}

	for _, pid := range s.PlayerIDs() {
		if err := putPlayer(ctx, tx, id, s.Players[pid]); err != nil {
			return err
		}
	}
	for _, c := range s.SortedCoords() {
		if err := putHex(ctx, tx, id, s.Hexes[c]); err != nil {
			return err
		}
	}
	for _, uid := range s.UnitIDs() {
		if err := putUnit(ctx, tx, id, s.Units[uid]); err != nil {
			return err
		}
	}
	for _, p := range s.Planets {
		if err := putPlanet(ctx, tx, id, p); err != nil {
			return err
		}
	}
	for _, st := range s.Stations {
		if err := putStation(ctx, tx, id, st); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("snapshot saved",
		"game", id,
		"tick", s.Game.State.CurrentTick,
		"hexes", len(s.Hexes),
		"units", len(s.Units),
	)
	return nil
}

// LoadSnapshot reads a full match and resolves unit types against cat.
func (db *DB) LoadSnapshot(ctx context.Context, id game.GameID, cat *catalog.Catalog) (*game.Snapshot, error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	g, err := getGame(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	var playerRows []playerRow
	if err := tx.SelectContext(ctx, &playerRows, "SELECT * FROM players WHERE game_id = ? ORDER BY id", id); err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	players := make([]*game.Player, 0, len(playerRows))
	for _, r := range playerRows {
		p, err := r.player()
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}

	var hexRows []hexRow
	if err := tx.SelectContext(ctx, &hexRows, "SELECT * FROM hexes WHERE game_id = ?", id); err != nil {
		return nil, fmt.Errorf("load hexes: %w", err)
	}
	hexes := make([]*game.Hex, 0, len(hexRows))
	for _, r := range hexRows {
		h, err := r.hex()
		if err != nil {
			return nil, err
		}
		hexes = append(hexes, h)
	}

	var unitRows []unitRow
	if err := tx.SelectContext(ctx, &unitRows, "SELECT * FROM units WHERE game_id = ? ORDER BY id", id); err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}
	units := make([]*game.Unit, 0, len(unitRows))
	for _, r := range unitRows {
		u, err := r.unit()
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}

	var planetRows []planetRow
	if err := tx.SelectContext(ctx, &planetRows, "SELECT * FROM planets WHERE game_id = ? ORDER BY id", id); err != nil {
		return nil, fmt.Errorf("load planets: %w", err)
	}
	planets := make([]*game.Planet, 0, len(planetRows))
	for _, r := range planetRows {
		planets = append(planets, r.planet())
	}

	var stationRows []stationRow
	if err := tx.SelectContext(ctx, &stationRows, "SELECT * FROM stations WHERE game_id = ? ORDER BY id", id); err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	stations := make([]*game.Station, 0, len(stationRows))
	for _, r := range stationRows {
		st, err := r.station()
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}

	s, err := game.NewSnapshot(g, cat, hexes, units, planets, stations, players)
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return s, nil
}

// ApplyDiff writes the entities a diff touches, and its combat reports, in
// one transaction. base is the snapshot the diff was computed against; the
// write is refused with ErrConflict if the stored clock has moved since.
// It returns base with the diff applied.
func (db *DB) ApplyDiff(ctx context.Context, base *game.Snapshot, d *game.Diff) (*game.Snapshot, error) {
	next := base.Apply(d)
	id := base.Game.ID

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row, err := toGameRow(next.Game)
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `UPDATE games SET
		status = ?, current_tick = ?, current_cycle = ?, last_tick_at = ?, ended_at = ?, winner = ?
		WHERE id = ? AND current_tick = ? AND status = ?`,
		row.Status, row.CurrentTick, row.CurrentCycle, row.LastTickAt, row.EndedAt, row.Winner,
		id, int64(base.Game.State.CurrentTick), base.Game.State.Status.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("update game %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, fmt.Errorf("apply to game %s at tick %d: %w", id, base.Game.State.CurrentTick, ErrConflict)
	}

	for _, uid := range d.RemovedUnits {
		if _, err := tx.ExecContext(ctx, "DELETE FROM units WHERE game_id = ? AND id = ?", id, uid); err != nil {
			return nil, fmt.Errorf("remove unit %s: %w", uid, err)
		}
	}
	for _, u := range d.CreatedUnits {
		if err := putUnit(ctx, tx, id, next.Units[u.ID]); err != nil {
			return nil, err
		}
	}
	for uid := range d.Units {
		if u, ok := next.Units[uid]; ok {
			if err := putUnit(ctx, tx, id, u); err != nil {
				return nil, err
			}
		}
	}
	for c := range d.Hexes {
		if h, ok := next.Hexes[c]; ok {
			if err := putHex(ctx, tx, id, h); err != nil {
				return nil, err
			}
		}
	}
	for pid := range d.Planets {
		if p, ok := next.Planets[pid]; ok {
			if err := putPlanet(ctx, tx, id, p); err != nil {
				return nil, err
			}
		}
	}
	for _, sid := range d.RemovedStations {
		if _, err := tx.ExecContext(ctx, "DELETE FROM stations WHERE game_id = ? AND id = ?", id, sid); err != nil {
			return nil, fmt.Errorf("remove station %s: %w", sid, err)
		}
	}
	for _, st := range d.CreatedStations {
		if err := putStation(ctx, tx, id, next.Stations[st.ID]); err != nil {
			return nil, err
		}
	}
	for sid := range d.Stations {
		if st, ok := next.Stations[sid]; ok {
			if err := putStation(ctx, tx, id, st); err != nil {
				return nil, err
			}
		}
	}
	for pid := range d.Players {
		if p, ok := next.Players[pid]; ok {
			if err := putPlayer(ctx, tx, id, p); err != nil {
				return nil, err
			}
		}
	}
	if err := insertReports(ctx, tx, d.Reports); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return next, nil
}

// GetGame reads one game record without its entities.
func (db *DB) GetGame(ctx context.Context, id game.GameID) (game.Game, error) {
	return getGame(ctx, db.conn, id)
}

// ListGames returns every game record ordered by id.
func (db *DB) ListGames(ctx context.Context) ([]game.Game, error) {
	var rows []gameRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT * FROM games ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	games := make([]game.Game, 0, len(rows))
	for _, r := range rows {
		g, err := r.game()
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

func getGame(ctx context.Context, q sqlx.QueryerContext, id game.GameID) (game.Game, error) {
	var row gameRow
	if err := sqlx.GetContext(ctx, q, &row, "SELECT * FROM games WHERE id = ?", id); err != nil {
		return game.Game{}, fmt.Errorf("game %s: %w", id, notFound(err))
	}
	return row.game()
}

func putPlayer(ctx context.Context, tx *sqlx.Tx, g game.GameID, p *game.Player) error {
	if _, err := tx.NamedExecContext(ctx, upsertPlayer, toPlayerRow(g, p)); err != nil {
		return fmt.Errorf("save player %s: %w", p.ID, err)
	}
	return nil
}

func putHex(ctx context.Context, tx *sqlx.Tx, g game.GameID, h *game.Hex) error {
	row, err := toHexRow(g, h)
	if err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, upsertHex, row); err != nil {
		return fmt.Errorf("save hex %v: %w", h.Coord, err)
	}
	return nil
}

func putUnit(ctx context.Context, tx *sqlx.Tx, g game.GameID, u *game.Unit) error {
	row, err := toUnitRow(g, u)
	if err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, upsertUnit, row); err != nil {
		return fmt.Errorf("save unit %s: %w", u.ID, err)
	}
	return nil
}

func putPlanet(ctx context.Context, tx *sqlx.Tx, g game.GameID, p *game.Planet) error {
	if _, err := tx.NamedExecContext(ctx, upsertPlanet, toPlanetRow(g, p)); err != nil {
		return fmt.Errorf("save planet %s: %w", p.ID, err)
	}
	return nil
}

func putStation(ctx context.Context, tx *sqlx.Tx, g game.GameID, st *game.Station) error {
	row, err := toStationRow(g, st)
	if err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, upsertStation, row); err != nil {
		return fmt.Errorf("save station %s: %w", st.ID, err)
	}
	return nil
}
