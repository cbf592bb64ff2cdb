package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/world"
)

type gameRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Status       string `db:"status"`
	CurrentTick  int64  `db:"current_tick"`
	CurrentCycle int64  `db:"current_cycle"`
	StartDate    string `db:"start_date"`
	LastTickAt   string `db:"last_tick_at"`
	EndedAt      string `db:"ended_at"`
	Winner       string `db:"winner"`
	SettingsJSON string `db:"settings_json"`
}

type playerRow struct {
	GameID   string `db:"game_id"`
	ID       string `db:"id"`
	Name     string `db:"name"`
	Prestige int    `db:"prestige"`
	Victory  int    `db:"victory"`
	Status   string `db:"status"`
}

type hexRow struct {
	GameID    string `db:"game_id"`
	Q         int    `db:"q"`
	R         int    `db:"r"`
	Owner     string `db:"owner"`
	Terrain   string `db:"terrain"`
	PlanetID  string `db:"planet_id"`
	StationID string `db:"station_id"`
	UnitID    string `db:"unit_id"`
	ZOCJSON   string `db:"zoc_json"`
}

type unitRow struct {
	GameID       string `db:"game_id"`
	ID           string `db:"id"`
	Owner        string `db:"owner"`
	Type         string `db:"type"`
	Q            int    `db:"q"`
	R            int    `db:"r"`
	Status       string `db:"status"`
	AP           int    `db:"ap"`
	MP           int    `db:"mp"`
	RegroupUntil int64  `db:"regroup_until"`
	StepsJSON    string `db:"steps_json"`
	PathJSON     string `db:"path_json"`
	CombatJSON   string `db:"combat_json"`
	SupplyJSON   string `db:"supply_json"`
}

type planetRow struct {
	GameID   string `db:"game_id"`
	ID       string `db:"id"`
	Name     string `db:"name"`
	Owner    string `db:"owner"`
	Q        int    `db:"q"`
	R        int    `db:"r"`
	Capital  bool   `db:"capital"`
	InSupply bool   `db:"in_supply"`
	IsRoot   bool   `db:"is_root"`
}

type stationRow struct {
	GameID       string `db:"game_id"`
	ID           string `db:"id"`
	Owner        string `db:"owner"`
	Q            int    `db:"q"`
	R            int    `db:"r"`
	InSupply     bool   `db:"in_supply"`
	CountersJSON string `db:"counters_json"`
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decode(s string, v any) error {
	if s == "" || s == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

func toGameRow(g game.Game) (gameRow, error) {
	settings, err := encode(g.Settings)
	if err != nil {
		return gameRow{}, fmt.Errorf("encode settings: %w", err)
	}
	st := g.State
	return gameRow{
		ID:           string(g.ID),
		Name:         g.Name,
		Status:       st.Status.String(),
		CurrentTick:  int64(st.CurrentTick),
		CurrentCycle: int64(st.CurrentCycle),
		StartDate:    formatTime(st.StartDate),
		LastTickAt:   formatTime(st.LastTickAt),
		EndedAt:      formatTime(st.EndedAt),
		Winner:       string(st.Winner),
		SettingsJSON: settings,
	}, nil
}

func (r gameRow) game() (game.Game, error) {
	g := game.Game{ID: game.GameID(r.ID), Name: r.Name}
	if err := decode(r.SettingsJSON, &g.Settings); err != nil {
		return g, fmt.Errorf("game %s settings: %w", r.ID, err)
	}
	st := &g.State
	if err := st.Status.UnmarshalText([]byte(r.Status)); err != nil {
		return g, fmt.Errorf("game %s: %w", r.ID, err)
	}
	st.CurrentTick = uint64(r.CurrentTick)
	st.CurrentCycle = uint64(r.CurrentCycle)
	st.Winner = game.PlayerID(r.Winner)
	var err error
	if st.StartDate, err = parseTime(r.StartDate); err != nil {
		return g, fmt.Errorf("game %s start date: %w", r.ID, err)
	}
	if st.LastTickAt, err = parseTime(r.LastTickAt); err != nil {
		return g, fmt.Errorf("game %s last tick: %w", r.ID, err)
	}
	if st.EndedAt, err = parseTime(r.EndedAt); err != nil {
		return g, fmt.Errorf("game %s end date: %w", r.ID, err)
	}
	return g, nil
}

func toPlayerRow(g game.GameID, p *game.Player) playerRow {
	return playerRow{
		GameID:   string(g),
		ID:       string(p.ID),
		Name:     p.Name,
		Prestige: p.Prestige,
		Victory:  p.Victory,
		Status:   p.Status.String(),
	}
}

func (r playerRow) player() (*game.Player, error) {
	p := &game.Player{ID: game.PlayerID(r.ID), Name: r.Name, Prestige: r.Prestige, Victory: r.Victory}
	if err := p.Status.UnmarshalText([]byte(r.Status)); err != nil {
		return nil, fmt.Errorf("player %s: %w", r.ID, err)
	}
	return p, nil
}

func toHexRow(g game.GameID, h *game.Hex) (hexRow, error) {
	zoc, err := encode(h.ZOC)
	if err != nil {
		return hexRow{}, fmt.Errorf("encode hex %v zoc: %w", h.Coord, err)
	}
	return hexRow{
		GameID:    string(g),
		Q:         h.Coord.Q,
		R:         h.Coord.R,
		Owner:     string(h.Owner),
		Terrain:   h.Terrain.String(),
		PlanetID:  string(h.PlanetID),
		StationID: string(h.StationID),
		UnitID:    string(h.UnitID),
		ZOCJSON:   zoc,
	}, nil
}

func (r hexRow) hex() (*game.Hex, error) {
	t, err := world.ParseTerrain(r.Terrain)
	if err != nil {
		return nil, fmt.Errorf("hex (%d,%d): %w", r.Q, r.R, err)
	}
	h := &game.Hex{
		Coord:     world.Coord(r.Q, r.R),
		Owner:     game.PlayerID(r.Owner),
		Terrain:   t,
		PlanetID:  game.PlanetID(r.PlanetID),
		StationID: game.StationID(r.StationID),
		UnitID:    game.UnitID(r.UnitID),
	}
	if err := decode(r.ZOCJSON, &h.ZOC); err != nil {
		return nil, fmt.Errorf("hex (%d,%d) zoc: %w", r.Q, r.R, err)
	}
	return h, nil
}

func toUnitRow(g game.GameID, u *game.Unit) (unitRow, error) {
	row := unitRow{
		GameID:       string(g),
		ID:           string(u.ID),
		Owner:        string(u.Owner),
		Type:         string(u.Type),
		Q:            u.Location.Q,
		R:            u.Location.R,
		Status:       u.Status.String(),
		AP:           u.AP,
		MP:           u.MP,
		RegroupUntil: int64(u.RegroupUntil),
	}
	var err error
	if row.StepsJSON, err = encode(u.Steps); err != nil {
		return row, fmt.Errorf("encode unit %s steps: %w", u.ID, err)
	}
	if row.PathJSON, err = encode(u.Path); err != nil {
		return row, fmt.Errorf("encode unit %s path: %w", u.ID, err)
	}
	if row.CombatJSON, err = encode(u.Combat); err != nil {
		return row, fmt.Errorf("encode unit %s combat: %w", u.ID, err)
	}
	if row.SupplyJSON, err = encode(u.Supply); err != nil {
		return row, fmt.Errorf("encode unit %s supply: %w", u.ID, err)
	}
	return row, nil
}

func (r unitRow) unit() (*game.Unit, error) {
	u := &game.Unit{
		ID:           game.UnitID(r.ID),
		Owner:        game.PlayerID(r.Owner),
		Type:         catalog.TypeID(r.Type),
		Location:     world.Coord(r.Q, r.R),
		AP:           r.AP,
		MP:           r.MP,
		RegroupUntil: uint64(r.RegroupUntil),
	}
	if err := u.Status.UnmarshalText([]byte(r.Status)); err != nil {
		return nil, fmt.Errorf("unit %s: %w", r.ID, err)
	}
	for _, f := range []struct {
		name string
		src  string
		dst  any
	}{
		{"steps", r.StepsJSON, &u.Steps},
		{"path", r.PathJSON, &u.Path},
		{"combat", r.CombatJSON, &u.Combat},
		{"supply", r.SupplyJSON, &u.Supply},
	} {
		if err := decode(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("unit %s %s: %w", r.ID, f.name, err)
		}
	}
	return u, nil
}

func toPlanetRow(g game.GameID, p *game.Planet) planetRow {
	return planetRow{
		GameID:   string(g),
		ID:       string(p.ID),
		Name:     p.Name,
		Owner:    string(p.Owner),
		Q:        p.Location.Q,
		R:        p.Location.R,
		Capital:  p.Capital,
		InSupply: p.Supply.InSupply,
		IsRoot:   p.Supply.IsRoot,
	}
}

func (r planetRow) planet() *game.Planet {
	return &game.Planet{
		ID:       game.PlanetID(r.ID),
		Name:     r.Name,
		Owner:    game.PlayerID(r.Owner),
		Location: world.Coord(r.Q, r.R),
		Capital:  r.Capital,
		Supply:   game.SupplySource{InSupply: r.InSupply, IsRoot: r.IsRoot},
	}
}

func toStationRow(g game.GameID, st *game.Station) (stationRow, error) {
	counters, err := encode(st.Counters)
	if err != nil {
		return stationRow{}, fmt.Errorf("encode station %s counters: %w", st.ID, err)
	}
	return stationRow{
		GameID:       string(g),
		ID:           string(st.ID),
		Owner:        string(st.Owner),
		Q:            st.Location.Q,
		R:            st.Location.R,
		InSupply:     st.Supply.InSupply,
		CountersJSON: counters,
	}, nil
}

func (r stationRow) station() (*game.Station, error) {
	st := &game.Station{
		ID:       game.StationID(r.ID),
		Owner:    game.PlayerID(r.Owner),
		Location: world.Coord(r.Q, r.R),
		Supply:   game.SupplySource{InSupply: r.InSupply},
	}
	if err := decode(r.CountersJSON, &st.Counters); err != nil {
		return nil, fmt.Errorf("station %s counters: %w", r.ID, err)
	}
	return st, nil
}
