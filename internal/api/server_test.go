package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/config"
	"github.com/talgya/hexfront/internal/engine"
	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/game/gametest"
	"github.com/talgya/hexfront/internal/persistence"
	"github.com/talgya/hexfront/internal/world"
)

// battle is a red cruiser about to overrun a blue frigate on a blue planet.
func battle(t *testing.T) *game.Snapshot {
	b := gametest.New(3)
	b.Player("red")
	b.Player("blue")
	b.OwnArea("red", world.Coord(-2, 0), 1)
	b.Planet("cap-red", "red", world.Coord(-2, 0), true)
	b.Own("blue", world.Coord(1, 0), world.Coord(2, 0))
	b.Planet("outpost", "blue", world.Coord(1, 0), false)
	b.Planet("cap-blue", "blue", world.Coord(2, 0), true)

	r1 := b.Unit("r1", "red", "cruiser", world.Coord(0, 0), 3)
	r1.Status = game.StatusPreparing
	r1.Combat = &game.CombatIntent{Target: world.Coord(1, 0), Operation: game.OpStandard, AdvanceOnVictory: true, ResolveAt: 1}
	b.Unit("b1", "blue", "frigate", world.Coord(1, 0), 1)
	return b.Build(t)
}

type fixture struct {
	db   *persistence.DB
	snap *game.Snapshot
	h    http.Handler
}

func setup(t *testing.T, cfg config.APIConfig) fixture {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "hexfront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	snap := battle(t)
	require.NoError(t, db.SaveSnapshot(context.Background(), snap))
	return fixture{db: db, snap: snap, h: NewServer(db, catalog.Default(), cfg).Handler()}
}

func (f fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// viewBody is the part of a fog view the tests look at.
type viewBody struct {
	Viewer string `json:"viewer"`
	Units  []struct {
		ID     string `json:"id"`
		Owner  string `json:"owner"`
		Masked bool   `json:"masked"`
		Combat *struct {
			Target    string  `json:"target"`
			Operation *string `json:"operation"`
		} `json:"combat"`
	} `json:"units"`
	Visible []string `json:"visible"`
}

func TestStatus(t *testing.T) {
	f := setup(t, config.APIConfig{})
	rec := f.get(t, "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Games  int            `json:"games"`
		Status map[string]int `json:"status"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 1, body.Games)
	assert.Equal(t, 1, body.Status["ACTIVE"])
}

func TestGames(t *testing.T) {
	f := setup(t, config.APIConfig{})
	rec := f.get(t, "/api/v1/games")
	require.Equal(t, http.StatusOK, rec.Code)

	var games []gameSummary
	decodeBody(t, rec, &games)
	require.Len(t, games, 1)
	assert.Equal(t, game.GameID("game-1"), games[0].ID)
	assert.Equal(t, game.GameActive, games[0].Status)
	require.NotNil(t, games[0].NextTickAt)
	assert.True(t, engine.TickAt(f.snap.Game, 1).Equal(*games[0].NextTickAt))
	assert.Equal(t, "cycle 1, tick 0/4", games[0].MatchTime)
}

func TestGame(t *testing.T) {
	f := setup(t, config.APIConfig{})
	rec := f.get(t, "/api/v1/games/game-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Game    gameSummary `json:"game"`
		Players []struct {
			ID string `json:"id"`
		} `json:"players"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "test", body.Game.Name)
	require.Len(t, body.Players, 2)
	assert.Equal(t, "blue", body.Players[0].ID)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/games/nope").Code)
}

func TestView_MasksEnemyIntent(t *testing.T) {
	f := setup(t, config.APIConfig{})
	rec := f.get(t, "/api/v1/games/game-1/view?player=blue")
	require.Equal(t, http.StatusOK, rec.Code)

	var v viewBody
	decodeBody(t, rec, &v)
	assert.Equal(t, "blue", v.Viewer)
	require.Len(t, v.Units, 2)
	for _, u := range v.Units {
		switch u.ID {
		case "r1":
			assert.True(t, u.Masked)
			require.NotNil(t, u.Combat)
			assert.Nil(t, u.Combat.Operation, "enemy operation is hidden")
		case "b1":
			assert.False(t, u.Masked)
		}
	}
}

func TestView_OwnerSeesOperation(t *testing.T) {
	f := setup(t, config.APIConfig{})
	var v viewBody
	decodeBody(t, f.get(t, "/api/v1/games/game-1/view?player=red"), &v)

	for _, u := range v.Units {
		if u.ID == "r1" {
			require.NotNil(t, u.Combat)
			require.NotNil(t, u.Combat.Operation)
			assert.Equal(t, "STANDARD", *u.Combat.Operation)
		}
	}
}

func TestView_Spectator(t *testing.T) {
	f := setup(t, config.APIConfig{})
	var v viewBody
	decodeBody(t, f.get(t, "/api/v1/games/game-1/view"), &v)
	assert.Empty(t, v.Units)
	assert.Empty(t, v.Visible)
}

func TestView_UnknownPlayer(t *testing.T) {
	f := setup(t, config.APIConfig{})
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/games/game-1/view?player=green").Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/games/nope/view").Code)
}

func TestHex(t *testing.T) {
	f := setup(t, config.APIConfig{})
	rec := f.get(t, "/api/v1/games/game-1/hexes/1/0?player=red")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Visible bool `json:"visible"`
		Unit    *struct {
			ID string `json:"id"`
		} `json:"unit"`
		Planet *struct {
			ID string `json:"id"`
		} `json:"planet"`
		Neighbors []json.RawMessage `json:"neighbors"`
	}
	decodeBody(t, rec, &body)
	assert.True(t, body.Visible)
	require.NotNil(t, body.Unit)
	assert.Equal(t, "b1", body.Unit.ID)
	require.NotNil(t, body.Planet)
	assert.Equal(t, "outpost", body.Planet.ID)
	assert.Len(t, body.Neighbors, 6)

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/v1/games/game-1/hexes/x/0").Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/games/game-1/hexes/9/0").Code)
}

func TestHex_SpectatorSeesNoUnit(t *testing.T) {
	f := setup(t, config.APIConfig{})
	var body struct {
		Visible bool            `json:"visible"`
		Unit    json.RawMessage `json:"unit"`
	}
	decodeBody(t, f.get(t, "/api/v1/games/game-1/hexes/1/0"), &body)
	assert.False(t, body.Visible)
	assert.Nil(t, body.Unit)
}

func TestReports(t *testing.T) {
	f := setup(t, config.APIConfig{})
	tr, err := engine.ProcessTick(f.snap)
	require.NoError(t, err)
	_, err = f.db.ApplyDiff(context.Background(), f.snap, tr.Diff)
	require.NoError(t, err)

	var all []game.CombatReport
	decodeBody(t, f.get(t, "/api/v1/games/game-1/reports"), &all)
	require.Len(t, all, 1)
	assert.Equal(t, game.UnitID("r1"), all[0].Attacker)
	assert.True(t, all[0].Captured)

	var blue []game.CombatReport
	decodeBody(t, f.get(t, "/api/v1/games/game-1/reports?player=blue&limit=5"), &blue)
	assert.Len(t, blue, 1)

	var none []game.CombatReport
	decodeBody(t, f.get(t, "/api/v1/games/game-1/reports?player=green"), &none)
	assert.Empty(t, none)

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/v1/games/game-1/reports?limit=0").Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/games/nope/reports").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	f := setup(t, config.APIConfig{})
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/games", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestViewsAreRateLimited(t *testing.T) {
	f := setup(t, config.APIConfig{ViewsPerMinute: 2})
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/games/game-1/view").Code)
	}
	rec := f.get(t, "/api/v1/games/game-1/view")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, f.get(t, "/api/v1/games").Code, "listing is not limited")
}

func TestCORS(t *testing.T) {
	f := setup(t, config.APIConfig{CORSOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/games", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/games", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
