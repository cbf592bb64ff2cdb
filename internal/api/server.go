// Package api serves read-only views of stored matches over HTTP. Per-player
// views are fog filtered; nothing here changes game state.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/talgya/hexfront/internal/catalog"
	"github.com/talgya/hexfront/internal/config"
	"github.com/talgya/hexfront/internal/engine"
	"github.com/talgya/hexfront/internal/fog"
	"github.com/talgya/hexfront/internal/game"
	"github.com/talgya/hexfront/internal/persistence"
	"github.com/talgya/hexfront/internal/world"
)

const (
	defaultReportLimit = 20
	maxReportLimit     = 200
)

// Store is the read side of persistence.
type Store interface {
	ListGames(ctx context.Context) ([]game.Game, error)
	GetGame(ctx context.Context, id game.GameID) (game.Game, error)
	LoadSnapshot(ctx context.Context, id game.GameID, cat *catalog.Catalog) (*game.Snapshot, error)
	RecentReports(ctx context.Context, id game.GameID, limit int) ([]game.CombatReport, error)
}

// Server serves match state over HTTP.
type Server struct {
	store   Store
	catalog *catalog.Catalog
	cfg     config.APIConfig
	limiter *RateLimiter
	now     func() time.Time
}

// NewServer creates a server over store.
func NewServer(store Store, cat *catalog.Catalog, cfg config.APIConfig) *Server {
	s := &Server{store: store, catalog: cat, cfg: cfg, now: time.Now}
	if cfg.ViewsPerMinute > 0 {
		s.limiter = NewRateLimiter(cfg.ViewsPerMinute, time.Minute)
	}
	return s
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/games", s.handleGames).Methods(http.MethodGet)
	v1.HandleFunc("/games/{id}", s.handleGame).Methods(http.MethodGet)
	v1.HandleFunc("/games/{id}/reports", s.handleReports).Methods(http.MethodGet)

	// Fog-filtered views load a full snapshot per request.
	views := v1.PathPrefix("/games/{id}").Subrouter()
	if s.limiter != nil {
		views.Use(s.limiter.Middleware)
	}
	views.HandleFunc("/view", s.handleView).Methods(http.MethodGet)
	views.HandleFunc("/hexes/{q}/{r}", s.handleHex).Methods(http.MethodGet)

	return corsMiddleware(s.cfg.CORSOrigins, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.cfg.Addr, "views_per_minute", s.cfg.ViewsPerMinute)

	if s.limiter != nil {
		go func() {
			t := time.NewTicker(10 * time.Minute)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					s.limiter.Sweep()
				}
			}
		}()
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("HTTP API stopped")
	return nil
}

// corsMiddleware adds CORS headers for allowed frontend origins.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// gameSummary is the list form of a match.
type gameSummary struct {
	ID         game.GameID     `json:"id"`
	Name       string          `json:"name"`
	Status     game.GameStatus `json:"status"`
	Tick       uint64          `json:"tick"`
	Cycle      uint64          `json:"cycle"`
	MatchTime  string          `json:"match_time"`
	StartDate  time.Time       `json:"start_date"`
	NextTickAt *time.Time      `json:"next_tick_at,omitempty"`
	Winner     game.PlayerID   `json:"winner,omitempty"`
}

func summarize(g game.Game) gameSummary {
	sum := gameSummary{
		ID:        g.ID,
		Name:      g.Name,
		Status:    g.State.Status,
		Tick:      g.State.CurrentTick,
		Cycle:     g.State.CurrentCycle,
		MatchTime: engine.MatchTime(g.Settings, g.State.CurrentTick),
		StartDate: g.State.StartDate,
		Winner:    g.State.Winner,
	}
	if g.State.Status == game.GameActive {
		next := engine.NextTickAt(g)
		sum.NextTickAt = &next
	}
	return sum
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.ListGames(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	counts := map[string]int{}
	for _, g := range games {
		counts[g.State.Status.String()]++
	}
	writeJSON(w, map[string]any{
		"name":   "hexfront",
		"time":   s.now().UTC(),
		"games":  len(games),
		"status": counts,
	})
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.ListGames(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]gameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, summarize(g))
	}
	writeJSON(w, out)
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	players := make([]*game.Player, 0, len(snap.Players))
	for _, id := range snap.PlayerIDs() {
		players = append(players, snap.Players[id])
	}
	writeJSON(w, map[string]any{
		"game":     summarize(snap.Game),
		"settings": snap.Game.Settings,
		"players":  players,
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	viewer, ok := s.viewer(w, r, snap)
	if !ok {
		return
	}
	writeJSON(w, fog.Filter(snap, viewer))
}

// hexDetail is one hex as a viewer sees it, with its occupants.
type hexDetail struct {
	Hex       *game.Hex     `json:"hex"`
	Visible   bool          `json:"visible"`
	Unit      *fog.Unit     `json:"unit,omitempty"`
	Planet    *game.Planet  `json:"planet,omitempty"`
	Station   *game.Station `json:"station,omitempty"`
	Neighbors []neighbor    `json:"neighbors"`
}

type neighbor struct {
	Coord   world.HexCoord `json:"coord"`
	Terrain world.Terrain  `json:"terrain"`
}

func (s *Server) handleHex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	q, err1 := strconv.Atoi(vars["q"])
	rr, err2 := strconv.Atoi(vars["r"])
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return
	}
	coord := world.Coord(q, rr)

	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	if _, ok := snap.Hexes[coord]; !ok {
		http.Error(w, "hex not found", http.StatusNotFound)
		return
	}
	viewer, ok := s.viewer(w, r, snap)
	if !ok {
		return
	}

	v := fog.Filter(snap, viewer)
	detail := hexDetail{}
	for _, h := range v.Hexes {
		if h.Coord == coord {
			detail.Hex = h
			break
		}
	}
	for _, c := range v.Visible {
		if c == coord {
			detail.Visible = true
			break
		}
	}
	for i := range v.Units {
		if v.Units[i].Location == coord {
			detail.Unit = &v.Units[i]
			break
		}
	}
	for _, p := range v.Planets {
		if p.Location == coord {
			detail.Planet = p
			break
		}
	}
	for _, st := range v.Stations {
		if st.Location == coord {
			detail.Station = st
			break
		}
	}
	for _, nc := range coord.Neighbors() {
		if nh, ok := snap.Hexes[nc]; ok {
			detail.Neighbors = append(detail.Neighbors, neighbor{Coord: nc, Terrain: nh.Terrain})
		}
	}
	writeJSON(w, detail)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	id := game.GameID(mux.Vars(r)["id"])
	limit := defaultReportLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxReportLimit)
	}

	if _, err := s.store.GetGame(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	reports, err := s.store.RecentReports(r.Context(), id, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	player := game.PlayerID(r.URL.Query().Get("player"))
	out := make([]game.CombatReport, 0, len(reports))
	for _, rep := range reports {
		if player == fog.Spectator || rep.AttackerOwner == player || rep.DefenderOwner == player {
			out = append(out, rep)
		}
	}
	writeJSON(w, out)
}

// snapshot loads the game named in the route, writing the error response
// itself when it cannot.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*game.Snapshot, bool) {
	id := game.GameID(mux.Vars(r)["id"])
	snap, err := s.store.LoadSnapshot(r.Context(), id, s.catalog)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return snap, true
}

// viewer reads ?player=. Absent means spectator; an unknown player is 404.
func (s *Server) viewer(w http.ResponseWriter, r *http.Request, snap *game.Snapshot) (game.PlayerID, bool) {
	p := game.PlayerID(r.URL.Query().Get("player"))
	if p == fog.Spectator {
		return p, true
	}
	if _, ok := snap.Players[p]; !ok {
		http.Error(w, "unknown player", http.StatusNotFound)
		return "", false
	}
	return p, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	slog.Error("api request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
