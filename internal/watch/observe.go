// Package watch implements an out-of-process watchdog for a hexfront
// server. It observes match state via the read-only API, grades each
// match's clock health and remembers recent grades so that only changes
// are reported.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Observation holds all data collected during one watch cycle.
type Observation struct {
	At      time.Time
	Status  ServerStatus
	Games   []GameInfo
	Reports map[string][]ReportInfo // recent reports per active game
}

// ServerStatus mirrors GET /api/v1/status.
type ServerStatus struct {
	Name   string         `json:"name"`
	Time   time.Time      `json:"time"`
	Games  int            `json:"games"`
	Status map[string]int `json:"status"`
}

// GameInfo mirrors items from GET /api/v1/games.
type GameInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Tick       uint64     `json:"tick"`
	Cycle      uint64     `json:"cycle"`
	MatchTime  string     `json:"match_time"`
	StartDate  time.Time  `json:"start_date"`
	NextTickAt *time.Time `json:"next_tick_at"`
	Winner     string     `json:"winner"`
}

// ReportInfo mirrors items from GET /api/v1/games/{id}/reports.
type ReportInfo struct {
	ID            string `json:"id"`
	Tick          uint64 `json:"tick"`
	Attacker      string `json:"attacker"`
	AttackerOwner string `json:"attacker_owner"`
	DefenderOwner string `json:"defender_owner"`
	Captured      bool   `json:"captured"`
}

// Observer fetches match state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches the status, the match list and recent combat of every
// active match.
func (o *Observer) Observe(ctx context.Context) (*Observation, error) {
	obs := &Observation{At: time.Now().UTC(), Reports: make(map[string][]ReportInfo)}

	if err := o.fetchJSON(ctx, "/api/v1/status", &obs.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/games", &obs.Games); err != nil {
		return nil, fmt.Errorf("fetch games: %w", err)
	}
	for _, g := range obs.Games {
		if g.Status != "ACTIVE" {
			continue
		}
		var reports []ReportInfo
		if err := o.fetchJSON(ctx, "/api/v1/games/"+g.ID+"/reports?limit=5", &reports); err != nil {
			return nil, fmt.Errorf("fetch reports of %s: %w", g.ID, err)
		}
		obs.Reports[g.ID] = reports
	}
	return obs, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// WaitReady polls the status endpoint with exponential backoff until it
// answers 200, ctx ends or maxWait passes.
func (o *Observer) WaitReady(ctx context.Context, maxWait time.Duration) error {
	backoff := 500 * time.Millisecond
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(maxWait)

	for {
		var status ServerStatus
		err := o.fetchJSON(ctx, "/api/v1/status", &status)
		if err == nil {
			slog.Info("hexfront API is ready", "games", status.Games)
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("hexfront API not ready after %v: %w", maxWait, err)
		}
		slog.Info("hexfront API not ready, retrying", "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
