package watch

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"
)

const maxRecords = 50

// Record captures a match's grade when it changed.
type Record struct {
	At     time.Time `json:"at"`
	Game   string    `json:"game"`
	Tick   uint64    `json:"tick"`
	Level  string    `json:"level"`
	Reason string    `json:"reason"`
}

// Memory keeps each match's last grade and a ring of recent changes,
// persisted between runs.
type Memory struct {
	path    string
	Last    map[string]Record `json:"last"`
	Records []Record          `json:"records"`
}

// LoadMemory reads the memory file. A missing or corrupt file starts fresh.
func LoadMemory(path string) *Memory {
	m := &Memory{path: path, Last: make(map[string]Record)}
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	if err := json.Unmarshal(data, m); err != nil {
		slog.Warn("watch memory corrupted, starting fresh", "path", path, "error", err)
		return &Memory{path: path, Last: make(map[string]Record)}
	}
	if m.Last == nil {
		m.Last = make(map[string]Record)
	}
	return m
}

// Save writes the memory to disk.
func (m *Memory) Save() error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal watch memory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write watch memory: %w", err)
	}
	return nil
}

// Update records the findings and returns those whose level differs from
// the last one remembered for the match. A match seen for the first time
// counts as changed unless it is healthy.
func (m *Memory) Update(findings []Finding, at time.Time) []Finding {
	var changed []Finding
	for _, f := range findings {
		prev, seen := m.Last[f.Game]
		level := f.Level.String()
		if seen && prev.Level == level {
			continue
		}
		if !seen && f.Level == Healthy {
			m.Last[f.Game] = Record{At: at, Game: f.Game, Tick: f.Tick, Level: level, Reason: f.Reason}
			continue
		}
		r := Record{At: at, Game: f.Game, Tick: f.Tick, Level: level, Reason: f.Reason}
		m.Last[f.Game] = r
		m.Records = append(m.Records, r)
		changed = append(changed, f)
	}
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
	return changed
}
