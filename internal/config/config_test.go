package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexfront/internal/game"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.LogFile)
	assert.Equal(t, "hexfront.db", cfg.DB.Path)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Contains(t, cfg.API.CORSOrigins, "http://localhost:5173")
	assert.Equal(t, 120, cfg.API.ViewsPerMinute)
	assert.Equal(t, time.Second, cfg.Scheduler.Interval)
	assert.Equal(t, 4, cfg.Scheduler.Parallelism)
	assert.Equal(t, "", cfg.Catalog.Path)
	assert.Equal(t, game.DefaultRules(), cfg.Rules)
	assert.True(t, cfg.Scenario.Enabled)
	assert.Equal(t, 2, cfg.Scenario.Players)
	assert.Equal(t, time.Minute, cfg.Scenario.TickDuration)
	assert.Equal(t, uint64(6), cfg.Scenario.TicksPerCycle)
	assert.Equal(t, "http://localhost:8080", cfg.Watch.APIURL)
	assert.Equal(t, 5*time.Minute, cfg.Watch.Stalled)
	assert.Empty(t, ConfigFileUsed())
}

func TestLoad_WithYAMLFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `
logLevel: debug
db:
  path: /var/lib/hexfront/state.db
scheduler:
  interval: 250ms
  parallelism: 8
rules:
  supplyRange: 6
  attritionThreshold: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hexfront.yaml"), []byte(cfg), 0644))

	got, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", got.LogLevel)
	assert.Equal(t, "/var/lib/hexfront/state.db", got.DB.Path)
	assert.Equal(t, 250*time.Millisecond, got.Scheduler.Interval)
	assert.Equal(t, 8, got.Scheduler.Parallelism)
	assert.Equal(t, 6, got.Rules.SupplyRange)
	assert.Equal(t, 2, got.Rules.AttritionThreshold)
	assert.Equal(t, game.DefaultRules().PrepareTicks, got.Rules.PrepareTicks)
	assert.Equal(t, filepath.Join(dir, "hexfront.yaml"), ConfigFileUsed())
}

func TestLoad_WithJSONFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{"api": {"enabled": false, "addr": "127.0.0.1:9000"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hexfront.json"), []byte(cfg), 0644))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, got.API.Enabled)
	assert.Equal(t, "127.0.0.1:9000", got.API.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("HEXFRONT_DB_PATH", "/tmp/env.db")
	t.Setenv("HEXFRONT_SCHEDULER_PARALLELISM", "2")
	t.Setenv("HEXFRONT_RULES_SUPPLYRANGE", "3")

	got, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", got.DB.Path)
	assert.Equal(t, 2, got.Scheduler.Parallelism)
	assert.Equal(t, 3, got.Rules.SupplyRange)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hexfront.json"), []byte(`{not json`), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_RejectsNonPositiveInterval(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("HEXFRONT_SCHEDULER_INTERVAL", "0s")

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
