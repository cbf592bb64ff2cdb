// Package config loads process configuration from defaults, an optional
// config file and HEXFRONT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/talgya/hexfront/internal/game"
)

// ConfigName is the base name of the config file, without extension.
const ConfigName = "hexfront"

// Config is the typed process configuration.
type Config struct {
	LogLevel string `mapstructure:"logLevel"`
	LogFile  string `mapstructure:"logFile"`

	DB        DBConfig        `mapstructure:"db"`
	API       APIConfig       `mapstructure:"api"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Rules     game.Rules      `mapstructure:"rules"`
	Scenario  ScenarioConfig  `mapstructure:"scenario"`
	Watch     WatchConfig     `mapstructure:"watch"`
}

// DBConfig holds SQLite storage settings.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// APIConfig holds the read-only HTTP surface settings.
type APIConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"corsOrigins"`
	// ViewsPerMinute caps fog-filtered view requests per client. Zero
	// disables the limit.
	ViewsPerMinute int `mapstructure:"viewsPerMinute"`
}

// SchedulerConfig holds tick scheduling settings.
type SchedulerConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Parallelism int           `mapstructure:"parallelism"`
}

// CatalogConfig points at a unit-type catalog. Empty uses the built-in one.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// ScenarioConfig controls seeding of a demo match into an empty database.
type ScenarioConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Name             string        `mapstructure:"name"`
	Players          int           `mapstructure:"players"`
	Radius           int           `mapstructure:"radius"`
	Seed             int64         `mapstructure:"seed"`
	UnitsPerPlayer   int           `mapstructure:"unitsPerPlayer"`
	TicksPerCycle    uint64        `mapstructure:"ticksPerCycle"`
	TickDuration     time.Duration `mapstructure:"tickDuration"`
	VictoryThreshold int           `mapstructure:"victoryThreshold"`
	StartDelay       time.Duration `mapstructure:"startDelay"`
}

// WatchConfig drives the hexwatch watchdog.
type WatchConfig struct {
	APIURL     string        `mapstructure:"apiURL"`
	Interval   time.Duration `mapstructure:"interval"`
	Overdue    time.Duration `mapstructure:"overdue"`
	Stalled    time.Duration `mapstructure:"stalled"`
	MemoryFile string        `mapstructure:"memoryFile"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFile", "")

	viper.SetDefault("db.path", "hexfront.db")

	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.addr", ":8080")
	viper.SetDefault("api.corsOrigins", []string{"http://localhost:5173", "http://localhost:3000"})
	viper.SetDefault("api.viewsPerMinute", 120)

	viper.SetDefault("scheduler.interval", "1s")
	viper.SetDefault("scheduler.parallelism", 4)

	viper.SetDefault("catalog.path", "")

	r := game.DefaultRules()
	viper.SetDefault("rules.supplyRange", r.SupplyRange)
	viper.SetDefault("rules.attritionThreshold", r.AttritionThreshold)
	viper.SetDefault("rules.regroupTicks", r.RegroupTicks)
	viper.SetDefault("rules.prepareTicks", r.PrepareTicks)
	viper.SetDefault("rules.planetVision", r.PlanetVision)
	viper.SetDefault("rules.stationVision", r.StationVision)
	viper.SetDefault("rules.victoryPerPlanet", r.VictoryPerPlanet)
	viper.SetDefault("rules.prestigePerPlanet", r.PrestigePerPlanet)
	viper.SetDefault("rules.prestigePerStation", r.PrestigePerStation)
	viper.SetDefault("rules.attritionPenalty", r.AttritionPenalty)
	viper.SetDefault("rules.stationCost", r.StationCost)
	viper.SetDefault("rules.upgradeStepCost", r.UpgradeStepCost)
	viper.SetDefault("rules.upgradeSpecialistCost", r.UpgradeSpecialistCost)

	viper.SetDefault("scenario.enabled", true)
	viper.SetDefault("scenario.name", "Demo front")
	viper.SetDefault("scenario.players", 2)
	viper.SetDefault("scenario.radius", 8)
	viper.SetDefault("scenario.seed", 42)
	viper.SetDefault("scenario.unitsPerPlayer", 3)
	viper.SetDefault("scenario.ticksPerCycle", 6)
	viper.SetDefault("scenario.tickDuration", "1m")
	viper.SetDefault("scenario.victoryThreshold", 50)
	viper.SetDefault("scenario.startDelay", "0s")

	viper.SetDefault("watch.apiURL", "http://localhost:8080")
	viper.SetDefault("watch.interval", "1m")
	viper.SetDefault("watch.overdue", "30s")
	viper.SetDefault("watch.stalled", "5m")
	viper.SetDefault("watch.memoryFile", "hexwatch_memory.json")
}

// Load reads configuration and sets default values. configDir is searched
// for a hexfront.{json,yaml,yml,toml} file; a missing file is not an error.
// Environment variables override both, e.g. HEXFRONT_DB_PATH.
func Load(configDir string) (Config, error) {
	setDefaults()

	viper.SetConfigName(ConfigName)
	if configDir != "" {
		viper.AddConfigPath(configDir)
	}
	viper.SetEnvPrefix("HEXFRONT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Scheduler.Interval <= 0 {
		return Config{}, fmt.Errorf("scheduler.interval must be positive, got %v", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.Parallelism < 1 {
		cfg.Scheduler.Parallelism = 1
	}
	return cfg, nil
}

// ConfigFileUsed returns the path of the file Load read, if any.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
