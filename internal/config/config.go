// Package config loads runtime configuration for ecsx programs: defaults, an
// optional YAML/TOML/JSON file read through viper, then ECSX_* environment
// overrides.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// Config holds runtime settings shared by the demo and realtime programs.
type Config struct {
	// TickRate is the fixed step of the realtime loop.
	TickRate time.Duration `mapstructure:"tick_rate" env:"ECSX_TICK_RATE"`
	// MaxCommandsPerTick bounds the command batch of one tick.
	MaxCommandsPerTick int `mapstructure:"max_commands_per_tick" env:"ECSX_MAX_COMMANDS_PER_TICK"`
	// MaxSettlePasses bounds stage passes per frame; 0 is unbounded. A stage
	// that outruns it is misconfigured and panics.
	MaxSettlePasses int `mapstructure:"max_settle_passes" env:"ECSX_MAX_SETTLE_PASSES"`

	SnapshotDir    string `mapstructure:"snapshot_dir" env:"ECSX_SNAPSHOT_DIR"`
	SnapshotFormat string `mapstructure:"snapshot_format" env:"ECSX_SNAPSHOT_FORMAT"`
	// HistoryPath is the SQLite snapshot history; empty disables history.
	HistoryPath string `mapstructure:"history_path" env:"ECSX_HISTORY_PATH"`

	ServiceName  string `mapstructure:"service_name" env:"ECSX_SERVICE_NAME"`
	OTelEndpoint string `mapstructure:"otel_endpoint" env:"ECSX_OTEL_ENDPOINT"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		TickRate:           16667 * time.Microsecond,
		MaxCommandsPerTick: 1000,
		MaxSettlePasses:    0,
		SnapshotDir:        "snapshots",
		SnapshotFormat:     "json",
		ServiceName:        "ecsx",
	}
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply; a named file that cannot be read is an error.
func Load(path string) (Config, error) {
	d := Default()
	v := viper.New()
	v.SetDefault("tick_rate", d.TickRate)
	v.SetDefault("max_commands_per_tick", d.MaxCommandsPerTick)
	v.SetDefault("max_settle_passes", d.MaxSettlePasses)
	v.SetDefault("snapshot_dir", d.SnapshotDir)
	v.SetDefault("snapshot_format", d.SnapshotFormat)
	v.SetDefault("history_path", d.HistoryPath)
	v.SetDefault("service_name", d.ServiceName)
	v.SetDefault("otel_endpoint", d.OTelEndpoint)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the runtime cannot work with.
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %v", c.TickRate)
	}
	if c.MaxCommandsPerTick <= 0 {
		return fmt.Errorf("max_commands_per_tick must be positive, got %d", c.MaxCommandsPerTick)
	}
	if c.MaxSettlePasses < 0 {
		return fmt.Errorf("max_settle_passes must not be negative, got %d", c.MaxSettlePasses)
	}
	switch c.SnapshotFormat {
	case "json", "yaml":
	default:
		return fmt.Errorf("snapshot_format must be json or yaml, got %q", c.SnapshotFormat)
	}
	return nil
}
