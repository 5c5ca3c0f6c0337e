package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecsx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tick_rate: 50ms
max_commands_per_tick: 64
snapshot_format: yaml
service_name: arcade
`), 0o644))

	t.Setenv("ECSX_MAX_COMMANDS_PER_TICK", "8")
	t.Setenv("ECSX_OTEL_ENDPOINT", "http://localhost:4318")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, c.TickRate)
	assert.Equal(t, 8, c.MaxCommandsPerTick)
	assert.Equal(t, "yaml", c.SnapshotFormat)
	assert.Equal(t, "arcade", c.ServiceName)
	assert.Equal(t, "http://localhost:4318", c.OTelEndpoint)
	assert.Equal(t, "snapshots", c.SnapshotDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("ECSX_TICK_RATE", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"tick rate": func(c *Config) { c.TickRate = 0 },
		"commands":  func(c *Config) { c.MaxCommandsPerTick = -1 },
		"passes":    func(c *Config) { c.MaxSettlePasses = -1 },
		"format":    func(c *Config) { c.SnapshotFormat = "xml" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
