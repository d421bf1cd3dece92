package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadJSONAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{
        "mqtt": {"broker": "tcp://broker:1883"},
        "store": {"path": "/tmp/test.db"}
    }`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "/tmp/test.db", cfg.Store.Path)
	assert.InDelta(t, 1.2, cfg.Planner.SafetyMargin, 1e-9)
	assert.InDelta(t, 0.85, cfg.Planner.EfficiencyFactor, 1e-9)
	assert.Equal(t, 100, cfg.Forecast.MinTrainingRows)
	assert.Equal(t, 360, cfg.Training.IntervalMinutes)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
planner:
  safety_margin: 1.3
incentive:
  capacity_threshold: 0.9
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 1.3, cfg.Planner.SafetyMargin, 1e-9)
	assert.InDelta(t, 0.9, cfg.Incentive.CapacityThreshold, 1e-9)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "broker = 'x'")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"store": {"path": "file.db"}}`)
	t.Setenv("CP_STORE__PATH", "env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Store.Path)
}

func TestLoadRejectsInvalidSection(t *testing.T) {
	path := writeConfig(t, "config.json", `{"planner": {"safety_margin": -1}}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "chargeplan.db", cfg.Store.Path)
}
