// Package config loads the service configuration from a JSON or YAML file
// with optional environment overrides (CP_SECTION__KEY form).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/chargeplan/core/forecast"
	"github.com/kilianp07/chargeplan/core/incentive"
	"github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/planner"
	"github.com/kilianp07/chargeplan/infra/credential"
	"github.com/kilianp07/chargeplan/infra/mqtt"
)

type Config struct {
	Planner    planner.Config    `json:"planner"`
	Forecast   forecast.Config   `json:"forecast"`
	Incentive  incentive.Config  `json:"incentive"`
	Metrics    metrics.Config    `json:"metrics"`
	MQTT       mqtt.Config       `json:"mqtt"`
	Credential credential.Config `json:"credential"`
	Store      StoreConfig       `json:"store"`
	Training   TrainingConfig    `json:"training"`
}

// StoreConfig locates the session database.
type StoreConfig struct {
	Path string `json:"path"`
}

// SetDefaults applies the default database location.
func (c *StoreConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "chargeplan.db"
	}
}

// TrainingConfig controls the periodic forecaster retrain.
type TrainingConfig struct {
	IntervalMinutes int `json:"interval_minutes"`
}

// SetDefaults applies the retrain cadence default.
func (c *TrainingConfig) SetDefaults() {
	if c.IntervalMinutes == 0 {
		c.IntervalMinutes = 360
	}
}

// Validate rejects negative intervals; zero means defaults were skipped.
func (c TrainingConfig) Validate() error {
	if c.IntervalMinutes < 0 {
		return fmt.Errorf("training interval must be positive, got %d", c.IntervalMinutes)
	}
	return nil
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("CP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "cp_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every section at its defaults,
// used by commands that run without a config file.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	c.Planner.SetDefaults()
	c.Forecast.SetDefaults()
	c.Incentive.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
	c.Credential.SetDefaults()
	c.Store.SetDefaults()
	c.Training.SetDefaults()
}

// Validate checks every section that carries invariants.
func (c Config) Validate() error {
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	if err := c.Incentive.Validate(); err != nil {
		return fmt.Errorf("incentive: %w", err)
	}
	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	return nil
}
