package planner

import "fmt"

// Config holds the physical tunables of the planner.
type Config struct {
	// SafetyMargin inflates trip consumption to cover detours and climate load.
	SafetyMargin float64 `json:"safety_margin"`
	// EfficiencyFactor accounts for conversion and thermal losses between the
	// charger output and the battery.
	EfficiencyFactor float64 `json:"efficiency_factor"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.SafetyMargin == 0 {
		c.SafetyMargin = 1.2
	}
	if c.EfficiencyFactor == 0 {
		c.EfficiencyFactor = 0.85
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.SafetyMargin < 1 {
		return fmt.Errorf("safety margin must be >= 1, got %.2f", c.SafetyMargin)
	}
	if c.EfficiencyFactor <= 0 || c.EfficiencyFactor > 1 {
		return fmt.Errorf("efficiency factor must be in (0,1], got %.2f", c.EfficiencyFactor)
	}
	return nil
}
