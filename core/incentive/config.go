package incentive

import "fmt"

// Config defines the incentive policy parameters.
type Config struct {
	// CapacityThreshold is the fraction of site rated capacity above which the
	// forecast counts as peak demand.
	CapacityThreshold float64 `json:"capacity_threshold"`
	// DiscountSlope converts capacity overage into a discount percentage.
	DiscountSlope float64 `json:"discount_slope"`
	// MaxDiscountPct caps the time-shift discount.
	MaxDiscountPct float64 `json:"max_discount_pct"`
	// ShiftHours is the delay suggested with a time-shift discount.
	ShiftHours int `json:"shift_hours"`
	// RewardPoints granted for charging in the low-carbon window.
	RewardPoints float64 `json:"reward_points"`
	// LowCarbonStartHour/LowCarbonEndHour bound the renewable peak, inclusive.
	LowCarbonStartHour int `json:"low_carbon_start_hour"`
	LowCarbonEndHour   int `json:"low_carbon_end_hour"`
	// OffPeakDiscountPct is the flat economy-mode discount.
	OffPeakDiscountPct float64 `json:"off_peak_discount_pct"`
}

// SetDefaults applies the documented policy defaults.
func (c *Config) SetDefaults() {
	if c.CapacityThreshold == 0 {
		c.CapacityThreshold = 0.8
	}
	if c.DiscountSlope == 0 {
		c.DiscountSlope = 1.0
	}
	if c.MaxDiscountPct == 0 {
		c.MaxDiscountPct = 25
	}
	if c.ShiftHours == 0 {
		c.ShiftHours = 2
	}
	if c.RewardPoints == 0 {
		c.RewardPoints = 50
	}
	if c.LowCarbonStartHour == 0 && c.LowCarbonEndHour == 0 {
		c.LowCarbonStartHour = 10
		c.LowCarbonEndHour = 16
	}
	if c.OffPeakDiscountPct == 0 {
		c.OffPeakDiscountPct = 10
	}
}

// Validate checks the policy bounds.
func (c Config) Validate() error {
	if c.CapacityThreshold <= 0 || c.CapacityThreshold >= 1 {
		return fmt.Errorf("capacity threshold must be in (0,1), got %.2f", c.CapacityThreshold)
	}
	if c.LowCarbonStartHour < 0 || c.LowCarbonEndHour > 23 || c.LowCarbonStartHour > c.LowCarbonEndHour {
		return fmt.Errorf("low carbon window [%d,%d] is not a valid hour range", c.LowCarbonStartHour, c.LowCarbonEndHour)
	}
	return nil
}
