package model

import "fmt"

// ChargerCapability describes the charger assigned to a planning request.
type ChargerCapability struct {
	ID             string  `json:"id"`
	SiteID         string  `json:"site_id"`
	MaxPowerKW     float64 `json:"max_power_kw"`
	TariffPerKWh   float64 `json:"tariff_per_kwh"`
	Available      bool    `json:"available"`
	SiteCapacityKW float64 `json:"site_capacity_kw,omitempty"` // rated capacity of the whole site
}

// Validate checks that the charger capability is sound.
func (c ChargerCapability) Validate() error {
	if c.MaxPowerKW <= 0 {
		return fmt.Errorf("charger max power must be positive, got %.2f", c.MaxPowerKW)
	}
	if c.TariffPerKWh < 0 {
		return fmt.Errorf("tariff must be non-negative, got %.4f", c.TariffPerKWh)
	}
	return nil
}
