package model

import "fmt"

// VehicleState is an immutable snapshot of a vehicle supplied with each
// planning request.
type VehicleState struct {
	ID                 string  `json:"id"`
	BatteryCapacityKWh float64 `json:"battery_capacity_kwh"` // total battery capacity in kWh
	SoCPercent         float64 `json:"soc_percent"`          // current state of charge, 0-100
	ConsumptionWhPerKm float64 `json:"consumption_wh_per_km"`
	MaxChargePowerKW   float64 `json:"max_charge_power_kw"`
}

// Validate checks that the vehicle snapshot is sound.
func (v VehicleState) Validate() error {
	if v.BatteryCapacityKWh <= 0 {
		return fmt.Errorf("battery capacity must be positive, got %.2f", v.BatteryCapacityKWh)
	}
	if v.SoCPercent < 0 || v.SoCPercent > 100 {
		return fmt.Errorf("state of charge must be within [0,100], got %.2f", v.SoCPercent)
	}
	if v.ConsumptionWhPerKm <= 0 {
		return fmt.Errorf("nominal consumption must be positive, got %.2f", v.ConsumptionWhPerKm)
	}
	if v.MaxChargePowerKW <= 0 {
		return fmt.Errorf("max charge power must be positive, got %.2f", v.MaxChargePowerKW)
	}
	return nil
}

// CurrentEnergyKWh returns the energy currently stored in the battery.
func (v VehicleState) CurrentEnergyKWh() float64 {
	return v.BatteryCapacityKWh * v.SoCPercent / 100
}
