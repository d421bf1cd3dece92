package planner

import (
	"math"

	"github.com/kilianp07/chargeplan/core/model"
)

// EnergyBudget is the output of the energy stage: how much the trip needs,
// what the battery holds, and the gap between the two.
type EnergyBudget struct {
	NeededTripKWh    float64
	CurrentKWh       float64
	ExtraKWh         float64 // max(0, needed - current)
	TargetSoCPercent float64
}

// ComputeEnergyBudget derives the energy requirements of a trip. The safety
// margin inflates the nominal consumption to cover routing detours, climate
// load and battery ageing.
func ComputeEnergyBudget(v model.VehicleState, trip model.TripRequest, safetyMargin float64) (EnergyBudget, error) {
	if err := v.Validate(); err != nil {
		return EnergyBudget{}, &InvalidInputError{Field: "vehicle", Err: err}
	}
	if err := trip.Validate(); err != nil {
		return EnergyBudget{}, &InvalidInputError{Field: "trip", Err: err}
	}

	needed := trip.DistanceKm * (v.ConsumptionWhPerKm / 1000) * safetyMargin
	current := v.CurrentEnergyKWh()
	extra := math.Max(0, needed-current)

	target := v.SoCPercent
	if extra > 0 {
		target = math.Min(100, (current+extra)/v.BatteryCapacityKWh*100)
	}
	return EnergyBudget{
		NeededTripKWh:    needed,
		CurrentKWh:       current,
		ExtraKWh:         extra,
		TargetSoCPercent: target,
	}, nil
}
