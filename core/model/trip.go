package model

import (
	"fmt"
	"time"
)

// TripRequest states where the driver needs to go and by when. A departure
// time in the past simply yields an infeasible plan.
type TripRequest struct {
	DistanceKm    float64   `json:"distance_km"`
	DepartureTime time.Time `json:"departure_time"`
}

// Validate checks the trip parameters.
func (t TripRequest) Validate() error {
	if t.DistanceKm < 0 {
		return fmt.Errorf("trip distance must be non-negative, got %.2f", t.DistanceKm)
	}
	return nil
}

// Priority enumerates what the driver wants the planner to optimise for.
type Priority string

const (
	PriorityCost     Priority = "cost"
	PrioritySpeed    Priority = "speed"
	PriorityBalanced Priority = "balanced"
)

// DriverPreferences tune plan classification and incentive eligibility.
type DriverPreferences struct {
	Priority        Priority `json:"priority"`
	CarbonConscious bool     `json:"carbon_conscious"`
}
