package model

import "time"

// PlanType classifies a charging plan for presentation and billing.
type PlanType string

const (
	PlanStandard PlanType = "STANDARD"
	PlanGreen    PlanType = "GREEN"
	PlanFast     PlanType = "FAST"
	PlanEconomy  PlanType = "ECONOMY"
)

// OfferType enumerates the kinds of incentives attached to a plan.
type OfferType string

const (
	OfferDiscount     OfferType = "discount"
	OfferRewardPoints OfferType = "reward_points"
)

// IncentiveOffer is a single discount or reward attached to a plan. Value is
// a percentage for discounts and a point count for rewards.
type IncentiveOffer struct {
	Type     OfferType  `json:"type"`
	Value    float64    `json:"value"`
	Reason   string     `json:"reason"`
	TimeSlot *time.Time `json:"time_slot,omitempty"` // suggested shifted start, if any
}

// ChargingPlan is the planner's output for one request. It is immutable once
// computed; acceptance and completion are recorded by the session store, not
// by mutating the plan.
type ChargingPlan struct {
	NeededTripEnergyKWh float64          `json:"needed_trip_energy_kwh"`
	CurrentEnergyKWh    float64          `json:"current_energy_kwh"`
	ExtraEnergyKWh      float64          `json:"extra_energy_needed_kwh"`
	TargetSoCPercent    float64          `json:"target_soc_percent"`
	EffectivePowerKW    float64          `json:"effective_charge_power_kw"`
	PlannedDuration     time.Duration    `json:"planned_duration"`
	PlannedFinishTime   time.Time        `json:"planned_finish_time"`
	Feasible            bool             `json:"is_feasible"`
	FeasibilityWarning  string           `json:"feasibility_warning,omitempty"`
	PlannedCost         float64          `json:"planned_cost"`
	Type                PlanType         `json:"plan_type"`
	Offers              []IncentiveOffer `json:"incentive_offers,omitempty"`
}

// DemandForecastPoint is one hourly demand prediction for a site. The bounds
// reflect dispersion across the forecasting ensemble, so a confident model
// produces a narrow band.
type DemandForecastPoint struct {
	SiteID            string    `json:"site_id"`
	Hour              time.Time `json:"hour"`
	PredictedKWh      float64   `json:"predicted_kwh"`
	LowerKWh          float64   `json:"confidence_lower_kwh"`
	UpperKWh          float64   `json:"confidence_upper_kwh"`
	PredictedSessions int       `json:"predicted_sessions"`
}
