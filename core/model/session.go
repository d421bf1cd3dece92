package model

import "time"

// SessionStatus tracks the lifecycle of a charging session around its plan.
// The planner only ever produces StatusComputed; the remaining transitions
// are driven by the session store when the driver accepts and completes.
type SessionStatus string

const (
	StatusComputed  SessionStatus = "computed"
	StatusAccepted  SessionStatus = "accepted"
	StatusCompleted SessionStatus = "completed"
)

// SessionRecord is one historical charging session. Completed records are
// the training input of the demand forecaster.
type SessionRecord struct {
	ID                 string        `json:"id"`
	SiteID             string        `json:"site_id"`
	StartTime          time.Time     `json:"start_time"`
	EnergyDeliveredKWh float64       `json:"energy_delivered_kwh"`
	Status             SessionStatus `json:"status"`
}

// PlanRequest bundles everything the orchestrator needs for one plan. The
// credential is already resolved and verified upstream; only the lifecycle
// claim influences planning.
type PlanRequest struct {
	SessionID  string            `json:"session_id"`
	Driver     DriverPreferences `json:"driver"`
	Vehicle    VehicleState      `json:"vehicle"`
	Charger    ChargerCapability `json:"charger"`
	Trip       TripRequest       `json:"trip"`
	Credential BatteryCredential `json:"credential"`
}
