package events

import (
	"time"

	"github.com/kilianp07/chargeplan/core/model"
)

// PlanComputedEvent is published after the orchestrator finishes a plan.
type PlanComputedEvent struct {
	SessionID string
	SiteID    string
	Feasible  bool
	PlanType  model.PlanType
	Offers    int
	Timestamp time.Time
}

// TrainingEvent reports the outcome of a forecaster training run.
type TrainingEvent struct {
	Rows      int
	TestR2    float64
	Err       error
	Timestamp time.Time
}

// DegradedTrustEvent flags a plan computed with a conservative lifecycle
// default because the battery credential was missing or malformed.
type DegradedTrustEvent struct {
	SessionID string
	BatteryID string
	RawStatus string
	Timestamp time.Time
}
