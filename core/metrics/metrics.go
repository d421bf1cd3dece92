package metrics

import (
	"github.com/kilianp07/chargeplan/core/forecast"
	"github.com/kilianp07/chargeplan/core/model"
)

// PlanSink records planning and forecasting outcomes for observability.
type PlanSink interface {
	// RecordPlan is called once per computed plan.
	RecordPlan(siteID string, plan model.ChargingPlan) error
	// RecordForecast is called with the points served for one horizon query.
	RecordForecast(points []model.DemandForecastPoint) error
	// RecordTraining is called after each successful training run.
	RecordTraining(m forecast.TrainingMetrics) error
	// Close releases sink resources.
	Close() error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordPlan(string, model.ChargingPlan) error      { return nil }
func (NopSink) RecordForecast([]model.DemandForecastPoint) error { return nil }
func (NopSink) RecordTraining(forecast.TrainingMetrics) error    { return nil }
func (NopSink) Close() error                                     { return nil }
