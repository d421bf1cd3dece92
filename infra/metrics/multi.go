package metrics

import (
	"errors"

	"github.com/kilianp07/chargeplan/core/forecast"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
)

// MultiSink fans every event out to all configured sinks and joins errors.
type MultiSink struct {
	sinks []coremetrics.PlanSink
}

// NewMultiSink combines the given sinks. Zero sinks yields a no-op.
func NewMultiSink(sinks ...coremetrics.PlanSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordPlan(siteID string, plan model.ChargingPlan) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordPlan(siteID, plan); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordForecast(points []model.DemandForecastPoint) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordForecast(points); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordTraining(tm forecast.TrainingMetrics) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordTraining(tm); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
