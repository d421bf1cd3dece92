// Package metrics provides Prometheus and InfluxDB implementations of the
// core PlanSink.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/chargeplan/core/forecast"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
)

// PromSink records planning and training outcomes in Prometheus metrics.
type PromSink struct {
	plans        *prometheus.CounterVec
	planCost     prometheus.Histogram
	planDuration prometheus.Histogram
	trainings    prometheus.Counter
	trainTestR2  prometheus.Gauge
	trainRows    prometheus.Gauge
}

// NewPromSink registers plan metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.PlanSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.PlanSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	plans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeplan_plans_computed_total",
		Help: "Total number of charging plans computed",
	}, []string{"site_id", "plan_type", "feasible"})
	planCost := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chargeplan_plan_cost",
		Help:    "Planned session cost",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	planDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chargeplan_plan_duration_hours",
		Help:    "Planned charging duration in hours",
		Buckets: prometheus.LinearBuckets(0, 0.5, 16),
	})
	trainings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chargeplan_forecast_trainings_total",
		Help: "Total number of completed forecaster training runs",
	})
	trainTestR2 := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeplan_forecast_test_r2",
		Help: "Held-out R2 of the last forecaster training run",
	})
	trainRows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeplan_forecast_training_rows",
		Help: "Number of sessions used by the last training run",
	})

	if err := reg.Register(plans); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			plans = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(planCost); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			planCost = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(planDuration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			planDuration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(trainings); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			trainings = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(trainTestR2); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			trainTestR2 = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(trainRows); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			trainRows = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		plans:        plans,
		planCost:     planCost,
		planDuration: planDuration,
		trainings:    trainings,
		trainTestR2:  trainTestR2,
		trainRows:    trainRows,
	}, nil
}

// RecordPlan increments the plan counter and observes cost and duration.
func (s *PromSink) RecordPlan(siteID string, plan model.ChargingPlan) error {
	s.plans.WithLabelValues(siteID, string(plan.Type), strconv.FormatBool(plan.Feasible)).Inc()
	s.planCost.Observe(plan.PlannedCost)
	s.planDuration.Observe(plan.PlannedDuration.Hours())
	return nil
}

// RecordForecast is a no-op for Prometheus; per-hour points go to Influx.
func (s *PromSink) RecordForecast([]model.DemandForecastPoint) error { return nil }

// RecordTraining updates the training gauges.
func (s *PromSink) RecordTraining(m forecast.TrainingMetrics) error {
	s.trainings.Inc()
	s.trainTestR2.Set(m.TestR2)
	s.trainRows.Set(float64(m.Rows))
	return nil
}

// Close is a no-op; the registry owns the collectors.
func (s *PromSink) Close() error { return nil }
