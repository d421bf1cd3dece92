package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/core/forecast"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
)

func TestPromSinkRecordPlan(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	plan := model.ChargingPlan{
		Type:            model.PlanGreen,
		Feasible:        true,
		PlannedCost:     4.5,
		PlannedDuration: 90 * time.Minute,
	}
	require.NoError(t, sink.RecordPlan("site-a", plan))
	require.NoError(t, sink.RecordPlan("site-a", plan))

	count := testutil.ToFloat64(sink.(*PromSink).plans.WithLabelValues("site-a", "GREEN", "true"))
	assert.Equal(t, 2.0, count)
}

func TestPromSinkRecordTraining(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordTraining(forecast.TrainingMetrics{TestR2: 0.87, Rows: 512}))

	ps := sink.(*PromSink)
	assert.Equal(t, 1.0, testutil.ToFloat64(ps.trainings))
	assert.Equal(t, 0.87, testutil.ToFloat64(ps.trainTestR2))
	assert.Equal(t, 512.0, testutil.ToFloat64(ps.trainRows))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	// A second sink on the same registry reuses the existing collectors.
	_, err = NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
}
