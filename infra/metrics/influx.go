package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/chargeplan/core/forecast"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/infra/logger"
)

// InfluxSink writes plans and forecast points to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.PlanSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlan writes one computed plan as a point.
func (s *InfluxSink) RecordPlan(siteID string, plan model.ChargingPlan) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charging_plan").
		AddTag("site_id", siteID).
		AddTag("plan_type", string(plan.Type)).
		AddTag("feasible", strconv.FormatBool(plan.Feasible)).
		AddField("extra_energy_kwh", round3(plan.ExtraEnergyKWh)).
		AddField("effective_power_kw", round3(plan.EffectivePowerKW)).
		AddField("duration_hours", round3(plan.PlannedDuration.Hours())).
		AddField("planned_cost", round3(plan.PlannedCost)).
		AddField("offers", len(plan.Offers)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordForecast writes each horizon point, timestamped at its forecast hour.
func (s *InfluxSink) RecordForecast(points []model.DemandForecastPoint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, fp := range points {
		p := write.NewPointWithMeasurement("demand_forecast").
			AddTag("site_id", fp.SiteID).
			AddField("predicted_kwh", round3(fp.PredictedKWh)).
			AddField("lower_kwh", round3(fp.LowerKWh)).
			AddField("upper_kwh", round3(fp.UpperKWh)).
			AddField("predicted_sessions", fp.PredictedSessions).
			SetTime(fp.Hour)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordTraining writes the metrics of one training run.
func (s *InfluxSink) RecordTraining(m forecast.TrainingMetrics) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("forecast_training").
		AddField("train_r2", round3(m.TrainR2)).
		AddField("test_r2", round3(m.TestR2)).
		AddField("mae", round3(m.MAE)).
		AddField("rmse", round3(m.RMSE)).
		AddField("rows", m.Rows).
		AddField("sites", m.Sites).
		SetTime(m.TrainedAt)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts the underlying client down.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
