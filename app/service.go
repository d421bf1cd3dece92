// Package app wires the planner, forecaster, store and transports into the
// running service.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/core/events"
	"github.com/kilianp07/chargeplan/core/forecast"
	"github.com/kilianp07/chargeplan/core/incentive"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/planner"
	"github.com/kilianp07/chargeplan/infra/credential"
	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/infra/metrics"
	"github.com/kilianp07/chargeplan/infra/mqtt"
	"github.com/kilianp07/chargeplan/infra/store"
	"github.com/kilianp07/chargeplan/internal/eventbus"
)

// Service orchestrates plan computation around the MQTT request loop, the
// session store and the periodic forecaster retrain.
type Service struct {
	Planner  *planner.Planner
	Forecast *forecast.Handle
	Store    store.Store

	creds       credential.Resolver
	client      *mqtt.Client
	bus         eventbus.EventBus
	sink        coremetrics.PlanSink
	log         logger.Logger
	retrain     time.Duration
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var sinks []coremetrics.PlanSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.PlanSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	handle := forecast.NewHandle(cfg.Forecast, logger.New("forecast"))
	engine := incentive.New(cfg.Incentive)
	pl := planner.New(cfg.Planner, engine, &handleSource{handle: handle, sink: sink}, logger.New("planner"))
	pl.SetMetricsSink(sink)
	pl.SetEventBus(bus)

	svc := &Service{
		Planner:     pl,
		Forecast:    handle,
		Store:       st,
		bus:         bus,
		sink:        sink,
		log:         logg,
		retrain:     time.Duration(cfg.Training.IntervalMinutes) * time.Minute,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}
	if cfg.Credential.Endpoint != "" {
		svc.creds = credential.NewHTTPResolver(cfg.Credential)
	}
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.client = client
	}
	return svc, nil
}

// handleSource adapts the forecast handle to the planner's source interface
// and mirrors every served horizon to the metrics sink.
type handleSource struct {
	handle *forecast.Handle
	sink   coremetrics.PlanSink
}

func (s *handleSource) Forecast(siteID string, start time.Time, hours int) ([]model.DemandForecastPoint, error) {
	hz, err := s.handle.Forecast(siteID, start, hours)
	if err != nil {
		return nil, err
	}
	points := hz.Collect()
	if s.sink != nil {
		_ = s.sink.RecordForecast(points)
	}
	return points, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.train(ctx); err != nil {
		s.log.Warnf("initial training skipped: %v", err)
	}
	go s.retrainLoop(ctx)

	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.client != nil {
		if err := s.client.SubscribeRequests(func(req model.PlanRequest) {
			s.handleRequest(ctx, req)
		}); err != nil {
			return fmt.Errorf("subscribe requests: %w", err)
		}
	}
	<-ctx.Done()
	return nil
}

// handleRequest computes, stores and publishes the plan for one request.
func (s *Service) handleRequest(ctx context.Context, req model.PlanRequest) {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.Credential.BatteryID != "" && req.Credential.Lifecycle == model.LifecycleUnknown {
		req.Credential = credential.ResolveOrUnknown(ctx, s.creds, req.Credential.BatteryID, s.log)
	}
	plan, err := s.Planner.Plan(req)
	if err != nil {
		s.log.Errorf("plan for session %s failed: %v", req.SessionID, err)
		return
	}
	rec := model.SessionRecord{
		ID:        req.SessionID,
		SiteID:    req.Charger.SiteID,
		StartTime: time.Now().UTC(),
		Status:    model.StatusComputed,
	}
	if err := s.Store.SavePlan(ctx, rec, plan); err != nil {
		s.log.Errorf("save plan for session %s: %v", req.SessionID, err)
	}
	if s.client != nil {
		if err := s.client.PublishPlan(req.SessionID, plan); err != nil {
			s.log.Errorf("publish plan for session %s: %v", req.SessionID, err)
		}
	}
}

// train fits the demand model on the stored session history.
func (s *Service) train(ctx context.Context) error {
	history, err := s.Store.History(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	m, err := s.Forecast.Train(ctx, history)
	s.bus.Publish(events.TrainingEvent{Rows: m.Rows, TestR2: m.TestR2, Err: err, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := s.sink.RecordTraining(m); err != nil {
		s.log.Errorf("record training: %v", err)
	}
	return nil
}

// retrainLoop refreshes the model on the configured cadence.
func (s *Service) retrainLoop(ctx context.Context) {
	if s.retrain <= 0 {
		return
	}
	ticker := time.NewTicker(s.retrain)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.train(ctx); err != nil {
				s.log.Warnf("scheduled retrain failed: %v", err)
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.client != nil {
		s.client.Disconnect()
	}
	s.bus.Close()
	if err := s.sink.Close(); err != nil {
		s.log.Errorf("sink close: %v", err)
	}
	return s.Store.Close()
}
