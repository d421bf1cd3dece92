// Package planner computes trip-aware charging plans. The pipeline runs in a
// fixed order — energy budget, lifecycle power cap, feasibility, cost,
// forecast lookup, incentives — with each stage a pure function so the
// invariants between them stay checkable.
package planner

import (
	"math"
	"time"

	"github.com/kilianp07/chargeplan/core/events"
	"github.com/kilianp07/chargeplan/core/incentive"
	"github.com/kilianp07/chargeplan/core/logger"
	"github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/internal/eventbus"
)

// ForecastSource supplies hourly demand predictions for a site. A nil source
// or a source error degrades the plan to no demand-based offers; it never
// fails the request.
type ForecastSource interface {
	Forecast(siteID string, start time.Time, hours int) ([]model.DemandForecastPoint, error)
}

// Planner composes the planning stages for one request at a time. It holds
// no mutable state, so a single Planner may serve concurrent requests.
type Planner struct {
	cfg        Config
	incentives *incentive.Engine
	forecasts  ForecastSource
	log        logger.Logger
	sink       metrics.PlanSink
	bus        eventbus.EventBus
	now        func() time.Time
}

// New creates a Planner. The forecast source may be nil when no trained
// model is available yet.
func New(cfg Config, eng *incentive.Engine, forecasts ForecastSource, log logger.Logger) *Planner {
	cfg.SetDefaults()
	return &Planner{
		cfg:        cfg,
		incentives: eng,
		forecasts:  forecasts,
		log:        log,
		now:        time.Now,
	}
}

// SetMetricsSink configures the sink receiving computed plans.
func (p *Planner) SetMetricsSink(sink metrics.PlanSink) { p.sink = sink }

// SetEventBus configures the bus receiving plan events.
func (p *Planner) SetEventBus(bus eventbus.EventBus) { p.bus = bus }

// SetClock overrides the time source, for tests.
func (p *Planner) SetClock(now func() time.Time) { p.now = now }

// Plan computes the charging plan for one request. Infeasibility is a plan
// attribute, not an error; only invalid inputs fail.
func (p *Planner) Plan(req model.PlanRequest) (model.ChargingPlan, error) {
	if err := req.Charger.Validate(); err != nil {
		return model.ChargingPlan{}, &InvalidInputError{Field: "charger", Err: err}
	}
	budget, err := ComputeEnergyBudget(req.Vehicle, req.Trip, p.cfg.SafetyMargin)
	if err != nil {
		return model.ChargingPlan{}, err
	}
	now := p.now()

	if req.Credential.Lifecycle == model.LifecycleUnknown {
		p.log.Warnf("lifecycle status unknown for battery %q, applying conservative power cap", req.Credential.BatteryID)
		p.publish(events.DegradedTrustEvent{
			SessionID: req.SessionID,
			BatteryID: req.Credential.BatteryID,
			RawStatus: req.Credential.Lifecycle.String(),
			Timestamp: now,
		})
	}
	lifecycleCap := LifecyclePowerCapKW(req.Credential.Lifecycle, req.Vehicle.BatteryCapacityKWh)
	capped := math.Min(req.Charger.MaxPowerKW, math.Min(req.Vehicle.MaxChargePowerKW, lifecycleCap))
	effective := capped * p.cfg.EfficiencyFactor

	feas := EvaluateFeasibility(budget.ExtraKWh, effective, now, req.Trip.DepartureTime)
	cost := EstimateCost(budget.ExtraKWh, req.Charger.TariffPerKWh)

	plan := model.ChargingPlan{
		NeededTripEnergyKWh: budget.NeededTripKWh,
		CurrentEnergyKWh:    budget.CurrentKWh,
		ExtraEnergyKWh:      budget.ExtraKWh,
		TargetSoCPercent:    round2(budget.TargetSoCPercent),
		EffectivePowerKW:    effective,
		PlannedDuration:     feas.Duration,
		PlannedFinishTime:   feas.FinishTime,
		Feasible:            feas.Feasible,
		FeasibilityWarning:  feas.Warning,
		PlannedCost:         round2(cost),
		Type:                model.PlanStandard,
	}

	decision := p.incentives.Decide(incentive.Input{
		Prefs:            req.Driver,
		SiteCapacityKW:   req.Charger.SiteCapacityKW,
		Forecast:         p.startHourForecast(req.Charger.SiteID, now, feas.Duration),
		Now:              now,
		Departure:        req.Trip.DepartureTime,
		ChargeDuration:   feas.Duration,
		Feasible:         feas.Feasible,
		EffectivePowerKW: effective,
		ChargerMaxKW:     req.Charger.MaxPowerKW,
	})
	plan.Offers = decision.Offers
	plan.Type = decision.Type

	if p.sink != nil {
		if err := p.sink.RecordPlan(req.Charger.SiteID, plan); err != nil {
			p.log.Errorf("record plan: %v", err)
		}
	}
	p.publish(events.PlanComputedEvent{
		SessionID: req.SessionID,
		SiteID:    req.Charger.SiteID,
		Feasible:  plan.Feasible,
		PlanType:  plan.Type,
		Offers:    len(plan.Offers),
		Timestamp: now,
	})
	p.log.Debugw("plan computed", map[string]any{
		"session_id": req.SessionID,
		"site_id":    req.Charger.SiteID,
		"extra_kwh":  plan.ExtraEnergyKWh,
		"feasible":   plan.Feasible,
		"plan_type":  string(plan.Type),
	})
	return plan, nil
}

// startHourForecast fetches the demand prediction for the hour the charging
// window starts in. Forecast unavailability is logged and tolerated.
func (p *Planner) startHourForecast(siteID string, now time.Time, dur time.Duration) *model.DemandForecastPoint {
	if p.forecasts == nil {
		return nil
	}
	hours := int(dur.Hours()) + 1
	points, err := p.forecasts.Forecast(siteID, now, hours)
	if err != nil {
		p.log.Warnf("forecast unavailable for site %s: %v", siteID, err)
		return nil
	}
	if len(points) == 0 {
		return nil
	}
	return &points[0]
}

func (p *Planner) publish(e eventbus.Event) {
	if p.bus != nil {
		p.bus.Publish(e)
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
