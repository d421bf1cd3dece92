// Package incentive decides which discount and reward offers to attach to a
// computed charging plan. The engine only reads the plan inputs and appends
// offers plus a classification; energy, cost and feasibility are never touched.
package incentive

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/chargeplan/core/model"
)

// Engine evaluates incentive policies against a computed plan.
type Engine struct {
	cfg Config
}

// New returns an engine with the given policy configuration.
func New(cfg Config) *Engine {
	cfg.SetDefaults()
	return &Engine{cfg: cfg}
}

// Input is everything the engine may consider. Forecast is the demand
// prediction for the plan's start hour and is nil when the forecaster is
// unavailable, in which case demand-based offers are simply skipped.
type Input struct {
	Prefs            model.DriverPreferences
	SiteCapacityKW   float64
	Forecast         *model.DemandForecastPoint
	Now              time.Time
	Departure        time.Time
	ChargeDuration   time.Duration
	Feasible         bool
	EffectivePowerKW float64
	ChargerMaxKW     float64
}

// Decision carries the offers and classification the orchestrator appends to
// the plan. Offers are additive: zero, one or several may apply.
type Decision struct {
	Offers []model.IncentiveOffer
	Type   model.PlanType
}

// Decide applies the incentive policies in a fixed order: demand time-shift
// discount, low-carbon reward, then priority-driven reclassification.
func (e *Engine) Decide(in Input) Decision {
	dec := Decision{Type: model.PlanStandard}

	peak := false
	if in.Forecast != nil && in.SiteCapacityKW > 0 {
		ratio := in.Forecast.PredictedKWh / in.SiteCapacityKW
		peak = ratio > e.cfg.CapacityThreshold
		if peak && in.Feasible && e.hasShiftSlack(in) {
			pct := e.discountPct(ratio)
			slot := in.Now.Add(time.Duration(e.cfg.ShiftHours) * time.Hour)
			dec.Offers = append(dec.Offers, model.IncentiveOffer{
				Type:  model.OfferDiscount,
				Value: pct,
				Reason: fmt.Sprintf(
					"site demand forecast at %.0f%% of capacity: shift start by %dh for a %.0f%% discount",
					ratio*100, e.cfg.ShiftHours, pct),
				TimeSlot: &slot,
			})
		}
	}

	if in.Prefs.CarbonConscious && e.overlapsLowCarbonWindow(in.Now, in.ChargeDuration) {
		dec.Type = model.PlanGreen
		dec.Offers = append(dec.Offers, model.IncentiveOffer{
			Type:   model.OfferRewardPoints,
			Value:  e.cfg.RewardPoints,
			Reason: "charging window overlaps the renewable generation peak",
		})
	}

	if in.Prefs.Priority == model.PrioritySpeed && in.EffectivePowerKW < in.ChargerMaxKW {
		dec.Type = model.PlanFast
	}
	if in.Prefs.Priority == model.PriorityCost && !peak {
		dec.Type = model.PlanEconomy
		dec.Offers = append(dec.Offers, model.IncentiveOffer{
			Type:   model.OfferDiscount,
			Value:  e.cfg.OffPeakDiscountPct,
			Reason: "off-peak charging discount",
		})
	}
	return dec
}

// discountPct sizes the time-shift discount proportionally to how far the
// forecast exceeds the capacity threshold.
func (e *Engine) discountPct(ratio float64) float64 {
	pct := e.cfg.DiscountSlope * (ratio - e.cfg.CapacityThreshold) * 100
	return math.Min(e.cfg.MaxDiscountPct, pct)
}

// hasShiftSlack reports whether the driver can absorb the suggested delay and
// still finish charging before departure.
func (e *Engine) hasShiftSlack(in Input) bool {
	slack := in.Departure.Sub(in.Now) - in.ChargeDuration
	return slack > time.Duration(e.cfg.ShiftHours)*time.Hour
}

// overlapsLowCarbonWindow reports whether any hour of the charging window
// falls inside the configured renewable-peak hours.
func (e *Engine) overlapsLowCarbonWindow(start time.Time, dur time.Duration) bool {
	end := start.Add(dur)
	for t := start; !t.After(end); t = t.Truncate(time.Hour).Add(time.Hour) {
		h := t.Hour()
		if h >= e.cfg.LowCarbonStartHour && h <= e.cfg.LowCarbonEndHour {
			return true
		}
	}
	return false
}
