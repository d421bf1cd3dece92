package planner

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/kilianp07/chargeplan/core/incentive"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/infra/logger"
)

type stubForecast struct {
	points []model.DemandForecastPoint
	err    error
}

func (s stubForecast) Forecast(siteID string, start time.Time, hours int) ([]model.DemandForecastPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.points, nil
}

var testNow = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func newTestPlanner(fs ForecastSource) *Planner {
	p := New(Config{}, incentive.New(incentive.Config{}), fs, logger.NopLogger{})
	p.SetClock(func() time.Time { return testNow })
	return p
}

func baseRequest() model.PlanRequest {
	return model.PlanRequest{
		SessionID: "sess-1",
		Driver:    model.DriverPreferences{Priority: model.PriorityBalanced},
		Vehicle: model.VehicleState{
			ID:                 "veh-1",
			BatteryCapacityKWh: 75,
			SoCPercent:         35,
			ConsumptionWhPerKm: 180,
			MaxChargePowerKW:   150,
		},
		Charger: model.ChargerCapability{
			ID:           "chg-1",
			SiteID:       "site-a",
			MaxPowerKW:   150,
			TariffPerKWh: 0.4,
			Available:    true,
		},
		Trip:       model.TripRequest{DistanceKm: 120, DepartureTime: testNow.Add(4 * time.Hour)},
		Credential: model.BatteryCredential{BatteryID: "bat-1", Lifecycle: model.LifecycleInUse},
	}
}

// Scenario: a battery that already holds enough energy for the trip needs no
// charging at all.
func TestPlanSufficientBattery(t *testing.T) {
	plan, err := newTestPlanner(nil).Plan(baseRequest())
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if math.Abs(plan.NeededTripEnergyKWh-25.92) > 1e-9 {
		t.Fatalf("needed: want 25.92 got %.4f", plan.NeededTripEnergyKWh)
	}
	if math.Abs(plan.CurrentEnergyKWh-26.25) > 1e-9 {
		t.Fatalf("current: want 26.25 got %.4f", plan.CurrentEnergyKWh)
	}
	if plan.ExtraEnergyKWh != 0 || plan.PlannedDuration != 0 {
		t.Fatalf("expected no charging: extra=%.4f dur=%v", plan.ExtraEnergyKWh, plan.PlannedDuration)
	}
	if !plan.Feasible || plan.FeasibilityWarning != "" {
		t.Fatalf("expected feasible plan without warning: %+v", plan)
	}
	if plan.PlannedCost != 0 {
		t.Fatalf("no energy means no cost, got %.2f", plan.PlannedCost)
	}
}

// Scenario: a long trip on a slow charger with a near departure cannot finish
// in time; the plan is still returned, marked infeasible.
func TestPlanInfeasibleShortDeadline(t *testing.T) {
	req := baseRequest()
	req.Vehicle.SoCPercent = 20
	req.Trip = model.TripRequest{DistanceKm: 200, DepartureTime: testNow.Add(time.Hour)}
	req.Charger.MaxPowerKW = 50

	plan, err := newTestPlanner(nil).Plan(req)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Feasible {
		t.Fatal("expected infeasible plan")
	}
	if plan.FeasibilityWarning == "" {
		t.Fatal("infeasible plan must carry a warning")
	}
	if plan.ExtraEnergyKWh <= 0 {
		t.Fatalf("expected positive energy gap, got %.4f", plan.ExtraEnergyKWh)
	}
}

// Scenario: a second-life battery caps effective power below what charger and
// vehicle could deliver.
func TestPlanSecondLifePowerCap(t *testing.T) {
	req := baseRequest()
	req.Vehicle.SoCPercent = 20
	req.Trip.DistanceKm = 300
	req.Credential.Lifecycle = model.LifecycleSecondLife

	plan, err := newTestPlanner(nil).Plan(req)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	want := 52.5 * 0.85
	if math.Abs(plan.EffectivePowerKW-want) > 1e-9 {
		t.Fatalf("effective power: want %.4f got %.4f", want, plan.EffectivePowerKW)
	}
}

// The capped-power invariant holds for every lifecycle status, including the
// conservative default for malformed claims.
func TestPlanEffectivePowerInvariant(t *testing.T) {
	statuses := []model.LifecycleStatus{
		model.LifecycleInUse,
		model.LifecycleSecondLife,
		model.LifecycleEndOfLife,
		model.LifecycleUnknown,
		model.ParseLifecycleStatus("garbage"),
	}
	for _, st := range statuses {
		req := baseRequest()
		req.Vehicle.SoCPercent = 10
		req.Trip.DistanceKm = 350
		req.Credential.Lifecycle = st
		plan, err := newTestPlanner(nil).Plan(req)
		if err != nil {
			t.Fatalf("%s: %v", st, err)
		}
		cap := LifecyclePowerCapKW(st, req.Vehicle.BatteryCapacityKWh)
		limit := math.Min(req.Charger.MaxPowerKW, math.Min(req.Vehicle.MaxChargePowerKW, cap))
		if plan.EffectivePowerKW > limit+1e-9 {
			t.Fatalf("%s: effective %.4f exceeds limit %.4f", st, plan.EffectivePowerKW, limit)
		}
	}
}

func TestPlanDeterministic(t *testing.T) {
	req := baseRequest()
	req.Vehicle.SoCPercent = 15
	req.Trip.DistanceKm = 250
	fs := stubForecast{points: []model.DemandForecastPoint{{SiteID: "site-a", PredictedKWh: 100}}}
	p := newTestPlanner(fs)
	first, err := p.Plan(req)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	second, err := p.Plan(req)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("plans differ:\n%+v\n%+v", first, second)
	}
}

// A failing forecaster degrades to a plan without demand offers instead of
// failing the request.
func TestPlanForecastFailureDegrades(t *testing.T) {
	req := baseRequest()
	req.Charger.SiteCapacityKW = 200
	req.Driver.CarbonConscious = true // carbon reward does not depend on the forecast

	p := newTestPlanner(stubForecast{err: fmt.Errorf("model not trained")})
	// Noon start, inside the renewable-peak window.
	p.SetClock(func() time.Time { return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC) })
	req.Trip.DepartureTime = time.Date(2025, 6, 2, 16, 0, 0, 0, time.UTC)
	plan, err := p.Plan(req)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, o := range plan.Offers {
		if o.Type == model.OfferDiscount {
			t.Fatalf("unexpected demand offer without forecast: %+v", o)
		}
	}
	if plan.Type != model.PlanGreen {
		t.Fatalf("carbon classification should survive forecast failure, got %s", plan.Type)
	}
}

func TestPlanInvalidCharger(t *testing.T) {
	req := baseRequest()
	req.Charger.MaxPowerKW = 0
	_, err := newTestPlanner(nil).Plan(req)
	var inv *InvalidInputError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
}
