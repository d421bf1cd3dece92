package model

import "testing"

func TestParseLifecycleStatusRoundTrip(t *testing.T) {
	for _, s := range []LifecycleStatus{LifecycleInUse, LifecycleSecondLife, LifecycleEndOfLife, LifecycleUnknown} {
		if got := ParseLifecycleStatus(s.String()); got != s {
			t.Fatalf("%s: round trip gave %s", s, got)
		}
	}
}

func TestParseLifecycleStatusMalformed(t *testing.T) {
	for _, raw := range []string{"", "in_use", "SECONDLIFE", "retired", "IN USE"} {
		if got := ParseLifecycleStatus(raw); got != LifecycleUnknown {
			t.Fatalf("%q: want UNKNOWN got %s", raw, got)
		}
	}
}

func TestVehicleValidate(t *testing.T) {
	v := VehicleState{BatteryCapacityKWh: 60, SoCPercent: 50, ConsumptionWhPerKm: 160, MaxChargePowerKW: 100}
	if err := v.Validate(); err != nil {
		t.Fatalf("valid vehicle rejected: %v", err)
	}
	if v.CurrentEnergyKWh() != 30 {
		t.Fatalf("current energy: want 30 got %.2f", v.CurrentEnergyKWh())
	}
	v.SoCPercent = 101
	if err := v.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}
