package planner

import (
	"testing"

	"github.com/kilianp07/chargeplan/core/model"
)

func TestLifecyclePowerCap(t *testing.T) {
	cases := []struct {
		status model.LifecycleStatus
		want   float64
	}{
		{model.LifecycleInUse, 112.5},
		{model.LifecycleSecondLife, 52.5},
		{model.LifecycleEndOfLife, 22.5},
		{model.LifecycleUnknown, 75},
	}
	for _, tc := range cases {
		if got := LifecyclePowerCapKW(tc.status, 75); got != tc.want {
			t.Fatalf("%s: want %.1f got %.1f", tc.status, tc.want, got)
		}
	}
}

func TestLifecyclePowerCapMalformedStatus(t *testing.T) {
	// Unrecognized claim strings degrade to the conservative default rather
	// than failing.
	for _, raw := range []string{"", "RETIRED", "in_use", "second life"} {
		status := model.ParseLifecycleStatus(raw)
		if status != model.LifecycleUnknown {
			t.Fatalf("%q should parse as unknown", raw)
		}
		if got := LifecyclePowerCapKW(status, 60); got != 60 {
			t.Fatalf("%q: want 60 got %.1f", raw, got)
		}
	}
}
