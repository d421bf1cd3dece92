package planner

import "github.com/kilianp07/chargeplan/core/model"

// cRates maps a battery lifecycle status to the safe charging C-rate. The
// unknown entry is the conservative default for malformed or missing
// credentials, so the lookup is total and never fails.
var cRates = map[model.LifecycleStatus]float64{
	model.LifecycleInUse:      1.5,
	model.LifecycleSecondLife: 0.7,
	model.LifecycleEndOfLife:  0.3,
	model.LifecycleUnknown:    1.0,
}

// LifecyclePowerCapKW returns the maximum charging power certified for the
// battery's lifecycle state: C-rate times capacity.
func LifecyclePowerCapKW(status model.LifecycleStatus, capacityKWh float64) float64 {
	rate, ok := cRates[status]
	if !ok {
		rate = cRates[model.LifecycleUnknown]
	}
	return rate * capacityKWh
}
