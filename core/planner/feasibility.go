package planner

import (
	"fmt"
	"time"
)

// Feasibility is the verdict of the timing stage. An infeasible plan is not
// an error: it is returned fully computed so the caller can renegotiate.
type Feasibility struct {
	Duration   time.Duration
	FinishTime time.Time
	Feasible   bool
	Warning    string
}

// EvaluateFeasibility checks whether charging the energy gap at the effective
// power completes before departure. A zero gap needs no charging time
// regardless of power, which also keeps the division well defined.
func EvaluateFeasibility(extraKWh, effectivePowerKW float64, now, departure time.Time) Feasibility {
	var dur time.Duration
	if extraKWh > 0 && effectivePowerKW > 0 {
		dur = time.Duration(extraKWh / effectivePowerKW * float64(time.Hour))
	}
	finish := now.Add(dur)
	f := Feasibility{Duration: dur, FinishTime: finish, Feasible: !finish.After(departure)}
	if f.Feasible {
		return f
	}

	available := departure.Sub(now).Hours()
	if available < 0 {
		available = 0
	}
	shortfallKWh := extraKWh - effectivePowerKW*available
	if shortfallKWh < 0 {
		shortfallKWh = 0
	}
	overshoot := finish.Sub(departure).Hours()
	f.Warning = fmt.Sprintf(
		"charging needs %.2f h but only %.2f h remain before departure: %.2f kWh short, finish overshoots by %.2f h; consider a faster charger or a shorter trip",
		dur.Hours(), available, shortfallKWh, overshoot)
	return f
}
