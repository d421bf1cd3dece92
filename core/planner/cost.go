package planner

// EstimateCost prices the energy gap against the charger tariff. Both
// operands are validated non-negative upstream.
func EstimateCost(extraKWh, tariffPerKWh float64) float64 {
	return extraKWh * tariffPerKWh
}

// CompletionCost recomputes the final cost once a session ends, scaling the
// planned cost by the energy actually delivered and applying any accepted
// discount. Used by the session collaborator at completion time so cost is
// derived, never guessed.
func CompletionCost(plannedCost, deliveredKWh, plannedKWh, discountPct float64) float64 {
	cost := 0.0
	if plannedKWh > 0 {
		cost = plannedCost * deliveredKWh / plannedKWh
	}
	if discountPct > 0 {
		cost *= 1 - discountPct/100
	}
	return cost
}
