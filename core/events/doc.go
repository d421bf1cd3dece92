// Package events defines the planning related events emitted on the event bus.
//
// Available event types:
//   - PlanComputedEvent: a charging plan was produced for a session
//   - TrainingEvent: a forecaster training run finished
//   - DegradedTrustEvent: a battery credential could not be resolved
package events
