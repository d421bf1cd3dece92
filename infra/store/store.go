// Package store persists charging sessions and their plans, and feeds the
// demand forecaster with completed-session history.
package store

import (
	"context"

	"github.com/kilianp07/chargeplan/core/model"
)

// Store is the session persistence boundary consumed by the service.
type Store interface {
	// SavePlan records a freshly computed plan for a session.
	SavePlan(ctx context.Context, rec model.SessionRecord, plan model.ChargingPlan) error
	// Session returns the stored record and plan for the given id.
	Session(ctx context.Context, id string) (model.SessionRecord, model.ChargingPlan, error)
	// Complete marks a session finished with the energy actually delivered
	// and the recomputed final cost.
	Complete(ctx context.Context, id string, energyKWh, finalCost float64) error
	// History returns all sessions ordered by site then start time.
	History(ctx context.Context) ([]model.SessionRecord, error)
	// Insert adds raw session records, used by the history seeder.
	Insert(ctx context.Context, recs []model.SessionRecord) error
	// Close releases the underlying database.
	Close() error
}
