package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/chargeplan/core/model"
)

// SQLiteStore persists sessions to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS sessions (
        id TEXT PRIMARY KEY,
        site_id TEXT NOT NULL,
        start_time INTEGER NOT NULL,
        energy_delivered_kwh REAL,
        status TEXT NOT NULL,
        plan TEXT,
        final_cost REAL
    );
    CREATE INDEX IF NOT EXISTS idx_sessions_site_time ON sessions(site_id, start_time);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// SavePlan stores the session record together with its serialized plan.
func (s *SQLiteStore) SavePlan(ctx context.Context, rec model.SessionRecord, plan model.ChargingPlan) error {
	b, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions(id, site_id, start_time, energy_delivered_kwh, status, plan) VALUES(?,?,?,?,?,?)`,
		rec.ID, rec.SiteID, rec.StartTime.UTC().Unix(), rec.EnergyDeliveredKWh, string(rec.Status), string(b))
	return err
}

// Session loads one record and its plan.
func (s *SQLiteStore) Session(ctx context.Context, id string) (model.SessionRecord, model.ChargingPlan, error) {
	var (
		rec     model.SessionRecord
		plan    model.ChargingPlan
		startTS int64
		status  string
		raw     sql.NullString
		energy  sql.NullFloat64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, site_id, start_time, energy_delivered_kwh, status, plan FROM sessions WHERE id = ?`, id)
	if err := row.Scan(&rec.ID, &rec.SiteID, &startTS, &energy, &status, &raw); err != nil {
		return rec, plan, err
	}
	rec.StartTime = time.Unix(startTS, 0).UTC()
	rec.Status = model.SessionStatus(status)
	if energy.Valid {
		rec.EnergyDeliveredKWh = energy.Float64
	}
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &plan); err != nil {
			return rec, plan, fmt.Errorf("unmarshal plan: %w", err)
		}
	}
	return rec, plan, nil
}

// Complete marks a session finished.
func (s *SQLiteStore) Complete(ctx context.Context, id string, energyKWh, finalCost float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, energy_delivered_kwh = ?, final_cost = ? WHERE id = ?`,
		string(model.StatusCompleted), energyKWh, finalCost, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// History returns all sessions ordered by site and start time.
func (s *SQLiteStore) History(ctx context.Context) ([]model.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, site_id, start_time, energy_delivered_kwh, status FROM sessions ORDER BY site_id, start_time`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.SessionRecord
	for rows.Next() {
		var (
			rec     model.SessionRecord
			startTS int64
			status  string
			energy  sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.SiteID, &startTS, &energy, &status); err != nil {
			return nil, err
		}
		rec.StartTime = time.Unix(startTS, 0).UTC()
		rec.Status = model.SessionStatus(status)
		if energy.Valid {
			rec.EnergyDeliveredKWh = energy.Float64
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Insert adds raw session records in one transaction.
func (s *SQLiteStore) Insert(ctx context.Context, recs []model.SessionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO sessions(id, site_id, start_time, energy_delivered_kwh, status) VALUES(?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.SiteID, rec.StartTime.UTC().Unix(), rec.EnergyDeliveredKWh, string(rec.Status)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
