package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema mirrors the columns the no-show engine reads from the clinic
// database. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id         UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id               UUID PRIMARY KEY,
		patient_id       UUID NOT NULL REFERENCES patients(id),
		therapist_id     UUID NOT NULL,
		start_time       TIMESTAMPTZ NOT NULL,
		end_time         TIMESTAMPTZ NOT NULL,
		appointment_type TEXT NOT NULL DEFAULT 'consultation'
			CHECK (appointment_type IN ('consultation', 'follow_up', 'evaluation', 'treatment')),
		status           TEXT NOT NULL DEFAULT 'scheduled'
			CHECK (status IN ('scheduled', 'completed', 'cancelled', 'no_show')),
		completed_at     TIMESTAMPTZ,
		cancelled_at     TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS appointments_patient_status_idx ON appointments (patient_id, status)`,
	`CREATE INDEX IF NOT EXISTS appointments_status_start_idx ON appointments (status, start_time)`,
}

// Migrate applies the schema inside a single transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
