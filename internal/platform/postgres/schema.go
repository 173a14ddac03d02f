package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied at startup. Statements are idempotent so restarting
// against an existing database is safe; real migrations can replace this once
// the schema starts changing.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS visits (
		id UUID PRIMARY KEY,
		guest_id UUID NOT NULL REFERENCES users(id),
		host_id UUID NOT NULL REFERENCES users(id),
		purpose TEXT NOT NULL,
		visit_date TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		rejection_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS visits_guest_idx ON visits (guest_id)`,
	`CREATE INDEX IF NOT EXISTS visits_host_idx ON visits (host_id)`,
	`CREATE INDEX IF NOT EXISTS visits_status_idx ON visits (status)`,
	`CREATE TABLE IF NOT EXISTS status_history (
		id UUID PRIMARY KEY,
		visit_id UUID NOT NULL REFERENCES visits(id),
		old_status TEXT,
		new_status TEXT NOT NULL,
		changed_by UUID NOT NULL,
		changed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS status_history_visit_idx ON status_history (visit_id)`,
	`CREATE TABLE IF NOT EXISTS gate_passes (
		id UUID PRIMARY KEY,
		visit_id UUID NOT NULL UNIQUE REFERENCES visits(id),
		pass_code TEXT NOT NULL UNIQUE,
		issued_by UUID NOT NULL REFERENCES users(id),
		valid_from TIMESTAMPTZ NOT NULL,
		valid_until TIMESTAMPTZ NOT NULL,
		used BOOLEAN NOT NULL DEFAULT FALSE,
		used_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS check_logs (
		id UUID PRIMARY KEY,
		visit_id UUID NOT NULL REFERENCES visits(id),
		pass_id UUID NOT NULL REFERENCES gate_passes(id),
		log_type TEXT NOT NULL,
		performed_by UUID NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS check_logs_visit_idx ON check_logs (visit_id, occurred_at)`,
}

// EnsureSchema creates the tables and indexes the stores rely on.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
