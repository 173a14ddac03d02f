package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gatepass/internal/checklog/models"
	"gatepass/pkg/platform/sentinel"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists the append-only gate log.
type Postgres struct {
	q querier
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

func NewPostgresTx(tx *sql.Tx) *Postgres {
	return &Postgres{q: tx}
}

const entryColumns = "id, visit_id, pass_id, log_type, performed_by, occurred_at"

func (s *Postgres) Append(ctx context.Context, entry *models.Entry) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO check_logs (id, visit_id, pass_id, log_type, performed_by, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.VisitID, entry.PassID, string(entry.Type), entry.PerformedBy, entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append check log: %w", err)
	}
	return nil
}

func (s *Postgres) Latest(ctx context.Context, visitID uuid.UUID) (*models.Entry, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM check_logs
		WHERE visit_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT 1`, visitID)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *Postgres) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*models.Entry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM check_logs
		WHERE visit_id = $1
		ORDER BY occurred_at ASC, id ASC`, visitID)
	if err != nil {
		return nil, fmt.Errorf("list check logs: %w", err)
	}
	return collectEntries(rows)
}

func (s *Postgres) LatestPerVisit(ctx context.Context) ([]*models.Entry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT DISTINCT ON (visit_id) `+entryColumns+`
		FROM check_logs
		ORDER BY visit_id, occurred_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list latest check logs: %w", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]*models.Entry, error) {
	defer rows.Close()
	var entries []*models.Entry
	for rows.Next() {
		var (
			entry   models.Entry
			logType string
		)
		if err := rows.Scan(&entry.ID, &entry.VisitID, &entry.PassID, &logType, &entry.PerformedBy, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan check log: %w", err)
		}
		entry.Type = models.LogType(logType)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check logs: %w", err)
	}
	return entries, nil
}

func scanEntry(row *sql.Row) (*models.Entry, error) {
	var (
		entry   models.Entry
		logType string
	)
	if err := row.Scan(&entry.ID, &entry.VisitID, &entry.PassID, &logType, &entry.PerformedBy, &entry.OccurredAt); err != nil {
		return nil, err
	}
	entry.Type = models.LogType(logType)
	return &entry, nil
}
