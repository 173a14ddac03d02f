package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"gatepass/internal/visit/models"
	"gatepass/pkg/platform/sentinel"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same store code
// runs inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists visits and status history in PostgreSQL.
type Postgres struct {
	q querier
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

// NewPostgresTx returns a store bound to an open transaction; the runner in
// cmd/server hands it to service callbacks.
func NewPostgresTx(tx *sql.Tx) *Postgres {
	return &Postgres{q: tx}
}

const visitColumns = "id, guest_id, host_id, purpose, visit_date, status, rejection_reason, created_at, updated_at"

func (s *Postgres) Create(ctx context.Context, visit *models.Visit) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO visits (id, guest_id, host_id, purpose, visit_date, status, rejection_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		visit.ID, visit.GuestID, visit.HostID, visit.Purpose, visit.VisitDate,
		string(visit.Status), visit.RejectionReason, visit.CreatedAt, visit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create visit: %w", err)
	}
	return nil
}

// FindByID locks the row FOR UPDATE when called inside a transaction runner,
// so racing transitions on the same visit serialize at the database.
func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`
	if _, inTx := s.q.(*sql.Tx); inTx {
		query += ` FOR UPDATE`
	}
	return scanVisit(s.q.QueryRowContext(ctx, query, id))
}

func (s *Postgres) Update(ctx context.Context, visit *models.Visit) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE visits
		SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4`,
		string(visit.Status), visit.RejectionReason, visit.UpdatedAt, visit.ID,
	)
	if err != nil {
		return fmt.Errorf("update visit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update visit: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, filter models.Filter) ([]*models.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits`
	var (
		clauses []string
		args    []any
	)
	addClause := func(column, op string, value any) {
		args = append(args, value)
		clauses = append(clauses, column+" "+op+" $"+strconv.Itoa(len(args)))
	}
	if filter.GuestID != nil {
		addClause("guest_id", "=", *filter.GuestID)
	}
	if filter.HostID != nil {
		addClause("host_id", "=", *filter.HostID)
	}
	if filter.Status != nil {
		addClause("status", "=", string(*filter.Status))
	}
	if filter.DateFrom != nil {
		addClause("visit_date", ">=", models.DateOnly(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		addClause("visit_date", "<=", models.DateOnly(*filter.DateTo))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []*models.Visit
	for rows.Next() {
		visit, err := scanVisitRow(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, visit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return visits, nil
}

func (s *Postgres) AppendHistory(ctx context.Context, entry *models.StatusHistoryEntry) error {
	var oldStatus *string
	if entry.OldStatus != nil {
		str := string(*entry.OldStatus)
		oldStatus = &str
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO status_history (id, visit_id, old_status, new_status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.VisitID, oldStatus, string(entry.NewStatus), entry.ChangedBy, entry.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

func (s *Postgres) ListHistory(ctx context.Context, visitID uuid.UUID) ([]*models.StatusHistoryEntry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, visit_id, old_status, new_status, changed_by, changed_at
		FROM status_history
		WHERE visit_id = $1
		ORDER BY changed_at ASC, id ASC`, visitID)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	var entries []*models.StatusHistoryEntry
	for rows.Next() {
		var (
			entry     models.StatusHistoryEntry
			oldStatus sql.NullString
			newStatus string
		)
		if err := rows.Scan(&entry.ID, &entry.VisitID, &oldStatus, &newStatus, &entry.ChangedBy, &entry.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		if oldStatus.Valid {
			status := models.Status(oldStatus.String)
			entry.OldStatus = &status
		}
		entry.NewStatus = models.Status(newStatus)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history: %w", err)
	}
	return entries, nil
}

func scanVisit(row *sql.Row) (*models.Visit, error) {
	var (
		v      models.Visit
		status string
		reason sql.NullString
	)
	err := row.Scan(&v.ID, &v.GuestID, &v.HostID, &v.Purpose, &v.VisitDate, &status, &reason, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan visit: %w", err)
	}
	v.Status = models.Status(status)
	if reason.Valid {
		v.RejectionReason = &reason.String
	}
	return &v, nil
}

func scanVisitRow(rows *sql.Rows) (*models.Visit, error) {
	var (
		v      models.Visit
		status string
		reason sql.NullString
	)
	err := rows.Scan(&v.ID, &v.GuestID, &v.HostID, &v.Purpose, &v.VisitDate, &status, &reason, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan visit: %w", err)
	}
	v.Status = models.Status(status)
	if reason.Valid {
		v.RejectionReason = &reason.String
	}
	return &v, nil
}
