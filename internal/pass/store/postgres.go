package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gatepass/internal/pass/models"
	"gatepass/pkg/platform/sentinel"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists passes. Uniqueness of both the pass code and the
// one-pass-per-visit rule is enforced by unique indexes and surfaced as
// ErrConflict.
type Postgres struct {
	q querier
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

func NewPostgresTx(tx *sql.Tx) *Postgres {
	return &Postgres{q: tx}
}

const passColumns = "id, visit_id, pass_code, issued_by, valid_from, valid_until, used, used_at, created_at"

func (s *Postgres) Create(ctx context.Context, pass *models.Pass) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO gate_passes (id, visit_id, pass_code, issued_by, valid_from, valid_until, used, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pass.ID, pass.VisitID, pass.PassCode, pass.IssuedBy, pass.ValidFrom, pass.ValidUntil,
		pass.Used, pass.UsedAt, pass.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create pass: %w", err)
	}
	return nil
}

func (s *Postgres) FindByVisitID(ctx context.Context, visitID uuid.UUID) (*models.Pass, error) {
	query := `SELECT ` + passColumns + ` FROM gate_passes WHERE visit_id = $1`
	if _, inTx := s.q.(*sql.Tx); inTx {
		query += ` FOR UPDATE`
	}
	return scanPass(s.q.QueryRowContext(ctx, query, visitID))
}

func (s *Postgres) FindByCode(ctx context.Context, code string) (*models.Pass, error) {
	query := `SELECT ` + passColumns + ` FROM gate_passes WHERE pass_code = $1`
	if _, inTx := s.q.(*sql.Tx); inTx {
		query += ` FOR UPDATE`
	}
	return scanPass(s.q.QueryRowContext(ctx, query, strings.ToUpper(code)))
}

func (s *Postgres) Update(ctx context.Context, pass *models.Pass) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE gate_passes
		SET used = $1, used_at = $2
		WHERE id = $3`,
		pass.Used, pass.UsedAt, pass.ID,
	)
	if err != nil {
		return fmt.Errorf("update pass: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pass: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanPass(row *sql.Row) (*models.Pass, error) {
	var (
		p      models.Pass
		usedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.VisitID, &p.PassCode, &p.IssuedBy, &p.ValidFrom, &p.ValidUntil, &p.Used, &usedAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan pass: %w", err)
	}
	if usedAt.Valid {
		p.UsedAt = &usedAt.Time
	}
	return &p, nil
}
