package main

import (
	"context"
	"database/sql"
	"time"

	visitservice "gatepass/internal/visit/service"
	visitstore "gatepass/internal/visit/store"
	dErrors "gatepass/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// visitPostgresTx runs visit lifecycle units inside a database transaction.
// The store's FindByID locks the visit row, so concurrent transitions on the
// same visit serialize at the database.
type visitPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newVisitPostgresTx(db *sql.DB) *visitPostgresTx {
	return &visitPostgresTx{db: db}
}

func (t *visitPostgresTx) RunInTx(ctx context.Context, fn func(store visitservice.Store) error) error {
	return runInTx(ctx, t.db, t.timeout, func(tx *sql.Tx) error {
		return fn(visitstore.NewPostgresTx(tx))
	})
}

// runInTx is the shared begin/rollback/commit scaffold for the postgres
// transaction runners. A deadline is imposed when the caller has none so an
// abandoned unit cannot hold row locks indefinitely.
func runInTx(ctx context.Context, db *sql.DB, timeout time.Duration, fn func(tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
