package main

import (
	"context"
	"database/sql"
	"time"

	passservice "gatepass/internal/pass/service"
	passstore "gatepass/internal/pass/store"
	visitstore "gatepass/internal/visit/store"
)

// passPostgresTx runs pass issuance inside a database transaction spanning
// the pass and visit tables.
type passPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newPassPostgresTx(db *sql.DB) *passPostgresTx {
	return &passPostgresTx{db: db}
}

func (t *passPostgresTx) RunInTx(ctx context.Context, fn func(passes passservice.Store, visits passservice.VisitStore) error) error {
	return runInTx(ctx, t.db, t.timeout, func(tx *sql.Tx) error {
		return fn(passstore.NewPostgresTx(tx), visitstore.NewPostgresTx(tx))
	})
}
