package main

import (
	"context"
	"database/sql"
	"time"

	checkservice "gatepass/internal/checklog/service"
	checkstore "gatepass/internal/checklog/store"
	passstore "gatepass/internal/pass/store"
	visitstore "gatepass/internal/visit/store"
)

// checklogPostgresTx runs gate operations inside a database transaction
// spanning the gate log, pass and visit tables.
type checklogPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newChecklogPostgresTx(db *sql.DB) *checklogPostgresTx {
	return &checklogPostgresTx{db: db}
}

func (t *checklogPostgresTx) RunInTx(ctx context.Context, fn func(logs checkservice.Store, passes checkservice.PassStore, visits checkservice.VisitStore) error) error {
	return runInTx(ctx, t.db, t.timeout, func(tx *sql.Tx) error {
		return fn(checkstore.NewPostgresTx(tx), passstore.NewPostgresTx(tx), visitstore.NewPostgresTx(tx))
	})
}
