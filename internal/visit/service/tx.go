package service

import (
	"context"
	"sync"

	dErrors "gatepass/pkg/domain-errors"
)

// MemoryTx serializes atomic units against the in-memory store. The mutex is
// shared with the pass and check log runners so cross-module units touching
// the same visit cannot interleave.
type MemoryTx struct {
	store Store
	mu    *sync.Mutex
}

func NewMemoryTx(store Store, mu *sync.Mutex) *MemoryTx {
	return &MemoryTx{store: store, mu: mu}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction not started")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.store)
}
