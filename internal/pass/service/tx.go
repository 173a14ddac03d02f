package service

import (
	"context"
	"sync"

	dErrors "gatepass/pkg/domain-errors"
)

// MemoryTx serializes pass issuance against the in-memory stores, sharing its
// mutex with the visit and check log runners so a pass issue and a lifecycle
// transition on the same visit cannot interleave.
type MemoryTx struct {
	passes Store
	visits VisitStore
	mu     *sync.Mutex
}

func NewMemoryTx(passes Store, visits VisitStore, mu *sync.Mutex) *MemoryTx {
	return &MemoryTx{passes: passes, visits: visits, mu: mu}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(passes Store, visits VisitStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction not started")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.passes, t.visits)
}
