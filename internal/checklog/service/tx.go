package service

import (
	"context"
	"sync"

	dErrors "gatepass/pkg/domain-errors"
)

// MemoryTx serializes gate operations against the in-memory stores, sharing
// its mutex with the visit and pass runners.
type MemoryTx struct {
	logs   Store
	passes PassStore
	visits VisitStore
	mu     *sync.Mutex
}

func NewMemoryTx(logs Store, passes PassStore, visits VisitStore, mu *sync.Mutex) *MemoryTx {
	return &MemoryTx{logs: logs, passes: passes, visits: visits, mu: mu}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(logs Store, passes PassStore, visits VisitStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction not started")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.logs, t.passes, t.visits)
}
