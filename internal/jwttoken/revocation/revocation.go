// Package revocation tracks token IDs that were invalidated before their
// natural expiry (logout). Entries only need to live as long as the token
// they shadow.
package revocation

import (
	"context"
	"sync"
	"time"
)

// Store is the denylist consulted by the auth middleware on every request.
type Store interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// InMemory is the fallback store used when Redis is not configured.
type InMemory struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{revoked: make(map[string]time.Time)}
}

func (s *InMemory) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = until
	return nil
}

func (s *InMemory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	until, ok := s.revoked[tokenID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		// Token would have expired on its own; drop the stale entry.
		s.mu.Lock()
		delete(s.revoked, tokenID)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}
