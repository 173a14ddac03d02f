package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gatepass/internal/visit/models"
	"gatepass/pkg/platform/sentinel"
)

// InMemory keeps visits and their status history in maps guarded by a
// RWMutex. Writes that must be atomic across calls are serialized by the
// memory transaction runner, which shares one lock across all engines.
type InMemory struct {
	mu      sync.RWMutex
	visits  map[uuid.UUID]*models.Visit
	history map[uuid.UUID][]*models.StatusHistoryEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		visits:  make(map[uuid.UUID]*models.Visit),
		history: make(map[uuid.UUID][]*models.StatusHistoryEntry),
	}
}

func (s *InMemory) Create(_ context.Context, visit *models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.visits[visit.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *visit
	s.visits[visit.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visit, ok := s.visits[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *visit
	return &clone, nil
}

func (s *InMemory) Update(_ context.Context, visit *models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visits[visit.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *visit
	s.visits[visit.ID] = &clone
	return nil
}

// List returns visits matching the filter, newest first.
func (s *InMemory) List(_ context.Context, filter models.Filter) ([]*models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var visits []*models.Visit
	for _, visit := range s.visits {
		if filter.Matches(visit) {
			clone := *visit
			visits = append(visits, &clone)
		}
	}
	sort.Slice(visits, func(i, j int) bool {
		return visits[i].CreatedAt.After(visits[j].CreatedAt)
	})
	return visits, nil
}

func (s *InMemory) AppendHistory(_ context.Context, entry *models.StatusHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *entry
	s.history[entry.VisitID] = append(s.history[entry.VisitID], &clone)
	return nil
}

// ListHistory returns the status history for a visit in chronological order.
func (s *InMemory) ListHistory(_ context.Context, visitID uuid.UUID) ([]*models.StatusHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[visitID]
	out := make([]*models.StatusHistoryEntry, 0, len(entries))
	for _, entry := range entries {
		clone := *entry
		out = append(out, &clone)
	}
	return out, nil
}
