package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gatepass/internal/checklog/models"
	"gatepass/pkg/platform/sentinel"
)

// InMemory keeps gate logs as append-only per-visit slices.
type InMemory struct {
	mu      sync.RWMutex
	byVisit map[uuid.UUID][]*models.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{byVisit: make(map[uuid.UUID][]*models.Entry)}
}

func (s *InMemory) Append(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *entry
	s.byVisit[entry.VisitID] = append(s.byVisit[entry.VisitID], &clone)
	return nil
}

// Latest returns the most recent entry for a visit.
func (s *InMemory) Latest(_ context.Context, visitID uuid.UUID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.byVisit[visitID]
	if len(entries) == 0 {
		return nil, sentinel.ErrNotFound
	}
	clone := *entries[len(entries)-1]
	return &clone, nil
}

// ListByVisit returns a visit's gate log in chronological order.
func (s *InMemory) ListByVisit(_ context.Context, visitID uuid.UUID) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.byVisit[visitID]
	out := make([]*models.Entry, 0, len(entries))
	for _, entry := range entries {
		clone := *entry
		out = append(out, &clone)
	}
	return out, nil
}

// LatestPerVisit returns the most recent entry of every visit that has gate
// activity, ordered by time. Presence is derived from the entries whose type
// is check_in.
func (s *InMemory) LatestPerVisit(_ context.Context) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Entry
	for _, entries := range s.byVisit {
		if len(entries) == 0 {
			continue
		}
		clone := *entries[len(entries)-1]
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}
