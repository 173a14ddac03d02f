package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"gatepass/internal/pass/models"
	"gatepass/pkg/platform/sentinel"
)

// InMemory keeps passes indexed by id, visit and code. Both the per-visit and
// the per-code uniqueness checks happen under the write lock, mirroring the
// unique constraints the Postgres store relies on.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.Pass
	byVisit map[uuid.UUID]uuid.UUID
	byCode  map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[uuid.UUID]*models.Pass),
		byVisit: make(map[uuid.UUID]uuid.UUID),
		byCode:  make(map[string]uuid.UUID),
	}
}

func (s *InMemory) Create(_ context.Context, pass *models.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byVisit[pass.VisitID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byCode[pass.PassCode]; exists {
		return sentinel.ErrConflict
	}
	clone := *pass
	s.byID[pass.ID] = &clone
	s.byVisit[pass.VisitID] = pass.ID
	s.byCode[pass.PassCode] = pass.ID
	return nil
}

func (s *InMemory) FindByVisitID(_ context.Context, visitID uuid.UUID) (*models.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byVisit[visitID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

// FindByCode matches case-insensitively; codes are stored uppercase.
func (s *InMemory) FindByCode(_ context.Context, code string) (*models.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *InMemory) Update(_ context.Context, pass *models.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[pass.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *pass
	s.byID[pass.ID] = &clone
	return nil
}
