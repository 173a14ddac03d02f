package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gatepass/internal/visit/models"
	"gatepass/pkg/platform/sentinel"
)

type VisitStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func (s *VisitStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *VisitStoreSuite) newVisit(guestID, hostID uuid.UUID, date time.Time) *models.Visit {
	visit, err := models.NewVisit(uuid.New(), guestID, hostID, "meeting", date, date)
	s.Require().NoError(err)
	return visit
}

func (s *VisitStoreSuite) TestCreateAndFind() {
	visit := s.newVisit(uuid.New(), uuid.New(), time.Now())
	s.Require().NoError(s.store.Create(s.ctx, visit))

	found, err := s.store.FindByID(s.ctx, visit.ID)
	s.Require().NoError(err)
	s.Equal(visit.ID, found.ID)
	s.Equal(models.StatusPendingHost, found.Status)

	_, err = s.store.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *VisitStoreSuite) TestCreateDuplicateIDConflicts() {
	visit := s.newVisit(uuid.New(), uuid.New(), time.Now())
	s.Require().NoError(s.store.Create(s.ctx, visit))
	s.ErrorIs(s.store.Create(s.ctx, visit), sentinel.ErrConflict)
}

func (s *VisitStoreSuite) TestUpdatePersistsStatus() {
	visit := s.newVisit(uuid.New(), uuid.New(), time.Now())
	s.Require().NoError(s.store.Create(s.ctx, visit))

	_, err := visit.Transition(models.StatusPendingSecurity, visit.HostID, "", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Update(s.ctx, visit))

	found, err := s.store.FindByID(s.ctx, visit.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingSecurity, found.Status)
}

func (s *VisitStoreSuite) TestUpdateMissingVisit() {
	visit := s.newVisit(uuid.New(), uuid.New(), time.Now())
	s.ErrorIs(s.store.Update(s.ctx, visit), sentinel.ErrNotFound)
}

func (s *VisitStoreSuite) TestReadsReturnClones() {
	visit := s.newVisit(uuid.New(), uuid.New(), time.Now())
	s.Require().NoError(s.store.Create(s.ctx, visit))

	found, err := s.store.FindByID(s.ctx, visit.ID)
	s.Require().NoError(err)
	found.Status = models.StatusCompleted

	again, err := s.store.FindByID(s.ctx, visit.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingHost, again.Status)
}

func (s *VisitStoreSuite) TestListFiltersAndOrders() {
	guest := uuid.New()
	host := uuid.New()
	now := time.Now()

	first := s.newVisit(guest, host, now)
	first.CreatedAt = now.Add(-2 * time.Hour)
	second := s.newVisit(guest, uuid.New(), now)
	second.CreatedAt = now.Add(-1 * time.Hour)
	other := s.newVisit(uuid.New(), host, now)
	other.CreatedAt = now

	for _, v := range []*models.Visit{first, second, other} {
		s.Require().NoError(s.store.Create(s.ctx, v))
	}

	byGuest, err := s.store.List(s.ctx, models.Filter{GuestID: &guest})
	s.Require().NoError(err)
	s.Require().Len(byGuest, 2)
	s.Equal(second.ID, byGuest[0].ID, "newest first")
	s.Equal(first.ID, byGuest[1].ID)

	byHost, err := s.store.List(s.ctx, models.Filter{HostID: &host})
	s.Require().NoError(err)
	s.Len(byHost, 2)

	pending := models.StatusPendingSecurity
	none, err := s.store.List(s.ctx, models.Filter{Status: &pending})
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *VisitStoreSuite) TestHistoryRoundTrip() {
	visit := s.newVisit(uuid.New(), uuid.New(), time.Now())
	s.Require().NoError(s.store.Create(s.ctx, visit))
	s.Require().NoError(s.store.AppendHistory(s.ctx, visit.CreationHistory(time.Now())))

	entry, err := visit.Transition(models.StatusPendingSecurity, visit.HostID, "", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.AppendHistory(s.ctx, entry))

	history, err := s.store.ListHistory(s.ctx, visit.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Nil(history[0].OldStatus)
	s.Equal(models.StatusPendingHost, history[0].NewStatus)
	s.Equal(models.StatusPendingSecurity, history[1].NewStatus)
}

func TestVisitStoreSuite(t *testing.T) {
	suite.Run(t, new(VisitStoreSuite))
}
