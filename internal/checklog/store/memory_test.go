package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gatepass/internal/checklog/models"
	"gatepass/pkg/platform/sentinel"
)

type CheckLogStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func (s *CheckLogStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *CheckLogStoreSuite) TestLatestFollowsAppends() {
	visitID := uuid.New()
	passID := uuid.New()
	officer := uuid.New()
	now := time.Now()

	_, err := s.store.Latest(s.ctx, visitID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Append(s.ctx, models.NewEntry(visitID, passID, models.TypeCheckIn, officer, now)))
	latest, err := s.store.Latest(s.ctx, visitID)
	s.Require().NoError(err)
	s.Equal(models.TypeCheckIn, latest.Type)

	s.Require().NoError(s.store.Append(s.ctx, models.NewEntry(visitID, passID, models.TypeCheckOut, officer, now.Add(time.Hour))))
	latest, err = s.store.Latest(s.ctx, visitID)
	s.Require().NoError(err)
	s.Equal(models.TypeCheckOut, latest.Type)

	log, err := s.store.ListByVisit(s.ctx, visitID)
	s.Require().NoError(err)
	s.Require().Len(log, 2)
	s.Equal(models.TypeCheckIn, log[0].Type)
	s.Equal(models.TypeCheckOut, log[1].Type)
}

func (s *CheckLogStoreSuite) TestLatestPerVisit() {
	officer := uuid.New()
	now := time.Now()

	inside := uuid.New()
	s.Require().NoError(s.store.Append(s.ctx, models.NewEntry(inside, uuid.New(), models.TypeCheckIn, officer, now)))

	left := uuid.New()
	s.Require().NoError(s.store.Append(s.ctx, models.NewEntry(left, uuid.New(), models.TypeCheckIn, officer, now.Add(time.Minute))))
	s.Require().NoError(s.store.Append(s.ctx, models.NewEntry(left, uuid.New(), models.TypeCheckOut, officer, now.Add(2*time.Minute))))

	latest, err := s.store.LatestPerVisit(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(latest, 2)

	byVisit := map[uuid.UUID]models.LogType{}
	for _, entry := range latest {
		byVisit[entry.VisitID] = entry.Type
	}
	s.Equal(models.TypeCheckIn, byVisit[inside])
	s.Equal(models.TypeCheckOut, byVisit[left])
}

func TestCheckLogStoreSuite(t *testing.T) {
	suite.Run(t, new(CheckLogStoreSuite))
}
