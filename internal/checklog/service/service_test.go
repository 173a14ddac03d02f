package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/checklog/models"
	logstore "gatepass/internal/checklog/store"
	passmodels "gatepass/internal/pass/models"
	passservice "gatepass/internal/pass/service"
	passstore "gatepass/internal/pass/store"
	usermodels "gatepass/internal/user/models"
	userstore "gatepass/internal/user/store"
	visitmodels "gatepass/internal/visit/models"
	visitservice "gatepass/internal/visit/service"
	visitstore "gatepass/internal/visit/store"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/requestcontext"
)

type fixture struct {
	ctx       context.Context
	gate      *Service
	visits    *visitservice.Service
	passes    *passservice.Service
	visitrepo *visitstore.InMemory
	guestID   uuid.UUID
	hostID    uuid.UUID
	officerID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	users := userstore.NewInMemory()
	visits := visitstore.NewInMemory()
	passes := passstore.NewInMemory()
	logs := logstore.NewInMemory()

	seed := func(name, email string, role usermodels.Role) uuid.UUID {
		user, err := usermodels.NewUser(uuid.New(), name, email, "555-0100", "x", role, time.Now())
		require.NoError(t, err)
		require.NoError(t, users.CreateIfEmailAvailable(ctx, user))
		return user.ID
	}

	var mu sync.Mutex
	return &fixture{
		ctx:       ctx,
		gate:      New(logs, visits, users, NewMemoryTx(logs, passes, visits, &mu)),
		visits:    visitservice.New(visits, users, visitservice.NewMemoryTx(visits, &mu)),
		passes:    passservice.New(passes, visits, users, passservice.NewMemoryTx(passes, visits, &mu)),
		visitrepo: visits,
		guestID:   seed("Grace Guest", "grace@example.com", usermodels.RoleGuest),
		hostID:    seed("Hank Host", "hank@example.com", usermodels.RoleHost),
		officerID: seed("Sam Security", "sam@example.com", usermodels.RoleSecurity),
	}
}

// issuedPass walks a fresh visit through host approval and pass issuance.
func issuedPass(t *testing.T, f *fixture) *passmodels.Pass {
	t.Helper()
	visit, err := f.visits.Create(f.ctx, f.guestID, &visitmodels.CreateVisitRequest{
		HostID:    f.hostID.String(),
		Purpose:   "site tour",
		VisitDate: time.Now().Format(time.DateOnly),
	})
	require.NoError(t, err)
	_, err = f.visits.Approve(f.ctx, visit.ID, f.hostID, usermodels.RoleHost)
	require.NoError(t, err)
	pass, err := f.passes.Issue(f.ctx, f.officerID, &passmodels.IssuePassRequest{VisitID: visit.ID.String()})
	require.NoError(t, err)
	return pass
}

func TestCheckIn(t *testing.T) {
	f := newFixture(t)

	t.Run("admits a valid pass and consumes it", func(t *testing.T) {
		pass := issuedPass(t, f)
		result, err := f.gate.CheckIn(f.ctx, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
		require.NoError(t, err)
		assert.Equal(t, models.TypeCheckIn, result.Entry.Type)
		assert.Equal(t, pass.VisitID, result.Entry.VisitID)
		assert.Equal(t, "Grace Guest", result.GuestName)
		assert.Equal(t, "site tour", result.Purpose)

		_, err = f.gate.CheckIn(f.ctx, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
		assert.True(t, dErrors.Is(err, dErrors.CodeAlreadyUsed))
	})

	t.Run("unknown pass code", func(t *testing.T) {
		_, err := f.gate.CheckIn(f.ctx, f.officerID, &models.GateRequest{PassCode: "00000000"})
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})

	t.Run("pass outside its window is refused", func(t *testing.T) {
		pass := issuedPass(t, f)
		future := requestcontext.WithTime(f.ctx, time.Now().AddDate(0, 0, 2))
		_, err := f.gate.CheckIn(future, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
		assert.True(t, dErrors.Is(err, dErrors.CodeExpired))

		past := requestcontext.WithTime(f.ctx, time.Now().AddDate(0, 0, -2))
		_, err = f.gate.CheckIn(past, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
		assert.True(t, dErrors.Is(err, dErrors.CodeNotYetValid))
	})

	t.Run("missing pass code", func(t *testing.T) {
		_, err := f.gate.CheckIn(f.ctx, f.officerID, &models.GateRequest{})
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})
}

func TestCheckOut(t *testing.T) {
	f := newFixture(t)

	t.Run("completes the visit", func(t *testing.T) {
		pass := issuedPass(t, f)
		in, err := f.gate.CheckIn(f.ctx, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
		require.NoError(t, err)
		assert.Equal(t, in.Entry.OccurredAt, in.CheckedInAt)
		assert.Nil(t, in.CheckedOutAt)

		result, err := f.gate.CheckOut(f.ctx, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
		require.NoError(t, err)
		assert.Equal(t, models.TypeCheckOut, result.Entry.Type)
		assert.Equal(t, in.CheckedInAt, result.CheckedInAt)
		require.NotNil(t, result.CheckedOutAt)
		assert.Equal(t, result.Entry.OccurredAt, *result.CheckedOutAt)

		visit, err := f.visitrepo.FindByID(f.ctx, pass.VisitID)
		require.NoError(t, err)
		assert.Equal(t, visitmodels.StatusCompleted, visit.Status)
	})

	t.Run("checking out without checking in", func(t *testing.T) {
		pass := issuedPass(t, f)
		_, err := f.gate.CheckOut(f.ctx, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
		assert.True(t, dErrors.Is(err, dErrors.CodeNotCheckedIn))
	})

	t.Run("checking out twice", func(t *testing.T) {
		pass := issuedPass(t, f)
		_, err := f.gate.CheckIn(f.ctx, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
		require.NoError(t, err)
		_, err = f.gate.CheckOut(f.ctx, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
		require.NoError(t, err)

		_, err = f.gate.CheckOut(f.ctx, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
		assert.True(t, dErrors.Is(err, dErrors.CodeNotCheckedIn))
	})
}

func TestPresent(t *testing.T) {
	f := newFixture(t)

	inside := issuedPass(t, f)
	_, err := f.gate.CheckIn(f.ctx, f.officerID, &models.GateRequest{PassCode: inside.PassCode})
	require.NoError(t, err)

	left := issuedPass(t, f)
	_, err = f.gate.CheckIn(f.ctx, f.officerID, &models.GateRequest{PassCode: left.PassCode})
	require.NoError(t, err)
	_, err = f.gate.CheckOut(f.ctx, f.officerID, &models.GateRequest{PassCode: left.PassCode})
	require.NoError(t, err)

	roster, err := f.gate.Present(f.ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, inside.VisitID, roster[0].VisitID)
	assert.Equal(t, "Grace Guest", roster[0].GuestName)
	assert.Equal(t, "Hank Host", roster[0].HostName)
	assert.Equal(t, "site tour", roster[0].Purpose)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	pass := issuedPass(t, f)
	_, err := f.gate.CheckIn(f.ctx, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
	require.NoError(t, err)
	_, err = f.gate.CheckOut(f.ctx, f.officerID, &models.GateRequest{PassCode: pass.PassCode})
	require.NoError(t, err)

	log, err := f.gate.History(f.ctx, pass.VisitID)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, models.TypeCheckIn, log[0].Type)
	assert.Equal(t, models.TypeCheckOut, log[1].Type)
}
