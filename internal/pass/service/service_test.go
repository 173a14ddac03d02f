package service

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/pass/models"
	passstore "gatepass/internal/pass/store"
	usermodels "gatepass/internal/user/models"
	userstore "gatepass/internal/user/store"
	visitmodels "gatepass/internal/visit/models"
	visitservice "gatepass/internal/visit/service"
	visitstore "gatepass/internal/visit/store"
	dErrors "gatepass/pkg/domain-errors"
)

var passCodePattern = regexp.MustCompile(`^[0-9A-F]{8}$`)

type fixture struct {
	ctx       context.Context
	svc       *Service
	visits    *visitservice.Service
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

	seed := func(name, email string, role usermodels.Role) uuid.UUID {
		user, err := usermodels.NewUser(uuid.New(), name, email, "555-0100", "x", role, time.Now())
		require.NoError(t, err)
		require.NoError(t, users.CreateIfEmailAvailable(ctx, user))
		return user.ID
	}

	var mu sync.Mutex
	return &fixture{
		ctx:       ctx,
		svc:       New(passes, visits, users, NewMemoryTx(passes, visits, &mu)),
		visits:    visitservice.New(visits, users, visitservice.NewMemoryTx(visits, &mu)),
		visitrepo: visits,
		guestID:   seed("Grace Guest", "grace@example.com", usermodels.RoleGuest),
		hostID:    seed("Hank Host", "hank@example.com", usermodels.RoleHost),
		officerID: seed("Sam Security", "sam@example.com", usermodels.RoleSecurity),
	}
}

// pendingSecurityVisit creates a visit and walks it through host approval.
func pendingSecurityVisit(t *testing.T, f *fixture) *visitmodels.Visit {
	t.Helper()
	visit, err := f.visits.Create(f.ctx, f.guestID, &visitmodels.CreateVisitRequest{
		HostID:    f.hostID.String(),
		Purpose:   "site tour",
		VisitDate: time.Now().Format(time.DateOnly),
	})
	require.NoError(t, err)
	_, err = f.visits.Approve(f.ctx, visit.ID, f.hostID, usermodels.RoleHost)
	require.NoError(t, err)
	return visit
}

func TestIssue(t *testing.T) {
	f := newFixture(t)

	t.Run("approves the visit and issues a day pass", func(t *testing.T) {
		visit := pendingSecurityVisit(t, f)
		pass, err := f.svc.Issue(f.ctx, f.officerID, &models.IssuePassRequest{VisitID: visit.ID.String()})
		require.NoError(t, err)

		assert.Regexp(t, passCodePattern, pass.PassCode)
		assert.Equal(t, f.officerID, pass.IssuedBy)
		assert.False(t, pass.Used)
		assert.True(t, pass.ValidFrom.Before(pass.ValidUntil))
		assert.Equal(t, 24*time.Hour, pass.ValidUntil.Sub(pass.ValidFrom))

		updated, err := f.visitrepo.FindByID(f.ctx, visit.ID)
		require.NoError(t, err)
		assert.Equal(t, visitmodels.StatusApproved, updated.Status)

		history, err := f.visitrepo.ListHistory(f.ctx, visit.ID)
		require.NoError(t, err)
		assert.Equal(t, visitmodels.StatusApproved, history[len(history)-1].NewStatus)
		assert.Equal(t, f.officerID, history[len(history)-1].ChangedBy)
	})

	t.Run("valid_hours bounds the window from now", func(t *testing.T) {
		visit := pendingSecurityVisit(t, f)
		pass, err := f.svc.Issue(f.ctx, f.officerID, &models.IssuePassRequest{VisitID: visit.ID.String(), ValidHours: 4})
		require.NoError(t, err)
		assert.Equal(t, 4*time.Hour, pass.ValidUntil.Sub(pass.ValidFrom))
	})

	t.Run("refuses a visit that is already approved", func(t *testing.T) {
		visit := pendingSecurityVisit(t, f)
		_, err := f.svc.Issue(f.ctx, f.officerID, &models.IssuePassRequest{VisitID: visit.ID.String()})
		require.NoError(t, err)

		_, err = f.svc.Issue(f.ctx, f.officerID, &models.IssuePassRequest{VisitID: visit.ID.String()})
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidTransition))
	})

	t.Run("refuses visits still waiting on the host", func(t *testing.T) {
		visit, err := f.visits.Create(f.ctx, f.guestID, &visitmodels.CreateVisitRequest{
			HostID:    f.hostID.String(),
			Purpose:   "site tour",
			VisitDate: time.Now().Format(time.DateOnly),
		})
		require.NoError(t, err)

		_, err = f.svc.Issue(f.ctx, f.officerID, &models.IssuePassRequest{VisitID: visit.ID.String()})
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidTransition))
	})

	t.Run("unknown visit", func(t *testing.T) {
		_, err := f.svc.Issue(f.ctx, f.officerID, &models.IssuePassRequest{VisitID: uuid.New().String()})
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})

	t.Run("malformed visit id", func(t *testing.T) {
		_, err := f.svc.Issue(f.ctx, f.officerID, &models.IssuePassRequest{VisitID: "not-a-uuid"})
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	visit := pendingSecurityVisit(t, f)
	pass, err := f.svc.Issue(f.ctx, f.officerID, &models.IssuePassRequest{VisitID: visit.ID.String()})
	require.NoError(t, err)

	t.Run("returns the gate view with participant names", func(t *testing.T) {
		details, err := f.svc.Resolve(f.ctx, pass.PassCode)
		require.NoError(t, err)
		assert.Equal(t, pass.ID, details.ID)
		assert.Equal(t, visitmodels.StatusApproved, details.VisitStatus)
		assert.Equal(t, "Grace Guest", details.GuestName)
		assert.Equal(t, "Hank Host", details.HostName)
		assert.Equal(t, "site tour", details.Purpose)
	})

	t.Run("resolving does not consume the pass", func(t *testing.T) {
		_, err := f.svc.Resolve(f.ctx, pass.PassCode)
		require.NoError(t, err)
		again, err := f.svc.Resolve(f.ctx, pass.PassCode)
		require.NoError(t, err)
		assert.False(t, again.Used)
	})

	t.Run("accepts lowercase and padded input", func(t *testing.T) {
		details, err := f.svc.Resolve(f.ctx, " "+strings.ToLower(pass.PassCode)+" ")
		require.NoError(t, err)
		assert.Equal(t, pass.ID, details.ID)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := f.svc.Resolve(f.ctx, "00000000")
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})

	t.Run("malformed code", func(t *testing.T) {
		_, err := f.svc.Resolve(f.ctx, "TOO-LONG-CODE")
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})
}

func TestFindForVisit(t *testing.T) {
	f := newFixture(t)
	visit := pendingSecurityVisit(t, f)

	_, err := f.svc.FindForVisit(f.ctx, visit.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	issued, err := f.svc.Issue(f.ctx, f.officerID, &models.IssuePassRequest{VisitID: visit.ID.String()})
	require.NoError(t, err)

	found, err := f.svc.FindForVisit(f.ctx, visit.ID)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, found.ID)
}
