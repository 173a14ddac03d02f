package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/jwttoken"
	"gatepass/internal/user/models"
	"gatepass/internal/user/store"
	dErrors "gatepass/pkg/domain-errors"
)

func newTestService() *Service {
	tokens := jwttoken.NewService("test-signing-key", "gatepass-test")
	return New(store.NewInMemory(), tokens, time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	user, token, err := svc.Register(ctx, &models.RegisterRequest{
		Name:     "Sara",
		Email:    "Sara@Example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "sara@example.com", user.Email)
	assert.Equal(t, models.RoleGuest, user.Role, "default role is guest")

	loggedIn, token, err := svc.Login(ctx, &models.LoginRequest{Email: "sara@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, _, err := svc.Register(ctx, &models.RegisterRequest{Name: "X", Email: "x@example.com", Password: "short"})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	_, _, err = svc.Register(ctx, &models.RegisterRequest{Email: "x@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, _, err := svc.Register(ctx, &models.RegisterRequest{Name: "A", Email: "dup@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, &models.RegisterRequest{Name: "B", Email: "DUP@example.com", Password: "secret2"})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, _, err := svc.Register(ctx, &models.RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, &models.LoginRequest{Email: "a@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))

	_, _, err = svc.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized), "unknown email and wrong password are indistinguishable")
}

func TestChangeRole(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	user, _, err := svc.Register(ctx, &models.RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	updated, err := svc.ChangeRole(ctx, user.ID, "host")
	require.NoError(t, err)
	assert.Equal(t, models.RoleHost, updated.Role)

	_, err = svc.ChangeRole(ctx, user.ID, "superuser")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	_, err = svc.ChangeRole(ctx, uuid.New(), "host")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestListHosts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, _, err := svc.Register(ctx, &models.RegisterRequest{Name: "Host A", Email: "ha@example.com", Password: "secret1", Role: "host"})
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, &models.RegisterRequest{Name: "Guest", Email: "g@example.com", Password: "secret1"})
	require.NoError(t, err)

	hosts, err := svc.ListHosts(ctx)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, "Host A", hosts[0].Name)
}
