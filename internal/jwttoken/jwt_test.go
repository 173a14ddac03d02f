package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatepass/pkg/domain-errors"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewService("test-signing-key", "gatepass-test")
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "security", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "security", claims.Role)
	assert.NotEmpty(t, claims.ID, "token must carry a jti for revocation")
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewService("test-signing-key", "gatepass-test")

	token, err := svc.GenerateAccessToken(uuid.New(), "guest", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	issuer := NewService("key-one", "gatepass-test")
	verifier := NewService("key-two", "gatepass-test")

	token, err := issuer.GenerateAccessToken(uuid.New(), "guest", time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidatorAdapter(t *testing.T) {
	svc := NewService("test-signing-key", "gatepass-test")
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "admin", time.Hour)
	require.NoError(t, err)

	adapter := NewValidatorAdapter(svc)
	claims, err := adapter.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}
