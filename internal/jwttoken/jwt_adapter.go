package jwttoken

import (
	"time"

	"github.com/google/uuid"

	"gatepass/internal/platform/middleware"
	dErrors "gatepass/pkg/domain-errors"
)

// ValidatorAdapter adapts Service to the middleware.TokenValidator interface
// so the middleware package does not depend on JWT specifics.
type ValidatorAdapter struct {
	svc *Service
}

func NewValidatorAdapter(svc *Service) *ValidatorAdapter {
	return &ValidatorAdapter{svc: svc}
}

func (a *ValidatorAdapter) ValidateToken(tokenString string) (*middleware.Claims, error) {
	claims, err := a.svc.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &middleware.Claims{
		UserID:    userID,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}
