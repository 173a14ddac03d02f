package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "gatepass/pkg/domain-errors"
)

// Role is the closed set of authorities a user can hold. Authority checks are
// exhaustive matches on this type, never string membership tests.
type Role string

const (
	RoleGuest    Role = "guest"
	RoleHost     Role = "host"
	RoleSecurity Role = "security"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a wire string onto the closed role set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleGuest, RoleHost, RoleSecurity, RoleAdmin:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "invalid role: "+s)
	}
}

// CanOperateGate reports whether the role may issue passes and record
// check-ins/check-outs.
func (r Role) CanOperateGate() bool {
	return r == RoleSecurity || r == RoleAdmin
}

// User is a registered account with one of the four roles.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser validates invariants and constructs a user record.
func NewUser(id uuid.UUID, name, email, phone, passwordHash string, role Role, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password hash is required")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	return &User{
		ID:           id,
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
	}, nil
}
