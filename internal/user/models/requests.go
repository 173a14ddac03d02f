package models

import (
	"strings"

	dErrors "gatepass/pkg/domain-errors"
)

// RegisterRequest is the payload for account creation. Role defaults to guest
// when absent or unknown, matching the public registration flow.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *RegisterRequest) Validate() error {
	if r.Name == "" || r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "name, email and password are required")
	}
	if len(r.Password) < 6 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	return nil
}

// EffectiveRole returns the requested role when it is valid, guest otherwise.
func (r *RegisterRequest) EffectiveRole() Role {
	role, err := ParseRole(r.Role)
	if err != nil {
		return RoleGuest
	}
	return role
}

// LoginRequest is the credential payload for token issuance.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}
