package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/user/models"

	"golang.org/x/crypto/bcrypt"
)

// SeedBootstrapUsers creates a default admin and security account so a fresh
// in-memory deployment is usable without manual registration.
func SeedBootstrapUsers(users *InMemory) (*models.User, *models.User) {
	now := time.Now()
	hash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)

	admin := &models.User{
		ID:           uuid.New(),
		Name:         "Bootstrap Admin",
		Email:        "admin@gatepass.local",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		CreatedAt:    now,
	}
	_ = users.CreateIfEmailAvailable(context.Background(), admin)

	guard := &models.User{
		ID:           uuid.New(),
		Name:         "Bootstrap Security",
		Email:        "security@gatepass.local",
		PasswordHash: string(hash),
		Role:         models.RoleSecurity,
		CreatedAt:    now,
	}
	_ = users.CreateIfEmailAvailable(context.Background(), guard)
	return admin, guard
}
