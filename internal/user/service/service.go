package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gatepass/internal/platform/metrics"
	"gatepass/internal/user/models"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

type Store interface {
	CreateIfEmailAvailable(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error)
}

// TokenIssuer mints access tokens; implemented by internal/jwttoken.
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, role string, expiresIn time.Duration) (string, error)
}

// RevocationStore invalidates tokens before their natural expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

// Service owns account registration, credential checks and role management.
type Service struct {
	users       Store
	tokens      TokenIssuer
	revocations RevocationStore
	tokenTTL    time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRevocations(store RevocationStore) Option {
	return func(s *Service) { s.revocations = store }
}

func New(users Store, tokens TokenIssuer, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, tokenTTL: tokenTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and returns it with a fresh access token.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user, err := models.NewUser(uuid.New(), req.Name, req.Email, req.Phone, string(hash), req.EffectiveRole(), requestcontext.Now(ctx))
	if err != nil {
		return nil, "", err
	}

	if err := s.users.CreateIfEmailAvailable(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, "", dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, string(user.Role), s.tokenTTL)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logEvent(ctx, "user_registered", "user_id", user.ID.String(), "role", string(user.Role))
	return user, token, nil
}

// Login verifies credentials and issues an access token. The response is the
// same for unknown email and wrong password so accounts cannot be enumerated.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", s.loginFailure(ctx, req.Email)
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, "", s.loginFailure(ctx, req.Email)
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, string(user.Role), s.tokenTTL)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logEvent(ctx, "user_logged_in", "user_id", user.ID.String())
	return user, token, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.revocations == nil || tokenID == "" {
		return nil
	}
	if err := s.revocations.Revoke(ctx, tokenID, expiresAt); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// ListUsers returns every account; admin screens only.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// ListHosts returns the host directory guests pick from when requesting a
// visit.
func (s *Service) ListHosts(ctx context.Context) ([]*models.User, error) {
	hosts, err := s.users.ListByRole(ctx, models.RoleHost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list hosts")
	}
	return hosts, nil
}

// ChangeRole moves a user to a new role within the closed role set.
func (s *Service) ChangeRole(ctx context.Context, id uuid.UUID, newRole string) (*models.User, error) {
	role, err := models.ParseRole(newRole)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to change role")
	}
	s.logEvent(ctx, "user_role_changed", "user_id", id.String(), "role", newRole)
	return user, nil
}

func (s *Service) loginFailure(ctx context.Context, email string) error {
	if s.metrics != nil {
		s.metrics.LoginFailures.Inc()
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "login failed",
			"email", email,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

func (s *Service) logEvent(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append(attrs, "event", event, "request_id", requestcontext.RequestID(ctx))
	s.logger.InfoContext(ctx, event, args...)
}
