package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gatepass/internal/http/shared"
	"gatepass/internal/platform/middleware"
	"gatepass/internal/user/models"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/requestcontext"
)

// Service defines the identity operations the handler delegates to.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, string, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	ChangeRole(ctx context.Context, id uuid.UUID, newRole string) (*models.User, error)
}

// Handler exposes registration, login and admin user management.
type Handler struct {
	users       Service
	logger      *slog.Logger
	validator   middleware.TokenValidator
	revocations middleware.RevocationChecker
}

func New(users Service, logger *slog.Logger, validator middleware.TokenValidator, revocations middleware.RevocationChecker) *Handler {
	return &Handler{users: users, logger: logger, validator: validator, revocations: revocations}
}

// Register mounts the auth and admin-user routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.revocations, h.logger))
		r.Post("/api/auth/logout", h.handleLogout)
		r.Get("/api/auth/me", h.handleMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.logger, string(models.RoleAdmin)))
			r.Get("/api/admin/users", h.handleListUsers)
			r.Patch("/api/admin/users/{id}/role", h.handleChangeRole)
		})
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	user, token, err := h.users.Register(r.Context(), &req)
	if err != nil {
		h.logWarn(r.Context(), "registration failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"user":  user,
		"token": token,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	user, token, err := h.users.Login(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// RequireAuth already accepted this token; re-parse it for its ID so the
	// revocation outlives the request.
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims, err := h.validator.ValidateToken(token)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.users.Logout(r.Context(), claims.TokenID, claims.ExpiresAt); err != nil {
		h.logWarn(r.Context(), "logout failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.users.GetUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	user, err := h.users.ChangeRole(r.Context(), id, req.Role)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) logWarn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
