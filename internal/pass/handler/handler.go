package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gatepass/internal/http/shared"
	"gatepass/internal/pass/models"
	"gatepass/internal/platform/middleware"
	usermodels "gatepass/internal/user/models"
	"gatepass/pkg/requestcontext"
)

// Service defines the pass operations the handler delegates to.
type Service interface {
	Issue(ctx context.Context, actorID uuid.UUID, req *models.IssuePassRequest) (*models.Pass, error)
	Resolve(ctx context.Context, code string) (*models.PassDetails, error)
}

// Handler exposes pass issuance and the gate lookup.
type Handler struct {
	passes      Service
	logger      *slog.Logger
	validator   middleware.TokenValidator
	revocations middleware.RevocationChecker
}

func New(passes Service, logger *slog.Logger, validator middleware.TokenValidator, revocations middleware.RevocationChecker) *Handler {
	return &Handler{passes: passes, logger: logger, validator: validator, revocations: revocations}
}

// Register mounts the pass routes; all of them sit behind the gate roles.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.revocations, h.logger))
		r.Use(middleware.RequireRole(h.logger,
			string(usermodels.RoleSecurity), string(usermodels.RoleAdmin)))

		r.Post("/api/passes", h.handleIssue)
		r.Get("/api/passes/{passCode}", h.handleResolve)
	})
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req models.IssuePassRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	ctx := r.Context()
	pass, err := h.passes.Issue(ctx, requestcontext.UserID(ctx), &req)
	if err != nil {
		h.logger.WarnContext(ctx, "pass issuance failed",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"pass": pass})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	details, err := h.passes.Resolve(r.Context(), chi.URLParam(r, "passCode"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"pass": details})
}
