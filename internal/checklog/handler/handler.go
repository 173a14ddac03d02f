package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gatepass/internal/checklog/models"
	"gatepass/internal/http/shared"
	"gatepass/internal/platform/middleware"
	usermodels "gatepass/internal/user/models"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/requestcontext"
)

// Service defines the gate operations the handler delegates to.
type Service interface {
	CheckIn(ctx context.Context, actorID uuid.UUID, req *models.GateRequest) (*models.GateResult, error)
	CheckOut(ctx context.Context, actorID uuid.UUID, req *models.GateRequest) (*models.GateResult, error)
	Present(ctx context.Context) ([]*models.PresentEntry, error)
	History(ctx context.Context, visitID uuid.UUID) ([]*models.Entry, error)
}

// Handler exposes the gate routes: check-in, check-out, the on-site roster
// and the per-visit gate log.
type Handler struct {
	gate        Service
	logger      *slog.Logger
	validator   middleware.TokenValidator
	revocations middleware.RevocationChecker
}

func New(gate Service, logger *slog.Logger, validator middleware.TokenValidator, revocations middleware.RevocationChecker) *Handler {
	return &Handler{gate: gate, logger: logger, validator: validator, revocations: revocations}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.revocations, h.logger))
		r.Use(middleware.RequireRole(h.logger,
			string(usermodels.RoleSecurity), string(usermodels.RoleAdmin)))

		r.Post("/api/passes/check-in", h.handleCheckIn)
		r.Post("/api/passes/check-out", h.handleCheckOut)
		r.Get("/api/passes/present", h.handlePresent)
		r.Get("/api/visits/{id}/gate-log", h.handleHistory)
	})
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	h.handleGate(w, r, "check-in failed", h.gate.CheckIn)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	h.handleGate(w, r, "check-out failed", h.gate.CheckOut)
}

func (h *Handler) handleGate(w http.ResponseWriter, r *http.Request, failMsg string,
	op func(ctx context.Context, actorID uuid.UUID, req *models.GateRequest) (*models.GateResult, error)) {
	var req models.GateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	ctx := r.Context()
	result, err := op(ctx, requestcontext.UserID(ctx), &req)
	if err != nil {
		h.logger.WarnContext(ctx, failMsg,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePresent(w http.ResponseWriter, r *http.Request) {
	roster, err := h.gate.Present(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"present": roster})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid visit id"))
		return
	}
	entries, err := h.gate.History(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
