package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gatepass/internal/http/shared"
	"gatepass/internal/platform/middleware"
	usermodels "gatepass/internal/user/models"
	"gatepass/internal/visit/models"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/requestcontext"
)

// Service defines the visit lifecycle operations the handler delegates to.
type Service interface {
	Create(ctx context.Context, guestID uuid.UUID, req *models.CreateVisitRequest) (*models.Visit, error)
	Approve(ctx context.Context, visitID, actorID uuid.UUID, actorRole usermodels.Role) (*models.Visit, error)
	Reject(ctx context.Context, visitID, actorID uuid.UUID, req *models.RejectVisitRequest) (*models.Visit, error)
	Cancel(ctx context.Context, visitID, actorID uuid.UUID) (*models.Visit, error)
	Get(ctx context.Context, visitID, actorID uuid.UUID, actorRole usermodels.Role) (*models.VisitDetails, error)
	MyVisits(ctx context.Context, guestID uuid.UUID) ([]*models.VisitSummary, error)
	HostQueue(ctx context.Context, hostID uuid.UUID) ([]*models.VisitSummary, error)
	SecurityQueue(ctx context.Context, statusFilter string) ([]*models.VisitSummary, error)
}

// HostDirectory lists the hosts guests can address a visit to.
type HostDirectory interface {
	ListHosts(ctx context.Context) ([]*usermodels.User, error)
}

// Handler exposes the visit lifecycle routes.
type Handler struct {
	visits      Service
	hosts       HostDirectory
	logger      *slog.Logger
	validator   middleware.TokenValidator
	revocations middleware.RevocationChecker
}

func New(visits Service, hosts HostDirectory, logger *slog.Logger, validator middleware.TokenValidator, revocations middleware.RevocationChecker) *Handler {
	return &Handler{visits: visits, hosts: hosts, logger: logger, validator: validator, revocations: revocations}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.revocations, h.logger))

		r.Get("/api/visits/hosts", h.handleListHosts)
		r.Get("/api/visits/{id}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.logger, string(usermodels.RoleGuest)))
			r.Post("/api/visits", h.handleCreate)
			r.Get("/api/visits/me", h.handleMyVisits)
			r.Patch("/api/visits/{id}/cancel", h.handleCancel)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.logger, string(usermodels.RoleHost)))
			r.Get("/api/visits/host", h.handleHostQueue)
			r.Patch("/api/visits/{id}/approve", h.handleApprove)
			r.Patch("/api/visits/{id}/reject", h.handleReject)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.logger,
				string(usermodels.RoleSecurity), string(usermodels.RoleAdmin)))
			r.Get("/api/visits/security", h.handleSecurityQueue)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVisitRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	ctx := r.Context()
	visit, err := h.visits.Create(ctx, requestcontext.UserID(ctx), &req)
	if err != nil {
		h.logWarn(ctx, "visit creation failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"visit": visit})
}

func (h *Handler) handleMyVisits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	visits, err := h.visits.MyVisits(ctx, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"visits": visits})
}

func (h *Handler) handleListHosts(w http.ResponseWriter, r *http.Request) {
	hosts, err := h.hosts.ListHosts(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"hosts": hosts})
}

func (h *Handler) handleHostQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	visits, err := h.visits.HostQueue(ctx, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"visits": visits})
}

func (h *Handler) handleSecurityQueue(w http.ResponseWriter, r *http.Request) {
	visits, err := h.visits.SecurityQueue(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"visits": visits})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := visitID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	details, err := h.visits.Get(ctx, id, requestcontext.UserID(ctx), usermodels.Role(requestcontext.Role(ctx)))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"visit": details})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := visitID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	visit, err := h.visits.Approve(ctx, id, requestcontext.UserID(ctx), usermodels.Role(requestcontext.Role(ctx)))
	if err != nil {
		h.logWarn(ctx, "visit approval failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"visit": visit})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := visitID(w, r)
	if !ok {
		return
	}

	var req models.RejectVisitRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	ctx := r.Context()
	visit, err := h.visits.Reject(ctx, id, requestcontext.UserID(ctx), &req)
	if err != nil {
		h.logWarn(ctx, "visit rejection failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"visit": visit})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := visitID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	visit, err := h.visits.Cancel(ctx, id, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"visit": visit})
}

func visitID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid visit id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) logWarn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
