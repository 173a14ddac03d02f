package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/http/shared"
	"gatepass/internal/platform/middleware"
	"gatepass/internal/report/service"
	usermodels "gatepass/internal/user/models"
	dErrors "gatepass/pkg/domain-errors"
)

// Service defines the reporting operations the handler delegates to.
type Service interface {
	Overview(ctx context.Context, from, to *time.Time) (*service.Report, error)
}

// Handler exposes the admin report.
type Handler struct {
	reports     Service
	logger      *slog.Logger
	validator   middleware.TokenValidator
	revocations middleware.RevocationChecker
}

func New(reports Service, logger *slog.Logger, validator middleware.TokenValidator, revocations middleware.RevocationChecker) *Handler {
	return &Handler{reports: reports, logger: logger, validator: validator, revocations: revocations}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.revocations, h.logger))
		r.Use(middleware.RequireRole(h.logger, string(usermodels.RoleAdmin)))

		r.Get("/api/admin/reports", h.handleOverview)
	})
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	from, ok := dateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := dateParam(w, r, "to")
	if !ok {
		return
	}

	report, err := h.reports.Overview(r.Context(), from, to)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"report": report})
}

// dateParam parses an optional YYYY-MM-DD query parameter; a missing value
// yields nil so the service applies its default range.
func dateParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid "+name+" date, expected YYYY-MM-DD"))
		return nil, false
	}
	return &day, true
}
