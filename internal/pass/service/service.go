package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"gatepass/internal/pass/models"
	"gatepass/internal/platform/metrics"
	usermodels "gatepass/internal/user/models"
	visitmodels "gatepass/internal/visit/models"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, pass *models.Pass) error
	FindByVisitID(ctx context.Context, visitID uuid.UUID) (*models.Pass, error)
	FindByCode(ctx context.Context, code string) (*models.Pass, error)
	Update(ctx context.Context, pass *models.Pass) error
}

// VisitStore is the slice of the visit store that pass issuance needs: the
// visit is re-read and, when still pending_security, approved in the same
// atomic unit that creates the pass.
type VisitStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*visitmodels.Visit, error)
	Update(ctx context.Context, visit *visitmodels.Visit) error
	AppendHistory(ctx context.Context, entry *visitmodels.StatusHistoryEntry) error
}

// UserDirectory resolves guest and host names for the gate view.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*usermodels.User, error)
}

// TxRunner executes fn atomically against transaction-scoped pass and visit
// stores.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(passes Store, visits VisitStore) error) error
}

// maxCodeAttempts bounds the retry loop on pass code collisions. With 2^32
// possible codes, hitting the cap means the random source is broken, not that
// the space is exhausted.
const maxCodeAttempts = 16

// Service issues gate passes and resolves them for the security desk.
type Service struct {
	passes  Store
	visits  VisitStore
	users   UserDirectory
	tx      TxRunner
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(passes Store, visits VisitStore, users UserDirectory, tx TxRunner, opts ...Option) *Service {
	s := &Service{passes: passes, visits: visits, users: users, tx: tx}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates the single pass for a visit. Only a pending_security visit
// can receive one; issuing approves it in the same unit, so the security
// officer issuing the pass is the approval. Because issuance is the only
// road to approved, a visit can never get a second pass.
func (s *Service) Issue(ctx context.Context, actorID uuid.UUID, req *models.IssuePassRequest) (*models.Pass, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	visitID, err := uuid.Parse(req.VisitID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "visit_id must be a valid UUID")
	}

	now := requestcontext.Now(ctx)
	var pass *models.Pass
	err = s.tx.RunInTx(ctx, func(passes Store, visits VisitStore) error {
		visit, err := visits.FindByID(ctx, visitID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "visit not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load visit")
		}

		if visit.Status != visitmodels.StatusPendingSecurity {
			return dErrors.New(dErrors.CodeInvalidTransition,
				"cannot issue a pass for a visit in "+string(visit.Status))
		}
		entry, err := visit.Transition(visitmodels.StatusApproved, actorID, "", now)
		if err != nil {
			return err
		}
		if err := visits.Update(ctx, visit); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update visit")
		}
		if err := visits.AppendHistory(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record visit history")
		}

		validFrom, validUntil := models.Window(visit.VisitDate, now, req.ValidHours)
		for attempt := 0; attempt < maxCodeAttempts; attempt++ {
			code, err := generateCode()
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate pass code")
			}
			candidate, err := models.NewPass(uuid.New(), visitID, actorID, code, validFrom, validUntil, now)
			if err != nil {
				return err
			}
			err = passes.Create(ctx, candidate)
			if err == nil {
				pass = candidate
				return nil
			}
			if !errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create pass")
			}
		}
		return dErrors.New(dErrors.CodeInternal, "could not generate a unique pass code")
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PassesIssued.Inc()
	}
	s.logEvent(ctx, "pass_issued", "visit_id", visitID.String(), "pass_id", pass.ID.String())
	return pass, nil
}

// Resolve looks up a pass by code and returns the gate view. Unlike check-in,
// resolving never consumes the pass.
func (s *Service) Resolve(ctx context.Context, code string) (*models.PassDetails, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != models.CodeLength {
		return nil, dErrors.New(dErrors.CodeValidation, "pass code must be 8 characters")
	}

	pass, err := s.passes.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pass not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pass")
	}
	return s.details(ctx, pass), nil
}

// FindForVisit returns the visit's pass if one has been issued.
func (s *Service) FindForVisit(ctx context.Context, visitID uuid.UUID) (*models.Pass, error) {
	pass, err := s.passes.FindByVisitID(ctx, visitID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no pass issued for this visit")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pass")
	}
	return pass, nil
}

// details decorates the pass with visit and participant context; lookup
// failures leave the context fields empty rather than failing the gate view.
func (s *Service) details(ctx context.Context, pass *models.Pass) *models.PassDetails {
	d := &models.PassDetails{Pass: pass}
	visit, err := s.visits.FindByID(ctx, pass.VisitID)
	if err != nil {
		return d
	}
	d.VisitStatus = visit.Status
	d.VisitDate = visit.VisitDate
	d.Purpose = visit.Purpose
	if guest, err := s.users.FindByID(ctx, visit.GuestID); err == nil {
		d.GuestName = guest.Name
		d.GuestPhone = guest.Phone
	}
	if host, err := s.users.FindByID(ctx, visit.HostID); err == nil {
		d.HostName = host.Name
	}
	return d
}

// generateCode draws four random bytes and renders them as uppercase hex.
func generateCode() (string, error) {
	buf := make([]byte, models.CodeLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

func (s *Service) logEvent(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append(attrs, "event", event, "request_id", requestcontext.RequestID(ctx))
	s.logger.InfoContext(ctx, event, args...)
}
