package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"gatepass/internal/platform/metrics"
	usermodels "gatepass/internal/user/models"
	"gatepass/internal/visit/models"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, visit *models.Visit) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	Update(ctx context.Context, visit *models.Visit) error
	List(ctx context.Context, filter models.Filter) ([]*models.Visit, error)
	AppendHistory(ctx context.Context, entry *models.StatusHistoryEntry) error
	ListHistory(ctx context.Context, visitID uuid.UUID) ([]*models.StatusHistoryEntry, error)
}

// UserDirectory resolves participants; the user store satisfies it directly.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*usermodels.User, error)
}

// TxRunner executes fn atomically against a transaction-scoped store. The
// status update and its history entry always travel through one call so they
// commit or fail together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// Service owns the visit lifecycle: creation, the approval chain, rejection
// and cancellation.
type Service struct {
	visits  Store
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

func New(visits Store, users UserDirectory, tx TxRunner, opts ...Option) *Service {
	s := &Service{visits: visits, users: users, tx: tx}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new visit request in pending_host. The host must exist
// and actually hold the host role; the creation history entry is written in
// the same atomic unit as the visit.
func (s *Service) Create(ctx context.Context, guestID uuid.UUID, req *models.CreateVisitRequest) (*models.Visit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hostID, err := uuid.Parse(req.HostID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "host_id must be a valid UUID")
	}
	visitDate, err := req.ParseVisitDate()
	if err != nil {
		return nil, err
	}

	host, err := s.users.FindByID(ctx, hostID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "host not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load host")
	}
	if host.Role != usermodels.RoleHost {
		return nil, dErrors.New(dErrors.CodeValidation, "selected user is not a host")
	}

	now := requestcontext.Now(ctx)
	visit, err := models.NewVisit(uuid.New(), guestID, hostID, req.Purpose, visitDate, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(store Store) error {
		if err := store.Create(ctx, visit); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create visit")
		}
		if err := store.AppendHistory(ctx, visit.CreationHistory(now)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record visit history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.VisitsCreated.Inc()
	}
	s.logEvent(ctx, "visit_created", "visit_id", visit.ID.String(), "host_id", hostID.String())
	return visit, nil
}

// Approve is the host clearing a visit request: pending_host moves to
// pending_security, and only the visit's own host may perform it. The
// security side never approves here; a pending_security visit reaches
// approved exclusively through pass issuance. The visit is re-read and
// re-checked inside the transaction, so two racing approvals cannot both
// succeed.
func (s *Service) Approve(ctx context.Context, visitID, actorID uuid.UUID, actorRole usermodels.Role) (*models.Visit, error) {
	if actorRole != usermodels.RoleHost {
		return nil, dErrors.New(dErrors.CodeForbidden, "only hosts approve visit requests")
	}

	visit, err := s.transition(ctx, visitID, models.StatusPendingSecurity, actorID, "", func(v *models.Visit) error {
		if v.HostID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "only the visit's host can approve it")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.VisitsApproved.Inc()
	}
	s.logEvent(ctx, "visit_approved", "visit_id", visitID.String(), "new_status", string(visit.Status))
	return visit, nil
}

// Reject moves a pending_host visit to rejected_by_host. Only the visit's
// host may reject, and a reason is mandatory.
func (s *Service) Reject(ctx context.Context, visitID, actorID uuid.UUID, req *models.RejectVisitRequest) (*models.Visit, error) {
	visit, err := s.transition(ctx, visitID, models.StatusRejectedByHost, actorID, req.RejectionReason, func(v *models.Visit) error {
		if v.HostID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "only the visit's host can reject it")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.VisitsRejected.Inc()
	}
	s.logEvent(ctx, "visit_rejected", "visit_id", visitID.String())
	return visit, nil
}

// Cancel lets the requesting guest withdraw a visit that is still waiting on
// the host.
func (s *Service) Cancel(ctx context.Context, visitID, actorID uuid.UUID) (*models.Visit, error) {
	visit, err := s.transition(ctx, visitID, models.StatusCancelled, actorID, "", func(v *models.Visit) error {
		if v.GuestID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "only the requesting guest can cancel a visit")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, "visit_cancelled", "visit_id", visitID.String())
	return visit, nil
}

// transition loads the visit inside the transaction, runs the caller's access
// check, applies the lifecycle edge and persists both the visit and its
// history entry atomically.
func (s *Service) transition(ctx context.Context, visitID uuid.UUID, target models.Status, actorID uuid.UUID, reason string, check func(v *models.Visit) error) (*models.Visit, error) {
	now := requestcontext.Now(ctx)
	var visit *models.Visit
	err := s.tx.RunInTx(ctx, func(store Store) error {
		v, err := store.FindByID(ctx, visitID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "visit not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load visit")
		}
		if err := check(v); err != nil {
			return err
		}
		entry, err := v.Transition(target, actorID, reason, now)
		if err != nil {
			return err
		}
		if err := store.Update(ctx, v); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update visit")
		}
		if err := store.AppendHistory(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record visit history")
		}
		visit = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return visit, nil
}

// Get returns the full visit view. Guests see their own visits, hosts the
// visits addressed to them, security and admin everything.
func (s *Service) Get(ctx context.Context, visitID, actorID uuid.UUID, actorRole usermodels.Role) (*models.VisitDetails, error) {
	visit, err := s.visits.FindByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "visit not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load visit")
	}

	switch actorRole {
	case usermodels.RoleSecurity, usermodels.RoleAdmin:
	case usermodels.RoleHost:
		if visit.HostID != actorID {
			return nil, dErrors.New(dErrors.CodeForbidden, "visit belongs to another host")
		}
	default:
		if visit.GuestID != actorID {
			return nil, dErrors.New(dErrors.CodeForbidden, "visit belongs to another guest")
		}
	}

	history, err := s.visits.ListHistory(ctx, visitID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load visit history")
	}

	details := &models.VisitDetails{Visit: visit, History: history}
	if guest, err := s.users.FindByID(ctx, visit.GuestID); err == nil {
		details.GuestName = guest.Name
		details.GuestEmail = guest.Email
		details.GuestPhone = guest.Phone
	}
	if host, err := s.users.FindByID(ctx, visit.HostID); err == nil {
		details.HostName = host.Name
		details.HostEmail = host.Email
	}
	return details, nil
}

// MyVisits returns the guest's own visits, newest first, decorated with host
// names.
func (s *Service) MyVisits(ctx context.Context, guestID uuid.UUID) ([]*models.VisitSummary, error) {
	visits, err := s.visits.List(ctx, models.Filter{GuestID: &guestID})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list visits")
	}
	return s.summarize(ctx, visits), nil
}

// HostQueue returns every visit addressed to the host.
func (s *Service) HostQueue(ctx context.Context, hostID uuid.UUID) ([]*models.VisitSummary, error) {
	visits, err := s.visits.List(ctx, models.Filter{HostID: &hostID})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list visits")
	}
	return s.summarize(ctx, visits), nil
}

// SecurityQueue returns visits for the security desk, filtered by status.
// An empty filter means visits cleared by their host and waiting on security.
func (s *Service) SecurityQueue(ctx context.Context, statusFilter string) ([]*models.VisitSummary, error) {
	status := models.StatusPendingSecurity
	if statusFilter != "" {
		status = models.Status(statusFilter)
		if !status.Valid() {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown status: "+statusFilter)
		}
	}
	visits, err := s.visits.List(ctx, models.Filter{Status: &status})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list visits")
	}
	return s.summarize(ctx, visits), nil
}

// List exposes filtered listing for reporting.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Visit, error) {
	visits, err := s.visits.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list visits")
	}
	return visits, nil
}

// summarize decorates visits with participant names. Lookups are memoized per
// call; a missing user leaves the name fields empty rather than failing the
// listing.
func (s *Service) summarize(ctx context.Context, visits []*models.Visit) []*models.VisitSummary {
	cache := make(map[uuid.UUID]*usermodels.User)
	lookup := func(id uuid.UUID) *usermodels.User {
		if user, ok := cache[id]; ok {
			return user
		}
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			user = nil
		}
		cache[id] = user
		return user
	}

	summaries := make([]*models.VisitSummary, 0, len(visits))
	for _, visit := range visits {
		summary := &models.VisitSummary{Visit: visit}
		if guest := lookup(visit.GuestID); guest != nil {
			summary.GuestName = guest.Name
			summary.GuestPhone = guest.Phone
		}
		if host := lookup(visit.HostID); host != nil {
			summary.HostName = host.Name
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func (s *Service) logEvent(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append(attrs, "event", event, "request_id", requestcontext.RequestID(ctx))
	s.logger.InfoContext(ctx, event, args...)
}
