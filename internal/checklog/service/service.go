package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/checklog/models"
	passmodels "gatepass/internal/pass/models"
	"gatepass/internal/platform/metrics"
	usermodels "gatepass/internal/user/models"
	visitmodels "gatepass/internal/visit/models"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

type Store interface {
	Append(ctx context.Context, entry *models.Entry) error
	Latest(ctx context.Context, visitID uuid.UUID) (*models.Entry, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*models.Entry, error)
	LatestPerVisit(ctx context.Context) ([]*models.Entry, error)
}

// PassStore is the slice of the pass store the gate needs: code lookup and
// marking the pass used.
type PassStore interface {
	FindByCode(ctx context.Context, code string) (*passmodels.Pass, error)
	Update(ctx context.Context, pass *passmodels.Pass) error
}

// VisitStore is the slice of the visit store the gate needs: check-out
// completes the visit.
type VisitStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*visitmodels.Visit, error)
	Update(ctx context.Context, visit *visitmodels.Visit) error
	AppendHistory(ctx context.Context, entry *visitmodels.StatusHistoryEntry) error
}

// UserDirectory resolves names for the on-site roster.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*usermodels.User, error)
}

// TxRunner executes fn atomically across the gate log, pass and visit
// stores. A check-in consumes the pass and writes the log entry in one unit;
// a check-out writes the log entry and completes the visit in one unit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(logs Store, passes PassStore, visits VisitStore) error) error
}

// Service is the gate engine: it turns pass presentations into check-ins and
// check-outs and derives the on-site roster.
type Service struct {
	logs    Store
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

func New(logs Store, visits VisitStore, users UserDirectory, tx TxRunner, opts ...Option) *Service {
	s := &Service{logs: logs, visits: visits, users: users, tx: tx}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckIn admits the guest holding the pass. The pass must be inside its
// validity window and unused, the visit approved, and the guest not already
// inside. Marking the pass used and appending the log entry happen in one
// atomic unit, so presenting the same code at two gates admits exactly one.
func (s *Service) CheckIn(ctx context.Context, actorID uuid.UUID, req *models.GateRequest) (*models.GateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var entry *models.Entry
	err := s.tx.RunInTx(ctx, func(logs Store, passes PassStore, visits VisitStore) error {
		pass, err := findPass(ctx, passes, req.PassCode)
		if err != nil {
			return err
		}
		if err := pass.CheckUsable(now); err != nil {
			return err
		}

		visit, err := visits.FindByID(ctx, pass.VisitID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load visit")
		}
		if visit.Status != visitmodels.StatusApproved {
			return dErrors.New(dErrors.CodeInvalidTransition,
				"cannot check in a visit in "+string(visit.Status))
		}

		if latest, err := logs.Latest(ctx, pass.VisitID); err == nil && latest.Type == models.TypeCheckIn {
			return dErrors.New(dErrors.CodeAlreadyCheckedIn, "guest is already checked in")
		} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load gate log")
		}

		if err := pass.MarkUsed(now); err != nil {
			return err
		}
		if err := passes.Update(ctx, pass); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume pass")
		}

		entry = models.NewEntry(pass.VisitID, pass.ID, models.TypeCheckIn, actorID, now)
		if err := logs.Append(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record check-in")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CheckIns.Inc()
	}
	s.logEvent(ctx, "guest_checked_in", "visit_id", entry.VisitID.String())
	return s.result(ctx, entry, entry.OccurredAt, nil), nil
}

// CheckOut records the guest leaving and completes the visit. The guest must
// currently be inside: the latest gate log entry for the visit has to be a
// check-in.
func (s *Service) CheckOut(ctx context.Context, actorID uuid.UUID, req *models.GateRequest) (*models.GateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var entry *models.Entry
	var checkedInAt time.Time
	err := s.tx.RunInTx(ctx, func(logs Store, passes PassStore, visits VisitStore) error {
		pass, err := findPass(ctx, passes, req.PassCode)
		if err != nil {
			return err
		}

		latest, err := logs.Latest(ctx, pass.VisitID)
		if err != nil || latest.Type != models.TypeCheckIn {
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load gate log")
			}
			return dErrors.New(dErrors.CodeNotCheckedIn, "guest is not checked in")
		}
		checkedInAt = latest.OccurredAt

		visit, err := visits.FindByID(ctx, pass.VisitID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load visit")
		}
		historyEntry, err := visit.Transition(visitmodels.StatusCompleted, actorID, "", now)
		if err != nil {
			return err
		}
		if err := visits.Update(ctx, visit); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete visit")
		}
		if err := visits.AppendHistory(ctx, historyEntry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record visit history")
		}

		entry = models.NewEntry(pass.VisitID, pass.ID, models.TypeCheckOut, actorID, now)
		if err := logs.Append(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record check-out")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CheckOuts.Inc()
	}
	s.logEvent(ctx, "guest_checked_out", "visit_id", entry.VisitID.String())
	return s.result(ctx, entry, checkedInAt, &entry.OccurredAt), nil
}

// result decorates a recorded entry with participant context and the visit's
// gate times; lookup failures leave the context fields empty.
func (s *Service) result(ctx context.Context, entry *models.Entry, checkedInAt time.Time, checkedOutAt *time.Time) *models.GateResult {
	res := &models.GateResult{Entry: entry, CheckedInAt: checkedInAt, CheckedOutAt: checkedOutAt}
	visit, err := s.visits.FindByID(ctx, entry.VisitID)
	if err != nil {
		return res
	}
	res.Purpose = visit.Purpose
	if guest, err := s.users.FindByID(ctx, visit.GuestID); err == nil {
		res.GuestName = guest.Name
		res.GuestPhone = guest.Phone
	}
	if host, err := s.users.FindByID(ctx, visit.HostID); err == nil {
		res.HostName = host.Name
	}
	return res
}

// Present derives the on-site roster: every visit whose latest gate log
// entry is a check-in, decorated with visit and participant context.
func (s *Service) Present(ctx context.Context) ([]*models.PresentEntry, error) {
	latest, err := s.logs.LatestPerVisit(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load gate log")
	}

	roster := make([]*models.PresentEntry, 0, len(latest))
	for _, entry := range latest {
		if entry.Type != models.TypeCheckIn {
			continue
		}
		row := &models.PresentEntry{VisitID: entry.VisitID, CheckedInAt: entry.OccurredAt}
		if visit, err := s.visits.FindByID(ctx, entry.VisitID); err == nil {
			row.Purpose = visit.Purpose
			if guest, err := s.users.FindByID(ctx, visit.GuestID); err == nil {
				row.GuestName = guest.Name
				row.GuestPhone = guest.Phone
			}
			if host, err := s.users.FindByID(ctx, visit.HostID); err == nil {
				row.HostName = host.Name
			}
		}
		roster = append(roster, row)
	}
	return roster, nil
}

// History returns a visit's gate log in chronological order.
func (s *Service) History(ctx context.Context, visitID uuid.UUID) ([]*models.Entry, error) {
	entries, err := s.logs.ListByVisit(ctx, visitID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load gate log")
	}
	return entries, nil
}

func findPass(ctx context.Context, passes PassStore, code string) (*passmodels.Pass, error) {
	pass, err := passes.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pass not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pass")
	}
	return pass, nil
}

func (s *Service) logEvent(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append(attrs, "event", event, "request_id", requestcontext.RequestID(ctx))
	s.logger.InfoContext(ctx, event, args...)
}
