package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "gatepass/pkg/domain-errors"
)

// Status is the closed set of visit lifecycle states.
type Status string

const (
	StatusPendingHost     Status = "pending_host"
	StatusPendingSecurity Status = "pending_security"
	StatusApproved        Status = "approved"
	StatusRejectedByHost  Status = "rejected_by_host"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

// transitions is the full edge set of the lifecycle machine. Anything not
// listed here is an invalid transition, which makes the terminal states
// (rejected_by_host, completed, cancelled) implicit.
var transitions = map[Status][]Status{
	StatusPendingHost:     {StatusPendingSecurity, StatusRejectedByHost, StatusCancelled},
	StatusPendingSecurity: {StatusApproved},
	StatusApproved:        {StatusCompleted},
}

// Valid reports membership in the closed status set.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingHost, StatusPendingSecurity, StatusApproved,
		StatusRejectedByHost, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle machine has an edge from s to
// next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Visit is the aggregate root for one guest-to-host entry request.
//
// Invariants:
//   - Status always holds a member of the closed status set
//   - Status changes only through Transition, which appends to the history
//   - RejectionReason is non-nil if and only if Status is rejected_by_host
//   - Visits are never deleted; terminal states end the lifecycle
type Visit struct {
	ID              uuid.UUID `json:"id"`
	GuestID         uuid.UUID `json:"guest_id"`
	HostID          uuid.UUID `json:"host_id"`
	Purpose         string    `json:"purpose"`
	VisitDate       time.Time `json:"visit_date"`
	Status          Status    `json:"status"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewVisit validates invariants and constructs a visit in pending_host.
// The visit date comparison is date-only: a request for today is accepted
// regardless of the current time of day.
func NewVisit(id, guestID, hostID uuid.UUID, purpose string, visitDate time.Time, now time.Time) (*Visit, error) {
	purpose = strings.TrimSpace(purpose)
	if guestID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "guest is required")
	}
	if hostID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "host is required")
	}
	if purpose == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "purpose is required")
	}
	if visitDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "visit date is required")
	}
	if DateOnly(visitDate).Before(DateOnly(now)) {
		return nil, dErrors.New(dErrors.CodeValidation, "visit date cannot be in the past")
	}
	return &Visit{
		ID:        id,
		GuestID:   guestID,
		HostID:    hostID,
		Purpose:   purpose,
		VisitDate: DateOnly(visitDate),
		Status:    StatusPendingHost,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Transition moves the visit to newStatus after re-verifying the status
// precondition, and returns the history entry that must be persisted in the
// same atomic unit as the visit update. reason is required exactly for the
// rejected_by_host edge.
func (v *Visit) Transition(newStatus Status, actorID uuid.UUID, reason string, now time.Time) (*StatusHistoryEntry, error) {
	if !newStatus.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown status: "+string(newStatus))
	}
	if !v.Status.CanTransitionTo(newStatus) {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			"cannot move visit from "+string(v.Status)+" to "+string(newStatus))
	}

	reason = strings.TrimSpace(reason)
	if newStatus == StatusRejectedByHost {
		if reason == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "rejection reason is required")
		}
		v.RejectionReason = &reason
	}

	oldStatus := v.Status
	v.Status = newStatus
	v.UpdatedAt = now

	return &StatusHistoryEntry{
		ID:        uuid.New(),
		VisitID:   v.ID,
		OldStatus: &oldStatus,
		NewStatus: newStatus,
		ChangedBy: actorID,
		ChangedAt: now,
	}, nil
}

// CreationHistory is the history entry recorded alongside visit creation;
// its old status is nil.
func (v *Visit) CreationHistory(now time.Time) *StatusHistoryEntry {
	return &StatusHistoryEntry{
		ID:        uuid.New(),
		VisitID:   v.ID,
		NewStatus: v.Status,
		ChangedBy: v.GuestID,
		ChangedAt: now,
	}
}

// StatusHistoryEntry is one append-only record of a status change. Entries
// are written in the same transaction as the visit mutation so history and
// status can never diverge.
type StatusHistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	VisitID   uuid.UUID `json:"visit_id"`
	OldStatus *Status   `json:"old_status,omitempty"`
	NewStatus Status    `json:"new_status"`
	ChangedBy uuid.UUID `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
