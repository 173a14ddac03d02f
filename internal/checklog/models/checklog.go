package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "gatepass/pkg/domain-errors"
)

// LogType distinguishes the two directions of gate traffic.
type LogType string

const (
	TypeCheckIn  LogType = "check_in"
	TypeCheckOut LogType = "check_out"
)

// Entry is one append-only gate log record. Entries are never updated or
// deleted; presence is derived from the latest entry per visit.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	VisitID     uuid.UUID `json:"visit_id"`
	PassID      uuid.UUID `json:"pass_id"`
	Type        LogType   `json:"type"`
	PerformedBy uuid.UUID `json:"performed_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewEntry(visitID, passID uuid.UUID, logType LogType, performedBy uuid.UUID, now time.Time) *Entry {
	return &Entry{
		ID:          uuid.New(),
		VisitID:     visitID,
		PassID:      passID,
		Type:        logType,
		PerformedBy: performedBy,
		OccurredAt:  now,
	}
}

// GateRequest is the payload for both check-in and check-out: the guest
// presents a pass code at the gate.
type GateRequest struct {
	PassCode string `json:"pass_code"`
}

func (r *GateRequest) Validate() error {
	if r.PassCode == "" {
		return dErrors.New(dErrors.CodeValidation, "pass_code is required")
	}
	return nil
}

// GateResult is the gate screen's response to a check-in or check-out: the
// recorded entry plus enough visit context to confirm the right person.
// CheckedInAt is always set; CheckedOutAt only on a check-out.
type GateResult struct {
	Entry        *Entry     `json:"entry"`
	GuestName    string     `json:"guest_name,omitempty"`
	GuestPhone   string     `json:"guest_phone,omitempty"`
	HostName     string     `json:"host_name,omitempty"`
	Purpose      string     `json:"purpose,omitempty"`
	CheckedInAt  time.Time  `json:"checked_in_at"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
}

// PresentEntry is one row of the on-site roster: a visit whose latest gate
// log is a check-in.
type PresentEntry struct {
	VisitID     uuid.UUID `json:"visit_id"`
	GuestName   string    `json:"guest_name,omitempty"`
	GuestPhone  string    `json:"guest_phone,omitempty"`
	HostName    string    `json:"host_name,omitempty"`
	Purpose     string    `json:"purpose"`
	CheckedInAt time.Time `json:"checked_in_at"`
}
