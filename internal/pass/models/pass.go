package models

import (
	"time"

	"github.com/google/uuid"

	visitmodels "gatepass/internal/visit/models"
	dErrors "gatepass/pkg/domain-errors"
)

// CodeLength is the length of a pass code on the wire: four random bytes,
// hex-encoded and uppercased.
const CodeLength = 8

// Pass is a single-use gate credential bound to one approved visit.
//
// Invariants:
//   - at most one pass exists per visit
//   - ValidFrom is strictly before ValidUntil
//   - Used flips to true at most once, at check-in
type Pass struct {
	ID         uuid.UUID  `json:"id"`
	VisitID    uuid.UUID  `json:"visit_id"`
	PassCode   string     `json:"pass_code"`
	IssuedBy   uuid.UUID  `json:"issued_by"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil time.Time  `json:"valid_until"`
	Used       bool       `json:"used"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewPass constructs a pass with the given validity window, recording the
// issuing officer.
func NewPass(id, visitID, issuedBy uuid.UUID, code string, validFrom, validUntil, now time.Time) (*Pass, error) {
	if visitID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "visit is required")
	}
	if issuedBy == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "issuing user is required")
	}
	if len(code) != CodeLength {
		return nil, dErrors.New(dErrors.CodeValidation, "pass code must be 8 characters")
	}
	if !validFrom.Before(validUntil) {
		return nil, dErrors.New(dErrors.CodeValidation, "validity window is empty")
	}
	return &Pass{
		ID:         id,
		VisitID:    visitID,
		PassCode:   code,
		IssuedBy:   issuedBy,
		ValidFrom:  validFrom,
		ValidUntil: validUntil,
		CreatedAt:  now,
	}, nil
}

// Window computes a pass validity window. With validHours > 0 the window
// starts now and runs for that many hours; otherwise it covers the full
// calendar day of the visit date. Both forms are half-open: valid at
// ValidFrom, expired at ValidUntil.
func Window(visitDate, now time.Time, validHours int) (time.Time, time.Time) {
	if validHours > 0 {
		return now, now.Add(time.Duration(validHours) * time.Hour)
	}
	start := visitmodels.DateOnly(visitDate)
	return start, start.AddDate(0, 0, 1)
}

// CheckUsable reports why the pass cannot be used right now, or nil if it
// can. Used wins over expiry so a replayed code is reported as already used
// even after the window closes.
func (p *Pass) CheckUsable(now time.Time) error {
	if p.Used {
		return dErrors.New(dErrors.CodeAlreadyUsed, "pass has already been used")
	}
	if now.Before(p.ValidFrom) {
		return dErrors.New(dErrors.CodeNotYetValid, "pass is not yet valid")
	}
	if !now.Before(p.ValidUntil) {
		return dErrors.New(dErrors.CodeExpired, "pass has expired")
	}
	return nil
}

// MarkUsed consumes the pass. Single use: marking an already-used pass is an
// error.
func (p *Pass) MarkUsed(now time.Time) error {
	if p.Used {
		return dErrors.New(dErrors.CodeAlreadyUsed, "pass has already been used")
	}
	p.Used = true
	p.UsedAt = &now
	return nil
}

// IssuePassRequest carries the optional validity override. Zero means the
// pass covers the whole visit day.
type IssuePassRequest struct {
	VisitID    string `json:"visit_id"`
	ValidHours int    `json:"valid_hours"`
}

func (r *IssuePassRequest) Validate() error {
	if r.VisitID == "" {
		return dErrors.New(dErrors.CodeValidation, "visit_id is required")
	}
	if r.ValidHours < 0 || r.ValidHours > 24 {
		return dErrors.New(dErrors.CodeValidation, "valid_hours must be between 0 and 24")
	}
	return nil
}

// PassDetails is the gate view of a pass: the credential plus enough visit
// context for the security desk to admit the right person.
type PassDetails struct {
	*Pass
	VisitStatus visitmodels.Status `json:"visit_status"`
	VisitDate   time.Time          `json:"visit_date"`
	Purpose     string             `json:"purpose"`
	GuestName   string             `json:"guest_name,omitempty"`
	GuestPhone  string             `json:"guest_phone,omitempty"`
	HostName    string             `json:"host_name,omitempty"`
}
