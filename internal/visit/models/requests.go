package models

import (
	"strings"
	"time"

	dErrors "gatepass/pkg/domain-errors"
)

// CreateVisitRequest is the payload a guest submits to request a visit.
// VisitDate is a calendar date in YYYY-MM-DD form.
type CreateVisitRequest struct {
	HostID    string `json:"host_id"`
	Purpose   string `json:"purpose"`
	VisitDate string `json:"visit_date"`
}

func (r *CreateVisitRequest) Validate() error {
	if strings.TrimSpace(r.HostID) == "" || strings.TrimSpace(r.Purpose) == "" || strings.TrimSpace(r.VisitDate) == "" {
		return dErrors.New(dErrors.CodeValidation, "host_id, purpose and visit_date are required")
	}
	return nil
}

// ParseVisitDate interprets the wire date in local time, matching how pass
// validity windows are computed.
func (r *CreateVisitRequest) ParseVisitDate() (time.Time, error) {
	date, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(r.VisitDate), time.Local)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "visit_date must be formatted as YYYY-MM-DD")
	}
	return date, nil
}

// RejectVisitRequest carries the mandatory reason for a host rejection.
type RejectVisitRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

// VisitSummary decorates a visit with the participant names list screens
// show.
type VisitSummary struct {
	*Visit
	GuestName  string `json:"guest_name,omitempty"`
	GuestPhone string `json:"guest_phone,omitempty"`
	HostName   string `json:"host_name,omitempty"`
}

// VisitDetails is the full view returned for a single visit: the record, its
// participants, and the complete status history in chronological order.
type VisitDetails struct {
	*Visit
	GuestName  string                `json:"guest_name,omitempty"`
	GuestEmail string                `json:"guest_email,omitempty"`
	GuestPhone string                `json:"guest_phone,omitempty"`
	HostName   string                `json:"host_name,omitempty"`
	HostEmail  string                `json:"host_email,omitempty"`
	History    []*StatusHistoryEntry `json:"history"`
}
