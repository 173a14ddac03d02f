package models

import (
	"time"

	"github.com/google/uuid"
)

// Filter is the structured alternative to ad-hoc query building: each field
// is an optional typed constraint that stores translate into their own query
// language.
type Filter struct {
	GuestID  *uuid.UUID
	HostID   *uuid.UUID
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
}

// Matches evaluates the filter against a visit; the in-memory store uses it
// directly.
func (f Filter) Matches(v *Visit) bool {
	if f.GuestID != nil && v.GuestID != *f.GuestID {
		return false
	}
	if f.HostID != nil && v.HostID != *f.HostID {
		return false
	}
	if f.Status != nil && v.Status != *f.Status {
		return false
	}
	if f.DateFrom != nil && v.VisitDate.Before(DateOnly(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && v.VisitDate.After(DateOnly(*f.DateTo)) {
		return false
	}
	return true
}
