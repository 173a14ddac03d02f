package service

import (
	"context"
	"time"

	checkmodels "gatepass/internal/checklog/models"
	visitmodels "gatepass/internal/visit/models"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/requestcontext"
)

// recentLimit caps the recent-visits section of the report.
const recentLimit = 50

// dailyWindowDays is how far back the per-day counts reach.
const dailyWindowDays = 30

// VisitSource is the read slice of the visit store reporting needs.
type VisitSource interface {
	List(ctx context.Context, filter visitmodels.Filter) ([]*visitmodels.Visit, error)
}

// GateSource is the read slice of the gate log reporting needs.
type GateSource interface {
	LatestPerVisit(ctx context.Context) ([]*checkmodels.Entry, error)
}

// DailyCount is one day's visit volume, keyed by the visit date. Approved
// counts the day's visits that made it through the full approval chain.
type DailyCount struct {
	Date     string `json:"date"`
	Count    int    `json:"count"`
	Approved int    `json:"approved"`
}

// Report is the admin dashboard payload.
type Report struct {
	TotalVisits     int                        `json:"total_visits"`
	StatusCounts    map[visitmodels.Status]int `json:"status_counts"`
	DailyCounts     []DailyCount               `json:"daily_counts"`
	CurrentlyInside int                        `json:"currently_inside"`
	Recent          []*visitmodels.Visit       `json:"recent_visits"`
}

// Service aggregates visit and gate data into the admin report.
type Service struct {
	visits VisitSource
	gate   GateSource
}

func New(visits VisitSource, gate GateSource) *Service {
	return &Service{visits: visits, gate: gate}
}

// Overview builds the full dashboard: per-status counts for the requested
// date range (last 30 days when unset), daily visit volume and approvals for
// the trailing month, the live on-site count and the most recent visits.
func (s *Service) Overview(ctx context.Context, from, to *time.Time) (*Report, error) {
	visits, err := s.visits.List(ctx, visitmodels.Filter{})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list visits")
	}

	now := requestcontext.Now(ctx)
	windowStart := visitmodels.DateOnly(now).AddDate(0, 0, -(dailyWindowDays - 1))
	rangeFrom, rangeTo := windowStart, visitmodels.DateOnly(now)
	if from != nil {
		rangeFrom = visitmodels.DateOnly(*from)
	}
	if to != nil {
		rangeTo = visitmodels.DateOnly(*to)
	}

	report := &Report{
		TotalVisits:  len(visits),
		StatusCounts: make(map[visitmodels.Status]int),
	}

	daily := make(map[string]int, dailyWindowDays)
	dailyApproved := make(map[string]int, dailyWindowDays)
	for _, visit := range visits {
		if !visit.VisitDate.Before(rangeFrom) && !visit.VisitDate.After(rangeTo) {
			report.StatusCounts[visit.Status]++
		}
		if visit.VisitDate.Before(windowStart) {
			continue
		}
		day := visit.VisitDate.Format(time.DateOnly)
		daily[day]++
		if visit.Status == visitmodels.StatusApproved || visit.Status == visitmodels.StatusCompleted {
			dailyApproved[day]++
		}
	}
	for i := 0; i < dailyWindowDays; i++ {
		day := windowStart.AddDate(0, 0, i).Format(time.DateOnly)
		report.DailyCounts = append(report.DailyCounts, DailyCount{
			Date:     day,
			Count:    daily[day],
			Approved: dailyApproved[day],
		})
	}

	latest, err := s.gate.LatestPerVisit(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load gate log")
	}
	for _, entry := range latest {
		if entry.Type == checkmodels.TypeCheckIn {
			report.CurrentlyInside++
		}
	}

	// visits arrive newest first from the store
	if len(visits) > recentLimit {
		visits = visits[:recentLimit]
	}
	report.Recent = visits
	return report, nil
}
