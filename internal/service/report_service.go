package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fixit/helpdesk-service/internal/auth"
	"github.com/fixit/helpdesk-service/internal/domain"
	"github.com/fixit/helpdesk-service/internal/repository"
	apperrors "github.com/fixit/helpdesk-service/pkg/util/errorutil"
)

// ReportRange bounds the incidents a summary covers by creation time.
type ReportRange string

const (
	ReportRangeAll     ReportRange = "all"
	ReportRangeToday   ReportRange = "today"
	ReportRangeWeek    ReportRange = "week"
	ReportRangeMonth   ReportRange = "month"
	ReportRangeQuarter ReportRange = "quarter"

	topDepartmentLimit = 5
	recentLimit        = 5
)

// ParseReportRange accepts the range names case-insensitively. An empty
// value selects ReportRangeAll.
func ParseReportRange(raw string) (ReportRange, error) {
	r := ReportRange(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case "":
		return ReportRangeAll, nil
	case ReportRangeAll, ReportRangeToday, ReportRangeWeek, ReportRangeMonth, ReportRangeQuarter:
		return r, nil
	}
	return "", apperrors.NewValidationError("invalid report range", map[string]any{
		"range":   raw,
		"allowed": []ReportRange{ReportRangeAll, ReportRangeToday, ReportRangeWeek, ReportRangeMonth, ReportRangeQuarter},
	})
}

// DepartmentCount is one row of the department ranking.
type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// ReportSummary aggregates incidents created within a range.
type ReportSummary struct {
	Range          ReportRange                   `json:"range"`
	Since          *time.Time                    `json:"since,omitempty"`
	Total          int                           `json:"total"`
	ByStatus       map[domain.IncidentStatus]int `json:"byStatus"`
	HighPriority   int                           `json:"highPriority"`
	MediumPriority int                           `json:"mediumPriority"`
	LowPriority    int                           `json:"lowPriority"`
	TopDepartments []DepartmentCount             `json:"topDepartments"`
	ResolutionRate int                           `json:"resolutionRate"`
}

// Dashboard is the landing overview.
type Dashboard struct {
	Total    int                           `json:"total"`
	ByStatus map[domain.IncidentStatus]int `json:"byStatus"`
	Recent   []domain.Incident             `json:"recent"`
}

// ReportService computes read-only aggregates over incidents.
type ReportService struct {
	incidents repository.IncidentRepository
	now       func() time.Time
}

// ReportDependencies bundles repositories for the report service.
type ReportDependencies struct {
	IncidentRepo repository.IncidentRepository
	// Now defaults to time.Now. Its location defines "today".
	Now func() time.Time
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &ReportService{incidents: deps.IncidentRepo, now: now}
}

// Summary reports on incidents created within r. Admins and technicians only.
func (s *ReportService) Summary(ctx context.Context, requested ReportRange, actor *domain.User) (*ReportSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !auth.CanViewReports(actor) {
		return nil, apperrors.NewForbidden("reports are limited to admins and technicians")
	}
	r, err := ParseReportRange(string(requested))
	if err != nil {
		return nil, err
	}

	incidents, err := s.incidents.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	summary := &ReportSummary{Range: r, ByStatus: emptyStatusCounts(), TopDepartments: []DepartmentCount{}}
	since, bounded := rangeStart(r, s.now())
	if bounded {
		summary.Since = &since
	}

	departments := map[string]int{}
	for _, incident := range incidents {
		if bounded && incident.CreatedAt.Before(since) {
			continue
		}
		summary.Total++
		summary.ByStatus[incident.Status]++
		switch incident.Priority {
		case domain.IncidentPriorityHigh, domain.IncidentPriorityCritical:
			summary.HighPriority++
		case domain.IncidentPriorityMedium:
			summary.MediumPriority++
		case domain.IncidentPriorityLow:
			summary.LowPriority++
		}
		if dept := incident.CreatedBy.Department; dept != "" {
			departments[dept]++
		}
	}

	for dept, count := range departments {
		summary.TopDepartments = append(summary.TopDepartments, DepartmentCount{Department: dept, Count: count})
	}
	sort.Slice(summary.TopDepartments, func(i, j int) bool {
		a, b := summary.TopDepartments[i], summary.TopDepartments[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Department < b.Department
	})
	if len(summary.TopDepartments) > topDepartmentLimit {
		summary.TopDepartments = summary.TopDepartments[:topDepartmentLimit]
	}

	if summary.Total > 0 {
		resolved := summary.ByStatus[domain.IncidentStatusResolved]
		summary.ResolutionRate = int(math.Round(float64(resolved) / float64(summary.Total) * 100))
	}
	return summary, nil
}

// Dashboard returns status counts and the most recently created incidents.
func (s *ReportService) Dashboard(ctx context.Context, actor *domain.User) (*Dashboard, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !auth.CanViewReports(actor) {
		return nil, apperrors.NewForbidden("dashboard is limited to admins and technicians")
	}

	incidents, err := s.incidents.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	dashboard := &Dashboard{Total: len(incidents), ByStatus: emptyStatusCounts()}
	for _, incident := range incidents {
		dashboard.ByStatus[incident.Status]++
	}

	recent := append([]domain.Incident(nil), incidents...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	dashboard.Recent = recent
	return dashboard, nil
}

func emptyStatusCounts() map[domain.IncidentStatus]int {
	counts := make(map[domain.IncidentStatus]int, len(domain.IncidentStatuses))
	for _, status := range domain.IncidentStatuses {
		counts[status] = 0
	}
	return counts
}

// rangeStart returns the earliest creation time r admits. The second
// result is false when r is unbounded.
func rangeStart(r ReportRange, now time.Time) (time.Time, bool) {
	switch r {
	case ReportRangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case ReportRangeWeek:
		return now.AddDate(0, 0, -7), true
	case ReportRangeMonth:
		return now.AddDate(0, -1, 0), true
	case ReportRangeQuarter:
		return now.AddDate(0, -3, 0), true
	}
	return time.Time{}, false
}
