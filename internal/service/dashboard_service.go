package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/events"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

const unknownCategory = "Unknown"

// ResolvedReport compares resolved (Resolved or Closed) tickets with the total.
type ResolvedReport struct {
	Category string `json:"category"`
	Resolved int    `json:"resolved"`
	Total    int    `json:"total"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type ResolverCount struct {
	FullName      string `json:"fullName"`
	ResolvedCount int    `json:"resolvedCount"`
}

type CreatorCount struct {
	FullName     string `json:"fullName"`
	CreatedCount int    `json:"createdCount"`
}

type DashboardStats struct {
	TotalTickets            int `json:"totalTickets"`
	OpenTickets             int `json:"openTickets"`
	HighSeverityTickets     int `json:"highSeverityTickets"`
	CriticalSeverityTickets int `json:"criticalSeverityTickets"`
}

type TicketTypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ResolutionRate is a percentage rounded to two decimals.
type ResolutionRate struct {
	TotalTickets    int     `json:"totalTickets"`
	ResolvedTickets int     `json:"resolvedTickets"`
	ResolutionRate  float64 `json:"resolutionRate"`
}

type DepartmentStat struct {
	Department          string `json:"department"`
	TicketCount         int    `json:"ticketCount"`
	OpenTickets         int    `json:"openTickets"`
	HighPriorityTickets int    `json:"highPriorityTickets"`
}

type AverageSeverity struct {
	AverageSeverity float64 `json:"averageSeverity"`
}

// MonthlyComparison holds tickets created per calendar month, January first.
type MonthlyComparison struct {
	CurrentYear [12]int `json:"currentYear"`
	LastYear    [12]int `json:"lastYear"`
}

// DashboardService serves dashboard aggregates, read-through cached when a cache is configured.
type DashboardService struct {
	reports repository.ReportRepository
	cache   repository.ReportCache
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewDashboardService builds the service. A nil cache or non-positive ttl disables caching.
func NewDashboardService(reports repository.ReportRepository, cache repository.ReportCache, ttl time.Duration, logger *zap.Logger) *DashboardService {
	return &DashboardService{reports: reports, cache: cache, ttl: ttl, logger: logger, now: nowUTC}
}

// period parses the filter query value. Unknown values are rejected.
func (s *DashboardService) period(filter string) (domain.ReportPeriod, *time.Time, error) {
	p, err := domain.ParseReportPeriod(filter)
	if err != nil {
		return "", nil, apperrors.NewValidationError("Invalid filter value.", map[string]any{
			"allowed": domain.ReportPeriods(),
		})
	}
	return p, p.Since(s.now()), nil
}

// cached runs load through the report cache. Cache failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *DashboardService, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache != nil && s.ttl > 0 {
		raw, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var value T
			jsonErr := json.Unmarshal(raw, &value)
			if jsonErr == nil {
				return value, nil
			}
			s.logger.Warn("discarding undecodable dashboard cache entry", zap.String("key", key), zap.Error(jsonErr))
		case !errors.Is(err, repository.ErrCacheMiss):
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, apperrors.MapError(err)
	}

	if s.cache != nil && s.ttl > 0 {
		raw, err := json.Marshal(value)
		if err == nil {
			err = s.cache.Set(ctx, key, raw, s.ttl)
		}
		if err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}

var dashboardEndpoints = []string{
	"resolved-reports", "ticket-status", "top-concerns", "top-resolvers", "top-creators", "stats",
	"ticket-types", "resolution-rate", "department-stats", "average-severity",
}

func cacheKey(endpoint string, p domain.ReportPeriod) string {
	return fmt.Sprintf("dashboard:%s:%s", endpoint, p)
}

func monthlyKey(year int) string {
	return fmt.Sprintf("dashboard:monthly-comparison:%d", year)
}

// RegisterHandlers drops cached aggregates whenever a ticket changes.
func (s *DashboardService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil || s.cache == nil {
		return
	}
	invalidate := func(ctx context.Context, _ events.Event) error {
		s.Invalidate(ctx)
		return nil
	}
	for _, t := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketAssigned,
		events.EventTicketStatusChanged,
		events.EventTicketDeleted,
	} {
		dispatcher.Subscribe(t, invalidate)
	}
}

// Invalidate removes every cached dashboard aggregate. Failures are logged only.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	periods := domain.ReportPeriods()
	keys := make([]string, 0, len(dashboardEndpoints)*len(periods)+1)
	for _, endpoint := range dashboardEndpoints {
		for _, p := range periods {
			keys = append(keys, cacheKey(endpoint, p))
		}
	}
	keys = append(keys, monthlyKey(s.now().Year()))
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) ResolvedReports(ctx context.Context, filter string) ([]ResolvedReport, error) {
	p, since, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cacheKey("resolved-reports", p), func(ctx context.Context) ([]ResolvedReport, error) {
		counts, err := s.reports.CountByStatus(ctx, since)
		if err != nil {
			return nil, err
		}
		total, resolved := resolvedTotals(counts)
		return []ResolvedReport{{Category: "Tickets", Resolved: resolved, Total: total}}, nil
	})
}

// TicketStatus reports every status, zero counts included, in lifecycle order.
func (s *DashboardService) TicketStatus(ctx context.Context, filter string) ([]StatusCount, error) {
	p, since, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cacheKey("ticket-status", p), func(ctx context.Context) ([]StatusCount, error) {
		counts, err := s.reports.CountByStatus(ctx, since)
		if err != nil {
			return nil, err
		}
		byStatus := make(map[domain.TicketStatus]int, len(counts))
		for _, c := range counts {
			byStatus[c.Status] += c.Count
		}
		out := make([]StatusCount, 0, len(domain.TicketStatuses()))
		for _, st := range domain.TicketStatuses() {
			out = append(out, StatusCount{Status: string(st), Count: byStatus[st]})
		}
		return out, nil
	})
}

func (s *DashboardService) TopConcerns(ctx context.Context, filter string) ([]CategoryCount, error) {
	p, since, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cacheKey("top-concerns", p), func(ctx context.Context) ([]CategoryCount, error) {
		counts, err := s.reports.CountByCategory(ctx, since)
		if err != nil {
			return nil, err
		}
		out := make([]CategoryCount, 0, len(counts))
		for _, c := range counts {
			out = append(out, CategoryCount{Category: c.Label, Count: c.Count})
		}
		return out, nil
	})
}

// TopResolvers counts Resolved tickets per assignee.
func (s *DashboardService) TopResolvers(ctx context.Context, filter string) ([]ResolverCount, error) {
	p, since, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cacheKey("top-resolvers", p), func(ctx context.Context) ([]ResolverCount, error) {
		counts, err := s.reports.TopResolvers(ctx, since)
		if err != nil {
			return nil, err
		}
		out := make([]ResolverCount, 0, len(counts))
		for _, c := range counts {
			out = append(out, ResolverCount{FullName: c.Label, ResolvedCount: c.Count})
		}
		return out, nil
	})
}

func (s *DashboardService) TopCreators(ctx context.Context, filter string) ([]CreatorCount, error) {
	p, since, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cacheKey("top-creators", p), func(ctx context.Context) ([]CreatorCount, error) {
		counts, err := s.reports.TopCreators(ctx, since)
		if err != nil {
			return nil, err
		}
		out := make([]CreatorCount, 0, len(counts))
		for _, c := range counts {
			out = append(out, CreatorCount{FullName: c.Label, CreatedCount: c.Count})
		}
		return out, nil
	})
}

func (s *DashboardService) Stats(ctx context.Context, filter string) (*DashboardStats, error) {
	p, since, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cacheKey("stats", p), func(ctx context.Context) (*DashboardStats, error) {
		stats, err := s.reports.Stats(ctx, since)
		if err != nil {
			return nil, err
		}
		return &DashboardStats{
			TotalTickets:            stats.Total,
			OpenTickets:             stats.Open,
			HighSeverityTickets:     stats.High,
			CriticalSeverityTickets: stats.Critical,
		}, nil
	})
}

// TicketTypes groups by category; tickets without one are reported as Unknown.
func (s *DashboardService) TicketTypes(ctx context.Context, filter string) ([]TicketTypeCount, error) {
	p, since, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cacheKey("ticket-types", p), func(ctx context.Context) ([]TicketTypeCount, error) {
		counts, err := s.reports.CountByCategory(ctx, since)
		if err != nil {
			return nil, err
		}
		out := make([]TicketTypeCount, 0, len(counts))
		for _, c := range counts {
			label := c.Label
			if strings.TrimSpace(label) == "" {
				label = unknownCategory
			}
			out = append(out, TicketTypeCount{Type: label, Count: c.Count})
		}
		return out, nil
	})
}

func (s *DashboardService) ResolutionRate(ctx context.Context, filter string) (*ResolutionRate, error) {
	p, since, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cacheKey("resolution-rate", p), func(ctx context.Context) (*ResolutionRate, error) {
		counts, err := s.reports.CountByStatus(ctx, since)
		if err != nil {
			return nil, err
		}
		total, resolved := resolvedTotals(counts)
		rate := 0.0
		if total > 0 {
			rate = math.Round(float64(resolved)/float64(total)*10000) / 100
		}
		return &ResolutionRate{TotalTickets: total, ResolvedTickets: resolved, ResolutionRate: rate}, nil
	})
}

func (s *DashboardService) DepartmentStats(ctx context.Context, filter string) ([]DepartmentStat, error) {
	p, since, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cacheKey("department-stats", p), func(ctx context.Context) ([]DepartmentStat, error) {
		stats, err := s.reports.DepartmentStats(ctx, since)
		if err != nil {
			return nil, err
		}
		out := make([]DepartmentStat, 0, len(stats))
		for _, d := range stats {
			out = append(out, DepartmentStat{
				Department:          d.Department,
				TicketCount:         d.TicketCount,
				OpenTickets:         d.OpenTickets,
				HighPriorityTickets: d.HighPriorityTickets,
			})
		}
		return out, nil
	})
}

// AverageSeverity is the mean priority ordinal, Low=0 through Critical=3.
func (s *DashboardService) AverageSeverity(ctx context.Context, filter string) (*AverageSeverity, error) {
	p, since, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cacheKey("average-severity", p), func(ctx context.Context) (*AverageSeverity, error) {
		avg, err := s.reports.AverageSeverity(ctx, since)
		if err != nil {
			return nil, err
		}
		return &AverageSeverity{AverageSeverity: avg}, nil
	})
}

// MonthlyComparison ignores the period filter; it always compares the current and previous calendar year.
func (s *DashboardService) MonthlyComparison(ctx context.Context) (*MonthlyComparison, error) {
	year := s.now().Year()
	return cached(ctx, s, monthlyKey(year), func(ctx context.Context) (*MonthlyComparison, error) {
		current, err := s.reports.CreatedPerMonth(ctx, year)
		if err != nil {
			return nil, err
		}
		last, err := s.reports.CreatedPerMonth(ctx, year-1)
		if err != nil {
			return nil, err
		}
		return &MonthlyComparison{CurrentYear: current, LastYear: last}, nil
	})
}

func resolvedTotals(counts []domain.StatusCount) (total, resolved int) {
	for _, c := range counts {
		total += c.Count
		if c.Status == domain.TicketStatusResolved || c.Status == domain.TicketStatusClosed {
			resolved += c.Count
		}
	}
	return total, resolved
}
