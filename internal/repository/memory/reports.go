package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/helpdesk/it-helpdesk/internal/domain"
)

type reportRepository struct {
	*backend
}

func (r *reportRepository) inPeriod(since *time.Time) []domain.Ticket {
	tickets := make([]domain.Ticket, 0, len(r.st.tickets))
	for _, t := range r.st.tickets {
		if since != nil {
			activity := t.CreatedAt
			if t.UpdatedAt != nil {
				activity = *t.UpdatedAt
			}
			if activity.Before(*since) {
				continue
			}
		}
		tickets = append(tickets, t)
	}
	return tickets
}

func (r *reportRepository) Stats(_ context.Context, since *time.Time) (domain.TicketStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats domain.TicketStats
	for _, t := range r.inPeriod(since) {
		stats.Total++
		if t.Status.IsOpen() {
			stats.Open++
		}
		switch t.Priority {
		case domain.TicketPriorityHigh:
			stats.High++
		case domain.TicketPriorityCritical:
			stats.Critical++
		}
	}
	return stats, nil
}

func (r *reportRepository) CountByStatus(_ context.Context, since *time.Time) ([]domain.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[domain.TicketStatus]int)
	for _, t := range r.inPeriod(since) {
		counts[t.Status]++
	}
	result := make([]domain.StatusCount, 0, len(counts))
	for _, status := range domain.TicketStatuses() {
		if n, ok := counts[status]; ok {
			result = append(result, domain.StatusCount{Status: status, Count: n})
		}
	}
	return result, nil
}

func (r *reportRepository) CountByCategory(_ context.Context, since *time.Time) ([]domain.LabelCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int)
	for _, t := range r.inPeriod(since) {
		counts[t.Category]++
	}
	return sortedLabels(counts), nil
}

func (r *reportRepository) TopResolvers(_ context.Context, since *time.Time) ([]domain.LabelCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int)
	for _, t := range r.inPeriod(since) {
		if t.Status != domain.TicketStatusResolved || t.AssignedToID == nil {
			continue
		}
		if user, ok := r.st.users[*t.AssignedToID]; ok {
			counts[displayName(user)]++
		}
	}
	return sortedLabels(counts), nil
}

func (r *reportRepository) TopCreators(_ context.Context, since *time.Time) ([]domain.LabelCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int)
	for _, t := range r.inPeriod(since) {
		if user, ok := r.st.users[t.SubmitterID]; ok {
			counts[displayName(user)]++
		}
	}
	return sortedLabels(counts), nil
}

func displayName(u domain.User) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func sortedLabels(counts map[string]int) []domain.LabelCount {
	result := make([]domain.LabelCount, 0, len(counts))
	for label, n := range counts {
		result = append(result, domain.LabelCount{Label: label, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Label < result[j].Label
	})
	return result
}

func (r *reportRepository) DepartmentStats(_ context.Context, since *time.Time) ([]domain.DepartmentTicketStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName := make(map[string]*domain.DepartmentTicketStats)
	for _, t := range r.inPeriod(since) {
		submitter, ok := r.st.users[t.SubmitterID]
		if !ok {
			continue
		}
		name := "Unassigned"
		if submitter.DepartmentID != nil {
			if dept, ok := r.st.departments[*submitter.DepartmentID]; ok {
				name = dept.Name
			}
		}
		entry, ok := byName[name]
		if !ok {
			entry = &domain.DepartmentTicketStats{Department: name}
			byName[name] = entry
		}
		entry.TicketCount++
		if t.Status.IsOpen() {
			entry.OpenTickets++
		}
		if t.Priority == domain.TicketPriorityHigh || t.Priority == domain.TicketPriorityCritical {
			entry.HighPriorityTickets++
		}
	}

	result := make([]domain.DepartmentTicketStats, 0, len(byName))
	for _, entry := range byName {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TicketCount != result[j].TicketCount {
			return result[i].TicketCount > result[j].TicketCount
		}
		return result[i].Department < result[j].Department
	})
	return result, nil
}

func (r *reportRepository) AverageSeverity(_ context.Context, since *time.Time) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tickets := r.inPeriod(since)
	if len(tickets) == 0 {
		return 0, nil
	}
	sum := 0
	for _, t := range tickets {
		sum += t.Priority.Rank()
	}
	return float64(sum) / float64(len(tickets)), nil
}

func (r *reportRepository) CreatedPerMonth(_ context.Context, year int) ([12]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var months [12]int
	for _, t := range r.st.tickets {
		created := t.CreatedAt.UTC()
		if created.Year() == year {
			months[created.Month()-1]++
		}
	}
	return months, nil
}
