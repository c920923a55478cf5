package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidReportPeriod = errors.New("invalid filter value")

// ReportPeriod selects the window dashboard aggregates cover.
type ReportPeriod string

const (
	ReportPeriodAllTime   ReportPeriod = "all-time"
	ReportPeriodThisYear  ReportPeriod = "this-year"
	ReportPeriodThisMonth ReportPeriod = "this-month"
	ReportPeriodThisWeek  ReportPeriod = "this-week"
)

// ReportPeriods lists every accepted filter value.
func ReportPeriods() []ReportPeriod {
	return []ReportPeriod{ReportPeriodAllTime, ReportPeriodThisYear, ReportPeriodThisMonth, ReportPeriodThisWeek}
}

// ParseReportPeriod treats an empty value as all-time.
func ParseReportPeriod(value string) (ReportPeriod, error) {
	switch ReportPeriod(strings.ToLower(strings.TrimSpace(value))) {
	case "", ReportPeriodAllTime:
		return ReportPeriodAllTime, nil
	case ReportPeriodThisYear:
		return ReportPeriodThisYear, nil
	case ReportPeriodThisMonth:
		return ReportPeriodThisMonth, nil
	case ReportPeriodThisWeek:
		return ReportPeriodThisWeek, nil
	default:
		return "", ErrInvalidReportPeriod
	}
}

// Since returns the inclusive lower bound of the period in UTC, nil for all-time.
// Weeks start on Sunday.
func (p ReportPeriod) Since(now time.Time) *time.Time {
	now = now.UTC()
	var start time.Time
	switch p {
	case ReportPeriodThisYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case ReportPeriodThisMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case ReportPeriodThisWeek:
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		start = day.AddDate(0, 0, -int(day.Weekday()))
	default:
		return nil
	}
	return &start
}

// StatusCount is the number of tickets in one status.
type StatusCount struct {
	Status TicketStatus
	Count  int
}

// LabelCount is a generic grouped count.
type LabelCount struct {
	Label string
	Count int
}

// TicketStats are headline dashboard numbers.
type TicketStats struct {
	Total    int
	Open     int
	High     int
	Critical int
}

// DepartmentTicketStats groups tickets by the submitter's department.
type DepartmentTicketStats struct {
	Department          string
	TicketCount         int
	OpenTickets         int
	HighPriorityTickets int
}
