package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	MaxTicketTitleLength    = 200
	MaxCommentLength        = 1000
	MaxOrgNameLength        = 100
	MaxOrgDescriptionLength = 500
)

var (
	ErrInvalidTicketStatus   = errors.New("invalid status value")
	ErrInvalidTicketPriority = errors.New("invalid priority value")
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "New"
	TicketStatusAssigned   TicketStatus = "Assigned"
	TicketStatusInProgress TicketStatus = "InProgress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketStatuses returns every status in lifecycle order.
func TicketStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusNew,
		TicketStatusAssigned,
		TicketStatusInProgress,
		TicketStatusResolved,
		TicketStatusClosed,
	}
}

// ParseTicketStatus accepts a status name (any case) or its ordinal.
func ParseTicketStatus(value string) (TicketStatus, error) {
	statuses := TicketStatuses()
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		if n >= 0 && n < len(statuses) {
			return statuses[n], nil
		}
		return "", ErrInvalidTicketStatus
	}
	for _, s := range statuses {
		if strings.EqualFold(string(s), value) {
			return s, nil
		}
	}
	return "", ErrInvalidTicketStatus
}

// Ordinal returns the lifecycle position, -1 when unknown.
func (s TicketStatus) Ordinal() int {
	for i, candidate := range TicketStatuses() {
		if candidate == s {
			return i
		}
	}
	return -1
}

// IsOpen reports whether work on the ticket is still pending.
func (s TicketStatus) IsOpen() bool {
	return s != TicketStatusResolved && s != TicketStatusClosed
}

// TicketPriority enumerates severity, ordered from Low to Critical.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// TicketPriorities returns every priority in increasing severity.
func TicketPriorities() []TicketPriority {
	return []TicketPriority{
		TicketPriorityLow,
		TicketPriorityMedium,
		TicketPriorityHigh,
		TicketPriorityCritical,
	}
}

// ParseTicketPriority accepts a priority name (any case) or its ordinal.
func ParseTicketPriority(value string) (TicketPriority, error) {
	priorities := TicketPriorities()
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		if n >= 0 && n < len(priorities) {
			return priorities[n], nil
		}
		return "", ErrInvalidTicketPriority
	}
	for _, p := range priorities {
		if strings.EqualFold(string(p), value) {
			return p, nil
		}
	}
	return "", ErrInvalidTicketPriority
}

// Rank returns the severity ordinal, -1 when unknown.
func (p TicketPriority) Rank() int {
	for i, candidate := range TicketPriorities() {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              int64
	Title           string
	Description     string
	Priority        TicketPriority
	Status          TicketStatus
	Category        string
	SubmitterID     string
	AssignedToID    *string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
	ClosedAt        *time.Time
	ResolutionNotes *string
	IsViewed        bool
}

// NewTicket builds a ticket in the New state.
func NewTicket(submitterID, title, description, category string, priority TicketPriority, now time.Time) *Ticket {
	if priority == "" {
		priority = TicketPriorityLow
	}
	return &Ticket{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		Priority:    priority,
		Status:      TicketStatusNew,
		SubmitterID: submitterID,
		CreatedAt:   now,
	}
}

// AssignTo sets the assignee and moves the ticket to Assigned from any status.
func (t *Ticket) AssignTo(userID string, now time.Time) {
	assignee := userID
	t.AssignedToID = &assignee
	t.Status = TicketStatusAssigned
	t.touch(now)
}

// ChangeStatus applies any status; ClosedAt is stamped on Closed and never cleared.
// It returns the previous status.
func (t *Ticket) ChangeStatus(status TicketStatus, notes *string, now time.Time) TicketStatus {
	old := t.Status
	t.Status = status
	if status == TicketStatusClosed {
		closed := now
		t.ClosedAt = &closed
	}
	t.ResolutionNotes = notes
	t.touch(now)
	return old
}

// MarkViewed sets the ticket-global viewed flag. It never resets.
func (t *Ticket) MarkViewed() {
	t.IsViewed = true
}

func (t *Ticket) touch(now time.Time) {
	updated := now
	t.UpdatedAt = &updated
}
