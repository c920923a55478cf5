package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/helpdesk/it-helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket.created"
	EventTicketAssigned      EventType = "ticket.assigned"
	EventTicketStatusChanged EventType = "ticket.status_changed"
	EventTicketCommentAdded  EventType = "ticket.comment_added"
	EventTicketDeleted       EventType = "ticket.deleted"
	EventUserRegistered      EventType = "user.registered"
	EventUserApproved        EventType = "user.approved"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string
	Type      EventType
	ActorID   string
	Timestamp time.Time
	Payload   any
}

// New stamps an event with a fresh id and the current UTC time.
func New(eventType EventType, actorID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload carries the ticket as stored.
type TicketCreatedPayload struct {
	Ticket domain.Ticket
}

// TicketAssignedPayload carries the ticket after assignment.
type TicketAssignedPayload struct {
	Ticket   domain.Ticket
	Assignee domain.User
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Ticket    domain.Ticket
	OldStatus domain.TicketStatus
	NewStatus domain.TicketStatus
}

// TicketDeletedPayload names the removed ticket.
type TicketDeletedPayload struct {
	TicketID int64
}

// TicketCommentAddedPayload payload. PriorAuthorIDs lists who had commented before Comment.
type TicketCommentAddedPayload struct {
	Ticket         domain.Ticket
	Comment        domain.TicketComment
	Author         domain.User
	PriorAuthorIDs []string
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	User domain.User
}

// UserApprovedPayload payload.
type UserApprovedPayload struct {
	User domain.User
}
