package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/events"
	"github.com/helpdesk/it-helpdesk/internal/mail"
	"github.com/helpdesk/it-helpdesk/internal/observability"
	"github.com/helpdesk/it-helpdesk/internal/repository"
)

// NotificationService turns domain events into emails. Delivery is best effort:
// failures are logged and counted, never returned to the request that caused them.
type NotificationService struct {
	users    repository.UserRepository
	sender   mail.Sender
	composer *mail.Composer
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(users repository.UserRepository, sender mail.Sender, composer *mail.Composer, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		users:    users,
		sender:   sender,
		composer: composer,
		logger:   logger,
		metrics:  metrics,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleTicketCommentAdded)
	dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	dispatcher.Subscribe(events.EventUserApproved, n.handleUserApproved)
}

func payloadError(event events.Event) error {
	return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return payloadError(event)
	}
	submitter, err := n.users.GetByID(ctx, payload.Ticket.SubmitterID)
	if err != nil {
		return fmt.Errorf("load submitter: %w", err)
	}
	recipients, err := n.supportEmails(ctx)
	if err != nil {
		return err
	}
	n.deliver(ctx, "ticket_created", recipients, n.composer.TicketCreated(payload.Ticket, *submitter))
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return payloadError(event)
	}
	submitter, err := n.submitterEmail(ctx, payload.Ticket)
	if err != nil {
		return err
	}
	n.deliver(ctx, "ticket_assigned", submitter, n.composer.TicketAssigned(payload.Ticket, payload.Assignee))
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return payloadError(event)
	}
	submitter, err := n.submitterEmail(ctx, payload.Ticket)
	if err != nil {
		return err
	}
	msg := n.composer.TicketStatusChanged(payload.Ticket, payload.OldStatus, payload.NewStatus)
	n.deliver(ctx, "ticket_status_changed", submitter, msg)
	return nil
}

func (n *NotificationService) handleTicketCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	if !ok {
		return payloadError(event)
	}

	ids := make([]string, 0, len(payload.PriorAuthorIDs)+2)
	ids = append(ids, payload.Ticket.SubmitterID)
	if payload.Ticket.AssignedToID != nil {
		ids = append(ids, *payload.Ticket.AssignedToID)
	}
	ids = append(ids, payload.PriorAuthorIDs...)

	recipients := make([]string, 0, len(ids))
	for _, id := range ids {
		user, err := n.users.GetByID(ctx, id)
		if err != nil {
			n.logger.Warn("comment recipient lookup failed", zap.String("user_id", id), zap.Error(err))
			continue
		}
		if user.HasEmail() {
			recipients = append(recipients, user.Email)
		}
	}
	msg := n.composer.CommentAdded(payload.Ticket, payload.Comment, payload.Author)
	n.deliver(ctx, "ticket_comment_added", recipients, msg)
	return nil
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return payloadError(event)
	}
	support, err := n.supportEmails(ctx)
	if err != nil {
		return err
	}
	n.deliver(ctx, "user_registered", support, n.composer.UserRegistered(payload.User))
	if payload.User.HasEmail() {
		n.deliver(ctx, "account_under_review", []string{payload.User.Email}, n.composer.AccountUnderReview())
	}
	return nil
}

func (n *NotificationService) handleUserApproved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserApprovedPayload)
	if !ok {
		return payloadError(event)
	}
	if payload.User.HasEmail() {
		n.deliver(ctx, "account_approved", []string{payload.User.Email}, n.composer.AccountApproved())
	}
	support, err := n.supportEmails(ctx)
	if err != nil {
		return err
	}
	n.deliver(ctx, "user_confirmed", support, n.composer.UserConfirmed(payload.User))
	return nil
}

func (n *NotificationService) supportEmails(ctx context.Context) ([]string, error) {
	users, err := n.users.List(ctx, repository.UserFilter{Roles: []domain.Role{domain.RoleAdmin, domain.RoleIT}})
	if err != nil {
		return nil, fmt.Errorf("list support users: %w", err)
	}
	emails := make([]string, 0, len(users))
	for i := range users {
		if users[i].HasEmail() {
			emails = append(emails, users[i].Email)
		}
	}
	return emails, nil
}

// submitterEmail returns no recipients, and logs, when the submitter has no address.
func (n *NotificationService) submitterEmail(ctx context.Context, ticket domain.Ticket) ([]string, error) {
	submitter, err := n.users.GetByID(ctx, ticket.SubmitterID)
	if err != nil {
		return nil, fmt.Errorf("load submitter: %w", err)
	}
	if !submitter.HasEmail() {
		n.logger.Info("submitter has no email; skipping notification", zap.Int64("ticket_id", ticket.ID))
		return nil, nil
	}
	return []string{submitter.Email}, nil
}

// deliver sends one message per distinct address.
func (n *NotificationService) deliver(ctx context.Context, template string, recipients []string, msg mail.Message) {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(recipients))
	for _, address := range recipients {
		address = strings.TrimSpace(address)
		if address == "" {
			continue
		}
		key := fold.String(address)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out := msg
		out.To = address
		if err := n.sender.Send(ctx, out); err != nil {
			n.logger.Warn("notification delivery failed",
				zap.String("template", template),
				zap.String("to", address),
				zap.Error(err))
			n.metrics.RecordNotification(template, false)
			continue
		}
		n.metrics.RecordNotification(template, true)
	}
}
