package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/events"
	"github.com/helpdesk/it-helpdesk/internal/mail"
	"github.com/helpdesk/it-helpdesk/internal/observability"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	"github.com/helpdesk/it-helpdesk/internal/repository/memory"
	"github.com/helpdesk/it-helpdesk/internal/service"
)

func newNotifyingTickets(t *testing.T, sender mail.Sender) (repository.Repositories, *service.TicketService, *observability.Metrics) {
	t.Helper()
	repos := memory.New().Repositories()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	composer := mail.NewComposer(mail.NewRenderer(), "http://portal.local")
	service.NewNotificationService(repos.Users, sender, composer, logger, metrics).RegisterHandlers(dispatcher)
	return repos, service.NewTicketService(repos, dispatcher, logger), metrics
}

func TestFailedDeliveryNeverFailsTheRequest(t *testing.T) {
	sender := &failingSender{}
	repos, tickets, metrics := newNotifyingTickets(t, sender)
	ctx := context.Background()
	it := seedUser(t, repos, "it@example.com", domain.RoleIT)
	staff := seedUser(t, repos, "staff@example.com", domain.RoleStaff)

	created, err := tickets.Create(ctx, staff.ID, service.TicketCreateInput{Title: "Scanner", Description: "Offline"})
	require.NoError(t, err)

	_, err = tickets.Assign(ctx, it.ID, created.Ticket.ID, it.ID)
	require.NoError(t, err)

	note := "Replaced the cable."
	updated, err := tickets.UpdateStatus(ctx, it.ID, created.Ticket.ID, "Resolved", &note)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Ticket.Status)

	_, err = tickets.AddComment(ctx, created.Ticket.ID, it.ID, "Please confirm it works.")
	require.NoError(t, err)

	assert.Equal(t, 5, sender.count(), "created, assigned, status, and comment to submitter and assignee")
	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Notifications["ticket_created|failed"])
	assert.Equal(t, int64(1), snap.Notifications["ticket_assigned|failed"])
	assert.Equal(t, int64(1), snap.Notifications["ticket_status_changed|failed"])
	assert.Equal(t, int64(2), snap.Notifications["ticket_comment_added|failed"])
	assert.Zero(t, snap.Notifications["ticket_assigned|sent"])
}

func TestSubmitterWithoutEmailIsSkipped(t *testing.T) {
	sender := &recordingSender{}
	repos, tickets, metrics := newNotifyingTickets(t, sender)
	ctx := context.Background()
	it := seedUser(t, repos, "it@example.com", domain.RoleIT)
	kiosk := seedUser(t, repos, "", domain.RoleStaff)

	created, err := tickets.Create(ctx, kiosk.ID, service.TicketCreateInput{Title: "Badge reader", Description: "Beeps"})
	require.NoError(t, err)
	sender.reset()

	_, err = tickets.Assign(ctx, it.ID, created.Ticket.ID, it.ID)
	require.NoError(t, err)
	_, err = tickets.UpdateStatus(ctx, it.ID, created.Ticket.ID, "InProgress", nil)
	require.NoError(t, err)

	assert.Empty(t, sender.recipients("Ticket Status Assigned"))
	assert.Empty(t, sender.recipients("Ticket Status Updated"))
	snap := metrics.Snapshot()
	assert.Zero(t, snap.Notifications["ticket_assigned|sent"])
	assert.Zero(t, snap.Notifications["ticket_status_changed|sent"])
}
