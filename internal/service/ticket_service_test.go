package service_test

import (
	"context"
	"strings"
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

type ticketFixture struct {
	repos      repository.Repositories
	dispatcher events.Dispatcher
	tickets    *service.TicketService
	sender     *recordingSender
	admin      *domain.User
	it         *domain.User
	staff      *domain.User
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	repos := memory.New().Repositories()
	logger := zap.NewNop()

	sender := &recordingSender{}
	dispatcher := events.NewInMemoryDispatcher(logger)
	composer := mail.NewComposer(mail.NewRenderer(), "http://portal.local")
	service.NewNotificationService(repos.Users, sender, composer, logger, observability.NewMetrics()).RegisterHandlers(dispatcher)

	return &ticketFixture{
		repos:      repos,
		dispatcher: dispatcher,
		tickets:    service.NewTicketService(repos, dispatcher, logger),
		sender:     sender,
		admin:      seedUser(t, repos, "admin@example.com", domain.RoleAdmin),
		it:         seedUser(t, repos, "it@example.com", domain.RoleIT),
		staff:      seedUser(t, repos, "staff@example.com", domain.RoleStaff),
	}
}

func (f *ticketFixture) create(t *testing.T, title, priority string) *service.TicketDetails {
	t.Helper()
	created, err := f.tickets.Create(context.Background(), f.staff.ID, service.TicketCreateInput{
		Title:       title,
		Description: "Details for " + title,
		Category:    "Hardware",
		Priority:    priority,
	})
	require.NoError(t, err)
	return created
}

func TestCreateTicketStartsNewAndNotifiesSupport(t *testing.T) {
	f := newTicketFixture(t)

	created := f.create(t, "  Printer jam  ", "")

	assert.Equal(t, "Printer jam", created.Ticket.Title)
	assert.Equal(t, domain.TicketStatusNew, created.Ticket.Status)
	assert.Equal(t, domain.TicketPriorityLow, created.Ticket.Priority)
	assert.Nil(t, created.Ticket.AssignedToID)
	assert.False(t, created.Ticket.IsViewed)
	assert.Equal(t, f.staff.ID, created.Submitter.ID)
	assert.ElementsMatch(t, []string{"admin@example.com", "it@example.com"}, f.sender.recipients("New Ticket Created"))
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	_, err := f.tickets.Create(ctx, f.staff.ID, service.TicketCreateInput{Priority: "Urgent"})
	domainErr := requireDomainError(t, err, 400)
	assert.Equal(t, "Validation failed", domainErr.Message)
	assert.Contains(t, domainErr.Errors, "Title is required.")
	assert.Contains(t, domainErr.Errors, "Description is required.")
	assert.Contains(t, domainErr.Errors, "Invalid priority value.")

	_, err = f.tickets.Create(ctx, f.staff.ID, service.TicketCreateInput{
		Title:       strings.Repeat("x", domain.MaxTicketTitleLength+1),
		Description: "too long",
	})
	requireDomainError(t, err, 400)

	_, err = f.tickets.Create(ctx, "missing-user", service.TicketCreateInput{Title: "a", Description: "b"})
	requireDomainError(t, err, 404)
}

func TestAssignMovesToAssignedAndNotifiesSubmitter(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	created := f.create(t, "VPN down", "High")
	_, err := f.tickets.UpdateStatus(ctx, f.it.ID, created.Ticket.ID, "Resolved", nil)
	require.NoError(t, err)

	assigned, err := f.tickets.Assign(ctx, f.admin.ID, created.Ticket.ID, f.it.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusAssigned, assigned.Ticket.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, f.it.ID, assigned.AssignedTo.ID)
	assert.NotNil(t, assigned.Ticket.UpdatedAt)
	assert.Equal(t, []string{"staff@example.com"}, f.sender.recipients("Ticket Status Assigned"))

	_, err = f.tickets.Assign(ctx, f.admin.ID, created.Ticket.ID, "nobody")
	requireDomainError(t, err, 404)
	_, err = f.tickets.Assign(ctx, f.admin.ID, 9999, f.it.ID)
	requireDomainError(t, err, 404)
}

func TestUpdateStatusAcceptsAnyTransitionAndKeepsClosedAt(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	created := f.create(t, "Laptop", "Medium")

	notes := "Replaced the battery"
	closed, err := f.tickets.UpdateStatus(ctx, f.it.ID, created.Ticket.ID, "closed", &notes)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Ticket.Status)
	require.NotNil(t, closed.Ticket.ClosedAt)
	require.NotNil(t, closed.Ticket.ResolutionNotes)
	assert.Equal(t, notes, *closed.Ticket.ResolutionNotes)
	closedAt := *closed.Ticket.ClosedAt

	reopened, err := f.tickets.UpdateStatus(ctx, f.it.ID, created.Ticket.ID, "0", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, reopened.Ticket.Status)
	require.NotNil(t, reopened.Ticket.ClosedAt)
	assert.True(t, closedAt.Equal(*reopened.Ticket.ClosedAt))
	assert.Nil(t, reopened.Ticket.ResolutionNotes)

	assert.Len(t, f.sender.recipients("Ticket Status Updated"), 2)

	_, err = f.tickets.UpdateStatus(ctx, f.it.ID, created.Ticket.ID, "Reopened", nil)
	domainErr := requireDomainError(t, err, 400)
	assert.Equal(t, "Invalid status value.", domainErr.Message)
}

func TestGetMarksViewedOncePerUser(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	created := f.create(t, "Monitor flicker", "Low")

	counts, err := f.tickets.Counts(ctx, f.it.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.NewCount)
	assert.Equal(t, 1, counts.UnreadCount)

	for i := 0; i < 3; i++ {
		got, err := f.tickets.Get(ctx, created.Ticket.ID, f.it.ID)
		require.NoError(t, err)
		assert.True(t, got.Ticket.IsViewed)
	}
	require.NoError(t, f.tickets.MarkViewed(ctx, created.Ticket.ID, f.it.ID))

	counts, err = f.tickets.Counts(ctx, f.it.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.UnreadCount)

	counts, err = f.tickets.Counts(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.UnreadCount, "views are tracked per user")

	assert.Error(t, f.tickets.MarkViewed(ctx, 4242, f.it.ID))
}

func TestCommentsNotifyParticipantsAndPageNewestFirst(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	created := f.create(t, "Email sync", "Medium")
	_, err := f.tickets.Assign(ctx, f.admin.ID, created.Ticket.ID, f.it.ID)
	require.NoError(t, err)
	f.sender.reset()

	_, err = f.tickets.AddComment(ctx, created.Ticket.ID, f.admin.ID, "  Looking into it  ")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"staff@example.com", "it@example.com"}, f.sender.recipients("New Comment on Ticket"))

	f.sender.reset()
	_, err = f.tickets.AddComment(ctx, created.Ticket.ID, f.staff.ID, "Thanks")
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"staff@example.com", "it@example.com", "admin@example.com"},
		f.sender.recipients("New Comment on Ticket"))

	page, err := f.tickets.ListComments(ctx, created.Ticket.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, "Thanks", page.Comments[0].Comment.Content)
	assert.Equal(t, f.staff.ID, page.Comments[0].Author.ID)

	_, err = f.tickets.ListComments(ctx, created.Ticket.ID, 3, 1)
	domainErr := requireDomainError(t, err, 404)
	assert.Equal(t, "No comments found for this ticket.", domainErr.Message)
}

func TestAddCommentValidation(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	created := f.create(t, "Keyboard", "Low")

	_, err := f.tickets.AddComment(ctx, created.Ticket.ID, f.staff.ID, "   ")
	requireDomainError(t, err, 400)
	_, err = f.tickets.AddComment(ctx, created.Ticket.ID, f.staff.ID, strings.Repeat("a", domain.MaxCommentLength+1))
	requireDomainError(t, err, 400)
	_, err = f.tickets.AddComment(ctx, 777, f.staff.ID, "hello")
	requireDomainError(t, err, 404)
}

func TestListFiltersAndSorts(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	low := f.create(t, "Alpha mouse", "Low")
	f.create(t, "Bravo printer", "Critical")
	high := f.create(t, "Charlie laptop", "High")
	_, err := f.tickets.Assign(ctx, f.admin.ID, high.Ticket.ID, f.it.ID)
	require.NoError(t, err)

	page, err := f.tickets.List(ctx, service.TicketQuery{SortBy: "priority"})
	require.NoError(t, err)
	require.Len(t, page.Tickets, 3)
	assert.Equal(t, domain.TicketPriorityCritical, page.Tickets[0].Ticket.Priority)
	assert.Equal(t, low.Ticket.ID, page.Tickets[2].Ticket.ID)

	page, err = f.tickets.List(ctx, service.TicketQuery{SortBy: "title", SortOrder: "ASC", PageSize: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Tickets, 1)
	assert.Equal(t, "Charlie laptop", page.Tickets[0].Ticket.Title)

	page, err = f.tickets.List(ctx, service.TicketQuery{AssignedTo: "unassigned"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)

	page, err = f.tickets.List(ctx, service.TicketQuery{AssignedTo: f.it.ID, Status: "assigned"})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, high.Ticket.ID, page.Tickets[0].Ticket.ID)

	page, err = f.tickets.List(ctx, service.TicketQuery{Search: "PRINTER"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalCount)

	_, err = f.tickets.List(ctx, service.TicketQuery{Priority: "Severe"})
	requireDomainError(t, err, 400)
}

func TestPaginateRejectsNonPositiveArguments(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.tickets.Paginate(context.Background(), 0, 10, "", "")
	domainErr := requireDomainError(t, err, 400)
	assert.Equal(t, "Page and pageSize must be greater than 0.", domainErr.Message)

	_, err = f.tickets.Paginate(context.Background(), 1, -1, "", "")
	requireDomainError(t, err, 400)
}

func TestDeleteTicketIsIdempotent(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	created := f.create(t, "Old request", "Low")
	_, err := f.tickets.AddComment(ctx, created.Ticket.ID, f.staff.ID, "ping")
	require.NoError(t, err)

	require.NoError(t, f.tickets.Delete(ctx, f.staff.ID, created.Ticket.ID))
	require.NoError(t, f.tickets.Delete(ctx, f.staff.ID, created.Ticket.ID))

	_, err = f.tickets.Get(ctx, created.Ticket.ID, f.it.ID)
	requireDomainError(t, err, 404)
}

func TestExportWritesWorkbook(t *testing.T) {
	f := newTicketFixture(t)
	f.create(t, "Export me", "Medium")

	data, name, err := f.tickets.Export(context.Background(), service.TicketQuery{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "tickets_"))
	assert.True(t, strings.HasSuffix(name, ".xlsx"))
	// xlsx files are zip archives
	require.Greater(t, len(data), 4)
	assert.Equal(t, "PK", string(data[:2]))
}
