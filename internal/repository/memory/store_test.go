package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	"github.com/helpdesk/it-helpdesk/internal/repository/memory"
)

func newUser(t *testing.T, repos repository.Repositories, email string) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, FirstName: "Ada", LastName: "Lovelace", Role: domain.RoleStaff, IsActive: true}
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return user
}

func TestUserEmailIsUniqueIgnoringCase(t *testing.T) {
	repos := memory.New().Repositories()
	newUser(t, repos, "ada@example.com")

	err := repos.Users.Create(context.Background(), &domain.User{Email: "ADA@Example.com", Role: domain.RoleStaff})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	found, err := repos.Users.GetByEmail(context.Background(), "Ada@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", found.Email)
}

func TestDepartmentNameUniqueAndDeleteBlockedByReferences(t *testing.T) {
	ctx := context.Background()
	repos := memory.New().Repositories()

	dept := &domain.Department{Name: "Finance"}
	require.NoError(t, repos.Departments.Create(ctx, dept))
	assert.ErrorIs(t, repos.Departments.Create(ctx, &domain.Department{Name: "finance"}), repository.ErrDuplicate)

	sub := &domain.SubDepartment{DepartmentID: dept.ID, Name: "Payroll"}
	require.NoError(t, repos.SubDepartments.Create(ctx, sub))
	assert.ErrorIs(t, repos.Departments.Delete(ctx, dept.ID), repository.ErrReferenced)

	require.NoError(t, repos.SubDepartments.Delete(ctx, sub.ID))
	require.NoError(t, repos.Departments.Delete(ctx, dept.ID))
	assert.ErrorIs(t, repos.Departments.Delete(ctx, dept.ID), repository.ErrNotFound)
}

func TestSubDepartmentNamesAreScopedToDepartment(t *testing.T) {
	ctx := context.Background()
	repos := memory.New().Repositories()

	a := &domain.Department{Name: "A"}
	b := &domain.Department{Name: "B"}
	require.NoError(t, repos.Departments.Create(ctx, a))
	require.NoError(t, repos.Departments.Create(ctx, b))

	require.NoError(t, repos.SubDepartments.Create(ctx, &domain.SubDepartment{DepartmentID: a.ID, Name: "Ops"}))
	require.NoError(t, repos.SubDepartments.Create(ctx, &domain.SubDepartment{DepartmentID: b.ID, Name: "Ops"}))
	err := repos.SubDepartments.Create(ctx, &domain.SubDepartment{DepartmentID: a.ID, Name: "OPS"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = repos.SubDepartments.Create(ctx, &domain.SubDepartment{DepartmentID: 999, Name: "Ghost"})
	assert.ErrorIs(t, err, repository.ErrReferenced)
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := store.Repositories()

	dept := &domain.Department{Name: "Legal"}
	require.NoError(t, repos.Departments.Create(ctx, dept))

	boom := errors.New("boom")
	err := store.TxManager().RunInTransaction(ctx, func(ctx context.Context, tx repository.Repositories) error {
		require.NoError(t, tx.Departments.Delete(ctx, dept.ID))
		require.NoError(t, tx.Departments.Create(ctx, &domain.Department{Name: "Temp"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repos.Departments.GetByID(ctx, dept.ID)
	require.NoError(t, err)
	all, err := repos.Departments.List(ctx, repository.DepartmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRunInTransactionCommits(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	err := store.TxManager().RunInTransaction(ctx, func(ctx context.Context, tx repository.Repositories) error {
		return tx.Departments.Create(ctx, &domain.Department{Name: "IT"})
	})
	require.NoError(t, err)

	all, err := store.Repositories().Departments.List(ctx, repository.DepartmentFilter{Search: "it"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "IT", all[0].Name)
}

func TestTicketListFiltersSortsAndPaginates(t *testing.T) {
	ctx := context.Background()
	repos := memory.New().Repositories()
	submitter := newUser(t, repos, "sub@example.com")

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	priorities := []domain.TicketPriority{
		domain.TicketPriorityLow,
		domain.TicketPriorityCritical,
		domain.TicketPriorityMedium,
	}
	for i, p := range priorities {
		ticket := domain.NewTicket(submitter.ID, "Printer jam", "Paper stuck", "Hardware", p, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repos.Tickets.Create(ctx, ticket))
	}
	other := domain.NewTicket(submitter.ID, "VPN down", "Cannot connect", "Network", domain.TicketPriorityHigh, base)
	require.NoError(t, repos.Tickets.Create(ctx, other))

	tickets, total, err := repos.Tickets.List(ctx, repository.TicketFilter{
		Search:   "printer",
		SortBy:   repository.SortByPriority,
		SortDesc: true,
		Limit:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, tickets, 2)
	assert.Equal(t, domain.TicketPriorityCritical, tickets[0].Priority)
	assert.Equal(t, domain.TicketPriorityMedium, tickets[1].Priority)

	tickets, total, err = repos.Tickets.List(ctx, repository.TicketFilter{Category: "network", Unassigned: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, other.ID, tickets[0].ID)
}

func TestTicketDeleteCascadesCommentsAndViews(t *testing.T) {
	ctx := context.Background()
	repos := memory.New().Repositories()
	user := newUser(t, repos, "c@example.com")

	ticket := domain.NewTicket(user.ID, "T", "D", "Misc", domain.TicketPriorityLow, time.Now())
	require.NoError(t, repos.Tickets.Create(ctx, ticket))
	require.NoError(t, repos.Comments.Create(ctx, &domain.TicketComment{TicketID: ticket.ID, UserID: user.ID, Content: "hi"}))

	added, err := repos.Views.Insert(ctx, &domain.TicketView{TicketID: ticket.ID, UserID: user.ID})
	require.NoError(t, err)
	assert.True(t, added)
	added, err = repos.Views.Insert(ctx, &domain.TicketView{TicketID: ticket.ID, UserID: user.ID})
	require.NoError(t, err)
	assert.False(t, added)

	require.NoError(t, repos.Tickets.Delete(ctx, ticket.ID))

	_, total, err := repos.Comments.ListByTicket(ctx, ticket.ID, 5, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	views, err := repos.Views.Count(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Zero(t, views)
}

func TestReportsUseLatestActivityForPeriod(t *testing.T) {
	ctx := context.Background()
	repos := memory.New().Repositories()
	user := newUser(t, repos, "r@example.com")

	old := domain.NewTicket(user.ID, "Old", "D", "Hardware", domain.TicketPriorityHigh, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repos.Tickets.Create(ctx, old))
	touched := domain.NewTicket(user.ID, "Touched", "D", "Hardware", domain.TicketPriorityCritical, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	touched.ChangeStatus(domain.TicketStatusResolved, nil, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repos.Tickets.Create(ctx, touched))

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats, err := repos.Reports.Stats(ctx, &since)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStats{Total: 1, Open: 0, High: 0, Critical: 1}, stats)

	stats, err = repos.Reports.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)

	departments, err := repos.Reports.DepartmentStats(ctx, nil)
	require.NoError(t, err)
	require.Len(t, departments, 1)
	assert.Equal(t, "Unassigned", departments[0].Department)
	assert.Equal(t, 2, departments[0].HighPriorityTickets)

	months, err := repos.Reports.CreatedPerMonth(ctx, 2020)
	require.NoError(t, err)
	assert.Equal(t, 2, months[0])
}

func TestTicketUpdateNeverClearsViewedOrClosedAt(t *testing.T) {
	ctx := context.Background()
	repos := memory.New().Repositories()
	user := newUser(t, repos, "stale@example.com")

	ticket := domain.NewTicket(user.ID, "Laptop", "Broken hinge", "Hardware", domain.TicketPriorityLow, time.Now())
	require.NoError(t, repos.Tickets.Create(ctx, ticket))
	stale, err := repos.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)

	closed := time.Now().UTC()
	fresh := *stale
	fresh.Status = domain.TicketStatusClosed
	fresh.ClosedAt = &closed
	require.NoError(t, repos.Tickets.Update(ctx, &fresh))
	require.NoError(t, repos.Tickets.SetViewed(ctx, ticket.ID))

	stale.Title = "Laptop hinge"
	require.NoError(t, repos.Tickets.Update(ctx, stale))

	got, err := repos.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop hinge", got.Title)
	assert.True(t, got.IsViewed)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, closed.Equal(*got.ClosedAt))
}

func TestNameUniquenessFollowsLowercaseComparison(t *testing.T) {
	ctx := context.Background()
	repos := memory.New().Repositories()

	require.NoError(t, repos.Departments.Create(ctx, &domain.Department{Name: "Straße"}))
	require.NoError(t, repos.Departments.Create(ctx, &domain.Department{Name: "Strasse"}))
	assert.ErrorIs(t, repos.Departments.Create(ctx, &domain.Department{Name: "STRASSE"}), repository.ErrDuplicate)
	assert.ErrorIs(t, repos.Departments.Create(ctx, &domain.Department{Name: "straße"}), repository.ErrDuplicate)
}
