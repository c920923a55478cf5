package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/events"
	"github.com/helpdesk/it-helpdesk/internal/persistence"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	"github.com/helpdesk/it-helpdesk/internal/service"
	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

// setupPostgres migrates the database named by TEST_POSTGRES_DSN and empties it.
// Tests are skipped when the variable is unset.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE ticket_views, ticket_comments, tickets, users, positions, sub_departments, departments RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func TestPostgresUniqueIndexes(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repos := repository.NewRepositories(pool)

	require.NoError(t, repos.Users.Create(ctx, &domain.User{Email: "ada@example.com", Role: domain.RoleStaff, IsActive: true}))
	err := repos.Users.Create(ctx, &domain.User{Email: "ADA@example.com", Role: domain.RoleStaff})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, repos.Departments.Create(ctx, &domain.Department{Name: "Finance"}))
	assert.ErrorIs(t, repos.Departments.Create(ctx, &domain.Department{Name: "finance"}), repository.ErrDuplicate)

	inserted, err := repos.Views.Insert(ctx, &domain.TicketView{TicketID: 1, UserID: "00000000-0000-0000-0000-000000000000"})
	assert.False(t, inserted)
	assert.Error(t, err)
}

func TestPostgresTicketListingAndViews(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repos := repository.NewRepositories(pool)

	user := &domain.User{Email: "staff@example.com", Role: domain.RoleStaff, IsActive: true}
	require.NoError(t, repos.Users.Create(ctx, user))

	for _, p := range []domain.TicketPriority{domain.TicketPriorityLow, domain.TicketPriorityCritical, domain.TicketPriorityHigh} {
		ticket := &domain.Ticket{Title: string(p) + " issue", Description: "d", Priority: p, Status: domain.TicketStatusNew, SubmitterID: user.ID}
		require.NoError(t, repos.Tickets.Create(ctx, ticket))
	}

	tickets, total, err := repos.Tickets.List(ctx, repository.TicketFilter{SortBy: repository.SortByPriority, SortDesc: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, tickets, 2)
	assert.Equal(t, domain.TicketPriorityCritical, tickets[0].Priority)
	assert.Equal(t, domain.TicketPriorityHigh, tickets[1].Priority)

	view := &domain.TicketView{TicketID: tickets[0].ID, UserID: user.ID}
	inserted, err := repos.Views.Insert(ctx, view)
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = repos.Views.Insert(ctx, view)
	require.NoError(t, err)
	assert.False(t, inserted)

	unread, err := repos.Tickets.CountUnreadFor(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)
}

func TestPostgresTransactionRollsBack(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repos := repository.NewRepositories(pool)
	tx := repository.NewTxManager(pool)

	err := tx.RunInTransaction(ctx, func(ctx context.Context, r repository.Repositories) error {
		if err := r.Departments.Create(ctx, &domain.Department{Name: "Temp"}); err != nil {
			return err
		}
		return r.Departments.Create(ctx, &domain.Department{Name: "TEMP"})
	})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	depts, err := repos.Departments.List(ctx, repository.DepartmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, depts)
}

func TestPostgresMalformedUserIDsAreNotFound(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repos := repository.NewRepositories(pool)

	submitter := &domain.User{Email: "sub@example.com", Role: domain.RoleStaff, IsActive: true}
	require.NoError(t, repos.Users.Create(ctx, submitter))
	ticket := &domain.Ticket{Title: "Monitor", Description: "d", Priority: domain.TicketPriorityLow, Status: domain.TicketStatusNew, SubmitterID: submitter.ID}
	require.NoError(t, repos.Tickets.Create(ctx, ticket))

	_, err := repos.Users.GetByID(ctx, "bogus")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	bogus := "bogus"
	tickets, total, err := repos.Tickets.List(ctx, repository.TicketFilter{AssignedToID: &bogus})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, tickets)
	_, total, err = repos.Tickets.List(ctx, repository.TicketFilter{SubmitterID: &bogus})
	require.NoError(t, err)
	assert.Zero(t, total)

	depts, err := repos.Departments.List(ctx, repository.DepartmentFilter{ManagerID: &bogus})
	require.NoError(t, err)
	assert.Empty(t, depts)

	svc := service.NewTicketService(repos, events.NewInMemoryDispatcher(zap.NewNop()), zap.NewNop())
	_, err = svc.Assign(ctx, submitter.ID, ticket.ID, "bogus")
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)
}

func TestPostgresTicketUpdateKeepsMonotonicColumns(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repos := repository.NewRepositories(pool)

	user := &domain.User{Email: "mono@example.com", Role: domain.RoleStaff, IsActive: true}
	require.NoError(t, repos.Users.Create(ctx, user))
	ticket := &domain.Ticket{Title: "Dock", Description: "d", Priority: domain.TicketPriorityLow, Status: domain.TicketStatusNew, SubmitterID: user.ID}
	require.NoError(t, repos.Tickets.Create(ctx, ticket))

	stale, err := repos.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)

	closed := time.Now().UTC().Truncate(time.Microsecond)
	fresh := *stale
	fresh.Status = domain.TicketStatusClosed
	fresh.ClosedAt = &closed
	require.NoError(t, repos.Tickets.Update(ctx, &fresh))
	require.NoError(t, repos.Tickets.SetViewed(ctx, ticket.ID))

	stale.Title = "Docking station"
	require.NoError(t, repos.Tickets.Update(ctx, stale))

	got, err := repos.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Docking station", got.Title)
	assert.True(t, got.IsViewed)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, closed.Equal(*got.ClosedAt))
}
