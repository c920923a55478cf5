package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk/it-helpdesk/internal/domain"
)

// TicketSortField is the closed set of columns a ticket listing can be ordered by.
type TicketSortField int

const (
	SortByCreatedAt TicketSortField = iota
	SortByUpdatedAt
	SortByTitle
	SortByPriority
	SortByStatus
	SortByCategory
	SortBySubmitter
	SortByAssignee
)

// ParseTicketSortField maps a caller-supplied key onto a sort field; unknown keys sort by creation time.
func ParseTicketSortField(value string) TicketSortField {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "updatedat", "updated_at":
		return SortByUpdatedAt
	case "title":
		return SortByTitle
	case "priority":
		return SortByPriority
	case "status":
		return SortByStatus
	case "category":
		return SortByCategory
	case "submitter", "submitterid":
		return SortBySubmitter
	case "assignedto", "assignedtoid", "assignee":
		return SortByAssignee
	default:
		return SortByCreatedAt
	}
}

// TicketFilter captures list parameters.
type TicketFilter struct {
	Search       string
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	Category     string
	AssignedToID *string
	Unassigned   bool
	SubmitterID  *string
	SortBy       TicketSortField
	SortDesc     bool
	Limit        int
	Offset       int
}

// userIDsValid is false when a user filter can never match because the id is not a uuid.
func (f TicketFilter) userIDsValid() bool {
	if !f.Unassigned && f.AssignedToID != nil && !validUserID(*f.AssignedToID) {
		return false
	}
	return f.SubmitterID == nil || validUserID(*f.SubmitterID)
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	SetViewed(ctx context.Context, id int64) error
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	CountUnreadFor(ctx context.Context, userID string) (int, error)
}

type ticketRepository struct {
	db Querier
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db Querier) TicketRepository {
	return &ticketRepository{db: db}
}

var ticketColumns = []string{
	"t.id", "t.title", "t.description", "t.priority", "t.status", "t.category", "t.submitter_id",
	"t.assigned_to_id", "t.created_at", "t.updated_at", "t.closed_at", "t.resolution_notes", "t.is_viewed",
}

const (
	statusOrderExpr   = "array_position(ARRAY['New','Assigned','InProgress','Resolved','Closed']::text[], t.status)"
	priorityOrderExpr = "array_position(ARRAY['Low','Medium','High','Critical']::text[], t.priority)"
)

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Category,
		&ticket.SubmitterID,
		&ticket.AssignedToID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
		&ticket.ResolutionNotes,
		&ticket.IsViewed,
	); err != nil {
		return nil, translateError(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, priority, status, category, submitter_id, assigned_to_id,
            created_at, resolution_notes, is_viewed)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.Category,
		ticket.SubmitterID,
		ticket.AssignedToID,
		ticket.CreatedAt,
		ticket.ResolutionNotes,
		ticket.IsViewed,
	).Scan(&ticket.ID)
	return translateError(err)
}

// Update writes every mutable column; the submitter is never rewritten.
// closed_at and is_viewed only move forward, so a stale copy cannot clear them.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, status=$4, category=$5,
            assigned_to_id=$6, updated_at=$7, closed_at=COALESCE($8, tickets.closed_at),
            resolution_notes=$9, is_viewed=(tickets.is_viewed OR $10)
        WHERE id=$11`
	tag, err := r.db.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.Category,
		ticket.AssignedToID,
		ticket.UpdatedAt,
		ticket.ClosedAt,
		ticket.ResolutionNotes,
		ticket.IsViewed,
		ticket.ID,
	)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(tag)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query, args, err := psql.Select(ticketColumns...).From("tickets t").Where(sq.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanTicket(r.db.QueryRow(ctx, query, args...))
}

// Delete removes the ticket; comments and views cascade.
func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(tag)
}

func applyTicketFilter(b sq.SelectBuilder, filter TicketFilter) sq.SelectBuilder {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		b = b.Where(sq.Or{
			sq.ILike{"t.title": pattern},
			sq.ILike{"t.description": pattern},
			sq.ILike{"t.category": pattern},
		})
	}
	if filter.Status != nil {
		b = b.Where(sq.Eq{"t.status": *filter.Status})
	}
	if filter.Priority != nil {
		b = b.Where(sq.Eq{"t.priority": *filter.Priority})
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		b = b.Where(sq.Expr("lower(t.category) = lower(?)", category))
	}
	switch {
	case filter.Unassigned:
		b = b.Where(sq.Eq{"t.assigned_to_id": nil})
	case filter.AssignedToID != nil:
		b = b.Where(sq.Eq{"t.assigned_to_id": *filter.AssignedToID})
	}
	if filter.SubmitterID != nil {
		b = b.Where(sq.Eq{"t.submitter_id": *filter.SubmitterID})
	}
	return b
}

func ticketOrderBy(field TicketSortField, desc bool) string {
	var column string
	switch field {
	case SortByUpdatedAt:
		column = "t.updated_at"
	case SortByTitle:
		column = "t.title"
	case SortByPriority:
		column = priorityOrderExpr
	case SortByStatus:
		column = statusOrderExpr
	case SortByCategory:
		column = "t.category"
	case SortBySubmitter:
		column = "t.submitter_id"
	case SortByAssignee:
		column = "t.assigned_to_id"
	default:
		column = "t.created_at"
	}
	direction := " ASC NULLS LAST"
	if desc {
		direction = " DESC NULLS LAST"
	}
	return column + direction + ", t.id" + direction
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	if !filter.userIDsValid() {
		return []domain.Ticket{}, 0, nil
	}
	countQuery, countArgs, err := applyTicketFilter(psql.Select("COUNT(*)").From("tickets t"), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Ticket{}, 0, nil
	}

	builder := applyTicketFilter(psql.Select(ticketColumns...).From("tickets t"), filter).
		OrderBy(ticketOrderBy(filter.SortBy, filter.SortDesc))
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, total, rows.Err()
}

func (r *ticketRepository) SetViewed(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE tickets SET is_viewed=TRUE WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(tag)
}

func (r *ticketRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE created_at >= $1`, since).Scan(&total)
	return total, err
}

// CountUnreadFor counts unassigned New tickets the user has never opened.
func (r *ticketRepository) CountUnreadFor(ctx context.Context, userID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets t
        WHERE t.assigned_to_id IS NULL
          AND t.status = 'New'
          AND NOT EXISTS (SELECT 1 FROM ticket_views v WHERE v.ticket_id = t.id AND v.user_id = $1)`
	var total int
	err := r.db.QueryRow(ctx, query, userID).Scan(&total)
	return total, err
}
