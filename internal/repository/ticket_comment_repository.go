package repository

import (
	"context"

	"github.com/helpdesk/it-helpdesk/internal/domain"
)

// TicketCommentRepository persists ticket comments.
type TicketCommentRepository interface {
	Create(ctx context.Context, comment *domain.TicketComment) error
	ListByTicket(ctx context.Context, ticketID int64, limit, offset int) ([]domain.TicketComment, int, error)
	ListAuthorIDs(ctx context.Context, ticketID int64) ([]string, error)
}

type ticketCommentRepository struct {
	db Querier
}

// NewTicketCommentRepository creates a repository instance.
func NewTicketCommentRepository(db Querier) TicketCommentRepository {
	return &ticketCommentRepository{db: db}
}

func (r *ticketCommentRepository) Create(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, user_id, content, created_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		comment.TicketID,
		comment.UserID,
		comment.Content,
		comment.CreatedAt,
	).Scan(&comment.ID)
	return translateError(err)
}

// ListByTicket returns a page of comments, newest first, and the total count.
func (r *ticketCommentRepository) ListByTicket(ctx context.Context, ticketID int64, limit, offset int) ([]domain.TicketComment, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_comments WHERE ticket_id=$1`, ticketID).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.TicketComment{}, 0, nil
	}

	query, args, err := psql.Select("id", "ticket_id", "user_id", "content", "created_at").
		From("ticket_comments").
		Where("ticket_id = ?", ticketID).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments := make([]domain.TicketComment, 0)
	for rows.Next() {
		var c domain.TicketComment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		comments = append(comments, c)
	}
	return comments, total, rows.Err()
}

// ListAuthorIDs returns the distinct users who commented on the ticket.
func (r *ticketCommentRepository) ListAuthorIDs(ctx context.Context, ticketID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT user_id FROM ticket_comments WHERE ticket_id=$1`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
