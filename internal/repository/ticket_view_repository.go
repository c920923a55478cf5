package repository

import (
	"context"

	"github.com/helpdesk/it-helpdesk/internal/domain"
)

// TicketViewRepository records first opens of a ticket per user.
type TicketViewRepository interface {
	// Insert stores the view unless one exists for the pair; it reports whether a row was added.
	Insert(ctx context.Context, view *domain.TicketView) (bool, error)
	Count(ctx context.Context, ticketID int64) (int, error)
}

type ticketViewRepository struct {
	db Querier
}

// NewTicketViewRepository creates a repository instance.
func NewTicketViewRepository(db Querier) TicketViewRepository {
	return &ticketViewRepository{db: db}
}

func (r *ticketViewRepository) Insert(ctx context.Context, view *domain.TicketView) (bool, error) {
	const query = `
        INSERT INTO ticket_views (ticket_id, user_id, viewed_at)
        VALUES ($1,$2,$3)
        ON CONFLICT (ticket_id, user_id) DO NOTHING
        RETURNING id`
	err := r.db.QueryRow(ctx, query, view.TicketID, view.UserID, view.ViewedAt).Scan(&view.ID)
	if err != nil {
		err = translateError(err)
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *ticketViewRepository) Count(ctx context.Context, ticketID int64) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_views WHERE ticket_id=$1`, ticketID).Scan(&total)
	return total, err
}
