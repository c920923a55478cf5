package domain

import "time"

// TicketComment is a note appended to a ticket thread.
type TicketComment struct {
	ID        int64
	TicketID  int64
	UserID    string
	Content   string
	CreatedAt time.Time
}
