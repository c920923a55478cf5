package domain

import "time"

// TicketView records the first time a user opened a ticket. One row per ticket and user.
type TicketView struct {
	ID       int64
	TicketID int64
	UserID   string
	ViewedAt time.Time
}
