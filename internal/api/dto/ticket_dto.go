package dto

import "time"

// CreateTicketRequest payload. Status is never accepted from clients.
type CreateTicketRequest struct {
	Title       string `json:"title" label:"Title" validate:"required,max=200"`
	Description string `json:"description" label:"Description" validate:"required"`
	Category    string `json:"category" label:"Category" validate:"omitempty,max=100"`
	Priority    string `json:"priority" label:"Priority"`
}

// UpdateStatusRequest is the optional body of PUT /:id/status/:status.
type UpdateStatusRequest struct {
	Status          string  `json:"status"`
	ResolutionNotes *string `json:"resolutionNotes"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content" label:"Content" validate:"required,max=1000"`
}

// TicketResponse represents one ticket.
type TicketResponse struct {
	ID              int64        `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Priority        string       `json:"priority"`
	Status          string       `json:"status"`
	Category        string       `json:"category"`
	SubmitterID     string       `json:"submitterId"`
	Submitter       *UserSummary `json:"submitter"`
	AssignedToID    *string      `json:"assignedToId"`
	AssignedTo      *UserSummary `json:"assignedTo"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       *time.Time   `json:"updatedAt"`
	ClosedAt        *time.Time   `json:"closedAt"`
	ResolutionNotes *string      `json:"resolutionNotes"`
	IsViewed        bool         `json:"isViewed"`
}

// CommentResponse represents one ticket comment.
type CommentResponse struct {
	ID        int64        `json:"id"`
	TicketID  int64        `json:"ticketId"`
	UserID    string       `json:"userId"`
	User      *UserSummary `json:"user"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
}

// PaginatedTicketsResponse is returned by GET /paginated.
type PaginatedTicketsResponse struct {
	Tickets      []TicketResponse `json:"tickets"`
	TotalRecords int              `json:"totalRecords"`
	CurrentPage  int              `json:"currentPage"`
	PageSize     int              `json:"pageSize"`
}

// FilteredTicketsResponse is returned by GET /filtered.
type FilteredTicketsResponse struct {
	TotalRecords int              `json:"totalRecords"`
	Tickets      []TicketResponse `json:"tickets"`
}

// CommentsResponse is one page of comments, newest first.
type CommentsResponse struct {
	Comments      []CommentResponse `json:"comments"`
	TotalComments int               `json:"totalComments"`
	CurrentPage   int               `json:"currentPage"`
	TotalPages    int               `json:"totalPages"`
}

// TicketCountsResponse feeds the support badge counters.
type TicketCountsResponse struct {
	NewCount    int `json:"newCount"`
	UnreadCount int `json:"unreadCount"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
