package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/repository"
)

type ticketRepository struct {
	*backend
}

func (r *ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.st.users[ticket.SubmitterID]; !ok {
		return repository.ErrReferenced
	}
	if !r.userExists(ticket.AssignedToID) {
		return repository.ErrReferenced
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = r.now()
	}
	ticket.ID = r.st.nextID()
	r.st.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.st.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !r.userExists(ticket.AssignedToID) {
		return repository.ErrReferenced
	}
	updated := cloneTicket(*ticket)
	updated.SubmitterID = existing.SubmitterID
	updated.CreatedAt = existing.CreatedAt
	updated.IsViewed = updated.IsViewed || existing.IsViewed
	if updated.ClosedAt == nil {
		updated.ClosedAt = existing.ClosedAt
	}
	r.st.tickets[ticket.ID] = updated
	return nil
}

func (r *ticketRepository) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.st.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket = cloneTicket(ticket)
	return &ticket, nil
}

// Delete removes the ticket with its comments and views.
func (r *ticketRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.st.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.st.tickets, id)

	comments := r.st.comments[:0]
	for _, c := range r.st.comments {
		if c.TicketID != id {
			comments = append(comments, c)
		}
	}
	r.st.comments = comments

	views := r.st.views[:0]
	for _, v := range r.st.views {
		if v.TicketID != id {
			views = append(views, v)
		}
	}
	r.st.views = views
	return nil
}

func matchTicket(t domain.Ticket, filter repository.TicketFilter) bool {
	if search := strings.TrimSpace(filter.Search); search != "" {
		if !contains(t.Title, search) && !contains(t.Description, search) && !contains(t.Category, search) {
			return false
		}
	}
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && t.Priority != *filter.Priority {
		return false
	}
	if category := strings.TrimSpace(filter.Category); category != "" && foldKey(t.Category) != foldKey(category) {
		return false
	}
	if !matchManager(t.AssignedToID, filter.AssignedToID, filter.Unassigned) {
		return false
	}
	if filter.SubmitterID != nil && t.SubmitterID != *filter.SubmitterID {
		return false
	}
	return true
}

// compareTickets returns <0, 0 or >0 and reports whether either side was NULL for the field.
func compareTickets(a, b domain.Ticket, field repository.TicketSortField) (int, bool, bool) {
	switch field {
	case repository.SortByUpdatedAt:
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	case repository.SortByTitle:
		return strings.Compare(a.Title, b.Title), false, false
	case repository.SortByPriority:
		return a.Priority.Rank() - b.Priority.Rank(), false, false
	case repository.SortByStatus:
		return a.Status.Ordinal() - b.Status.Ordinal(), false, false
	case repository.SortByCategory:
		return strings.Compare(a.Category, b.Category), false, false
	case repository.SortBySubmitter:
		return strings.Compare(a.SubmitterID, b.SubmitterID), false, false
	case repository.SortByAssignee:
		return compareStrings(a.AssignedToID, b.AssignedToID)
	default:
		return a.CreatedAt.Compare(b.CreatedAt), false, false
	}
}

func compareTimes(a, b *time.Time) (int, bool, bool) {
	if a == nil || b == nil {
		return 0, a == nil, b == nil
	}
	return a.Compare(*b), false, false
}

func compareStrings(a, b *string) (int, bool, bool) {
	if a == nil || b == nil {
		return 0, a == nil, b == nil
	}
	return strings.Compare(*a, *b), false, false
}

func sortTickets(tickets []domain.Ticket, field repository.TicketSortField, desc bool) {
	sort.SliceStable(tickets, func(i, j int) bool {
		cmp, aNull, bNull := compareTickets(tickets[i], tickets[j], field)
		// NULLs last in both directions.
		if aNull != bNull {
			return bNull
		}
		if cmp == 0 {
			if desc {
				return tickets[i].ID > tickets[j].ID
			}
			return tickets[i].ID < tickets[j].ID
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func (r *ticketRepository) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]domain.Ticket, 0)
	for _, t := range r.st.tickets {
		if matchTicket(t, filter) {
			matched = append(matched, cloneTicket(t))
		}
	}
	total := len(matched)
	sortTickets(matched, filter.SortBy, filter.SortDesc)

	return paginate(matched, filter.Limit, filter.Offset), total, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (r *ticketRepository) SetViewed(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.st.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	ticket.IsViewed = true
	r.st.tickets[id] = ticket
	return nil
}

func (r *ticketRepository) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, t := range r.st.tickets {
		if !t.CreatedAt.Before(since) {
			total++
		}
	}
	return total, nil
}

func (r *ticketRepository) CountUnreadFor(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, t := range r.st.tickets {
		if t.AssignedToID != nil || t.Status != domain.TicketStatusNew {
			continue
		}
		if !r.viewed(t.ID, userID) {
			total++
		}
	}
	return total, nil
}

func (b *backend) viewed(ticketID int64, userID string) bool {
	for _, v := range b.st.views {
		if v.TicketID == ticketID && v.UserID == userID {
			return true
		}
	}
	return false
}

type commentRepository struct {
	*backend
}

func (r *commentRepository) Create(_ context.Context, comment *domain.TicketComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.st.tickets[comment.TicketID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := r.st.users[comment.UserID]; !ok {
		return repository.ErrReferenced
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = r.now()
	}
	comment.ID = r.st.nextID()
	r.st.comments = append(r.st.comments, *comment)
	return nil
}

func (r *commentRepository) ListByTicket(_ context.Context, ticketID int64, limit, offset int) ([]domain.TicketComment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]domain.TicketComment, 0)
	for _, c := range r.st.comments {
		if c.TicketID == ticketID {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, limit, offset), len(matched), nil
}

func (r *commentRepository) ListAuthorIDs(_ context.Context, ticketID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, c := range r.st.comments {
		if c.TicketID != ticketID {
			continue
		}
		if _, ok := seen[c.UserID]; ok {
			continue
		}
		seen[c.UserID] = struct{}{}
		ids = append(ids, c.UserID)
	}
	return ids, nil
}

type viewRepository struct {
	*backend
}

func (r *viewRepository) Insert(_ context.Context, view *domain.TicketView) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.st.tickets[view.TicketID]; !ok {
		return false, repository.ErrReferenced
	}
	if r.viewed(view.TicketID, view.UserID) {
		return false, nil
	}
	if view.ViewedAt.IsZero() {
		view.ViewedAt = r.now()
	}
	view.ID = r.st.nextID()
	r.st.views = append(r.st.views, *view)
	return true, nil
}

func (r *viewRepository) Count(_ context.Context, ticketID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, v := range r.st.views {
		if v.TicketID == ticketID {
			total++
		}
	}
	return total, nil
}
