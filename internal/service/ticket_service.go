package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/events"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

const (
	DefaultTicketPageSize  = 10
	DefaultCommentPageSize = 5
	newTicketWindow        = 10 * time.Minute
	assignedToUnassigned   = "unassigned"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	views      repository.TicketViewRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewTicketService builds the service.
func NewTicketService(repos repository.Repositories, dispatcher events.Dispatcher, logger *zap.Logger) *TicketService {
	return &TicketService{
		tickets:    repos.Tickets,
		comments:   repos.Comments,
		views:      repos.Views,
		users:      repos.Users,
		dispatcher: dispatcher,
		logger:     logger,
		now:        nowUTC,
	}
}

// TicketCreateInput describes ticket creation payload. Any status supplied by a client is ignored.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
}

// TicketDetails is a ticket with its submitter and assignee resolved.
type TicketDetails struct {
	Ticket     domain.Ticket
	Submitter  *domain.User
	AssignedTo *domain.User
}

// TicketQuery carries raw list parameters as received from a client.
type TicketQuery struct {
	Search     string
	Status     string
	Priority   string
	Category   string
	AssignedTo string
	Submitter  string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// TicketPage is one page of a ticket listing.
type TicketPage struct {
	Tickets    []TicketDetails
	TotalCount int
	Page       int
	PageSize   int
}

// CommentDetails is a comment with its author resolved.
type CommentDetails struct {
	Comment domain.TicketComment
	Author  *domain.User
}

// CommentPage is one page of comments, newest first.
type CommentPage struct {
	Comments   []CommentDetails
	TotalCount int
	Page       int
	PageSize   int
	TotalPages int
}

// TicketCounts feeds the support badge counters.
type TicketCounts struct {
	NewCount    int
	UnreadCount int
}

func validationFailed(messages ...string) error {
	return apperrors.NewValidationErrors("Validation failed", messages)
}

// Create opens a ticket in the New state for submitterID.
func (s *TicketService) Create(ctx context.Context, submitterID string, input TicketCreateInput) (*TicketDetails, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	var errs []string
	if title == "" {
		errs = append(errs, "Title is required.")
	} else if len([]rune(title)) > domain.MaxTicketTitleLength {
		errs = append(errs, fmt.Sprintf("Title must be at most %d characters.", domain.MaxTicketTitleLength))
	}
	if description == "" {
		errs = append(errs, "Description is required.")
	}
	priority := domain.TicketPriorityLow
	if strings.TrimSpace(input.Priority) != "" {
		parsed, err := domain.ParseTicketPriority(input.Priority)
		if err != nil {
			errs = append(errs, "Invalid priority value.")
		}
		priority = parsed
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs...)
	}

	submitter, err := s.users.GetByID(ctx, submitterID)
	if err != nil {
		return nil, notFoundOr(err, userResource)
	}

	ticket := domain.NewTicket(submitter.ID, title, description, input.Category, priority, s.now())
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.dispatcher.Publish(ctx, events.New(events.EventTicketCreated, submitter.ID, events.TicketCreatedPayload{Ticket: *ticket}))
	return &TicketDetails{Ticket: *ticket, Submitter: submitter}, nil
}

// Get returns the ticket and records that viewerID opened it.
func (s *TicketService) Get(ctx context.Context, id int64, viewerID string) (*TicketDetails, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.markViewed(ctx, ticket, viewerID); err != nil {
		return nil, err
	}
	return s.details(ctx, *ticket, newUserCache(s.users)), nil
}

// MarkViewed records a view without returning the ticket.
func (s *TicketService) MarkViewed(ctx context.Context, id int64, viewerID string) error {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.markViewed(ctx, ticket, viewerID)
}

// markViewed inserts the (ticket, user) view at most once; the unique index settles races.
// IsViewed is ticket-global and only ever goes from false to true.
func (s *TicketService) markViewed(ctx context.Context, ticket *domain.Ticket, viewerID string) error {
	inserted, err := s.views.Insert(ctx, &domain.TicketView{TicketID: ticket.ID, UserID: viewerID, ViewedAt: s.now()})
	if err != nil {
		return apperrors.MapError(err)
	}
	if !inserted && ticket.IsViewed {
		return nil
	}
	if err := s.tickets.SetViewed(ctx, ticket.ID); err != nil {
		return notFoundOr(err, ticketResource(ticket.ID))
	}
	ticket.MarkViewed()
	return nil
}

// Assign hands the ticket to userID and moves it to Assigned from any status.
func (s *TicketService) Assign(ctx context.Context, actorID string, ticketID int64, userID string) (*TicketDetails, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	assignee, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, userResource)
	}

	ticket.AssignTo(assignee.ID, s.now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, notFoundOr(err, ticketResource(ticketID))
	}

	s.dispatcher.Publish(ctx, events.New(events.EventTicketAssigned, actorID, events.TicketAssignedPayload{
		Ticket:   *ticket,
		Assignee: *assignee,
	}))

	cache := newUserCache(s.users)
	cache.put(assignee)
	return s.details(ctx, *ticket, cache), nil
}

// UpdateStatus applies any parseable status. Notes overwrite the previous notes, nil included.
func (s *TicketService) UpdateStatus(ctx context.Context, actorID string, ticketID int64, status string, notes *string) (*TicketDetails, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	newStatus, err := domain.ParseTicketStatus(status)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid status value.", nil)
	}

	oldStatus := ticket.ChangeStatus(newStatus, notes, s.now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, notFoundOr(err, ticketResource(ticketID))
	}

	s.dispatcher.Publish(ctx, events.New(events.EventTicketStatusChanged, actorID, events.TicketStatusChangedPayload{
		Ticket:    *ticket,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}))
	return s.details(ctx, *ticket, newUserCache(s.users)), nil
}

// AddComment appends a comment and notifies the participants.
func (s *TicketService) AddComment(ctx context.Context, ticketID int64, authorID, content string) (*CommentDetails, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationFailed("Content is required.")
	}
	if len([]rune(content)) > domain.MaxCommentLength {
		return nil, validationFailed(fmt.Sprintf("Content must be at most %d characters.", domain.MaxCommentLength))
	}

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, notFoundOr(err, userResource)
	}
	priorAuthors, err := s.comments.ListAuthorIDs(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	comment := &domain.TicketComment{TicketID: ticketID, UserID: author.ID, Content: content, CreatedAt: s.now()}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return nil, apperrors.NewNotFound(ticketResource(ticketID), nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.dispatcher.Publish(ctx, events.New(events.EventTicketCommentAdded, author.ID, events.TicketCommentAddedPayload{
		Ticket:         *ticket,
		Comment:        *comment,
		Author:         *author,
		PriorAuthorIDs: priorAuthors,
	}))
	return &CommentDetails{Comment: *comment, Author: author}, nil
}

// ListComments pages comments newest first. An empty page is reported as not found.
func (s *TicketService) ListComments(ctx context.Context, ticketID int64, page, pageSize int) (*CommentPage, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultCommentPageSize
	}
	comments, total, err := s.comments.ListByTicket(ctx, ticketID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(comments) == 0 {
		return nil, &apperrors.DomainError{
			Code:       "NOT_FOUND",
			Message:    "No comments found for this ticket.",
			HTTPStatus: 404,
		}
	}

	cache := newUserCache(s.users)
	result := &CommentPage{
		Comments:   make([]CommentDetails, 0, len(comments)),
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	for _, c := range comments {
		result.Comments = append(result.Comments, CommentDetails{Comment: c, Author: cache.get(ctx, c.UserID)})
	}
	return result, nil
}

// List applies filters, sorting and pagination. Unknown sort keys sort by creation time;
// the default direction is descending.
func (s *TicketService) List(ctx context.Context, query TicketQuery) (*TicketPage, error) {
	filter, err := s.buildFilter(query)
	if err != nil {
		return nil, err
	}
	tickets, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	cache := newUserCache(s.users)
	page := &TicketPage{
		Tickets:    make([]TicketDetails, 0, len(tickets)),
		TotalCount: total,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	for _, t := range tickets {
		page.Tickets = append(page.Tickets, *s.details(ctx, t, cache))
	}
	return page, nil
}

// Paginate is List without filters; page and pageSize must both be positive.
func (s *TicketService) Paginate(ctx context.Context, page, pageSize int, sortBy, sortOrder string) (*TicketPage, error) {
	if page <= 0 || pageSize <= 0 {
		return nil, apperrors.NewValidationErrors("Page and pageSize must be greater than 0.", nil)
	}
	return s.List(ctx, TicketQuery{Page: page, PageSize: pageSize, SortBy: sortBy, SortOrder: sortOrder})
}

func (s *TicketService) buildFilter(query TicketQuery) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		Search:   query.Search,
		Category: query.Category,
		SortBy:   repository.ParseTicketSortField(query.SortBy),
		SortDesc: !strings.EqualFold(strings.TrimSpace(query.SortOrder), "asc"),
	}

	var errs []string
	if v := strings.TrimSpace(query.Status); v != "" {
		status, err := domain.ParseTicketStatus(v)
		if err != nil {
			errs = append(errs, "Invalid status value.")
		} else {
			filter.Status = &status
		}
	}
	if v := strings.TrimSpace(query.Priority); v != "" {
		priority, err := domain.ParseTicketPriority(v)
		if err != nil {
			errs = append(errs, "Invalid priority value.")
		} else {
			filter.Priority = &priority
		}
	}
	if len(errs) > 0 {
		return filter, validationFailed(errs...)
	}

	if v := strings.TrimSpace(query.AssignedTo); v != "" {
		if strings.EqualFold(v, assignedToUnassigned) {
			filter.Unassigned = true
		} else {
			filter.AssignedToID = &v
		}
	}
	if v := strings.TrimSpace(query.Submitter); v != "" {
		filter.SubmitterID = &v
	}
	if query.PageSize > 0 {
		page := query.Page
		if page <= 0 {
			page = 1
		}
		filter.Limit = query.PageSize
		filter.Offset = (page - 1) * query.PageSize
	}
	return filter, nil
}

// Counts returns tickets created in the last ten minutes and the unassigned New
// tickets userID has never opened.
func (s *TicketService) Counts(ctx context.Context, userID string) (*TicketCounts, error) {
	newCount, err := s.tickets.CountCreatedSince(ctx, s.now().Add(-newTicketWindow))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	unread, err := s.tickets.CountUnreadFor(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketCounts{NewCount: newCount, UnreadCount: unread}, nil
}

// Delete removes the ticket with its comments and views. Missing tickets are a no-op.
func (s *TicketService) Delete(ctx context.Context, actorID string, id int64) error {
	err := s.tickets.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperrors.MapError(err)
	}
	s.dispatcher.Publish(ctx, events.New(events.EventTicketDeleted, actorID, events.TicketDeletedPayload{TicketID: id}))
	return nil
}

func (s *TicketService) load(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ticketResource(id))
	}
	return ticket, nil
}

func (s *TicketService) details(ctx context.Context, ticket domain.Ticket, cache *userCache) *TicketDetails {
	d := &TicketDetails{Ticket: ticket, Submitter: cache.get(ctx, ticket.SubmitterID)}
	if ticket.AssignedToID != nil {
		d.AssignedTo = cache.get(ctx, *ticket.AssignedToID)
	}
	return d
}

// userCache memoizes user lookups for the duration of one call. Failed lookups resolve to nil.
type userCache struct {
	users repository.UserRepository
	byID  map[string]*domain.User
}

func newUserCache(users repository.UserRepository) *userCache {
	return &userCache{users: users, byID: make(map[string]*domain.User)}
}

func (c *userCache) put(user *domain.User) {
	c.byID[user.ID] = user
}

func (c *userCache) get(ctx context.Context, id string) *domain.User {
	if user, ok := c.byID[id]; ok {
		return user
	}
	user, err := c.users.GetByID(ctx, id)
	if err != nil {
		user = nil
	}
	c.byID[id] = user
	return user
}
