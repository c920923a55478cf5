package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk/it-helpdesk/internal/api/dto"
	"github.com/helpdesk/it-helpdesk/internal/service"
	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TicketsHandler exposes /api/Tickets.
type TicketsHandler struct {
	service   *service.TicketService
	validator *dto.Validator
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, validator *dto.Validator) *TicketsHandler {
	return &TicketsHandler{service: ticketService, validator: validator}
}

// Create handles POST /create.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), p.UserID, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ticketResponse(ticket))
}

// Get handles GET /:id and records the caller's view.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), id, p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// All handles GET /all.
func (h *TicketsHandler) All(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), service.TicketQuery{})
	if err != nil {
		return err
	}
	return c.JSON(ticketResponses(page.Tickets))
}

// Paginated handles GET /paginated.
func (h *TicketsHandler) Paginated(c *fiber.Ctx) error {
	pageNum, err := intQuery(c, "page", 1)
	if err != nil {
		return err
	}
	pageSize, err := intQuery(c, "pageSize", service.DefaultTicketPageSize)
	if err != nil {
		return err
	}
	page, err := h.service.Paginate(c.UserContext(), pageNum, pageSize, c.Query("sortColumn"), c.Query("sortDirection", "desc"))
	if err != nil {
		return err
	}
	return c.JSON(dto.PaginatedTicketsResponse{
		Tickets:      ticketResponses(page.Tickets),
		TotalRecords: page.TotalCount,
		CurrentPage:  page.Page,
		PageSize:     page.PageSize,
	})
}

// Filtered handles GET /filtered.
func (h *TicketsHandler) Filtered(c *fiber.Ctx) error {
	query, err := ticketQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(dto.FilteredTicketsResponse{
		TotalRecords: page.TotalCount,
		Tickets:      ticketResponses(page.Tickets),
	})
}

// Export handles GET /export with the /filtered parameters.
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	query, err := ticketQuery(c)
	if err != nil {
		return err
	}
	content, fileName, err := h.service.Export(c.UserContext(), query)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, fileName))
	return c.Send(content)
}

func ticketQuery(c *fiber.Ctx) (service.TicketQuery, error) {
	pageNum, err := intQuery(c, "page", 1)
	if err != nil {
		return service.TicketQuery{}, err
	}
	pageSize, err := intQuery(c, "pageSize", service.DefaultTicketPageSize)
	if err != nil {
		return service.TicketQuery{}, err
	}
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = service.DefaultTicketPageSize
	}
	submitter := c.Query("submitter")
	if submitter == "" {
		submitter = c.Query("submitterId")
	}
	return service.TicketQuery{
		Search:     c.Query("search"),
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		Category:   c.Query("category"),
		AssignedTo: c.Query("assignedTo"),
		Submitter:  submitter,
		Page:       pageNum,
		PageSize:   pageSize,
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder", "desc"),
	}, nil
}

// Delete handles DELETE /:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), p.UserID, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddComment handles POST /:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), id, p.UserID, req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(commentResponse(comment))
}

// ListComments handles GET /:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	pageNum, err := intQuery(c, "page", 1)
	if err != nil {
		return err
	}
	pageSize, err := intQuery(c, "pageSize", service.DefaultCommentPageSize)
	if err != nil {
		return err
	}
	page, err := h.service.ListComments(c.UserContext(), id, pageNum, pageSize)
	if err != nil {
		return err
	}
	comments := make([]dto.CommentResponse, 0, len(page.Comments))
	for i := range page.Comments {
		comments = append(comments, commentResponse(&page.Comments[i]))
	}
	return c.JSON(dto.CommentsResponse{
		Comments:      comments,
		TotalComments: page.TotalCount,
		CurrentPage:   page.Page,
		TotalPages:    page.TotalPages,
	})
}

// Assign handles POST /:id/assign/:userId.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.service.Assign(c.UserContext(), p.UserID, id, c.Params("userId")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Ticket assigned successfully."})
}

// UpdateStatus handles PUT /:id/status/:status. A status in the body wins over the path.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("Invalid request payload.", nil)
		}
	}
	status := c.Params("status")
	if strings.TrimSpace(req.Status) != "" {
		status = req.Status
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), p.UserID, id, status, req.ResolutionNotes)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// MarkViewed handles POST /:id/mark-viewed.
func (h *TicketsHandler) MarkViewed(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.MarkViewed(c.UserContext(), id, p.UserID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Counts handles GET /ticket-counts.
func (h *TicketsHandler) Counts(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	counts, err := h.service.Counts(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketCountsResponse{NewCount: counts.NewCount, UnreadCount: counts.UnreadCount})
}
