package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk/it-helpdesk/internal/api/dto"
	"github.com/helpdesk/it-helpdesk/internal/auth"
	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/service"
	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

func bindJSON(c *fiber.Ctx, v *dto.Validator, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("Invalid request payload.", nil)
	}
	return v.Struct(req)
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok || p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

func int64Param(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("Invalid "+name+" value.", nil)
	}
	return id, nil
}

func optionalInt64Query(c *fiber.Ctx, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid "+name+" value.", nil)
	}
	return &v, nil
}

func intQuery(c *fiber.Ctx, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("Invalid "+name+" value.", nil)
	}
	return v, nil
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		MiddleName:      u.MiddleName,
		LastName:        u.LastName,
		FullName:        u.FullName(),
		PhoneNumber:     u.PhoneNumber,
		Role:            string(u.Role),
		IsStaff:         u.IsStaff,
		IsActive:        u.IsActive,
		DepartmentID:    u.DepartmentID,
		SubDepartmentID: u.SubDepartmentID,
		PositionID:      u.PositionID,
		CreatedAt:       u.CreatedAt,
	}
}

func userResponses(users []domain.User) []dto.UserResponse {
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}
	return out
}

func userSummary(u *domain.User) *dto.UserSummary {
	if u == nil {
		return nil
	}
	return &dto.UserSummary{ID: u.ID, FullName: u.FullName(), Email: u.Email}
}

func ticketResponse(d *service.TicketDetails) dto.TicketResponse {
	t := d.Ticket
	return dto.TicketResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Priority:        string(t.Priority),
		Status:          string(t.Status),
		Category:        t.Category,
		SubmitterID:     t.SubmitterID,
		Submitter:       userSummary(d.Submitter),
		AssignedToID:    t.AssignedToID,
		AssignedTo:      userSummary(d.AssignedTo),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		ClosedAt:        t.ClosedAt,
		ResolutionNotes: t.ResolutionNotes,
		IsViewed:        t.IsViewed,
	}
}

func ticketResponses(items []service.TicketDetails) []dto.TicketResponse {
	out := make([]dto.TicketResponse, 0, len(items))
	for i := range items {
		out = append(out, ticketResponse(&items[i]))
	}
	return out
}

func commentResponse(d *service.CommentDetails) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        d.Comment.ID,
		TicketID:  d.Comment.TicketID,
		UserID:    d.Comment.UserID,
		User:      userSummary(d.Author),
		Content:   d.Comment.Content,
		CreatedAt: d.Comment.CreatedAt,
	}
}

func departmentResponse(d *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Remarks:     d.Remarks,
		ManagerID:   d.ManagerID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func subDepartmentResponse(s *domain.SubDepartment) dto.SubDepartmentResponse {
	return dto.SubDepartmentResponse{
		ID:           s.ID,
		DepartmentID: s.DepartmentID,
		Name:         s.Name,
		Description:  s.Description,
		Remarks:      s.Remarks,
		ManagerID:    s.ManagerID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func positionResponse(p *domain.Position) dto.PositionResponse {
	return dto.PositionResponse{
		ID:              p.ID,
		SubDepartmentID: p.SubDepartmentID,
		Name:            p.Name,
		Description:     p.Description,
		Remarks:         p.Remarks,
		IsActive:        p.IsActive,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
