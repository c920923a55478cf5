package handlers

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk/it-helpdesk/internal/api/dto"
	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	"github.com/helpdesk/it-helpdesk/internal/service"
)

// UserRoleHandler exposes /api/UserRole: roles, approvals, placement and lookups.
type UserRoleHandler struct {
	users     *service.UserAdminService
	directory *service.DirectoryService
	validator *dto.Validator
}

// NewUserRoleHandler constructs handler.
func NewUserRoleHandler(users *service.UserAdminService, directory *service.DirectoryService, validator *dto.Validator) *UserRoleHandler {
	return &UserRoleHandler{users: users, directory: directory, validator: validator}
}

// AssignRole handles POST /assign.
func (h *UserRoleHandler) AssignRole(c *fiber.Ctx) error {
	var req dto.AssignRoleRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	user, err := h.users.AssignRole(c.UserContext(), req.UserID, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(dto.AssignRoleResponse{
		Message:        fmt.Sprintf("Role changed to %s", user.Role),
		ForceLogoutFor: user.ID,
	})
}

// ConfirmUser handles PUT /confirm-user/:id.
func (h *UserRoleHandler) ConfirmUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.users.ToggleConfirm(c.UserContext(), p.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	msg := "User approval revoked."
	if user.IsStaff {
		msg = "User confirmed successfully."
	}
	return c.JSON(dto.ConfirmUserResponse{Message: msg, IsStaff: user.IsStaff})
}

// ListUsers handles GET /list-users.
func (h *UserRoleHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(userResponses(users))
}

// SupportUsers handles GET /get-auth-users.
func (h *UserRoleHandler) SupportUsers(c *fiber.Ctx) error {
	users, err := h.users.SupportUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(userResponses(users))
}

// Departments handles GET /departments.
func (h *UserRoleHandler) Departments(c *fiber.Ctx) error {
	depts, err := h.directory.ListDepartments(c.UserContext(), repository.DepartmentFilter{})
	if err != nil {
		return err
	}
	out := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		out = append(out, departmentResponse(&depts[i]))
	}
	return c.JSON(out)
}

// SubDepartments handles GET /subdepartments?departmentId=.
func (h *UserRoleHandler) SubDepartments(c *fiber.Ctx) error {
	deptID, err := optionalInt64Query(c, "departmentId")
	if err != nil {
		return err
	}
	subs, err := h.directory.ListSubDepartments(c.UserContext(), repository.SubDepartmentFilter{DepartmentID: deptID})
	if err != nil {
		return err
	}
	out := make([]dto.SubDepartmentResponse, 0, len(subs))
	for i := range subs {
		out = append(out, subDepartmentResponse(&subs[i]))
	}
	return c.JSON(out)
}

// Positions handles GET /positions?subDepartmentId=.
func (h *UserRoleHandler) Positions(c *fiber.Ctx) error {
	subID, err := optionalInt64Query(c, "subDepartmentId")
	if err != nil {
		return err
	}
	positions, err := h.directory.ListPositions(c.UserContext(), repository.PositionFilter{SubDepartmentID: subID})
	if err != nil {
		return err
	}
	out := make([]dto.PositionResponse, 0, len(positions))
	for i := range positions {
		out = append(out, positionResponse(&positions[i]))
	}
	return c.JSON(out)
}

// SetDepartment handles PUT /user/:id/department.
func (h *UserRoleHandler) SetDepartment(c *fiber.Ctx) error {
	return h.place(c, h.users.SetDepartment)
}

// SetSubDepartment handles PUT /user/:id/subdepartment.
func (h *UserRoleHandler) SetSubDepartment(c *fiber.Ctx) error {
	return h.place(c, h.users.SetSubDepartment)
}

// SetPosition handles PUT /user/:id/position.
func (h *UserRoleHandler) SetPosition(c *fiber.Ctx) error {
	return h.place(c, h.users.SetPosition)
}

type placeFunc func(ctx context.Context, userID string, unitID *int64) (*domain.User, error)

func (h *UserRoleHandler) place(c *fiber.Ctx, apply placeFunc) error {
	var req dto.PlacementRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	user, err := apply(c.UserContext(), c.Params("id"), req.ID)
	if err != nil {
		return err
	}
	return c.JSON(userResponse(user))
}
