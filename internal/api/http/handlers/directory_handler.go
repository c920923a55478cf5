package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk/it-helpdesk/internal/api/dto"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	"github.com/helpdesk/it-helpdesk/internal/service"
)

const unassignedManager = "unassigned"

// DirectoryHandler exposes /api/admin departments, sub-departments and positions.
type DirectoryHandler struct {
	service   *service.DirectoryService
	validator *dto.Validator
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *service.DirectoryService, validator *dto.Validator) *DirectoryHandler {
	return &DirectoryHandler{service: directory, validator: validator}
}

// ListDepartments handles GET /departments?search&managerId.
func (h *DirectoryHandler) ListDepartments(c *fiber.Ctx) error {
	filter := repository.DepartmentFilter{Search: c.Query("search")}
	if managerID := strings.TrimSpace(c.Query("managerId")); managerID != "" {
		if strings.EqualFold(managerID, unassignedManager) {
			filter.Unassigned = true
		} else {
			filter.ManagerID = &managerID
		}
	}
	depts, err := h.service.ListDepartments(c.UserContext(), filter)
	if err != nil {
		return err
	}
	out := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		out = append(out, departmentResponse(&depts[i]))
	}
	return c.JSON(out)
}

func (h *DirectoryHandler) GetDepartment(c *fiber.Ctx) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	dept, err := h.service.GetDepartment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(departmentResponse(dept))
}

func (h *DirectoryHandler) CreateDepartment(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	dept, err := h.service.CreateDepartment(c.UserContext(), orgUnitInput(req.Name, req.Description, req.Remarks))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(departmentResponse(dept))
}

func (h *DirectoryHandler) UpdateDepartment(c *fiber.Ctx) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	dept, err := h.service.UpdateDepartment(c.UserContext(), id, orgUnitInput(req.Name, req.Description, req.Remarks))
	if err != nil {
		return err
	}
	return c.JSON(departmentResponse(dept))
}

func (h *DirectoryHandler) DeleteDepartment(c *fiber.Ctx) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteDepartment(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// BulkDeleteDepartments handles POST /departments/bulk-delete.
func (h *DirectoryHandler) BulkDeleteDepartments(c *fiber.Ctx) error {
	var req dto.BulkDeleteRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	result, err := h.service.BulkDeleteDepartments(c.UserContext(), req.DepartmentIDs)
	if err != nil {
		return err
	}
	return c.JSON(dto.BulkDeleteResponse{
		Message:      "Successfully deleted departments",
		DeletedCount: len(result.Deleted),
		Deleted:      result.Deleted,
		Skipped:      result.Skipped,
	})
}

func (h *DirectoryHandler) AssignDepartmentManager(c *fiber.Ctx) error {
	var req dto.AssignManagerRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	if err := h.service.AssignDepartmentManager(c.UserContext(), req.EntityID, req.EmployeeID); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Manager assigned successfully."})
}

func (h *DirectoryHandler) RemoveDepartmentManager(c *fiber.Ctx) error {
	var req dto.RemoveManagerRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	if err := h.service.RemoveDepartmentManager(c.UserContext(), req.EntityID); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Manager removed successfully."})
}

// ListSubDepartments handles GET /subdepartments?search&departmentId&managerId&unassignedOnly.
func (h *DirectoryHandler) ListSubDepartments(c *fiber.Ctx) error {
	deptID, err := optionalInt64Query(c, "departmentId")
	if err != nil {
		return err
	}
	filter := repository.SubDepartmentFilter{
		Search:         c.Query("search"),
		DepartmentID:   deptID,
		UnassignedOnly: c.QueryBool("unassignedOnly"),
	}
	if managerID := strings.TrimSpace(c.Query("managerId")); managerID != "" {
		if strings.EqualFold(managerID, unassignedManager) {
			filter.UnassignedOnly = true
		} else {
			filter.ManagerID = &managerID
		}
	}
	subs, err := h.service.ListSubDepartments(c.UserContext(), filter)
	if err != nil {
		return err
	}
	out := make([]dto.SubDepartmentResponse, 0, len(subs))
	for i := range subs {
		out = append(out, subDepartmentResponse(&subs[i]))
	}
	return c.JSON(out)
}

func (h *DirectoryHandler) GetSubDepartment(c *fiber.Ctx) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	sub, err := h.service.GetSubDepartment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(subDepartmentResponse(sub))
}

func (h *DirectoryHandler) CreateSubDepartment(c *fiber.Ctx) error {
	var req dto.SubDepartmentRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	sub, err := h.service.CreateSubDepartment(c.UserContext(), service.SubDepartmentInput{
		OrgUnitInput: orgUnitInput(req.Name, req.Description, req.Remarks),
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(subDepartmentResponse(sub))
}

func (h *DirectoryHandler) UpdateSubDepartment(c *fiber.Ctx) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	var req dto.SubDepartmentRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	sub, err := h.service.UpdateSubDepartment(c.UserContext(), id, service.SubDepartmentInput{
		OrgUnitInput: orgUnitInput(req.Name, req.Description, req.Remarks),
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(subDepartmentResponse(sub))
}

func (h *DirectoryHandler) DeleteSubDepartment(c *fiber.Ctx) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteSubDepartment(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *DirectoryHandler) AssignSubDepartmentManager(c *fiber.Ctx) error {
	var req dto.AssignManagerRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	if err := h.service.AssignSubDepartmentManager(c.UserContext(), req.EntityID, req.EmployeeID); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Manager assigned successfully."})
}

func (h *DirectoryHandler) RemoveSubDepartmentManager(c *fiber.Ctx) error {
	var req dto.RemoveManagerRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	if err := h.service.RemoveSubDepartmentManager(c.UserContext(), req.EntityID); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Manager removed successfully."})
}

// AvailableManagers handles GET /subdepartments/available-managers.
func (h *DirectoryHandler) AvailableManagers(c *fiber.Ctx) error {
	candidates, err := h.service.AvailableManagers(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.ManagerCandidateResponse, 0, len(candidates))
	for i := range candidates {
		u := &candidates[i].User
		out = append(out, dto.ManagerCandidateResponse{
			ID:         u.ID,
			FullName:   u.FullName(),
			Email:      u.Email,
			Department: candidates[i].Department,
		})
	}
	return c.JSON(out)
}

// ListPositions handles GET /positions?search&subDepartmentId.
func (h *DirectoryHandler) ListPositions(c *fiber.Ctx) error {
	subID, err := optionalInt64Query(c, "subDepartmentId")
	if err != nil {
		return err
	}
	positions, err := h.service.ListPositions(c.UserContext(), repository.PositionFilter{
		Search:          c.Query("search"),
		SubDepartmentID: subID,
	})
	if err != nil {
		return err
	}
	out := make([]dto.PositionResponse, 0, len(positions))
	for i := range positions {
		out = append(out, positionResponse(&positions[i]))
	}
	return c.JSON(out)
}

func (h *DirectoryHandler) GetPosition(c *fiber.Ctx) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	pos, err := h.service.GetPosition(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(positionResponse(pos))
}

func (h *DirectoryHandler) CreatePosition(c *fiber.Ctx) error {
	var req dto.PositionRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	pos, err := h.service.CreatePosition(c.UserContext(), service.PositionInput{
		OrgUnitInput:    orgUnitInput(req.Name, req.Description, req.Remarks),
		SubDepartmentID: req.SubDepartmentID,
		IsActive:        req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(positionResponse(pos))
}

func (h *DirectoryHandler) UpdatePosition(c *fiber.Ctx) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	var req dto.PositionRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}
	pos, err := h.service.UpdatePosition(c.UserContext(), id, service.PositionInput{
		OrgUnitInput:    orgUnitInput(req.Name, req.Description, req.Remarks),
		SubDepartmentID: req.SubDepartmentID,
		IsActive:        req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(positionResponse(pos))
}

func (h *DirectoryHandler) DeletePosition(c *fiber.Ctx) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeletePosition(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func orgUnitInput(name, description, remarks string) service.OrgUnitInput {
	return service.OrgUnitInput{Name: name, Description: description, Remarks: remarks}
}
