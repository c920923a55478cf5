package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

// DirectoryService maintains the Department > SubDepartment > Position tree.
type DirectoryService struct {
	repos  repository.Repositories
	tx     repository.TxManager
	logger *zap.Logger
}

// NewDirectoryService builds the service.
func NewDirectoryService(repos repository.Repositories, tx repository.TxManager, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{repos: repos, tx: tx, logger: logger}
}

// OrgUnitInput carries the editable fields shared by all three levels.
type OrgUnitInput struct {
	Name        string
	Description string
	Remarks     string
}

func (in OrgUnitInput) normalize(kind string) (OrgUnitInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Remarks = strings.TrimSpace(in.Remarks)
	var errs []string
	if in.Name == "" {
		errs = append(errs, fmt.Sprintf("%s name is required", kind))
	} else if len([]rune(in.Name)) > domain.MaxOrgNameLength {
		errs = append(errs, fmt.Sprintf("%s name must be at most %d characters", kind, domain.MaxOrgNameLength))
	}
	if len([]rune(in.Description)) > domain.MaxOrgDescriptionLength {
		errs = append(errs, fmt.Sprintf("Description must be at most %d characters", domain.MaxOrgDescriptionLength))
	}
	if len(errs) > 0 {
		return in, apperrors.NewValidationErrors("Validation failed", errs)
	}
	return in, nil
}

// ManagerCandidate is an eligible manager with their department name, if any.
type ManagerCandidate struct {
	User       domain.User
	Department string
}

// ---- Departments ----

// ListDepartments returns departments ordered by name.
func (s *DirectoryService) ListDepartments(ctx context.Context, filter repository.DepartmentFilter) ([]domain.Department, error) {
	depts, err := s.repos.Departments.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

// GetDepartment fetches a single department.
func (s *DirectoryService) GetDepartment(ctx context.Context, id int64) (*domain.Department, error) {
	dept, err := s.repos.Departments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, departmentResource(id))
	}
	return dept, nil
}

// CreateDepartment relies on the unique name index for duplicate detection.
func (s *DirectoryService) CreateDepartment(ctx context.Context, input OrgUnitInput) (*domain.Department, error) {
	input, err := input.normalize("Department")
	if err != nil {
		return nil, err
	}
	dept := &domain.Department{Name: input.Name, Description: input.Description, Remarks: input.Remarks}
	if err := s.repos.Departments.Create(ctx, dept); err != nil {
		return nil, conflictOr(err, "A department with this name already exists")
	}
	return dept, nil
}

// UpdateDepartment rewrites name, description and remarks.
func (s *DirectoryService) UpdateDepartment(ctx context.Context, id int64, input OrgUnitInput) (*domain.Department, error) {
	input, err := input.normalize("Department")
	if err != nil {
		return nil, err
	}
	dept, err := s.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	dept.Name = input.Name
	dept.Description = input.Description
	dept.Remarks = input.Remarks
	if err := s.repos.Departments.Update(ctx, dept); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(departmentResource(id), nil)
		}
		return nil, conflictOr(err, "A department with this name already exists")
	}
	return dept, nil
}

// DeleteDepartment refuses while users or sub-departments still reference the department.
func (s *DirectoryService) DeleteDepartment(ctx context.Context, id int64) error {
	if _, err := s.GetDepartment(ctx, id); err != nil {
		return err
	}

	users, err := s.repos.Users.CountByDepartment(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if users > 0 {
		return apperrors.NewInvalidOperation("Cannot delete department that has associated users. Please reassign users first.")
	}

	subs, err := s.repos.SubDepartments.CountByDepartment(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if subs > 0 {
		return apperrors.NewInvalidOperation("Cannot delete department that has associated sub departments. Please reassign sub departments first.")
	}

	if err := s.repos.Departments.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NewNotFound(departmentResource(id), nil)
		case errors.Is(err, repository.ErrReferenced):
			return apperrors.NewConflict("Department is still referenced. Please reassign its users and sub departments first.", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

// BulkDeleteDepartments removes every listed department with its sub-departments and
// positions, detaching users bottom-up, in one transaction. Unknown ids are skipped.
func (s *DirectoryService) BulkDeleteDepartments(ctx context.Context, ids []int64) (domain.BulkDeleteResult, error) {
	if len(ids) == 0 {
		return domain.BulkDeleteResult{}, apperrors.NewValidationErrors("No department IDs provided", nil)
	}

	var result domain.BulkDeleteResult
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		result = domain.BulkDeleteResult{Deleted: make([]int64, 0, len(ids)), Skipped: make([]int64, 0)}
		seen := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			deleted, err := cascadeDeleteDepartment(ctx, repos, id)
			if err != nil {
				return fmt.Errorf("department %d: %w", id, err)
			}
			if deleted {
				result.Deleted = append(result.Deleted, id)
			} else {
				result.Skipped = append(result.Skipped, id)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("bulk delete departments failed; rolled back",
			zap.Int64s("department_ids", ids),
			zap.Error(err))
		return domain.BulkDeleteResult{}, apperrors.NewInternalError(err)
	}
	return result, nil
}

func cascadeDeleteDepartment(ctx context.Context, repos repository.Repositories, id int64) (bool, error) {
	if _, err := repos.Departments.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if _, err := repos.Users.DetachDepartment(ctx, id); err != nil {
		return false, fmt.Errorf("detach users: %w", err)
	}
	if err := repos.Departments.SetManager(ctx, id, nil); err != nil {
		return false, fmt.Errorf("clear manager: %w", err)
	}

	subs, err := repos.SubDepartments.List(ctx, repository.SubDepartmentFilter{DepartmentID: &id})
	if err != nil {
		return false, fmt.Errorf("list sub-departments: %w", err)
	}
	for _, sub := range subs {
		if _, err := repos.Users.DetachSubDepartment(ctx, sub.ID); err != nil {
			return false, fmt.Errorf("detach users from sub-department %d: %w", sub.ID, err)
		}
		if err := repos.SubDepartments.SetManager(ctx, sub.ID, nil); err != nil {
			return false, fmt.Errorf("clear sub-department %d manager: %w", sub.ID, err)
		}

		subID := sub.ID
		positions, err := repos.Positions.List(ctx, repository.PositionFilter{SubDepartmentID: &subID})
		if err != nil {
			return false, fmt.Errorf("list positions of sub-department %d: %w", sub.ID, err)
		}
		for _, pos := range positions {
			if _, err := repos.Users.DetachPosition(ctx, pos.ID); err != nil {
				return false, fmt.Errorf("detach users from position %d: %w", pos.ID, err)
			}
			if err := repos.Positions.Delete(ctx, pos.ID); err != nil {
				return false, fmt.Errorf("delete position %d: %w", pos.ID, err)
			}
		}

		if err := repos.SubDepartments.Delete(ctx, sub.ID); err != nil {
			return false, fmt.Errorf("delete sub-department %d: %w", sub.ID, err)
		}
	}

	if err := repos.Departments.Delete(ctx, id); err != nil {
		return false, fmt.Errorf("delete department: %w", err)
	}
	return true, nil
}

// AssignDepartmentManager only verifies that both records exist. A user may manage
// any number of units.
func (s *DirectoryService) AssignDepartmentManager(ctx context.Context, id int64, userID string) error {
	if _, err := s.GetDepartment(ctx, id); err != nil {
		return err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if err := s.repos.Departments.SetManager(ctx, id, &userID); err != nil {
		return s.managerWriteError(err, departmentResource(id))
	}
	return nil
}

// RemoveDepartmentManager fails when no manager is set.
func (s *DirectoryService) RemoveDepartmentManager(ctx context.Context, id int64) error {
	dept, err := s.GetDepartment(ctx, id)
	if err != nil {
		return err
	}
	if dept.ManagerID == nil {
		return apperrors.NewInvalidOperation("Department doesn't have a manager assigned.")
	}
	if err := s.repos.Departments.SetManager(ctx, id, nil); err != nil {
		return notFoundOr(err, departmentResource(id))
	}
	return nil
}

func (s *DirectoryService) requireUser(ctx context.Context, userID string) error {
	if _, err := s.repos.Users.GetByID(ctx, userID); err != nil {
		return notFoundOr(err, fmt.Sprintf("Employee with ID %s", userID))
	}
	return nil
}

func (s *DirectoryService) managerWriteError(err error, resource string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewNotFound("Employee", nil)
	}
	return apperrors.MapError(err)
}

// ---- Sub-departments ----

// SubDepartmentInput adds the parent department to the shared fields.
type SubDepartmentInput struct {
	OrgUnitInput
	DepartmentID int64
}

// ListSubDepartments returns sub-departments ordered by name.
func (s *DirectoryService) ListSubDepartments(ctx context.Context, filter repository.SubDepartmentFilter) ([]domain.SubDepartment, error) {
	subs, err := s.repos.SubDepartments.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return subs, nil
}

// GetSubDepartment fetches a single sub-department.
func (s *DirectoryService) GetSubDepartment(ctx context.Context, id int64) (*domain.SubDepartment, error) {
	sub, err := s.repos.SubDepartments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, subDepartmentResource(id))
	}
	return sub, nil
}

// CreateSubDepartment requires an existing parent department.
func (s *DirectoryService) CreateSubDepartment(ctx context.Context, input SubDepartmentInput) (*domain.SubDepartment, error) {
	unit, err := input.normalize("Sub-department")
	if err != nil {
		return nil, err
	}
	if _, err := s.GetDepartment(ctx, input.DepartmentID); err != nil {
		return nil, err
	}
	sub := &domain.SubDepartment{
		DepartmentID: input.DepartmentID,
		Name:         unit.Name,
		Description:  unit.Description,
		Remarks:      unit.Remarks,
	}
	if err := s.repos.SubDepartments.Create(ctx, sub); err != nil {
		return nil, s.subDepartmentWriteError(err, input.DepartmentID)
	}
	return sub, nil
}

// UpdateSubDepartment may move the sub-department to another existing department.
func (s *DirectoryService) UpdateSubDepartment(ctx context.Context, id int64, input SubDepartmentInput) (*domain.SubDepartment, error) {
	unit, err := input.normalize("Sub-department")
	if err != nil {
		return nil, err
	}
	sub, err := s.GetSubDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetDepartment(ctx, input.DepartmentID); err != nil {
		return nil, err
	}
	sub.DepartmentID = input.DepartmentID
	sub.Name = unit.Name
	sub.Description = unit.Description
	sub.Remarks = unit.Remarks
	if err := s.repos.SubDepartments.Update(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(subDepartmentResource(id), nil)
		}
		return nil, s.subDepartmentWriteError(err, input.DepartmentID)
	}
	return sub, nil
}

func (s *DirectoryService) subDepartmentWriteError(err error, departmentID int64) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("A sub-department with this name already exists in the department", nil)
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewNotFound(departmentResource(departmentID), nil)
	}
	return apperrors.MapError(err)
}

// DeleteSubDepartment refuses while users or positions still reference it.
func (s *DirectoryService) DeleteSubDepartment(ctx context.Context, id int64) error {
	if _, err := s.GetSubDepartment(ctx, id); err != nil {
		return err
	}
	users, err := s.repos.Users.CountBySubDepartment(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if users > 0 {
		return apperrors.NewInvalidOperation(fmt.Sprintf("Cannot delete sub-department with ID %d because it has associated employees.", id))
	}
	positions, err := s.repos.Positions.List(ctx, repository.PositionFilter{SubDepartmentID: &id})
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(positions) > 0 {
		return apperrors.NewInvalidOperation(fmt.Sprintf("Cannot delete sub-department with ID %d because it has associated positions.", id))
	}
	if err := s.repos.SubDepartments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("Sub-department is still referenced.", nil)
		}
		return notFoundOr(err, subDepartmentResource(id))
	}
	return nil
}

// AssignSubDepartmentManager only verifies that both records exist.
func (s *DirectoryService) AssignSubDepartmentManager(ctx context.Context, id int64, userID string) error {
	if _, err := s.GetSubDepartment(ctx, id); err != nil {
		return err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if err := s.repos.SubDepartments.SetManager(ctx, id, &userID); err != nil {
		return s.managerWriteError(err, subDepartmentResource(id))
	}
	return nil
}

// RemoveSubDepartmentManager fails when no manager is set.
func (s *DirectoryService) RemoveSubDepartmentManager(ctx context.Context, id int64) error {
	sub, err := s.GetSubDepartment(ctx, id)
	if err != nil {
		return err
	}
	if sub.ManagerID == nil {
		return apperrors.NewInvalidOperation("Sub-department doesn't have a manager assigned.")
	}
	if err := s.repos.SubDepartments.SetManager(ctx, id, nil); err != nil {
		return notFoundOr(err, subDepartmentResource(id))
	}
	return nil
}

// AvailableManagers lists active, approved users.
func (s *DirectoryService) AvailableManagers(ctx context.Context) ([]ManagerCandidate, error) {
	users, err := s.repos.Users.List(ctx, repository.UserFilter{EligibleManager: true})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	names, err := s.departmentNames(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]ManagerCandidate, 0, len(users))
	for _, u := range users {
		candidate := ManagerCandidate{User: u}
		if u.DepartmentID != nil {
			candidate.Department = names[*u.DepartmentID]
		}
		result = append(result, candidate)
	}
	return result, nil
}

func (s *DirectoryService) departmentNames(ctx context.Context) (map[int64]string, error) {
	depts, err := s.repos.Departments.List(ctx, repository.DepartmentFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	names := make(map[int64]string, len(depts))
	for _, d := range depts {
		names[d.ID] = d.Name
	}
	return names, nil
}

// ---- Positions ----

// PositionInput adds the parent sub-department and the active flag.
type PositionInput struct {
	OrgUnitInput
	SubDepartmentID int64
	IsActive        *bool
}

// ListPositions returns positions ordered by name.
func (s *DirectoryService) ListPositions(ctx context.Context, filter repository.PositionFilter) ([]domain.Position, error) {
	positions, err := s.repos.Positions.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return positions, nil
}

// GetPosition fetches a single position.
func (s *DirectoryService) GetPosition(ctx context.Context, id int64) (*domain.Position, error) {
	pos, err := s.repos.Positions.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, positionResource(id))
	}
	return pos, nil
}

// CreatePosition requires an existing sub-department. Positions start active unless told otherwise.
func (s *DirectoryService) CreatePosition(ctx context.Context, input PositionInput) (*domain.Position, error) {
	unit, err := input.normalize("Position")
	if err != nil {
		return nil, err
	}
	if _, err := s.GetSubDepartment(ctx, input.SubDepartmentID); err != nil {
		return nil, err
	}
	pos := &domain.Position{
		SubDepartmentID: input.SubDepartmentID,
		Name:            unit.Name,
		Description:     unit.Description,
		Remarks:         unit.Remarks,
		IsActive:        input.IsActive == nil || *input.IsActive,
	}
	if err := s.repos.Positions.Create(ctx, pos); err != nil {
		return nil, s.positionWriteError(err, input.SubDepartmentID)
	}
	return pos, nil
}

// UpdatePosition rewrites the position; IsActive is kept when not supplied.
func (s *DirectoryService) UpdatePosition(ctx context.Context, id int64, input PositionInput) (*domain.Position, error) {
	unit, err := input.normalize("Position")
	if err != nil {
		return nil, err
	}
	pos, err := s.GetPosition(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetSubDepartment(ctx, input.SubDepartmentID); err != nil {
		return nil, err
	}
	pos.SubDepartmentID = input.SubDepartmentID
	pos.Name = unit.Name
	pos.Description = unit.Description
	pos.Remarks = unit.Remarks
	if input.IsActive != nil {
		pos.IsActive = *input.IsActive
	}
	if err := s.repos.Positions.Update(ctx, pos); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(positionResource(id), nil)
		}
		return nil, s.positionWriteError(err, input.SubDepartmentID)
	}
	return pos, nil
}

func (s *DirectoryService) positionWriteError(err error, subDepartmentID int64) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("A position with this name already exists in the sub-department", nil)
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewNotFound(subDepartmentResource(subDepartmentID), nil)
	}
	return apperrors.MapError(err)
}

// DeletePosition detaches its users and deletes it atomically.
func (s *DirectoryService) DeletePosition(ctx context.Context, id int64) error {
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Users.DetachPosition(ctx, id); err != nil {
			return err
		}
		return repos.Positions.Delete(ctx, id)
	})
	if err != nil {
		return notFoundOr(err, positionResource(id))
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
