package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/events"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

// UserAdminService changes roles, approvals and org placement of accounts.
type UserAdminService struct {
	users          repository.UserRepository
	departments    repository.DepartmentRepository
	subDepartments repository.SubDepartmentRepository
	positions      repository.PositionRepository
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	now            func() time.Time
}

// NewUserAdminService builds the service.
func NewUserAdminService(repos repository.Repositories, dispatcher events.Dispatcher, logger *zap.Logger) *UserAdminService {
	return &UserAdminService{
		users:          repos.Users,
		departments:    repos.Departments,
		subDepartments: repos.SubDepartments,
		positions:      repos.Positions,
		dispatcher:     dispatcher,
		logger:         logger,
		now:            nowUTC,
	}
}

// AssignRole replaces the user's role. The caller is expected to force the user to log in again.
func (s *UserAdminService) AssignRole(ctx context.Context, userID, role string) (*domain.User, error) {
	parsed, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperrors.NewValidationError("Invalid role.", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, userResource)
	}
	if user.Role == parsed {
		return nil, apperrors.NewInvalidOperation("User already has this role.")
	}

	previous := user.Role
	user.Role = parsed
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFoundOr(err, userResource)
	}
	s.logger.Info("user role changed",
		zap.String("user_id", user.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(parsed)),
	)
	return user, nil
}

// ToggleConfirm flips the approval flag. Approving publishes user.approved.
func (s *UserAdminService) ToggleConfirm(ctx context.Context, actorID, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, userResource)
	}
	user.IsStaff = !user.IsStaff
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFoundOr(err, userResource)
	}
	if user.IsStaff {
		s.dispatcher.Publish(ctx, events.New(events.EventUserApproved, actorID, events.UserApprovedPayload{User: *user}))
	}
	return user, nil
}

// ListUsers returns every account.
func (s *UserAdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// SupportUsers returns Admin and IT accounts, the candidates for ticket assignment.
func (s *UserAdminService) SupportUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{Roles: []domain.Role{domain.RoleAdmin, domain.RoleIT}})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// SetDepartment sets or clears (nil) the user's department.
func (s *UserAdminService) SetDepartment(ctx context.Context, userID string, departmentID *int64) (*domain.User, error) {
	if departmentID != nil {
		if _, err := s.departments.GetByID(ctx, *departmentID); err != nil {
			return nil, notFoundOr(err, departmentResource(*departmentID))
		}
	}
	return s.place(ctx, userID, func(u *domain.User) { u.DepartmentID = departmentID })
}

// SetSubDepartment sets or clears (nil) the user's sub-department.
func (s *UserAdminService) SetSubDepartment(ctx context.Context, userID string, subDepartmentID *int64) (*domain.User, error) {
	if subDepartmentID != nil {
		if _, err := s.subDepartments.GetByID(ctx, *subDepartmentID); err != nil {
			return nil, notFoundOr(err, subDepartmentResource(*subDepartmentID))
		}
	}
	return s.place(ctx, userID, func(u *domain.User) { u.SubDepartmentID = subDepartmentID })
}

// SetPosition sets or clears (nil) the user's position.
func (s *UserAdminService) SetPosition(ctx context.Context, userID string, positionID *int64) (*domain.User, error) {
	if positionID != nil {
		if _, err := s.positions.GetByID(ctx, *positionID); err != nil {
			return nil, notFoundOr(err, positionResource(*positionID))
		}
	}
	return s.place(ctx, userID, func(u *domain.User) { u.PositionID = positionID })
}

func (s *UserAdminService) place(ctx context.Context, userID string, apply func(*domain.User)) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, userResource)
	}
	apply(user)
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		// the referenced unit was deleted between the check and the write
		if errors.Is(err, repository.ErrReferenced) {
			return nil, apperrors.NewNotFound(fmt.Sprintf("Organization unit for user %s", userID), nil)
		}
		return nil, notFoundOr(err, userResource)
	}
	return user, nil
}
