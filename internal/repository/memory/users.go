package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/repository"
)

type userRepository struct {
	*backend
}

func (r *userRepository) checkUser(user *domain.User) error {
	key := foldKey(user.Email)
	for id, existing := range r.st.users {
		if id != user.ID && foldKey(existing.Email) == key {
			return repository.ErrDuplicate
		}
	}
	if user.DepartmentID != nil {
		if _, ok := r.st.departments[*user.DepartmentID]; !ok {
			return repository.ErrReferenced
		}
	}
	if user.SubDepartmentID != nil {
		if _, ok := r.st.subDepartments[*user.SubDepartmentID]; !ok {
			return repository.ErrReferenced
		}
	}
	if user.PositionID != nil {
		if _, ok := r.st.positions[*user.PositionID]; !ok {
			return repository.ErrReferenced
		}
	}
	return nil
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUser(user); err != nil {
		return err
	}
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.now()
	user.UpdatedAt = user.CreatedAt
	r.st.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.st.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkUser(user); err != nil {
		return err
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.now()
	r.st.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user = cloneUser(user)
	return &user, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := foldKey(email)
	for _, user := range r.st.users {
		if foldKey(user.Email) == key {
			user = cloneUser(user)
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]domain.User, 0)
	for _, user := range r.st.users {
		if len(filter.Roles) > 0 && !hasRole(filter.Roles, user.Role) {
			continue
		}
		if filter.EligibleManager && !user.EligibleManager() {
			continue
		}
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].LastName != users[j].LastName {
			return users[i].LastName < users[j].LastName
		}
		if users[i].FirstName != users[j].FirstName {
			return users[i].FirstName < users[j].FirstName
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func hasRole(roles []domain.Role, role domain.Role) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}

func (r *userRepository) CountByDepartment(_ context.Context, departmentID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countWhere(func(u domain.User) bool { return eqID(u.DepartmentID, departmentID) }), nil
}

func (r *userRepository) CountBySubDepartment(_ context.Context, subDepartmentID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countWhere(func(u domain.User) bool { return eqID(u.SubDepartmentID, subDepartmentID) }), nil
}

func (r *userRepository) countWhere(match func(domain.User) bool) int {
	total := 0
	for _, user := range r.st.users {
		if match(user) {
			total++
		}
	}
	return total
}

func (r *userRepository) DetachDepartment(_ context.Context, departmentID int64) (int64, error) {
	return r.detach(func(u *domain.User) bool {
		if eqID(u.DepartmentID, departmentID) {
			u.DepartmentID = nil
			return true
		}
		return false
	}), nil
}

func (r *userRepository) DetachSubDepartment(_ context.Context, subDepartmentID int64) (int64, error) {
	return r.detach(func(u *domain.User) bool {
		if eqID(u.SubDepartmentID, subDepartmentID) {
			u.SubDepartmentID = nil
			return true
		}
		return false
	}), nil
}

func (r *userRepository) DetachPosition(_ context.Context, positionID int64) (int64, error) {
	return r.detach(func(u *domain.User) bool {
		if eqID(u.PositionID, positionID) {
			u.PositionID = nil
			return true
		}
		return false
	}), nil
}

func (r *userRepository) detach(clear func(*domain.User) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for id, user := range r.st.users {
		if clear(&user) {
			user.UpdatedAt = r.now()
			r.st.users[id] = user
			affected++
		}
	}
	return affected
}

func eqID(ref *int64, id int64) bool {
	return ref != nil && *ref == id
}
