package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/repository"
)

func (b *backend) userExists(id *string) bool {
	if id == nil {
		return true
	}
	_, ok := b.st.users[*id]
	return ok
}

type departmentRepository struct {
	*backend
}

func (r *departmentRepository) nameTaken(id int64, name string) bool {
	key := foldKey(name)
	for otherID, dept := range r.st.departments {
		if otherID != id && foldKey(dept.Name) == key {
			return true
		}
	}
	return false
}

func (r *departmentRepository) Create(_ context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(0, dept.Name) {
		return repository.ErrDuplicate
	}
	if !r.userExists(dept.ManagerID) {
		return repository.ErrReferenced
	}
	dept.ID = r.st.nextID()
	dept.CreatedAt = r.now()
	dept.UpdatedAt = dept.CreatedAt
	r.st.departments[dept.ID] = cloneDepartment(*dept)
	return nil
}

func (r *departmentRepository) Update(_ context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.st.departments[dept.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(dept.ID, dept.Name) {
		return repository.ErrDuplicate
	}
	existing.Name = dept.Name
	existing.Description = dept.Description
	existing.Remarks = dept.Remarks
	existing.UpdatedAt = r.now()
	r.st.departments[dept.ID] = existing
	dept.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *departmentRepository) GetByID(_ context.Context, id int64) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dept, ok := r.st.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	dept = cloneDepartment(dept)
	return &dept, nil
}

func (r *departmentRepository) List(_ context.Context, filter repository.DepartmentFilter) ([]domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.TrimSpace(filter.Search)
	result := make([]domain.Department, 0)
	for _, dept := range r.st.departments {
		if search != "" && !contains(dept.Name, search) && !contains(dept.Description, search) {
			continue
		}
		if !matchManager(dept.ManagerID, filter.ManagerID, filter.Unassigned) {
			continue
		}
		result = append(result, cloneDepartment(dept))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func matchManager(current, want *string, unassigned bool) bool {
	switch {
	case unassigned:
		return current == nil
	case want != nil:
		return current != nil && *current == *want
	default:
		return true
	}
}

func (r *departmentRepository) SetManager(_ context.Context, id int64, managerID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dept, ok := r.st.departments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !r.userExists(managerID) {
		return repository.ErrReferenced
	}
	dept.ManagerID = cloneString(managerID)
	dept.UpdatedAt = r.now()
	r.st.departments[id] = dept
	return nil
}

func (r *departmentRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.st.departments[id]; !ok {
		return repository.ErrNotFound
	}
	for _, sub := range r.st.subDepartments {
		if sub.DepartmentID == id {
			return repository.ErrReferenced
		}
	}
	for _, user := range r.st.users {
		if eqID(user.DepartmentID, id) {
			return repository.ErrReferenced
		}
	}
	delete(r.st.departments, id)
	return nil
}

type subDepartmentRepository struct {
	*backend
}

func (r *subDepartmentRepository) check(sub *domain.SubDepartment) error {
	if _, ok := r.st.departments[sub.DepartmentID]; !ok {
		return repository.ErrReferenced
	}
	key := foldKey(sub.Name)
	for otherID, other := range r.st.subDepartments {
		if otherID != sub.ID && other.DepartmentID == sub.DepartmentID && foldKey(other.Name) == key {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r *subDepartmentRepository) Create(_ context.Context, sub *domain.SubDepartment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.check(sub); err != nil {
		return err
	}
	if !r.userExists(sub.ManagerID) {
		return repository.ErrReferenced
	}
	sub.ID = r.st.nextID()
	sub.CreatedAt = r.now()
	sub.UpdatedAt = sub.CreatedAt
	r.st.subDepartments[sub.ID] = cloneSubDepartment(*sub)
	return nil
}

func (r *subDepartmentRepository) Update(_ context.Context, sub *domain.SubDepartment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.st.subDepartments[sub.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.check(sub); err != nil {
		return err
	}
	existing.DepartmentID = sub.DepartmentID
	existing.Name = sub.Name
	existing.Description = sub.Description
	existing.Remarks = sub.Remarks
	existing.UpdatedAt = r.now()
	r.st.subDepartments[sub.ID] = existing
	sub.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *subDepartmentRepository) GetByID(_ context.Context, id int64) (*domain.SubDepartment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.st.subDepartments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sub = cloneSubDepartment(sub)
	return &sub, nil
}

func (r *subDepartmentRepository) List(_ context.Context, filter repository.SubDepartmentFilter) ([]domain.SubDepartment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.TrimSpace(filter.Search)
	result := make([]domain.SubDepartment, 0)
	for _, sub := range r.st.subDepartments {
		if search != "" && !contains(sub.Name, search) && !contains(sub.Description, search) {
			continue
		}
		if filter.DepartmentID != nil && sub.DepartmentID != *filter.DepartmentID {
			continue
		}
		if !matchManager(sub.ManagerID, filter.ManagerID, filter.UnassignedOnly) {
			continue
		}
		result = append(result, cloneSubDepartment(sub))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *subDepartmentRepository) CountByDepartment(_ context.Context, departmentID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, sub := range r.st.subDepartments {
		if sub.DepartmentID == departmentID {
			total++
		}
	}
	return total, nil
}

func (r *subDepartmentRepository) SetManager(_ context.Context, id int64, managerID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.st.subDepartments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !r.userExists(managerID) {
		return repository.ErrReferenced
	}
	sub.ManagerID = cloneString(managerID)
	sub.UpdatedAt = r.now()
	r.st.subDepartments[id] = sub
	return nil
}

func (r *subDepartmentRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.st.subDepartments[id]; !ok {
		return repository.ErrNotFound
	}
	for _, pos := range r.st.positions {
		if pos.SubDepartmentID == id {
			return repository.ErrReferenced
		}
	}
	for _, user := range r.st.users {
		if eqID(user.SubDepartmentID, id) {
			return repository.ErrReferenced
		}
	}
	delete(r.st.subDepartments, id)
	return nil
}

type positionRepository struct {
	*backend
}

func (r *positionRepository) check(pos *domain.Position) error {
	if _, ok := r.st.subDepartments[pos.SubDepartmentID]; !ok {
		return repository.ErrReferenced
	}
	key := foldKey(pos.Name)
	for otherID, other := range r.st.positions {
		if otherID != pos.ID && other.SubDepartmentID == pos.SubDepartmentID && foldKey(other.Name) == key {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r *positionRepository) Create(_ context.Context, pos *domain.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.check(pos); err != nil {
		return err
	}
	pos.ID = r.st.nextID()
	pos.CreatedAt = r.now()
	pos.UpdatedAt = pos.CreatedAt
	r.st.positions[pos.ID] = *pos
	return nil
}

func (r *positionRepository) Update(_ context.Context, pos *domain.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.st.positions[pos.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.check(pos); err != nil {
		return err
	}
	pos.CreatedAt = existing.CreatedAt
	pos.UpdatedAt = r.now()
	r.st.positions[pos.ID] = *pos
	return nil
}

func (r *positionRepository) GetByID(_ context.Context, id int64) (*domain.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.st.positions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &pos, nil
}

func (r *positionRepository) List(_ context.Context, filter repository.PositionFilter) ([]domain.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.TrimSpace(filter.Search)
	result := make([]domain.Position, 0)
	for _, pos := range r.st.positions {
		if search != "" && !contains(pos.Name, search) {
			continue
		}
		if filter.SubDepartmentID != nil && pos.SubDepartmentID != *filter.SubDepartmentID {
			continue
		}
		result = append(result, pos)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *positionRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.st.positions[id]; !ok {
		return repository.ErrNotFound
	}
	for _, user := range r.st.users {
		if eqID(user.PositionID, id) {
			return repository.ErrReferenced
		}
	}
	delete(r.st.positions, id)
	return nil
}
