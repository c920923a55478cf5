package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk/it-helpdesk/internal/domain"
)

// SubDepartmentFilter narrows sub-department listings.
type SubDepartmentFilter struct {
	Search         string
	DepartmentID   *int64
	ManagerID      *string
	UnassignedOnly bool
}

// SubDepartmentRepository manages sub-department persistence.
// Names are unique case-insensitively within one department.
type SubDepartmentRepository interface {
	Create(ctx context.Context, sub *domain.SubDepartment) error
	Update(ctx context.Context, sub *domain.SubDepartment) error
	GetByID(ctx context.Context, id int64) (*domain.SubDepartment, error)
	List(ctx context.Context, filter SubDepartmentFilter) ([]domain.SubDepartment, error)
	CountByDepartment(ctx context.Context, departmentID int64) (int, error)
	SetManager(ctx context.Context, id int64, managerID *string) error
	Delete(ctx context.Context, id int64) error
}

type subDepartmentRepository struct {
	db Querier
}

// NewSubDepartmentRepository builds the repository.
func NewSubDepartmentRepository(db Querier) SubDepartmentRepository {
	return &subDepartmentRepository{db: db}
}

var subDepartmentColumns = []string{
	"id", "department_id", "name", "description", "remarks", "manager_id", "created_at", "updated_at",
}

func scanSubDepartment(row pgx.Row) (*domain.SubDepartment, error) {
	var sub domain.SubDepartment
	if err := row.Scan(
		&sub.ID,
		&sub.DepartmentID,
		&sub.Name,
		&sub.Description,
		&sub.Remarks,
		&sub.ManagerID,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &sub, nil
}

func (r *subDepartmentRepository) Create(ctx context.Context, sub *domain.SubDepartment) error {
	const query = `
        INSERT INTO sub_departments (department_id, name, description, remarks, manager_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		sub.DepartmentID,
		sub.Name,
		sub.Description,
		sub.Remarks,
		sub.ManagerID,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	return translateError(err)
}

func (r *subDepartmentRepository) Update(ctx context.Context, sub *domain.SubDepartment) error {
	const query = `
        UPDATE sub_departments SET department_id=$1, name=$2, description=$3, remarks=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		sub.DepartmentID,
		sub.Name,
		sub.Description,
		sub.Remarks,
		sub.ID,
	).Scan(&sub.UpdatedAt)
	return translateError(err)
}

func (r *subDepartmentRepository) GetByID(ctx context.Context, id int64) (*domain.SubDepartment, error) {
	query, args, err := psql.Select(subDepartmentColumns...).From("sub_departments").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanSubDepartment(r.db.QueryRow(ctx, query, args...))
}

func (r *subDepartmentRepository) List(ctx context.Context, filter SubDepartmentFilter) ([]domain.SubDepartment, error) {
	if !filter.UnassignedOnly && filter.ManagerID != nil && !validUserID(*filter.ManagerID) {
		return []domain.SubDepartment{}, nil
	}
	builder := psql.Select(subDepartmentColumns...).From("sub_departments").OrderBy("name")
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		builder = builder.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"description": pattern},
		})
	}
	if filter.DepartmentID != nil {
		builder = builder.Where(sq.Eq{"department_id": *filter.DepartmentID})
	}
	switch {
	case filter.UnassignedOnly:
		builder = builder.Where(sq.Eq{"manager_id": nil})
	case filter.ManagerID != nil:
		builder = builder.Where(sq.Eq{"manager_id": *filter.ManagerID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.SubDepartment, 0)
	for rows.Next() {
		sub, err := scanSubDepartment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sub)
	}
	return result, rows.Err()
}

func (r *subDepartmentRepository) CountByDepartment(ctx context.Context, departmentID int64) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sub_departments WHERE department_id=$1`, departmentID).Scan(&total)
	return total, err
}

func (r *subDepartmentRepository) SetManager(ctx context.Context, id int64, managerID *string) error {
	tag, err := r.db.Exec(ctx, `UPDATE sub_departments SET manager_id=$1, updated_at=NOW() WHERE id=$2`, managerID, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(tag)
}

func (r *subDepartmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sub_departments WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(tag)
}
