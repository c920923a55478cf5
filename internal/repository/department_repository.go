package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk/it-helpdesk/internal/domain"
)

// DepartmentFilter narrows department listings.
type DepartmentFilter struct {
	Search     string
	ManagerID  *string
	Unassigned bool
}

// DepartmentRepository manages department persistence. Names are unique case-insensitively.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	List(ctx context.Context, filter DepartmentFilter) ([]domain.Department, error)
	SetManager(ctx context.Context, id int64, managerID *string) error
	Delete(ctx context.Context, id int64) error
}

type departmentRepository struct {
	db Querier
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(db Querier) DepartmentRepository {
	return &departmentRepository{db: db}
}

var departmentColumns = []string{"id", "name", "description", "remarks", "manager_id", "created_at", "updated_at"}

func scanDepartment(row pgx.Row) (*domain.Department, error) {
	var dept domain.Department
	if err := row.Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.Remarks,
		&dept.ManagerID,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &dept, nil
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, description, remarks, manager_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		dept.Name,
		dept.Description,
		dept.Remarks,
		dept.ManagerID,
	).Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
	return translateError(err)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `
        UPDATE departments SET name=$1, description=$2, remarks=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		dept.Name,
		dept.Description,
		dept.Remarks,
		dept.ID,
	).Scan(&dept.UpdatedAt)
	return translateError(err)
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	query, args, err := psql.Select(departmentColumns...).From("departments").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanDepartment(r.db.QueryRow(ctx, query, args...))
}

func (r *departmentRepository) List(ctx context.Context, filter DepartmentFilter) ([]domain.Department, error) {
	if !filter.Unassigned && filter.ManagerID != nil && !validUserID(*filter.ManagerID) {
		return []domain.Department{}, nil
	}
	builder := psql.Select(departmentColumns...).From("departments").OrderBy("name")
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		builder = builder.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"description": pattern},
		})
	}
	switch {
	case filter.Unassigned:
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

	result := make([]domain.Department, 0)
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *dept)
	}
	return result, rows.Err()
}

func (r *departmentRepository) SetManager(ctx context.Context, id int64, managerID *string) error {
	tag, err := r.db.Exec(ctx, `UPDATE departments SET manager_id=$1, updated_at=NOW() WHERE id=$2`, managerID, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(tag)
}

func (r *departmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM departments WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(tag)
}
