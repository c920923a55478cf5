package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk/it-helpdesk/internal/domain"
)

// UserFilter narrows user listings. Zero value lists everyone.
type UserFilter struct {
	Roles           []domain.Role
	EligibleManager bool
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	CountByDepartment(ctx context.Context, departmentID int64) (int, error)
	CountBySubDepartment(ctx context.Context, subDepartmentID int64) (int, error)
	DetachDepartment(ctx context.Context, departmentID int64) (int64, error)
	DetachSubDepartment(ctx context.Context, subDepartmentID int64) (int64, error)
	DetachPosition(ctx context.Context, positionID int64) (int64, error)
}

type userRepository struct {
	db Querier
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db Querier) UserRepository {
	return &userRepository{db: db}
}

var userColumns = []string{
	"id", "email", "password_hash", "first_name", "middle_name", "last_name", "phone_number",
	"role", "is_staff", "is_active", "department_id", "sub_department_id", "position_id",
	"created_at", "updated_at",
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.MiddleName,
		&user.LastName,
		&user.PhoneNumber,
		&user.Role,
		&user.IsStaff,
		&user.IsActive,
		&user.DepartmentID,
		&user.SubDepartmentID,
		&user.PositionID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash, first_name, middle_name, last_name, phone_number,
            role, is_staff, is_active, department_id, sub_department_id, position_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.MiddleName,
		user.LastName,
		user.PhoneNumber,
		user.Role,
		user.IsStaff,
		user.IsActive,
		user.DepartmentID,
		user.SubDepartmentID,
		user.PositionID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translateError(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET email=$1, password_hash=$2, first_name=$3, middle_name=$4, last_name=$5,
            phone_number=$6, role=$7, is_staff=$8, is_active=$9, department_id=$10,
            sub_department_id=$11, position_id=$12, updated_at=NOW()
        WHERE id=$13
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.MiddleName,
		user.LastName,
		user.PhoneNumber,
		user.Role,
		user.IsStaff,
		user.IsActive,
		user.DepartmentID,
		user.SubDepartmentID,
		user.PositionID,
		user.ID,
	).Scan(&user.UpdatedAt)
	return translateError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validUserID(id) {
		return nil, ErrNotFound
	}
	query, args, err := psql.Select(userColumns...).From("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(r.db.QueryRow(ctx, query, args...))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").
		Where(sq.Expr("lower(email) = lower(?)", email)).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(r.db.QueryRow(ctx, query, args...))
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	builder := psql.Select(userColumns...).From("users").OrderBy("last_name", "first_name")
	if len(filter.Roles) > 0 {
		roles := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			roles = append(roles, string(role))
		}
		builder = builder.Where(sq.Eq{"role": roles})
	}
	if filter.EligibleManager {
		builder = builder.Where(sq.Eq{"is_active": true, "is_staff": true})
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

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) CountByDepartment(ctx context.Context, departmentID int64) (int, error) {
	return r.count(ctx, sq.Eq{"department_id": departmentID})
}

func (r *userRepository) CountBySubDepartment(ctx context.Context, subDepartmentID int64) (int, error) {
	return r.count(ctx, sq.Eq{"sub_department_id": subDepartmentID})
}

func (r *userRepository) count(ctx context.Context, where sq.Eq) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("users").Where(where).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *userRepository) DetachDepartment(ctx context.Context, departmentID int64) (int64, error) {
	return r.detach(ctx, "department_id", departmentID)
}

func (r *userRepository) DetachSubDepartment(ctx context.Context, subDepartmentID int64) (int64, error) {
	return r.detach(ctx, "sub_department_id", subDepartmentID)
}

func (r *userRepository) DetachPosition(ctx context.Context, positionID int64) (int64, error) {
	return r.detach(ctx, "position_id", positionID)
}

// detach nulls column for every user pointing at id. column is never caller input.
func (r *userRepository) detach(ctx context.Context, column string, id int64) (int64, error) {
	query, args, err := psql.Update("users").
		Set(column, nil).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{column: id}).
		ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
