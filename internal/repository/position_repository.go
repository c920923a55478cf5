package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk/it-helpdesk/internal/domain"
)

// PositionFilter narrows position listings.
type PositionFilter struct {
	Search          string
	SubDepartmentID *int64
}

// PositionRepository manages positions. Names are unique case-insensitively within a sub-department.
type PositionRepository interface {
	Create(ctx context.Context, pos *domain.Position) error
	Update(ctx context.Context, pos *domain.Position) error
	GetByID(ctx context.Context, id int64) (*domain.Position, error)
	List(ctx context.Context, filter PositionFilter) ([]domain.Position, error)
	Delete(ctx context.Context, id int64) error
}

type positionRepository struct {
	db Querier
}

// NewPositionRepository builds the repository.
func NewPositionRepository(db Querier) PositionRepository {
	return &positionRepository{db: db}
}

var positionColumns = []string{
	"id", "sub_department_id", "name", "description", "remarks", "is_active", "created_at", "updated_at",
}

func scanPosition(row pgx.Row) (*domain.Position, error) {
	var pos domain.Position
	if err := row.Scan(
		&pos.ID,
		&pos.SubDepartmentID,
		&pos.Name,
		&pos.Description,
		&pos.Remarks,
		&pos.IsActive,
		&pos.CreatedAt,
		&pos.UpdatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &pos, nil
}

func (r *positionRepository) Create(ctx context.Context, pos *domain.Position) error {
	const query = `
        INSERT INTO positions (sub_department_id, name, description, remarks, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		pos.SubDepartmentID,
		pos.Name,
		pos.Description,
		pos.Remarks,
		pos.IsActive,
	).Scan(&pos.ID, &pos.CreatedAt, &pos.UpdatedAt)
	return translateError(err)
}

func (r *positionRepository) Update(ctx context.Context, pos *domain.Position) error {
	const query = `
        UPDATE positions SET sub_department_id=$1, name=$2, description=$3, remarks=$4, is_active=$5,
            updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		pos.SubDepartmentID,
		pos.Name,
		pos.Description,
		pos.Remarks,
		pos.IsActive,
		pos.ID,
	).Scan(&pos.UpdatedAt)
	return translateError(err)
}

func (r *positionRepository) GetByID(ctx context.Context, id int64) (*domain.Position, error) {
	query, args, err := psql.Select(positionColumns...).From("positions").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanPosition(r.db.QueryRow(ctx, query, args...))
}

func (r *positionRepository) List(ctx context.Context, filter PositionFilter) ([]domain.Position, error) {
	builder := psql.Select(positionColumns...).From("positions").OrderBy("name")
	if search := strings.TrimSpace(filter.Search); search != "" {
		builder = builder.Where(sq.ILike{"name": containsPattern(search)})
	}
	if filter.SubDepartmentID != nil {
		builder = builder.Where(sq.Eq{"sub_department_id": *filter.SubDepartmentID})
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

	result := make([]domain.Position, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *pos)
	}
	return result, rows.Err()
}

func (r *positionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM positions WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(tag)
}
