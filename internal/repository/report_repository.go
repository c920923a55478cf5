package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/helpdesk/it-helpdesk/internal/domain"
)

// ReportRepository runs read-only dashboard aggregates. A nil since covers all time.
type ReportRepository interface {
	Stats(ctx context.Context, since *time.Time) (domain.TicketStats, error)
	CountByStatus(ctx context.Context, since *time.Time) ([]domain.StatusCount, error)
	CountByCategory(ctx context.Context, since *time.Time) ([]domain.LabelCount, error)
	TopResolvers(ctx context.Context, since *time.Time) ([]domain.LabelCount, error)
	TopCreators(ctx context.Context, since *time.Time) ([]domain.LabelCount, error)
	DepartmentStats(ctx context.Context, since *time.Time) ([]domain.DepartmentTicketStats, error)
	AverageSeverity(ctx context.Context, since *time.Time) (float64, error)
	CreatedPerMonth(ctx context.Context, year int) ([12]int, error)
}

type reportRepository struct {
	db Querier
}

// NewReportRepository builds the repository.
func NewReportRepository(db Querier) ReportRepository {
	return &reportRepository{db: db}
}

const (
	openStatusPredicate = "t.status NOT IN ('Resolved','Closed')"
	userFullNameExpr    = "trim(concat_ws(' ', u.first_name, nullif(u.middle_name, ''), u.last_name))"
	priorityOrdinalExpr = "(array_position(ARRAY['Low','Medium','High','Critical']::text[], t.priority) - 1)"
)

func applyPeriod(b sq.SelectBuilder, since *time.Time) sq.SelectBuilder {
	if since == nil {
		return b
	}
	return b.Where(sq.Expr("COALESCE(t.updated_at, t.created_at) >= ?", *since))
}

func (r *reportRepository) Stats(ctx context.Context, since *time.Time) (domain.TicketStats, error) {
	builder := applyPeriod(psql.Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE "+openStatusPredicate+")",
		"COUNT(*) FILTER (WHERE t.priority = 'High')",
		"COUNT(*) FILTER (WHERE t.priority = 'Critical')",
	).From("tickets t"), since)

	var stats domain.TicketStats
	query, args, err := builder.ToSql()
	if err != nil {
		return stats, err
	}
	err = r.db.QueryRow(ctx, query, args...).Scan(&stats.Total, &stats.Open, &stats.High, &stats.Critical)
	return stats, err
}

func (r *reportRepository) CountByStatus(ctx context.Context, since *time.Time) ([]domain.StatusCount, error) {
	builder := applyPeriod(psql.Select("t.status", "COUNT(*)").From("tickets t"), since).GroupBy("t.status")
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.StatusCount, 0)
	for rows.Next() {
		var sc domain.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

func (r *reportRepository) CountByCategory(ctx context.Context, since *time.Time) ([]domain.LabelCount, error) {
	builder := applyPeriod(psql.Select("t.category", "COUNT(*) AS total").From("tickets t"), since).
		GroupBy("t.category").
		OrderBy("total DESC", "t.category")
	return r.labelCounts(ctx, builder)
}

func (r *reportRepository) TopResolvers(ctx context.Context, since *time.Time) ([]domain.LabelCount, error) {
	builder := applyPeriod(psql.Select(userFullNameExpr, "COUNT(*) AS total").
		From("tickets t").
		Join("users u ON u.id = t.assigned_to_id").
		Where(sq.Eq{"t.status": domain.TicketStatusResolved}), since).
		GroupBy("u.id", "u.first_name", "u.middle_name", "u.last_name").
		OrderBy("total DESC", "u.last_name")
	return r.labelCounts(ctx, builder)
}

func (r *reportRepository) TopCreators(ctx context.Context, since *time.Time) ([]domain.LabelCount, error) {
	builder := applyPeriod(psql.Select(userFullNameExpr, "COUNT(*) AS total").
		From("tickets t").
		Join("users u ON u.id = t.submitter_id"), since).
		GroupBy("u.id", "u.first_name", "u.middle_name", "u.last_name").
		OrderBy("total DESC", "u.last_name")
	return r.labelCounts(ctx, builder)
}

func (r *reportRepository) labelCounts(ctx context.Context, builder sq.SelectBuilder) ([]domain.LabelCount, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.LabelCount, 0)
	for rows.Next() {
		var lc domain.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		result = append(result, lc)
	}
	return result, rows.Err()
}

func (r *reportRepository) DepartmentStats(ctx context.Context, since *time.Time) ([]domain.DepartmentTicketStats, error) {
	builder := applyPeriod(psql.Select(
		"COALESCE(d.name, 'Unassigned') AS department",
		"COUNT(*) AS total",
		"COUNT(*) FILTER (WHERE "+openStatusPredicate+")",
		"COUNT(*) FILTER (WHERE t.priority IN ('High','Critical'))",
	).
		From("tickets t").
		Join("users u ON u.id = t.submitter_id").
		LeftJoin("departments d ON d.id = u.department_id"), since).
		GroupBy("department").
		OrderBy("total DESC", "department")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.DepartmentTicketStats, 0)
	for rows.Next() {
		var ds domain.DepartmentTicketStats
		if err := rows.Scan(&ds.Department, &ds.TicketCount, &ds.OpenTickets, &ds.HighPriorityTickets); err != nil {
			return nil, err
		}
		result = append(result, ds)
	}
	return result, rows.Err()
}

func (r *reportRepository) AverageSeverity(ctx context.Context, since *time.Time) (float64, error) {
	builder := applyPeriod(psql.Select("COALESCE(AVG("+priorityOrdinalExpr+"), 0)::float8").From("tickets t"), since)
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var avg float64
	err = r.db.QueryRow(ctx, query, args...).Scan(&avg)
	return avg, err
}

func (r *reportRepository) CreatedPerMonth(ctx context.Context, year int) ([12]int, error) {
	var months [12]int
	const query = `
        SELECT EXTRACT(MONTH FROM created_at)::int AS month, COUNT(*)
        FROM tickets
        WHERE EXTRACT(YEAR FROM created_at)::int = $1
        GROUP BY month`
	rows, err := r.db.Query(ctx, query, year)
	if err != nil {
		return months, err
	}
	defer rows.Close()

	for rows.Next() {
		var month, count int
		if err := rows.Scan(&month, &count); err != nil {
			return months, err
		}
		if month >= 1 && month <= 12 {
			months[month-1] = count
		}
	}
	return months, rows.Err()
}
