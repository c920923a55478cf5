package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories groups every repository bound to the same Querier.
type Repositories struct {
	Users          UserRepository
	Departments    DepartmentRepository
	SubDepartments SubDepartmentRepository
	Positions      PositionRepository
	Tickets        TicketRepository
	Comments       TicketCommentRepository
	Views          TicketViewRepository
	Reports        ReportRepository
}

// NewRepositories binds Postgres repositories to q.
func NewRepositories(q Querier) Repositories {
	return Repositories{
		Users:          NewUserRepository(q),
		Departments:    NewDepartmentRepository(q),
		SubDepartments: NewSubDepartmentRepository(q),
		Positions:      NewPositionRepository(q),
		Tickets:        NewTicketRepository(q),
		Comments:       NewTicketCommentRepository(q),
		Views:          NewTicketViewRepository(q),
		Reports:        NewReportRepository(q),
	}
}

// TxManager runs fn with repositories scoped to one transaction.
type TxManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type pgTxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager returns a TxManager backed by pool.
func NewTxManager(pool *pgxpool.Pool) TxManager {
	return &pgTxManager{pool: pool}
}

func (m *pgTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return WithTx(ctx, m.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// WithTx commits when fn succeeds and rolls back on error or panic.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) (err error) {
	var tx pgx.Tx
	tx, err = pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("rollback transaction: %v (original error: %w)", rbErr, err)
			}
		} else {
			err = tx.Commit(ctx)
			if err != nil {
				err = fmt.Errorf("commit transaction: %w", err)
			}
		}
	}()

	err = fn(tx)
	return err
}
