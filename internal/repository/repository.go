package repository

import (
	"context"
	"errors"
	"fmt"

	"supplychain/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNumericOutOfRange   = "22003"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs statements against either the pool or an open transaction.
type Queries struct {
	db DBTX
}

// Store is the data-access gateway: plain queries plus transactional scoping.
type Store interface {
	Querier
	WithTx(ctx context.Context, fn func(q Querier) error) error
}

type Repository struct {
	*Queries
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{Queries: &Queries{db: pool}, pool: pool}
}

// WithTx runs fn inside a READ COMMITTED transaction. Row-level locks taken with
// SELECT ... FOR UPDATE serialize concurrent writers of the same row. The
// transaction is rolled back on every path that does not reach Commit.
func (r *Repository) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// mapWriteError translates constraint and range violations into domain errors. onUnique
// is returned for unique violations so order-number clashes can be told apart
// from other duplicates.
func mapWriteError(err error, onUnique error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", onUnique, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrReferentialConflict, pgErr.ConstraintName)
		case pgNumericOutOfRange:
			return fmt.Errorf("%w: value out of range", domain.ErrInvalidQuantity)
		}
	}
	return err
}

func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// NormalizePage clamps paging to page >= 1 and 1 <= pageSize <= 100, defaulting to 20.
func NormalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
