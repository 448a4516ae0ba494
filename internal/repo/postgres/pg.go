package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/tourhub/internal/observability"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// repo carries what every table repository shares.
type repo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func (r repo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

// validID reports whether id can be compared with a uuid column. Anything
// else is reported as not found without a round trip.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

// andWhere appends cond to a WHERE fragment that may be empty.
func andWhere(where, cond string) string {
	if cond == "" {
		return where
	}
	if where == "" {
		return " WHERE " + cond
	}
	return where + " AND " + cond
}

// count runs SELECT COUNT(*) for spec against table. scope is an extra fixed
// condition (for example "active") or empty.
func (r repo) count(ctx context.Context, op, table, scope string, spec query.Spec, schema query.Schema) (int, error) {
	q, err := spec.SQL(schema)
	if err != nil {
		return 0, err
	}

	var n int
	err = r.observe(op, func() error {
		return r.pool.QueryRow(ctx,
			"SELECT COUNT(*) FROM "+table+andWhere(q.Where, scope), q.Args...,
		).Scan(&n)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// find runs spec as a paged SELECT of columns from table and scans each row.
func find[T any](ctx context.Context, r repo, op, columns, table, scope string, spec query.Spec, schema query.Schema, scan func(rowScanner) (T, error)) ([]T, error) {
	q, err := spec.SQL(schema)
	if err != nil {
		return nil, err
	}
	page, args := q.Page()

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s%s", columns, table, andWhere(q.Where, scope), q.OrderBy, page)

	out := make([]T, 0, q.Limit)
	err = r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// getOne scans a single row and maps "no rows" to notFound.
func getOne[T any](ctx context.Context, r repo, op string, notFound error, scan func(rowScanner) (T, error), sql string, args ...any) (T, error) {
	var v T
	err := r.observe(op, func() error {
		var err error
		v, err = scan(r.pool.QueryRow(ctx, sql, args...))
		return err
	})
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, notFound
		}
		return zero, err
	}
	return v, nil
}

// deleteByID removes one row by primary key.
func (r repo) deleteByID(ctx context.Context, op, table, id string, notFound error) error {
	if !validID(id) {
		return notFound
	}

	var tag pgconn.CommandTag
	err := r.observe(op, func() error {
		var err error
		tag, err = r.pool.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
		return err
	})
	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// updateTx loads the row for update, lets apply mutate and validate it, then
// writes it back in the same transaction.
func updateTx[T any](ctx context.Context, r repo, op string, notFound error, load func(pgx.Tx) (T, error), apply func(*T) error, save func(pgx.Tx, T) error) (T, error) {
	var out T
	err := r.observe(op, func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		cur, err := load(tx)
		if err != nil {
			return err
		}
		if err := apply(&cur); err != nil {
			return err
		}
		if err := save(tx, cur); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, notFound
		}
		return zero, err
	}
	return out, nil
}
