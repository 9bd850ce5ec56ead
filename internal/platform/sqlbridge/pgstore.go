package sqlbridge

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IbkArotiba/AaroCare/internal/platform/db"
)

var dialect = goqu.Dialect("postgres")

// PGStore implements TableStore on Postgres. Statements are built with goqu
// and executed through pgx; a transaction carried in the context (db.WithTx)
// takes precedence over the pool, so multi-statement sequences issued through
// the bridge can run atomically.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *PGStore) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *PGStore) Select(ctx context.Context, table string, filters []Filter) ([]Row, error) {
	ds := dialect.From(table).Select(goqu.Star())
	for _, f := range filters {
		ds = ds.Where(goqu.C(f.Column).Eq(f.Value))
	}
	sqlStr, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return s.run(ctx, sqlStr, args)
}

func (s *PGStore) Insert(ctx context.Context, table string, values map[string]any) ([]Row, error) {
	sqlStr, args, err := dialect.Insert(table).
		Rows(goqu.Record(values)).
		Returning(goqu.Star()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	return s.run(ctx, sqlStr, args)
}

func (s *PGStore) Update(ctx context.Context, table string, values map[string]any, filters []Filter) ([]Row, error) {
	ds := dialect.Update(table).Set(goqu.Record(values))
	for _, f := range filters {
		ds = ds.Where(goqu.C(f.Column).Eq(f.Value))
	}
	sqlStr, args, err := ds.Returning(goqu.Star()).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	return s.run(ctx, sqlStr, args)
}

func (s *PGStore) Delete(ctx context.Context, table string, filters []Filter) ([]Row, error) {
	ds := dialect.Delete(table)
	for _, f := range filters {
		ds = ds.Where(goqu.C(f.Column).Eq(f.Value))
	}
	sqlStr, args, err := ds.Returning(goqu.Star()).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build delete: %w", err)
	}
	return s.run(ctx, sqlStr, args)
}

func (s *PGStore) run(ctx context.Context, sqlStr string, args []any) ([]Row, error) {
	rows, err := s.conn(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(Row, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
