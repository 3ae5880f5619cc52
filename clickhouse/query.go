package clickhouse

import (
	"context"
	"database/sql"
	"errors"

	"dbbind/schema"
)

// QueryOne scans the first row of query into a Q. A query without rows fails
// with an error matching sql.ErrNoRows.
func QueryOne[Q any](ctx context.Context, db Database, query string, args ...any) (Q, error) {
	var out Q
	if err := db.QueryRow(ctx, query, args...).ScanStruct(&out); err != nil {
		return out, schema.NewDatabaseError(schema.KindQuery, "", err)
	}
	return out, nil
}

// QueryOneOptional is like QueryOne but returns nil when there are no rows.
func QueryOneOptional[Q any](ctx context.Context, db Database, query string, args ...any) (*Q, error) {
	var out Q
	err := db.QueryRow(ctx, query, args...).ScanStruct(&out)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, schema.NewDatabaseError(schema.KindQuery, "", err)
	}
	return &out, nil
}

// QueryMany scans every row of query.
func QueryMany[Q any](ctx context.Context, db Database, query string, args ...any) ([]Q, error) {
	var out []Q
	if err := db.Select(ctx, &out, query, args...); err != nil {
		return nil, schema.NewDatabaseError(schema.KindQuery, "", err)
	}
	return out, nil
}

// Execute runs a statement that returns no rows.
func Execute(ctx context.Context, db Database, query string, args ...any) error {
	return schema.NewDatabaseError(schema.KindQuery, "", db.Exec(ctx, query, args...))
}

// InsertOne inserts row into table T.
func InsertOne[T schema.Table[R], R any](ctx context.Context, db Database, row R) error {
	return InsertMany[T](ctx, db, []R{row})
}

// InsertMany inserts rows into table T in one batch. Columns are matched to
// the `ch` struct tags of R.
func InsertMany[T schema.Table[R], R any](ctx context.Context, db Database, rows []R) error {
	if len(rows) == 0 {
		return nil
	}

	var t T
	target := t.FullName()

	batch, err := db.PrepareBatch(ctx, "INSERT INTO "+target)
	if err != nil {
		return schema.NewDatabaseError(schema.KindQueryBuild, target, err)
	}
	for i := range rows {
		if err := batch.AppendStruct(&rows[i]); err != nil {
			return errors.Join(
				schema.NewDatabaseError(schema.KindInsert, target, err),
				batch.Abort(),
			)
		}
	}
	if err := batch.Send(); err != nil {
		return schema.NewDatabaseError(schema.KindInsert, target, err)
	}
	return nil
}
