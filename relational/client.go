// Package relational is the partial Postgres and MySQL runtime for generated
// table bindings. It shares the registry contract of package clickhouse but
// has no cluster or test-shadow support.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"dbbind/schema"
)

// DBMS is implemented by every generated relational registry type D.
type DBMS[D any] interface {
	fmt.Stringer
	DependentTables() []D
	CreateTable(ctx context.Context, exec schema.Executor) error
	FullName() string
	DBName() string
	AllTables() []D
	FromTableName(name string) D
}

// NullDBMS is a relational registry with no tables.
type NullDBMS struct{}

var _ DBMS[NullDBMS] = NullDBMS{}

func (NullDBMS) String() string { return "" }
func (NullDBMS) DependentTables() []NullDBMS { return nil }
func (NullDBMS) CreateTable(context.Context, schema.Executor) error { return nil }
func (NullDBMS) FullName() string { return "" }
func (NullDBMS) DBName() string { return "" }
func (NullDBMS) AllTables() []NullDBMS { return nil }
func (NullDBMS) FromTableName(string) NullDBMS { return NullDBMS{} }

// Client is a database/sql pool bound to the registry type D.
type Client[D DBMS[D]] struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// Open connects with cfg and pings the database. The pool is closed again
// when the ping fails.
func Open[D DBMS[D]](ctx context.Context, cfg Config, logger *slog.Logger) (*Client[D], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(cfg.Dialect.DriverName(), cfg.DSN)
	if err != nil {
		return nil, schema.NewDatabaseError(schema.KindConnection, string(cfg.Dialect), fmt.Errorf("failed to open database connection: %w", err))
	}
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, schema.NewDatabaseError(schema.KindConnection, string(cfg.Dialect),
				fmt.Errorf("failed to ping database: %v; additionally failed to close connection: %w", pingErr, closeErr))
		}
		return nil, schema.NewDatabaseError(schema.KindConnection, string(cfg.Dialect), fmt.Errorf("failed to ping database: %w", pingErr))
	}

	logger.DebugContext(ctx, "connected to database", slog.String("dialect", string(cfg.Dialect)))
	return &Client[D]{db: db, dialect: cfg.Dialect, logger: logger}, nil
}

// DB returns the underlying pool.
func (c *Client[D]) DB() *sql.DB {
	return c.db
}

func (c *Client[D]) Dialect() Dialect {
	return c.dialect
}

func (c *Client[D]) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Exec runs a statement that returns no rows.
func (c *Client[D]) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return schema.NewDatabaseError(schema.KindQuery, "", err)
	}
	return nil
}

// Query runs a query and returns its rows.
func (c *Client[D]) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, schema.NewDatabaseError(schema.KindQuery, "", err)
	}
	return rows, nil
}

// CreateTables creates each table together with its dependent tables.
func (c *Client[D]) CreateTables(ctx context.Context, tables ...D) error {
	for _, t := range tables {
		c.logger.InfoContext(ctx, "creating table", slog.String("table", t.FullName()))
		if err := t.CreateTable(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
