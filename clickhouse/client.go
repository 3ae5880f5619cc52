// Package clickhouse is the ClickHouse runtime for generated table bindings:
// a client bound to a registry type, the DBMS contract generated registries
// satisfy, and typed query and insert helpers.
package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"dbbind/schema"
)

// Database is the subset of a ClickHouse connection used by generated code and
// the query helpers. driver.Conn satisfies it, and so do Client and the test
// client in package chtest.
type Database interface {
	schema.Executor
	Select(ctx context.Context, dest any, query string, args ...any) error
	QueryRow(ctx context.Context, query string, args ...any) driver.Row
	PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error)
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger *slog.Logger
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Client is a ClickHouse connection bound to the registry type D.
type Client[D DBMS[D]] struct {
	conn   driver.Conn
	logger *slog.Logger
}

var _ Database = (*Client[NullDBMS])(nil)

// New wraps an open connection.
func New[D DBMS[D]](conn driver.Conn, opts ...ClientOption) *Client[D] {
	o := clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client[D]{conn: conn, logger: o.logger}
}

// Open connects to ClickHouse with cfg and pings the server. The connection is
// closed again when the ping fails.
func Open[D DBMS[D]](ctx context.Context, cfg Config, opts ...ClientOption) (*Client[D], error) {
	chOpts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	conn, err := ch.Open(chOpts)
	if err != nil {
		return nil, schema.NewDatabaseError(schema.KindConnection, cfg.Addr(), fmt.Errorf("failed to open connection: %w", err))
	}
	if pingErr := conn.Ping(ctx); pingErr != nil {
		if closeErr := conn.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, closeErr)
		}
		return nil, schema.NewDatabaseError(schema.KindConnection, cfg.Addr(), fmt.Errorf("failed to ping: %w", pingErr))
	}

	c := New[D](conn, opts...)
	c.logger.DebugContext(ctx, "connected to clickhouse",
		slog.String("addr", cfg.Addr()),
		slog.String("protocol", string(cfg.Protocol)))
	return c, nil
}

// Conn returns the underlying connection.
func (c *Client[D]) Conn() driver.Conn {
	return c.conn
}

func (c *Client[D]) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client[D]) Ping(ctx context.Context) error {
	return schema.NewDatabaseError(schema.KindConnection, "", c.conn.Ping(ctx))
}

func (c *Client[D]) Exec(ctx context.Context, query string, args ...any) error {
	return c.conn.Exec(ctx, query, args...)
}

func (c *Client[D]) Select(ctx context.Context, dest any, query string, args ...any) error {
	return c.conn.Select(ctx, dest, query, args...)
}

func (c *Client[D]) QueryRow(ctx context.Context, query string, args ...any) driver.Row {
	return c.conn.QueryRow(ctx, query, args...)
}

func (c *Client[D]) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	return c.conn.PrepareBatch(ctx, query, opts...)
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

// AllTables returns every table of D.
func (c *Client[D]) AllTables() []D {
	var zero D
	return zero.AllTables()
}
