// Package chtest runs code against isolated test shadows of a ClickHouse
// registry. Every database db of the registry is mirrored as test_db, and
// replicated tables get a per-run seed in their replication path.
package chtest

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"golang.org/x/sync/errgroup"

	"dbbind/clickhouse"
	"dbbind/schema"
)

// DBMS is implemented by generated registries built with test utilities.
type DBMS[D any] interface {
	clickhouse.DBMS[D]
	// CreateTestTable creates the test shadow of this table only.
	CreateTestTable(ctx context.Context, exec schema.Executor, seed uint32) error
	DropTestDB(ctx context.Context, exec schema.Executor) error
	TestDBName() string
}

// Testable constrains registry types usable with Client.
type Testable[D any] interface {
	comparable
	DBMS[D]
}

// Option configures a Client.
type Option func(*options)

type options struct {
	seeds  func() uint32
	logger *slog.Logger
}

// WithSeeds replaces the random source of replication path seeds.
func WithSeeds(seeds func() uint32) Option {
	return func(o *options) {
		if seeds != nil {
			o.seeds = seeds
		}
	}
}

// WithLogger sets the logger for rewritten statements.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Client forwards queries to db after pointing them at the test shadows of
// registry D.
type Client[D Testable[D]] struct {
	db      clickhouse.Database
	dbs     []string
	cluster string
	opts    options
}

var (
	_ clickhouse.Database   = (*Client[clickhouse.NullDBMS])(nil)
	_ schema.ShadowExecutor = (*Client[clickhouse.NullDBMS])(nil)
)

// NewClient wraps db.
func NewClient[D Testable[D]](db clickhouse.Database, opts ...Option) *Client[D] {
	o := options{
		seeds:  rand.Uint32,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	var zero D
	return &Client[D]{
		db:      db,
		dbs:     databases[D](),
		cluster: zero.Cluster(),
		opts:    o,
	}
}

// Unwrap returns the database queries are forwarded to.
func (c *Client[D]) Unwrap() clickhouse.Database {
	return c.db
}

// ShadowDatabases returns the databases whose references are redirected to
// their test shadows.
func (c *Client[D]) ShadowDatabases() []string {
	return slices.Clone(c.dbs)
}

func (c *Client[D]) rewrite(ctx context.Context, query string) string {
	out := RewriteDatabases(query, c.dbs...)
	c.opts.logger.DebugContext(ctx, "rewrote test query", slog.String("query", out))
	return out
}

func (c *Client[D]) Exec(ctx context.Context, query string, args ...any) error {
	return c.db.Exec(ctx, c.rewrite(ctx, query), args...)
}

func (c *Client[D]) Select(ctx context.Context, dest any, query string, args ...any) error {
	return c.db.Select(ctx, dest, c.rewrite(ctx, query), args...)
}

func (c *Client[D]) QueryRow(ctx context.Context, query string, args ...any) driver.Row {
	return c.db.QueryRow(ctx, c.rewrite(ctx, query), args...)
}

// PrepareBatch rewrites the insert target as well, so InsertMany on a table
// type writes to its test shadow.
func (c *Client[D]) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	return c.db.PrepareBatch(ctx, c.rewrite(ctx, query), opts...)
}

// plan returns tables and their transitive dependents, dependents first.
func (c *Client[D]) plan(tables []D) ([]D, error) {
	return schema.Plan(tables, func(t D) []D { return t.DependentTables() })
}

// testDatabases maps each distinct test database of tables to one table in it.
func testDatabases[D Testable[D]](tables []D) map[string]D {
	out := make(map[string]D)
	for _, t := range tables {
		name := t.TestDBName()
		if name == "" {
			continue
		}
		if _, ok := out[name]; !ok {
			out[name] = t
		}
	}
	return out
}

// Setup drops and recreates the test databases of tables and their
// dependents, then creates every test table with its own seed.
func (c *Client[D]) Setup(ctx context.Context, tables ...D) error {
	plan, err := c.plan(tables)
	if err != nil {
		return err
	}
	dbs := testDatabases(plan)

	if err := c.dropSweep(ctx, dbs); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for db := range dbs {
		g.Go(func() error {
			if err := c.db.Exec(gctx, createDatabase(db, c.cluster)); err != nil {
				return schema.NewDatabaseError(schema.KindQuery, db, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return c.createTestTables(ctx, plan)
}

// CreateTables creates the test shadows of tables and their dependents, each
// with a fresh seed. The test databases must exist already; Setup creates
// them.
func (c *Client[D]) CreateTables(ctx context.Context, tables ...D) error {
	plan, err := c.plan(tables)
	if err != nil {
		return err
	}
	return c.createTestTables(ctx, plan)
}

func (c *Client[D]) createTestTables(ctx context.Context, plan []D) error {
	for _, t := range plan {
		seed := c.opts.seeds()
		c.opts.logger.DebugContext(ctx, "creating test table",
			slog.String("table", t.FullName()),
			slog.Uint64("seed", uint64(seed)))
		// The table rewrites its own DDL; c.db avoids a second pass.
		if err := t.CreateTestTable(ctx, c.db, seed); err != nil {
			return err
		}
	}
	return nil
}

// Teardown drops the test databases of tables and their dependents.
func (c *Client[D]) Teardown(ctx context.Context, tables ...D) error {
	plan, err := c.plan(tables)
	if err != nil {
		return err
	}
	return c.dropSweep(ctx, testDatabases(plan))
}

func (c *Client[D]) dropSweep(ctx context.Context, dbs map[string]D) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range dbs {
		g.Go(func() error {
			return t.DropTestDB(gctx, c.db)
		})
	}
	return g.Wait()
}

// Run sets up tables, calls fn and tears the databases down again. Teardown
// runs even when setup or fn fails or fn panics.
func (c *Client[D]) Run(ctx context.Context, tables []D, fn func(context.Context, *Client[D]) error) (err error) {
	defer func() {
		err = errors.Join(err, c.Teardown(context.WithoutCancel(ctx), tables...))
	}()

	if err := c.Setup(ctx, tables...); err != nil {
		return err
	}
	return fn(ctx, c)
}

// SetupT is Setup for tests: it fails t on error and registers the teardown
// with t.Cleanup.
func (c *Client[D]) SetupT(t testing.TB, tables ...D) {
	t.Helper()
	t.Cleanup(func() {
		if err := c.Teardown(context.Background(), tables...); err != nil {
			t.Errorf("chtest: teardown: %v", err)
		}
	})
	if err := c.Setup(t.Context(), tables...); err != nil {
		t.Fatalf("chtest: setup: %v", err)
	}
}
