package clickhouse

import (
	"context"
	"fmt"

	"dbbind/schema"
)

// DBMS is implemented by every generated ClickHouse registry type D. A value of
// D names one table; methods that do not depend on the table (Cluster,
// AllTables, FromTableName) work on any value, including the zero value.
type DBMS[D any] interface {
	fmt.Stringer
	// Cluster is the name used in ON CLUSTER clauses, or "".
	Cluster() string
	DependentTables() []D
	// CreateTable creates the table after all of its dependent tables.
	CreateTable(ctx context.Context, exec schema.Executor) error
	// FullName is <database>.<table>.
	FullName() string
	DBName() string
	AllTables() []D
	// FromTableName panics for names outside the registry.
	FromTableName(name string) D
}

// NullDBMS is a registry with no tables. It is the placeholder registry for
// clients that are not bound to a schema.
type NullDBMS struct{}

var _ DBMS[NullDBMS] = NullDBMS{}

func (NullDBMS) String() string { return "" }
func (NullDBMS) Cluster() string { return "" }
func (NullDBMS) DependentTables() []NullDBMS { return nil }
func (NullDBMS) CreateTable(context.Context, schema.Executor) error { return nil }
func (NullDBMS) FullName() string { return "" }
func (NullDBMS) DBName() string { return "" }
func (NullDBMS) AllTables() []NullDBMS { return nil }
func (NullDBMS) FromTableName(string) NullDBMS { return NullDBMS{} }

// The test-shadow contract; see package chtest.

func (NullDBMS) CreateTestTable(context.Context, schema.Executor, uint32) error { return nil }
func (NullDBMS) DropTestDB(context.Context, schema.Executor) error { return nil }
func (NullDBMS) TestDBName() string { return "" }
