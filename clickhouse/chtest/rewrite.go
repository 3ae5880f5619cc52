package chtest

import (
	"strconv"
	"strings"

	"dbbind/clickhouse"
	"dbbind/engine"
)

// TestDatabaseName is the name of the test shadow of database db.
func TestDatabaseName(db string) string {
	return "test_" + db
}

// Rewrite turns the DDL of table db.table into the DDL of its test shadow.
//
// References to db ("db." and "'db'") become references to test_db. For every
// engine except Distributed, the replication path segment "/table" also
// becomes "/test<seed>/table" so concurrent runs on one cluster do not share
// ZooKeeper paths. The result must not be rewritten a second time.
func Rewrite(sql, db, table string, kind engine.Kind, seed uint32) string {
	sql = RewriteDatabases(sql, db)
	if kind == engine.Distributed {
		return sql
	}
	return strings.ReplaceAll(sql, "/"+table, "/test"+strconv.FormatUint(uint64(seed), 10)+"/"+table)
}

// RewriteDatabases points every reference to one of dbs at its test shadow.
// All databases are replaced in a single pass.
func RewriteDatabases(query string, dbs ...string) string {
	if len(dbs) == 0 {
		return query
	}
	pairs := make([]string, 0, 4*len(dbs))
	for _, db := range dbs {
		if db == "" {
			continue
		}
		test := TestDatabaseName(db)
		pairs = append(pairs,
			db+".", test+".",
			"'"+db+"'", "'"+test+"'",
		)
	}
	return strings.NewReplacer(pairs...).Replace(query)
}

// RewriteQuery points query at the test shadows of every database of registry D.
func RewriteQuery[D clickhouse.DBMS[D]](query string) string {
	return RewriteDatabases(query, databases[D]()...)
}

func databases[D clickhouse.DBMS[D]]() []string {
	var zero D
	seen := make(map[string]bool)
	var out []string
	for _, t := range zero.AllTables() {
		db := t.DBName()
		if seen[db] {
			continue
		}
		seen[db] = true
		out = append(out, db)
	}
	return out
}
