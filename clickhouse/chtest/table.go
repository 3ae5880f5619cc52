package chtest

import (
	"context"
	"strings"

	"dbbind/schema"
)

// CreateTestTable creates the test shadow of table v alone; dependent tables
// are the caller's concern. Generated registries call it from their
// CreateTestTable method.
func CreateTestTable[D comparable](ctx context.Context, exec schema.Executor, reg *schema.Registry[D], v D, seed uint32) error {
	b := reg.MustBinding(v)
	stmts, err := reg.Statements(v)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := exec.Exec(ctx, Rewrite(stmt, b.Database, b.Table, b.Engine, seed)); err != nil {
			return schema.NewDatabaseError(schema.KindQuery, TestDatabaseName(b.Database)+"."+b.Table, err)
		}
	}
	return nil
}

// DropTestDB drops the test shadow database of table v.
func DropTestDB[D comparable](ctx context.Context, exec schema.Executor, reg *schema.Registry[D], v D) error {
	db := TestDatabaseName(reg.MustBinding(v).Database)
	if err := exec.Exec(ctx, dropDatabase(db, reg.Cluster())); err != nil {
		return schema.NewDatabaseError(schema.KindQuery, db, err)
	}
	return nil
}

func dropDatabase(db, cluster string) string {
	return databaseStatement("DROP DATABASE IF EXISTS", db, cluster)
}

func createDatabase(db, cluster string) string {
	return databaseStatement("CREATE DATABASE IF NOT EXISTS", db, cluster)
}

func databaseStatement(cmd, db, cluster string) string {
	var sb strings.Builder
	sb.WriteString(cmd)
	sb.WriteByte(' ')
	sb.WriteString(db)
	if cluster != "" {
		sb.WriteString(" ON CLUSTER ")
		sb.WriteString(cluster)
	}
	return sb.String()
}
