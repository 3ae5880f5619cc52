package relational

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations

	"dbbind/schema"
)

// SplitterFor returns the statement splitter used for schema files of dialect d.
func SplitterFor(d Dialect) schema.Splitter {
	if d == MySQL {
		return SplitMySQL
	}
	return schema.SplitStatements
}

// SplitMySQL splits MySQL DDL with the TiDB parser, restoring each statement in
// canonical form. Content the parser rejects falls back to schema.SplitStatements.
func SplitMySQL(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	stmtNodes, _, err := parser.New().Parse(content, "", "")
	if err != nil || len(stmtNodes) == 0 {
		return schema.SplitStatements(content)
	}

	var statements []string
	for _, node := range stmtNodes {
		if node == nil {
			continue
		}
		var sb strings.Builder
		if err := node.Restore(format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)); err != nil {
			return schema.SplitStatements(content)
		}
		if stmt := strings.TrimSpace(sb.String()); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	if len(statements) == 0 {
		return schema.SplitStatements(content)
	}
	return statements
}
