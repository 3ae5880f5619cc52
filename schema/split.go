package schema

import "strings"

// Splitter breaks the contents of a schema file into executable statements.
type Splitter func(content string) []string

// SplitStatements is the default Splitter. Statements end at a line whose
// trimmed text ends in ';'. Blank lines and lines starting with "--" are
// dropped. The terminating ';' is removed since the database drivers reject
// multi-statement payloads.
func SplitStatements(content string) []string {
	var (
		statements []string
		current    strings.Builder
	)
	flush := func() {
		stmt := strings.TrimSpace(current.String())
		stmt = strings.TrimSpace(strings.TrimRight(stmt, ";"))
		if stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for line := range strings.SplitSeq(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()

	return statements
}
