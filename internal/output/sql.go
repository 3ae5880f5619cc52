package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dbbind/internal/bind"
	"dbbind/internal/core"
	"dbbind/relational"
	"dbbind/schema"
)

type sqlFormatter struct{}

// FormatProject prints the DDL of every registry in creation order, each
// table after the tables it depends on.
func (sqlFormatter) FormatProject(p *bind.Project) (string, error) {
	if p == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("-- dbbind schema\n")
	sb.WriteString("-- Tables are listed in creation order.\n")

	for _, reg := range p.Registries {
		order, err := creationOrder(reg)
		if err != nil {
			return "", fmt.Errorf("registry %s: %w", reg.Name, err)
		}

		split := splitterFor(reg.Backend)
		fmt.Fprintf(&sb, "\n-- %s\n", reg.Name)
		for _, t := range order {
			if t.FilePath == "" {
				fmt.Fprintf(&sb, "\n-- %s: no schema file\n", t.FullName)
				continue
			}
			path := t.FilePath
			if !filepath.IsAbs(path) {
				path = filepath.Join(p.OutputDir, filepath.FromSlash(path))
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return "", schema.NewDatabaseError(schema.KindFileRead, path, err)
			}

			fmt.Fprintf(&sb, "\n-- %s\n", t.FullName)
			for _, stmt := range normalizeStatements(split(string(content))) {
				sb.WriteString(stmt)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), nil
}

func creationOrder(reg *bind.Registry) ([]*bind.Table, error) {
	byConst := make(map[string]*bind.Table, len(reg.Tables))
	roots := make([]string, 0, len(reg.Tables))
	for _, t := range reg.Tables {
		byConst[t.Const] = t
		roots = append(roots, t.Const)
	}

	order, err := schema.Plan(roots, func(c string) []string { return byConst[c].Children })
	if err != nil {
		return nil, err
	}
	out := make([]*bind.Table, 0, len(order))
	for _, c := range order {
		out = append(out, byConst[c])
	}
	return out, nil
}

func splitterFor(b core.Backend) schema.Splitter {
	switch b {
	case core.BackendMySQL:
		return relational.SplitterFor(relational.MySQL)
	case core.BackendPostgres:
		return relational.SplitterFor(relational.Postgres)
	default:
		return schema.SplitStatements
	}
}
