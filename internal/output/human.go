package output

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"dbbind/internal/bind"
)

type humanFormatter struct{}

// FormatProject lists every registry with one row per table.
func (humanFormatter) FormatProject(p *bind.Project) (string, error) {
	if p == nil {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "package %s -> %s\n", p.Package, p.OutputDir)

	for _, reg := range p.Registries {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s (%s", reg.Name, reg.Backend)
		if reg.Cluster != "" {
			fmt.Fprintf(&sb, ", cluster %s", reg.Cluster)
		}
		sb.WriteString(")\n")

		tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  TABLE\tFULL NAME\tENGINE\tROW\tCHILDREN\tFILE")
		for _, t := range reg.Tables {
			file := t.FilePath
			if file == "" {
				file = "-"
			}
			children := "-"
			if len(t.Children) > 0 {
				children = strings.Join(t.Children, ",")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n", t.Const, t.FullName, t.Engine, t.Row.Expr(), children, file)
		}
		if err := tw.Flush(); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
