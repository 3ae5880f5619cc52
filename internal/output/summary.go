package output

import (
	"fmt"
	"strings"

	"dbbind/engine"
	"dbbind/internal/bind"
)

type summaryFormatter struct{}

// FormatProject formats a compact count of tables per registry.
// Example output:
//
//	EthDBMS: 3 tables, 2 with file, 1 replicated
//	  Distributed: 1
//	  ReplicatedMergeTree: 1
//	  None: 1
func (summaryFormatter) FormatProject(p *bind.Project) (string, error) {
	if p == nil || len(p.Registries) == 0 {
		return "No registries.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Binding Summary\n")
	sb.WriteString("===============\n\n")

	for _, reg := range p.Registries {
		withFile, replicated := 0, 0
		byKind := make(map[engine.Kind]int)
		for _, t := range reg.Tables {
			if t.FilePath != "" {
				withFile++
			}
			if t.Engine.Replicated() {
				replicated++
			}
			byKind[t.Engine]++
		}

		fmt.Fprintf(&sb, "%s: %d tables, %d with file, %d replicated\n", reg.Name, len(reg.Tables), withFile, replicated)
		for _, k := range append(engine.Kinds(), engine.None) {
			if n := byKind[k]; n > 0 {
				fmt.Fprintf(&sb, "  %s: %d\n", k, n)
			}
		}
	}
	return sb.String(), nil
}
