package core

import (
	"errors"
	"fmt"
	"go/build/constraint"
	"go/token"
	"strings"

	"dbbind/schema"
)

// ValidationError represents an error during manifest validation.
type ValidationError struct {
	Entity  string
	Name    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s %q field %q: %s", e.Entity, e.Name, e.Field, e.Message)
	}
	return fmt.Sprintf("validation error in %s %q: %s", e.Entity, e.Name, e.Message)
}

// Validate checks if the Manifest is valid and returns the first problem found.
func (m *Manifest) Validate() error {
	if m == nil {
		return &ValidationError{Entity: "manifest", Message: "manifest is nil"}
	}
	if err := m.Project.Validate(); err != nil {
		return err
	}
	if len(m.Registries) == 0 {
		return &ValidationError{Entity: "manifest", Name: m.Project.Package, Message: "no registries declared"}
	}

	seen := make(map[string]bool, len(m.Registries))
	for i, r := range m.Registries {
		if r == nil {
			return &ValidationError{Entity: "manifest", Name: m.Project.Package, Message: fmt.Sprintf("registry at index %d is nil", i)}
		}
		if seen[r.Name] {
			return &ValidationError{Entity: "manifest", Name: m.Project.Package, Message: fmt.Sprintf("duplicate registry name %q", r.Name)}
		}
		seen[r.Name] = true

		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the project settings.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Package) == "" {
		return &ValidationError{Entity: "project", Name: "(empty)", Field: "package", Message: "package name is empty"}
	}
	if !token.IsIdentifier(p.Package) {
		return &ValidationError{Entity: "project", Name: p.Package, Field: "package", Message: "not a valid Go package name"}
	}
	if p.TestBuildTag != "" {
		if _, err := constraint.Parse("//go:build " + p.TestBuildTag); err != nil {
			return &ValidationError{Entity: "project", Name: p.Package, Field: "test_build_tag", Message: err.Error()}
		}
	}
	return nil
}

// Validate checks the registry and all of its tables.
func (r *Registry) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Entity: "registry", Name: "(empty)", Message: "registry name is empty"}
	}
	if !token.IsIdentifier(r.Name) || !token.IsExported(r.Name) {
		return &ValidationError{Entity: "registry", Name: r.Name, Field: "name", Message: "must be an exported Go identifier"}
	}
	backend, ok := ParseBackend(string(r.Backend))
	if !ok {
		return &ValidationError{Entity: "registry", Name: r.Name, Field: "backend", Message: fmt.Sprintf("unsupported backend %q", r.Backend)}
	}
	if r.Cluster != "" && backend != BackendClickHouse {
		return &ValidationError{Entity: "registry", Name: r.Name, Field: "cluster", Message: "clusters are only supported by clickhouse registries"}
	}
	if len(r.Tables) == 0 {
		return &ValidationError{Entity: "registry", Name: r.Name, Message: "registry has no tables"}
	}

	seen := make(map[string]bool, len(r.Tables))
	for i, t := range r.Tables {
		if t == nil {
			return &ValidationError{Entity: "registry", Name: r.Name, Message: fmt.Sprintf("table at index %d is nil", i)}
		}
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.TypeName()] {
			return &ValidationError{Entity: "registry", Name: r.Name, Message: fmt.Sprintf("duplicate table type name %q", t.TypeName())}
		}
		seen[t.TypeName()] = true
	}

	return r.validateChildren()
}

func (r *Registry) validateChildren() error {
	children := make([][]int, len(r.Tables))
	for i, t := range r.Tables {
		idx, err := r.ChildIndexes(i)
		if err != nil {
			return &ValidationError{Entity: "table", Name: t.Dotted(), Field: "children", Message: err.Error()}
		}
		children[i] = idx
	}

	roots := make([]int, len(r.Tables))
	for i := range roots {
		roots[i] = i
	}
	if _, err := schema.Plan(roots, func(i int) []int { return children[i] }); err != nil {
		var cycle *schema.CycleError[int]
		if errors.As(err, &cycle) {
			names := make([]string, len(cycle.Path))
			for i, idx := range cycle.Path {
				names[i] = r.Tables[idx].TypeName()
			}
			return &ValidationError{Entity: "registry", Name: r.Name, Field: "children",
				Message: fmt.Sprintf("%v: %s", schema.ErrCycle, strings.Join(names, " -> "))}
		}
		return err
	}
	return nil
}

// Validate checks the table path and row type.
func (t *Table) Validate() error {
	if _, err := t.Identity(); err != nil {
		return &ValidationError{Entity: "table", Name: t.Dotted(), Field: "path", Message: err.Error()}
	}
	if t.Row != "" {
		if err := validateRowType(t.Row); err != nil {
			return &ValidationError{Entity: "table", Name: t.Dotted(), Field: "row", Message: err.Error()}
		}
	}
	if t.NoFile && t.SchemaDir != "" {
		return &ValidationError{Entity: "table", Name: t.Dotted(), Field: "schema_dir", Message: "schema_dir set on a table declared without file"}
	}
	return nil
}

// validateRowType accepts a local identifier or "import/path.Type".
func validateRowType(row string) error {
	dot := strings.LastIndex(row, ".")
	if dot < 0 {
		if !token.IsIdentifier(row) {
			return fmt.Errorf("%q is not a valid Go identifier", row)
		}
		return nil
	}
	pkgPath, name := row[:dot], row[dot+1:]
	if pkgPath == "" || strings.HasSuffix(pkgPath, "/") {
		return fmt.Errorf("%q has an empty import path", row)
	}
	if !token.IsIdentifier(name) || !token.IsExported(name) {
		return fmt.Errorf("%q does not name an exported type", row)
	}
	return nil
}
