// Package core contains the single source of truth for a binding manifest.
// It provides a structured representation of the registries and tables that
// the generator resolves, for every backend that we support.
package core

import (
	"fmt"
	"strings"

	"dbbind/schema"
)

// Backend identifies the database family a registry binds to.
type Backend string

const (
	BackendClickHouse Backend = "clickhouse"
	BackendPostgres   Backend = "postgres"
	BackendMySQL      Backend = "mysql"
)

// SupportedBackends returns a slice of all supported backend values.
func SupportedBackends() []Backend {
	return []Backend{
		BackendClickHouse,
		BackendPostgres,
		BackendMySQL,
	}
}

// IsValidBackend reports whether b is a recognized backend string.
func IsValidBackend(b string) bool {
	_, ok := ParseBackend(b)
	return ok
}

// ParseBackend normalizes b. An empty string defaults to ClickHouse.
func ParseBackend(b string) (Backend, bool) {
	switch strings.ToLower(strings.TrimSpace(b)) {
	case "", string(BackendClickHouse):
		return BackendClickHouse, true
	case string(BackendPostgres), "postgresql":
		return BackendPostgres, true
	case string(BackendMySQL):
		return BackendMySQL, true
	}
	return "", false
}

// Manifest is the decoded form of a dbbind.toml (or .yaml) file.
type Manifest struct {
	Project    Project
	Registries []*Registry
}

// Project holds the settings shared by every generated file.
type Project struct {
	Package       string `json:"package"`
	Output        string `json:"output,omitempty"`
	TestUtils     bool   `json:"testUtils,omitempty"`
	TestBuildTag  string `json:"testBuildTag,omitempty"`
	RelativePaths bool   `json:"relativePaths,omitempty"`
}

// Registry is one DBMS enum and the tables it dispatches over.
type Registry struct {
	Name      string   `json:"name"`
	Cluster   string   `json:"cluster,omitempty"`
	Backend   Backend  `json:"backend"`
	SchemaDir string   `json:"schemaDir,omitempty"`
	Tables    []*Table `json:"tables"`
}

// Table is a single table declaration.
type Table struct {
	Path      []string `json:"path"`
	Row       string   `json:"row,omitempty"`
	Children  []string `json:"children,omitempty"`
	SchemaDir string   `json:"schemaDir,omitempty"`
	NoFile    bool     `json:"noFile,omitempty"`
}

// FindRegistry returns the registry with the given name, or nil.
func (m *Manifest) FindRegistry(name string) *Registry {
	for _, r := range m.Registries {
		if r != nil && r.Name == name {
			return r
		}
	}
	return nil
}

// Identity resolves the table path.
func (t *Table) Identity() (schema.Identity, error) {
	return schema.NewIdentity(t.Path...)
}

// TypeName is the concatenated path, the name of the generated marker type.
func (t *Table) TypeName() string {
	return strings.Join(t.Path, "")
}

// Dotted is the path joined with dots.
func (t *Table) Dotted() string {
	return strings.Join(t.Path, ".")
}

// FindTable returns the table whose type name or dotted path equals ref.
func (r *Registry) FindTable(ref string) *Table {
	for _, t := range r.Tables {
		if t == nil {
			continue
		}
		if t.TypeName() == ref || t.Dotted() == ref {
			return t
		}
	}
	return nil
}

// TableIndex is like FindTable but returns the declaration index, or -1.
func (r *Registry) TableIndex(ref string) int {
	for i, t := range r.Tables {
		if t != nil && (t.TypeName() == ref || t.Dotted() == ref) {
			return i
		}
	}
	return -1
}

// ChildIndexes resolves the children of the table at index i.
func (r *Registry) ChildIndexes(i int) ([]int, error) {
	t := r.Tables[i]
	out := make([]int, 0, len(t.Children))
	for _, ref := range t.Children {
		j := r.TableIndex(ref)
		if j < 0 {
			return nil, fmt.Errorf("unknown child table %q", ref)
		}
		out = append(out, j)
	}
	return out, nil
}

// SchemaDirFor is the directory searched for t's DDL, empty when t has no file.
func (r *Registry) SchemaDirFor(t *Table) string {
	if t.NoFile {
		return ""
	}
	if t.SchemaDir != "" {
		return t.SchemaDir
	}
	return r.SchemaDir
}
