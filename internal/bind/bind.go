// Package bind resolves a validated manifest into the concrete table
// bindings the code generator emits: physical names, schema files, engines,
// child variants and row types.
package bind

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"dbbind/engine"
	"dbbind/internal/core"
	"dbbind/internal/locate"
	"dbbind/schema"
)

const schemaImportPath = "dbbind/schema"

// Project is a fully resolved manifest.
type Project struct {
	Package      string
	OutputDir    string
	TestUtils    bool
	TestBuildTag string
	Registries   []*Registry
}

// Registry is a resolved registry ready for rendering.
type Registry struct {
	Name    string
	Cluster string
	Backend core.Backend
	Tables  []*Table
}

// Table is a resolved table binding.
type Table struct {
	Identity schema.Identity
	Const    string
	Marker   string
	Database string
	Name     string
	FullName string
	FilePath string
	Engine   engine.Kind
	Children []string
	Row      RowType
}

// RowType is the Go type of the rows inserted into a table.
type RowType struct {
	ImportPath string
	Alias      string
	Name       string
}

// Expr is the row type as written in generated code.
func (r RowType) Expr() string {
	if r.ImportPath == "" {
		return r.Name
	}
	return r.Alias + "." + r.Name
}

// Options configures Resolve.
type Options struct {
	// Root is the directory schema_dir entries are relative to.
	Root string
	// OutputDir overrides the manifest's output directory.
	OutputDir string
	Logger    *slog.Logger
}

// Resolve locates and classifies every table of m.
func Resolve(m *core.Manifest, opts Options) (*Project, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("bind: root: %w", err)
	}
	out := opts.OutputDir
	if out == "" {
		out = m.Project.Output
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(root, out)
	}

	r := &resolver{
		locator:  locate.New(root, logger),
		outDir:   out,
		relative: m.Project.RelativePaths,
		logger:   logger,
	}

	p := &Project{
		Package:      m.Project.Package,
		OutputDir:    out,
		TestUtils:    m.Project.TestUtils,
		TestBuildTag: m.Project.TestBuildTag,
		Registries:   make([]*Registry, 0, len(m.Registries)),
	}
	for _, reg := range m.Registries {
		resolved, err := r.registry(reg)
		if err != nil {
			return nil, fmt.Errorf("bind: registry %q: %w", reg.Name, err)
		}
		p.Registries = append(p.Registries, resolved)
	}
	if err := errors.Join(p.checkNames(), p.CheckAliases()); err != nil {
		return nil, err
	}
	return p, nil
}

// checkNames rejects identifiers that would be declared twice in the
// generated package.
func (p *Project) checkNames() error {
	owner := make(map[string]string)
	var errs []error
	declare := func(name, by string) {
		if prev, ok := owner[name]; ok {
			errs = append(errs, fmt.Errorf("bind: %s and %s both declare %s", prev, by, name))
			return
		}
		owner[name] = by
	}
	for _, reg := range p.Registries {
		declare(reg.Name, "registry "+reg.Name)
		for _, t := range reg.Tables {
			declare(t.Const, "table "+t.FullName)
			declare(t.Marker, "table "+t.FullName)
		}
	}
	return errors.Join(errs...)
}

type resolver struct {
	locator  *locate.Locator
	outDir   string
	relative bool
	logger   *slog.Logger
}

func (r *resolver) registry(reg *core.Registry) (*Registry, error) {
	backend, _ := core.ParseBackend(string(reg.Backend))
	out := &Registry{
		Name:    reg.Name,
		Cluster: reg.Cluster,
		Backend: backend,
		Tables:  make([]*Table, 0, len(reg.Tables)),
	}

	for i, t := range reg.Tables {
		bt, err := r.table(reg, backend, t)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", t.Dotted(), err)
		}

		children, err := reg.ChildIndexes(i)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", t.Dotted(), err)
		}
		for _, c := range children {
			bt.Children = append(bt.Children, reg.Tables[c].TypeName())
		}
		out.Tables = append(out.Tables, bt)
	}
	return out, nil
}

func (r *resolver) table(reg *core.Registry, backend core.Backend, t *core.Table) (*Table, error) {
	id, err := t.Identity()
	if err != nil {
		return nil, err
	}
	row, err := ParseRowType(t.Row)
	if err != nil {
		return nil, err
	}

	bt := &Table{
		Identity: id,
		Const:    id.TypeName(),
		Marker:   id.TypeName() + "Table",
		Database: id.DatabaseName(),
		Name:     id.TableName(),
		FullName: id.FullName(),
		Row:      row,
	}

	file, err := r.locator.Find(reg.SchemaDirFor(t), bt.Database, bt.Name)
	if err != nil {
		return nil, err
	}
	if file == "" {
		r.logger.Debug("table declared without schema file", slog.String("table", bt.FullName))
		return bt, nil
	}

	if backend == core.BackendClickHouse {
		kind, err := engine.ClassifyFile(file)
		if err != nil {
			return nil, err
		}
		bt.Engine = kind
	}

	bt.FilePath = file
	if r.relative {
		rel, err := filepath.Rel(r.outDir, file)
		if err != nil {
			return nil, fmt.Errorf("relative path: %w", err)
		}
		bt.FilePath = filepath.ToSlash(rel)
	}
	r.logger.Debug("resolved table",
		slog.String("table", bt.FullName),
		slog.String("file", bt.FilePath),
		slog.String("engine", bt.Engine.String()))
	return bt, nil
}

// ParseRowType splits "import/path.Type" into its parts. A bare identifier is
// a type in the generated package; an empty string is schema.NoneType.
func ParseRowType(row string) (RowType, error) {
	if row == "" {
		return RowType{ImportPath: schemaImportPath, Alias: "schema", Name: "NoneType"}, nil
	}
	dot := strings.LastIndex(row, ".")
	if dot < 0 {
		return RowType{Name: row}, nil
	}
	importPath, name := row[:dot], row[dot+1:]
	if importPath == "" || name == "" {
		return RowType{}, fmt.Errorf("invalid row type %q", row)
	}
	if importPath == schemaImportPath {
		return RowType{ImportPath: importPath, Alias: "schema", Name: name}, nil
	}
	return RowType{ImportPath: importPath, Alias: packageAlias(importPath), Name: name}, nil
}

// packageAlias derives an identifier from the last import path element,
// dropping a major version suffix such as "/v2" or ".v3".
func packageAlias(importPath string) string {
	base := path.Base(importPath)
	if len(base) > 1 && base[0] == 'v' && isDigits(base[1:]) {
		base = path.Base(path.Dir(importPath))
	}
	if i := strings.Index(base, ".v"); i > 0 && isDigits(base[i+2:]) {
		base = base[:i]
	}

	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	alias := b.String()
	if alias == "" || unicode.IsDigit(rune(alias[0])) {
		alias = "rows" + alias
	}
	return alias
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Imports returns the distinct row type imports of r, sorted by path.
func (r *Registry) Imports() []RowType {
	seen := make(map[string]RowType)
	for _, t := range r.Tables {
		if t.Row.ImportPath != "" && t.Row.ImportPath != schemaImportPath {
			seen[t.Row.ImportPath] = t.Row
		}
	}
	out := make([]RowType, 0, len(seen))
	for _, rt := range seen {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ImportPath < out[j].ImportPath })
	return out
}

// reservedAliases are the package names every generated file may import.
var reservedAliases = []string{"context", "schema", "engine", "clickhouse", "chtest", "relational"}

// CheckAliases reports row imports whose package name is taken.
func (p *Project) CheckAliases() error {
	byAlias := make(map[string]string)
	for _, a := range reservedAliases {
		byAlias[a] = "dbbind runtime"
	}
	var errs []error
	for _, reg := range p.Registries {
		for _, rt := range reg.Imports() {
			if prev, ok := byAlias[rt.Alias]; ok && prev != rt.ImportPath {
				errs = append(errs, fmt.Errorf("bind: row imports %q and %q share the package name %q", prev, rt.ImportPath, rt.Alias))
				continue
			}
			byAlias[rt.Alias] = rt.ImportPath
		}
	}
	return errors.Join(errs...)
}
