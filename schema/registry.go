// Package schema holds the runtime side of generated table bindings: table
// identities, per-table bindings, the immutable registry built from generated
// code, and the dependency-ordered create walk.
package schema

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
)

var (
	ErrDuplicateVariant = errors.New("duplicate variant")
	ErrDuplicateName    = errors.New("duplicate table name")
	ErrUnknownChild     = errors.New("child is not registered")

	// ErrShadowExecutor is returned when tables are created through a
	// ShadowExecutor instead of their test-table path.
	ErrShadowExecutor = errors.New("production create through a test shadow executor")
)

// Option configures a Registry.
type Option func(*options)

type options struct {
	split  Splitter
	fsys   fs.FS
	logger *slog.Logger
}

// WithSplitter replaces SplitStatements for breaking schema files into statements.
func WithSplitter(s Splitter) Option {
	return func(o *options) {
		if s != nil {
			o.split = s
		}
	}
}

// WithFS reads schema files from fsys instead of the OS file system. Relative
// file paths are names in fsys; absolute ones are resolved from its root.
func WithFS(fsys fs.FS) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// WithLogger sets the logger used for the create walk.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Registry is the closed set of tables of one DBMS grouping. It is built once
// from generated data and never mutated afterwards.
type Registry[D comparable] struct {
	name      string
	cluster   string
	bindings  []Binding[D]
	byVariant map[D]int
	byName    map[string]int
	opts      options
}

// NewRegistry validates bindings and builds a registry. Bindings keep their
// declaration order.
func NewRegistry[D comparable](name, cluster string, bindings []Binding[D], opts ...Option) (*Registry[D], error) {
	r := &Registry[D]{
		name:      name,
		cluster:   cluster,
		bindings:  append([]Binding[D](nil), bindings...),
		byVariant: make(map[D]int, len(bindings)),
		byName:    make(map[string]int, len(bindings)),
		opts: options{
			split:  SplitStatements,
			logger: slog.Default(),
		},
	}
	for _, opt := range opts {
		opt(&r.opts)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("schema: registry %q: %w", name, err)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. Generated code uses it
// to build package-level registries.
func MustRegistry[D comparable](name, cluster string, bindings []Binding[D], opts ...Option) *Registry[D] {
	r, err := NewRegistry(name, cluster, bindings, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry[D]) validate() error {
	if r.name == "" {
		return errors.New("registry name is empty")
	}
	for i, b := range r.bindings {
		if _, ok := r.byVariant[b.Variant]; ok {
			return fmt.Errorf("%w: %v", ErrDuplicateVariant, b.Variant)
		}
		if _, ok := r.byName[b.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateName, b.Name)
		}
		r.byVariant[b.Variant] = i
		r.byName[b.Name] = i
	}
	for _, b := range r.bindings {
		for _, c := range b.Children {
			if _, ok := r.byVariant[c]; !ok {
				return fmt.Errorf("table %s: %w: %v", b.Name, ErrUnknownChild, c)
			}
		}
	}
	if _, err := r.Plan(r.Variants()...); err != nil {
		return err
	}
	return nil
}

func (r *Registry[D]) Name() string {
	return r.name
}

// Cluster returns the cluster used for ON CLUSTER clauses, or "".
func (r *Registry[D]) Cluster() string {
	return r.cluster
}

func (r *Registry[D]) Len() int {
	return len(r.bindings)
}

// Variants returns every registered variant in declaration order.
func (r *Registry[D]) Variants() []D {
	out := make([]D, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b.Variant)
	}
	return out
}

// Bindings returns a copy of all bindings in declaration order.
func (r *Registry[D]) Bindings() []Binding[D] {
	return append([]Binding[D](nil), r.bindings...)
}

// Binding returns the binding of v.
func (r *Registry[D]) Binding(v D) (Binding[D], bool) {
	i, ok := r.byVariant[v]
	if !ok {
		return Binding[D]{}, false
	}
	return r.bindings[i], true
}

// MustBinding is like Binding but panics for unregistered variants.
func (r *Registry[D]) MustBinding(v D) Binding[D] {
	b, ok := r.Binding(v)
	if !ok {
		panic(fmt.Sprintf("schema: %v is not part of %s", v, r.name))
	}
	return b
}

// Lookup returns the variant whose table type name is name.
func (r *Registry[D]) Lookup(name string) (D, bool) {
	i, ok := r.byName[name]
	if !ok {
		var zero D
		return zero, false
	}
	return r.bindings[i].Variant, true
}

// MustLookup is like Lookup but panics for names outside the registry.
func (r *Registry[D]) MustLookup(name string) D {
	v, ok := r.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("schema: from str: %s is not part of %s", name, r.name))
	}
	return v
}

// Children returns the declared child tables of v.
func (r *Registry[D]) Children(v D) []D {
	b, ok := r.Binding(v)
	if !ok {
		return nil
	}
	return append([]D(nil), b.Children...)
}

// Databases returns the distinct database names of vs, in first-seen order.
// With no arguments every table is considered.
func (r *Registry[D]) Databases(vs ...D) []string {
	if len(vs) == 0 {
		vs = r.Variants()
	}
	seen := make(map[string]bool)
	var out []string
	for _, v := range vs {
		b, ok := r.Binding(v)
		if !ok || seen[b.Database] {
			continue
		}
		seen[b.Database] = true
		out = append(out, b.Database)
	}
	return out
}

// Plan returns roots and all their transitive children, each child subtree
// before its parent.
func (r *Registry[D]) Plan(roots ...D) ([]D, error) {
	return Plan(roots, r.Children)
}

// Statements reads the schema file of v and splits it into statements.
func (r *Registry[D]) Statements(v D) ([]string, error) {
	sql, err := r.MustBinding(v).ReadSQL(r.opts.fsys)
	if err != nil {
		return nil, err
	}
	return r.opts.split(sql), nil
}

// Create creates v after all of its transitive children. Statements run one by
// one and the first failure aborts the walk.
func (r *Registry[D]) Create(ctx context.Context, exec Executor, v D) error {
	if err := checkExecutor(exec); err != nil {
		return err
	}
	plan, err := r.Plan(v)
	if err != nil {
		return err
	}
	for _, t := range plan {
		if err := r.exec(ctx, exec, t); err != nil {
			return err
		}
	}
	return nil
}

// CreateAll creates every table of the registry.
func (r *Registry[D]) CreateAll(ctx context.Context, exec Executor) error {
	if err := checkExecutor(exec); err != nil {
		return err
	}
	plan, err := r.Plan(r.Variants()...)
	if err != nil {
		return err
	}
	for _, t := range plan {
		if err := r.exec(ctx, exec, t); err != nil {
			return err
		}
	}
	return nil
}

func checkExecutor(exec Executor) error {
	if _, ok := exec.(ShadowExecutor); ok {
		return fmt.Errorf("schema: %w; use CreateTestTable", ErrShadowExecutor)
	}
	return nil
}

func (r *Registry[D]) exec(ctx context.Context, exec Executor, v D) error {
	b := r.MustBinding(v)
	stmts, err := r.Statements(v)
	if err != nil {
		return err
	}
	r.opts.logger.DebugContext(ctx, "creating table",
		slog.String("registry", r.name),
		slog.String("table", b.FullName()),
		slog.Int("statements", len(stmts)))

	for _, stmt := range stmts {
		if err := exec.Exec(ctx, stmt); err != nil {
			return NewDatabaseError(KindQuery, b.FullName(), err)
		}
	}
	return nil
}
