// Package manifest reads dbbind manifests in TOML or YAML and converts them
// into the canonical core.Manifest representation that the generator
// operates on.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dbbind/internal/core"
)

// Format is the encoding of a manifest file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", &UnsupportedFormatError{Path: path}
	}
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported file format: " + e.Path
}

// manifestFile is the top-level document shared by both encodings.
type manifestFile struct {
	Project    projectFile    `toml:"project" yaml:"project"`
	Registries []registryFile `toml:"registries" yaml:"registries"`
}

type projectFile struct {
	Package       string `toml:"package" yaml:"package"`
	Output        string `toml:"output" yaml:"output"`
	TestUtils     bool   `toml:"test_utils" yaml:"test_utils"`
	TestBuildTag  string `toml:"test_build_tag" yaml:"test_build_tag"`
	RelativePaths bool   `toml:"relative_paths" yaml:"relative_paths"`
}

type registryFile struct {
	Name      string      `toml:"name" yaml:"name"`
	Cluster   string      `toml:"cluster" yaml:"cluster"`
	Backend   string      `toml:"backend" yaml:"backend"`
	SchemaDir string      `toml:"schema_dir" yaml:"schema_dir"`
	Tables    []tableFile `toml:"tables" yaml:"tables"`
}

type tableFile struct {
	Path      []string `toml:"path" yaml:"path"`
	Row       string   `toml:"row" yaml:"row"`
	Children  []string `toml:"children" yaml:"children"`
	SchemaDir string   `toml:"schema_dir" yaml:"schema_dir"`
	NoFile    bool     `toml:"no_file" yaml:"no_file"`
}

// Parser reads dbbind manifests.
type Parser struct{}

// NewParser creates a new manifest parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at the given path and parses it in the format
// its extension names.
func (p *Parser) ParseFile(path string) (*core.Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: open file %q: %w", path, err)
	}
	defer f.Close()

	m, err := p.Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes r and returns the validated manifest.
func (p *Parser) Parse(r io.Reader, format Format) (*core.Manifest, error) {
	var (
		mf  manifestFile
		err error
	)
	switch format {
	case FormatTOML:
		err = decodeTOML(r, &mf)
	case FormatYAML:
		err = decodeYAML(r, &mf)
	default:
		return nil, fmt.Errorf("manifest: unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}

	m, err := convert(&mf)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseFile parses path with a default parser.
func ParseFile(path string) (*core.Manifest, error) {
	return NewParser().ParseFile(path)
}

func convert(mf *manifestFile) (*core.Manifest, error) {
	m := &core.Manifest{
		Project: core.Project{
			Package:       strings.TrimSpace(mf.Project.Package),
			Output:        mf.Project.Output,
			TestUtils:     mf.Project.TestUtils,
			TestBuildTag:  strings.TrimSpace(mf.Project.TestBuildTag),
			RelativePaths: mf.Project.RelativePaths,
		},
		Registries: make([]*core.Registry, 0, len(mf.Registries)),
	}

	for i := range mf.Registries {
		rf := &mf.Registries[i]
		backend, ok := core.ParseBackend(rf.Backend)
		if !ok {
			return nil, fmt.Errorf("manifest: registry %q: %w", rf.Name,
				&core.ValidationError{Entity: "registry", Name: rf.Name, Field: "backend", Message: fmt.Sprintf("unsupported backend %q", rf.Backend)})
		}

		r := &core.Registry{
			Name:      strings.TrimSpace(rf.Name),
			Cluster:   strings.TrimSpace(rf.Cluster),
			Backend:   backend,
			SchemaDir: rf.SchemaDir,
			Tables:    make([]*core.Table, 0, len(rf.Tables)),
		}
		for j := range rf.Tables {
			tf := &rf.Tables[j]
			r.Tables = append(r.Tables, &core.Table{
				Path:      trimAll(tf.Path),
				Row:       strings.TrimSpace(tf.Row),
				Children:  trimAll(tf.Children),
				SchemaDir: tf.SchemaDir,
				NoFile:    tf.NoFile,
			})
		}
		m.Registries = append(m.Registries, r)
	}
	return m, nil
}

func trimAll(ss []string) []string {
	if len(ss) == 0 {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
