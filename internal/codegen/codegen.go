// Package codegen renders resolved bindings into Go source: one file with the
// registry enum and table marker types per registry, plus an optional file
// with the test-shadow dispatch.
package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/tools/imports"

	"dbbind/engine"
	"dbbind/internal/bind"
	"dbbind/internal/core"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var tmpl = template.Must(template.New("").Funcs(template.FuncMap{
	"quote":       func(s string) string { return fmt.Sprintf("%q", s) },
	"join":        strings.Join,
	"engineExpr":  func(k engine.Kind) string { return "engine." + k.String() },
	"dialectExpr": dialectExpr,
}).ParseFS(templateFS, "templates/*.tmpl"))

// File is a rendered, formatted source file.
type File struct {
	Name    string
	Content []byte
}

type fileData struct {
	Package    string
	BuildTag   string
	ClickHouse bool
	Var        string
	Registry   *bind.Registry
}

// Render produces the source files for every registry of p.
func Render(p *bind.Project) ([]File, error) {
	var files []File
	for _, reg := range p.Registries {
		data := fileData{
			Package:    p.Package,
			BuildTag:   p.TestBuildTag,
			ClickHouse: reg.Backend == core.BackendClickHouse,
			Var:        registryVar(reg.Name),
			Registry:   reg,
		}
		base := strings.ToLower(reg.Name)

		f, err := render("registry.go.tmpl", base+".gen.go", data)
		if err != nil {
			return nil, err
		}
		files = append(files, f)

		if p.TestUtils && data.ClickHouse {
			f, err := render("testutils.go.tmpl", base+"_testutils.gen.go", data)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}
	return files, nil
}

func render(tmplName, fileName string, data fileData) (File, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, tmplName, data); err != nil {
		return File{}, fmt.Errorf("codegen: execute template %s: %w", tmplName, err)
	}

	formatted, err := imports.Process(fileName, buf.Bytes(), nil)
	if err != nil {
		return File{Name: fileName, Content: buf.Bytes()}, fmt.Errorf("codegen: goimports %s: %w", fileName, err)
	}
	return File{Name: fileName, Content: formatted}, nil
}

// Write renders p and writes the files into p.OutputDir.
func Write(p *bind.Project, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("codegen: create output dir: %w", err)
	}

	files, err := Render(p)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		outPath := filepath.Join(p.OutputDir, f.Name)
		if err := os.WriteFile(outPath, f.Content, 0o644); err != nil {
			return written, fmt.Errorf("codegen: write %s: %w", outPath, err)
		}
		logger.Info("wrote file", slog.String("path", outPath))
		written = append(written, outPath)
	}
	return written, nil
}

// registryVar is the unexported package variable holding a registry,
// "EthDBMS" -> "ethDBMSRegistry".
func registryVar(name string) string {
	runes := []rune(name)
	for i := range runes {
		if i > 0 && unicode.IsLower(runes[i]) {
			if i > 1 {
				i--
			}
			for j := 0; j < i; j++ {
				runes[j] = unicode.ToLower(runes[j])
			}
			return string(runes) + "Registry"
		}
	}
	return strings.ToLower(name) + "Registry"
}

func dialectExpr(b core.Backend) string {
	if b == core.BackendMySQL {
		return "relational.MySQL"
	}
	return "relational.Postgres"
}
