package schema

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"dbbind/engine"
)

// Executor runs a single statement against a database.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// ShadowExecutor is implemented by executors that redirect queries to test
// shadow databases. Registry.Create refuses them: production DDL run through
// a shadow would keep the production replication paths.
type ShadowExecutor interface {
	Executor
	ShadowDatabases() []string
}

// Binding is the resolved metadata of one table in a registry of D variants.
type Binding[D comparable] struct {
	Variant  D
	Name     string // Go type name of the table, e.g. EthereumBlocks
	Database string
	Table    string
	FilePath string // empty when the table is declared without DDL
	Engine   engine.Kind
	Children []D
}

// FullName is <database>.<table>.
func (b Binding[D]) FullName() string {
	return b.Database + "." + b.Table
}

// HasFile reports whether the table is backed by a schema file.
func (b Binding[D]) HasFile() bool {
	return b.FilePath != ""
}

// ReadSQL returns the contents of the table's schema file, read from fsys or
// from the OS file system when fsys is nil.
//
// Calling ReadSQL on a table declared without a schema file is a programming
// error and panics.
func (b Binding[D]) ReadSQL(fsys fs.FS) (string, error) {
	if !b.HasFile() {
		panic(fmt.Sprintf("schema: table %s (%s) has no schema file and cannot be created", b.Name, b.FullName()))
	}

	var (
		data []byte
		err  error
	)
	if fsys == nil {
		data, err = os.ReadFile(b.FilePath)
	} else {
		data, err = fs.ReadFile(fsys, fsPath(b.FilePath))
	}
	if err != nil {
		return "", NewDatabaseError(KindFileRead, b.FilePath, err)
	}
	return string(data), nil
}

// fsPath turns a binding file path into an fs.FS name. Absolute paths are
// taken relative to the root of the file system, so os.DirFS("/") serves
// bindings generated without relative_paths.
func fsPath(p string) string {
	p = filepath.ToSlash(strings.TrimPrefix(p, filepath.VolumeName(p)))
	return strings.TrimPrefix(path.Clean(p), "/")
}
