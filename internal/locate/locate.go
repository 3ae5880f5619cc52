// Package locate finds the .sql file that declares a table by scanning a
// schema directory for its CREATE statement.
package locate

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RootEnv overrides the project root discovered from the go command.
const RootEnv = "DBBIND_ROOT"

// ProjectRoot returns the directory schema paths are resolved against: the
// DBBIND_ROOT environment variable when set, else the directory of the
// active go.work file, else the directory of the main module's go.mod.
func ProjectRoot(ctx context.Context) (string, error) {
	if root := os.Getenv(RootEnv); root != "" {
		return filepath.Abs(root)
	}

	for _, key := range []string{"GOWORK", "GOMOD"} {
		out, err := exec.CommandContext(ctx, "go", "env", key).Output()
		if err != nil {
			return "", fmt.Errorf("locate: go env %s: %w", key, err)
		}
		file := strings.TrimSpace(string(out))
		if file == "" || file == "off" || file == os.DevNull {
			continue
		}
		return filepath.Dir(file), nil
	}
	return "", fmt.Errorf("locate: not inside a Go module; set %s", RootEnv)
}

// Candidate is a file seen during a search together with its first line.
type Candidate struct {
	Path      string
	FirstLine string
}

// NotFoundError is returned when no file in the directory declares the table.
type NotFoundError struct {
	Database   string
	Table      string
	Dir        string
	Candidates []Candidate
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no file found for database: %s, table: %s in directory: %s", e.Database, e.Table, e.Dir)
	if len(e.Candidates) > 0 {
		b.WriteString("\npaths searched:")
		for _, c := range e.Candidates {
			fmt.Fprintf(&b, "\n  %s: %s", c.Path, c.FirstLine)
		}
	}
	return b.String()
}

// Locator searches schema directories below Root.
type Locator struct {
	Root   string
	Logger *slog.Logger
}

// New returns a Locator rooted at root.
func New(root string, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{Root: root, Logger: logger}
}

func (l *Locator) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// Find walks Root/dir in lexical order and returns the absolute path of the
// first file with a line containing CREATE and either "<database>.<table> "
// or "<database>.<table>_remote ". An empty dir means the table has no file
// and yields an empty path.
func (l *Locator) Find(dir, database, table string) (string, error) {
	if dir == "" {
		return "", nil
	}

	searchDir := dir
	if !filepath.IsAbs(searchDir) {
		searchDir = filepath.Join(l.Root, dir)
	}
	searchDir, err := filepath.Abs(searchDir)
	if err != nil {
		return "", fmt.Errorf("locate: %w", err)
	}

	table = strings.ToLower(table)
	plain := database + "." + table + " "
	remote := database + "." + table + "_remote "

	var (
		found      string
		candidates []Candidate
	)
	walkErr := filepath.WalkDir(searchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		first, ok, err := scanFile(path, func(line string) bool {
			return strings.Contains(line, "CREATE") &&
				(strings.Contains(line, plain) || strings.Contains(line, remote))
		})
		if err != nil {
			return err
		}
		l.logger().Debug("schema file candidate", slog.String("path", path), slog.Bool("match", ok))
		if ok {
			found = path
			return fs.SkipAll
		}
		candidates = append(candidates, Candidate{Path: path, FirstLine: first})
		return nil
	})
	if walkErr != nil && !os.IsNotExist(walkErr) {
		return "", fmt.Errorf("locate: walk %q: %w", searchDir, walkErr)
	}
	if found == "" {
		return "", &NotFoundError{Database: database, Table: table, Dir: searchDir, Candidates: candidates}
	}
	return found, nil
}

// scanFile reports the first line of path and whether any line satisfies match.
func scanFile(path string, match func(string) bool) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}

	var first string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for i := 0; sc.Scan(); i++ {
		line := sc.Text()
		if i == 0 {
			first = line
		}
		if match(line) {
			return first, true, nil
		}
	}
	return first, false, sc.Err()
}
