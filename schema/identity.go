package schema

import (
	"errors"
	"fmt"
	"go/token"
	"strings"
)

var (
	// ErrShortPath is returned for table paths with fewer than two segments.
	ErrShortPath = errors.New("table path needs at least a database and a table segment")
	// ErrInvalidSegment is returned for path segments that are not identifiers.
	ErrInvalidSegment = errors.New("path segment is not a valid identifier")
)

// Identity is the hierarchical path of a table: [Database, (SubDatabase)*, Table].
//
// Segments keep their declared case; the physical names derived from them are
// always lowercase.
type Identity struct {
	segments []string
}

// NewIdentity validates segments and returns the identity they describe.
func NewIdentity(segments ...string) (Identity, error) {
	if len(segments) < 2 {
		return Identity{}, fmt.Errorf("schema: %v: %w", segments, ErrShortPath)
	}
	for _, s := range segments {
		if !token.IsIdentifier(s) {
			return Identity{}, fmt.Errorf("schema: segment %q: %w", s, ErrInvalidSegment)
		}
	}
	return Identity{segments: append([]string(nil), segments...)}, nil
}

// MustIdentity is like NewIdentity but panics on error.
func MustIdentity(segments ...string) Identity {
	id, err := NewIdentity(segments...)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseIdentity splits a dotted path such as "Ethereum.Blocks".
func ParseIdentity(dotted string) (Identity, error) {
	return NewIdentity(strings.Split(dotted, ".")...)
}

// Segments returns a copy of the path segments.
func (id Identity) Segments() []string {
	return append([]string(nil), id.segments...)
}

// IsZero reports whether id was never initialised.
func (id Identity) IsZero() bool {
	return len(id.segments) == 0
}

// TypeName is the concatenation of all segments, used as the Go type name.
func (id Identity) TypeName() string {
	return strings.Join(id.segments, "")
}

// DatabaseName is the lowercased first segment.
func (id Identity) DatabaseName() string {
	if id.IsZero() {
		return ""
	}
	return strings.ToLower(id.segments[0])
}

// TableName is the qualified table name inside the database. Paths deeper than
// two segments produce a backtick-quoted dotted name, e.g. `sub_db0.table0_3`.
func (id Identity) TableName() string {
	switch {
	case len(id.segments) < 2:
		return ""
	case len(id.segments) == 2:
		return strings.ToLower(id.segments[1])
	default:
		return "`" + strings.ToLower(strings.Join(id.segments[1:], ".")) + "`"
	}
}

// FullName is <database>.<table name>.
func (id Identity) FullName() string {
	return id.DatabaseName() + "." + id.TableName()
}

// Dotted returns the declared path joined with dots, case preserved.
func (id Identity) Dotted() string {
	return strings.Join(id.segments, ".")
}

func (id Identity) String() string {
	return id.FullName()
}
