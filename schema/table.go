package schema

import "dbbind/engine"

// NoneType is the row type of tables that are never inserted into.
type NoneType struct{}

// Table is implemented by the generated marker type of every table. The zero
// value of a marker type is usable, so generic helpers can instantiate it with
// `var t T`.
type Table[R any] interface {
	Name() string
	DatabaseName() string
	TableName() string
	FullName() string
	FilePath() string
	Engine() engine.Kind
	NewRow() R
}
