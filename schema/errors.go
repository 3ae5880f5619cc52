package schema

import (
	"errors"
	"fmt"
)

// ErrorKind tags the cause of a DatabaseError.
type ErrorKind uint8

const (
	KindConnection ErrorKind = iota + 1
	KindQueryBuild
	KindInsert
	KindQuery
	KindFileRead
)

var (
	ErrConnection = errors.New("connection error")
	ErrQueryBuild = errors.New("query building error")
	ErrInsert     = errors.New("insert error")
	ErrQuery      = errors.New("query error")
	ErrFileRead   = errors.New("sql file read error")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindQueryBuild:
		return ErrQueryBuild
	case KindInsert:
		return ErrInsert
	case KindQuery:
		return ErrQuery
	case KindFileRead:
		return ErrFileRead
	default:
		return nil
	}
}

func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// DatabaseError is returned by every remote operation. Callers match the cause
// with errors.Is against the Err* sentinels.
type DatabaseError struct {
	Kind   ErrorKind
	Target string // table, file or address the operation was aimed at
	Err    error
}

// NewDatabaseError wraps err with kind. A nil err yields nil.
func NewDatabaseError(kind ErrorKind, target string, err error) error {
	if err == nil {
		return nil
	}
	var de *DatabaseError
	if errors.As(err, &de) {
		return err
	}
	return &DatabaseError{Kind: kind, Target: target, Err: err}
}

func (e *DatabaseError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Target, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind.
func (e *DatabaseError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}
