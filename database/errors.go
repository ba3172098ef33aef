// tavle/database/errors.go
package database

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure an operation can return. The HTTP layer
// maps kinds to status codes; nothing outside this package sees a raw
// database/sql error.
type ErrorKind int

const (
	KindBadRequest ErrorKind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindDatabase
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDatabase:
		return "database_error"
	}
	return "unknown"
}

// Error is the tagged error returned by every lifecycle and query operation.
// Code is a stable machine-readable identifier like "thread_not_found".
type Error struct {
	Kind ErrorKind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind: errors.Is(err, &Error{Kind: KindNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Code == "" || t.Code == e.Code)
}

func badRequest(code string) *Error   { return &Error{Kind: KindBadRequest, Code: code} }
func forbidden(code string) *Error    { return &Error{Kind: KindForbidden, Code: code} }
func notFound(code string) *Error     { return &Error{Kind: KindNotFound, Code: code} }
func conflict(code string, err error) *Error {
	return &Error{Kind: KindConflict, Code: code, Err: err}
}
func databaseError(code string, err error) *Error {
	return &Error{Kind: KindDatabase, Code: code, Err: err}
}

// KindOf reports the taxonomy kind of err, or 0 for an unclassified error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsNotFound reports whether err is a not-found classification.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsForbidden reports whether err is an ownership failure.
func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }
