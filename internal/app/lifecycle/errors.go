// internal/app/lifecycle/errors.go
package lifecycle

import (
	"errors"
	"fmt"
)

// Kind classifies a lifecycle failure. Every error the engine returns to a
// caller carries exactly one Kind; the HTTP layer maps kinds to status codes.
type Kind string

const (
	// KindValidation covers malformed or missing required input: a missing
	// rejection remark, a score outside [0,100], no assignee.
	KindValidation Kind = "validation"
	// KindNotFound covers absent indicators, categories, and evidence.
	KindNotFound Kind = "not_found"
	// KindConflict covers hierarchy mismatches, self-parenting, and
	// requests invalid for the record's current state.
	KindConflict Kind = "conflict"
	// KindAuthorization covers role failures, sealed-record access, and
	// acting on evidence owned by someone else.
	KindAuthorization Kind = "authorization"
)

// Error is the structured failure type for lifecycle operations. No raw
// storage or collaborator error leaks past the engine boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error // optional underlying cause, for logs only
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ErrStaleRevision is returned by IndicatorStore.Replace when the record
// was modified since it was read. The engine retries on it.
var ErrStaleRevision = errors.New("indicator revision is stale")

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validationf builds a KindValidation error.
func Validationf(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// NotFoundf builds a KindNotFound error.
func NotFoundf(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

// Conflictf builds a KindConflict error.
func Conflictf(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// Authorizationf builds a KindAuthorization error.
func Authorizationf(format string, args ...any) *Error {
	return newError(KindAuthorization, format, args...)
}

// KindOf returns the Kind carried by err, or "" for non-lifecycle errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a KindValidation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a KindConflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsAuthorization reports whether err is a KindAuthorization error.
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
