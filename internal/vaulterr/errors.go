// Package vaulterr defines the single error type returned by vault queries.
//
// Callers only need the message. The Kind is kept so the engine, its logs
// and its tests can tell validation, resolution, pagination, unsupported
// feature and storage failures apart.
package vaulterr

import (
	"errors"
	"fmt"
)

// Kind categorizes a query failure.
type Kind string

const (
	// KindMalformedCriteria covers invalid conditions: a unary operator with a
	// value, BETWEEN without exactly two values, LIKE over non-text, or an
	// operator the condition class does not accept.
	KindMalformedCriteria Kind = "MALFORMED_CRITERIA"

	// KindUnresolvableReference covers entities or attributes missing from the
	// schema registry and stored type names the type registry cannot load.
	KindUnresolvableReference Kind = "UNRESOLVABLE_REFERENCE"

	// KindPaginationBounds covers negative page numbers, page sizes outside
	// [0, MaxPageSize] and pages starting past the end of the result set.
	KindPaginationBounds Kind = "PAGINATION_BOUNDS"

	// KindUnsupportedFeature covers requests the engine deliberately rejects,
	// such as null ordering modes other than NullsNone.
	KindUnsupportedFeature Kind = "UNSUPPORTED_FEATURE"

	// KindStorage covers failures reported by the storage collaborator.
	KindStorage Kind = "STORAGE"
)

// Error is a vault query failure.
type Error struct {
	// Kind identifies the violated rule category.
	Kind Kind

	// Message is the human-readable diagnostic.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf returns an *Error with the given kind and formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error wrapping err. If err is already an *Error it is
// returned unchanged so the original classification survives.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Malformedf returns a KindMalformedCriteria error.
func Malformedf(format string, args ...any) *Error {
	return Newf(KindMalformedCriteria, format, args...)
}

// Unresolvablef returns a KindUnresolvableReference error.
func Unresolvablef(format string, args ...any) *Error {
	return Newf(KindUnresolvableReference, format, args...)
}

// Boundsf returns a KindPaginationBounds error.
func Boundsf(format string, args ...any) *Error {
	return Newf(KindPaginationBounds, format, args...)
}

// Unsupportedf returns a KindUnsupportedFeature error.
func Unsupportedf(format string, args ...any) *Error {
	return Newf(KindUnsupportedFeature, format, args...)
}

// As unwraps err and returns the *Error, if there is one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" when err is not a vault query error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a vault query error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
