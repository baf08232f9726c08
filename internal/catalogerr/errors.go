// Package catalogerr defines the failure taxonomy shared by the catalog client
// and the record mapper.
package catalogerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the normalized category of a catalog failure.
type Kind string

const (
	// KindInvalidQuery is bad caller input, detected before any I/O.
	KindInvalidQuery Kind = "invalid_query"

	// KindTransport is a network or IO failure, or a non-success status.
	KindTransport Kind = "transport"

	// KindMalformedResponse is a body that is not JSON or lacks the expected shape.
	KindMalformedResponse Kind = "malformed_response"

	// KindMalformedField is a single record field that failed targeted parsing.
	KindMalformedField Kind = "malformed_field"

	// KindReferenceIncomplete is a related-parts entry missing a sub-field.
	KindReferenceIncomplete Kind = "reference_incomplete"
)

// ErrNotFound is wrapped by transport errors for a 404 response.
var ErrNotFound = errors.New("record not found")

// Error is a categorized catalog failure.
type Error struct {
	Kind    Kind
	Op      string // e.g. "search", "fetch", "map card"
	URL     string
	Field   string
	Status  int
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "[%s]", e.Kind)
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(" ")
		b.WriteString(e.Message)
	}
	if e.URL != "" {
		fmt.Fprintf(&b, " (%s)", e.URL)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap supports error unwrapping
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates an error of the given kind around an underlying failure.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// InvalidQuery reports bad caller input.
func InvalidQuery(op, format string, args ...any) *Error {
	return New(KindInvalidQuery, op, fmt.Sprintf(format, args...))
}

// MalformedField reports a record field that could not be parsed.
func MalformedField(field, format string, args ...any) *Error {
	return &Error{Kind: KindMalformedField, Op: "map record", Field: field, Message: fmt.Sprintf(format, args...)}
}

// ReferenceIncomplete reports a related-parts entry lacking a sub-field.
func ReferenceIncomplete(index int, field string) *Error {
	return &Error{
		Kind:    KindReferenceIncomplete,
		Op:      "resolve parts",
		Field:   field,
		Message: fmt.Sprintf("entry %d has no %s", index, field),
	}
}

// KindOf extracts the kind from an error chain. The second result is false
// when err carries no catalog kind.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// HasKind reports whether err carries the given kind.
func HasKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsFatal reports whether err aborts a whole catalog operation. Field and
// reference issues are absorbed by the mapper; everything else is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	k, ok := KindOf(err)
	if !ok {
		return true
	}
	return k != KindMalformedField && k != KindReferenceIncomplete
}
