// Package apperr defines the typed errors returned by the analyzer packages.
// The Kind of an error decides the HTTP status it is reported with.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error.
type Kind int

const (
	// KindUnknown is the zero Kind.
	KindUnknown Kind = iota
	// KindValidation: a single field violates its declared constraint.
	KindValidation
	// KindInvalidInput: values are valid on their own but not together
	// (zero acquisition cost, a loan pair with one half missing, ...).
	KindInvalidInput
	// KindBadRequest: the request could not be read.
	KindBadRequest
	// KindTooManyRequests: the caller hit the rate limit.
	KindTooManyRequests
	// KindInternal: a bug or an unavailable dependency.
	KindInternal
)

var kinds = map[Kind]struct {
	name   string
	status int
}{
	KindValidation:      {"validation", http.StatusBadRequest},
	KindInvalidInput:    {"invalid_input", http.StatusUnprocessableEntity},
	KindBadRequest:      {"bad_request", http.StatusBadRequest},
	KindTooManyRequests: {"too_many_requests", http.StatusTooManyRequests},
	KindInternal:        {"internal", http.StatusInternalServerError},
}

// String is the name reported in error responses.
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "unknown"
}

// Error carries a Kind, a client-facing message and optional context.
type Error struct {
	Kind    Kind
	Message string
	Op      string      // failing operation, for logs
	Err     error       // cause
	Details interface{} // extra response payload, usually field -> message
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the Kind to a status code. Unknown kinds are client errors.
func (e *Error) HTTPStatus() int {
	if info, ok := kinds[e.Kind]; ok {
		return info.status
	}
	return http.StatusBadRequest
}

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind caused by err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp sets the failing operation and returns e.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails sets the response details and returns e.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

// FieldValidation reports a single offending field, also as details.
func FieldValidation(field, message string) *Error {
	return New(KindValidation, field+": "+message).WithDetails(map[string]string{field: message})
}

func InvalidInput(message string) *Error {
	return New(KindInvalidInput, message)
}

func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

func Internal(message string) *Error {
	return New(KindInternal, message)
}

// GetKind returns the Kind of the first *Error in err's chain, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err's chain carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
