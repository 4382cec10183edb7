package errs

import (
	"errors"
	"net/http"
)

// Kinds. Every error returned by the service layer matches exactly one of these
// through errors.Is.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("conflicting record found")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal server error")
)

var errorMap = map[error]int{
	ErrUnauthorized:    http.StatusUnauthorized,
	ErrForbidden:       http.StatusForbidden,
	ErrNotFound:        http.StatusNotFound,
	ErrConflict:        http.StatusConflict,
	ErrBadRequest:      http.StatusBadRequest,
	ErrTooManyRequests: http.StatusTooManyRequests,
	ErrInternal:        http.StatusInternalServerError,
}

// Error carries a kind, a caller-safe message and an optional cause kept for logs.
type Error struct {
	kind    error
	message string
	cause   error
}

func (e *Error) Error() string {
	return e.message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Kind returns the sentinel this error belongs to.
func (e *Error) Kind() error {
	return e.kind
}

// Cause returns the wrapped underlying error, if any.
func (e *Error) Cause() error {
	return e.cause
}

func New(kind error, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Wrap(kind error, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

func Unauthorized(message string) *Error { return New(ErrUnauthorized, message) }

func Forbidden(message string) *Error { return New(ErrForbidden, message) }

func NotFound(message string) *Error { return New(ErrNotFound, message) }

func Conflict(message string) *Error { return New(ErrConflict, message) }

func BadRequest(message string) *Error { return New(ErrBadRequest, message) }

func TooManyRequests(message string) *Error { return New(ErrTooManyRequests, message) }

func Internal(message string, cause error) *Error { return Wrap(ErrInternal, message, cause) }

// Is reports whether err belongs to kind.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}

// StatusCode maps an error to its HTTP status, defaulting to 500.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		if status, ok := errorMap[e.kind]; ok {
			return status
		}
	}
	for kind, status := range errorMap {
		if errors.Is(err, kind) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to show to a caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.kind != ErrInternal {
		return e.message
	}
	for kind := range errorMap {
		if kind != ErrInternal && errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ErrInternal.Error()
}
