package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the class of a caller-visible error
type Code string

const (
	CodeNotFound        Code = "RESOURCE_NOT_FOUND"
	CodeForbidden       Code = "FORBIDDEN"
	CodeStateConflict   Code = "STATE_CONFLICT"
	CodeUnprocessable   Code = "UNPROCESSABLE_ENTITY"
	CodeInvalidQuery    Code = "INVALID_QUERY_PARAM"
	CodeDuplicate       Code = "DUPLICATE_RESOURCE"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeUserNotFound    Code = "USER_NOT_FOUND"
	CodeTooManyRequests Code = "TOO_MANY_REQUESTS"
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Error is an error scoped to a single request, carrying the HTTP status,
// the taxonomy code and optional context for the caller.
type Error struct {
	Status  int
	Code    Code
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code, so callers can
// write errors.Is(err, apperror.ErrStateConflict).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// With returns a copy of e with key set in Details
func (e *Error) With(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value

	return &Error{
		Status:  e.Status,
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// New creates an Error
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Code-only values for errors.Is comparisons.
var (
	ErrNotFound        = New(http.StatusNotFound, CodeNotFound, "resource not found")
	ErrForbidden       = New(http.StatusForbidden, CodeForbidden, "forbidden")
	ErrStateConflict   = New(http.StatusConflict, CodeStateConflict, "state conflict")
	ErrUnprocessable   = New(http.StatusUnprocessableEntity, CodeUnprocessable, "unprocessable entity")
	ErrInvalidQuery    = New(http.StatusBadRequest, CodeInvalidQuery, "invalid query parameter")
	ErrDuplicate       = New(http.StatusConflict, CodeDuplicate, "duplicate resource")
	ErrUnauthorized    = New(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	ErrUserNotFound    = New(http.StatusNotFound, CodeUserNotFound, "user not found")
	ErrTooManyRequests = New(http.StatusTooManyRequests, CodeTooManyRequests, "too many requests")
)

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message)
}

func StateConflict(message string) *Error {
	return New(http.StatusConflict, CodeStateConflict, message)
}

func Unprocessable(message string) *Error {
	return New(http.StatusUnprocessableEntity, CodeUnprocessable, message)
}

func InvalidQuery(message string) *Error {
	return New(http.StatusBadRequest, CodeInvalidQuery, message)
}

func Duplicate(message string) *Error {
	return New(http.StatusConflict, CodeDuplicate, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

// As extracts an *Error from err's chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the taxonomy code of err, or CodeInternal for anything
// that is not an *Error.
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}
