// Package errors provides standardized domain errors with codes for the Grimoire API.
//
// Services return typed errors; handlers check them with errors.Is or switch on
// the Code to pick an HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound      Code = "NOT_FOUND"
	CodeValidation    Code = "VALIDATION"
	CodeOutOfRange    Code = "OUT_OF_RANGE"
	CodeDuplicateVote Code = "DUPLICATE_VOTE"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeEncodeFailed  Code = "ENCODE_FAILED"
	CodeAssetDelete   Code = "ASSET_DELETE"
	CodeConflict      Code = "CONFLICT"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeInternal      Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeOutOfRange:
		return http.StatusBadRequest
	case CodeDuplicateVote, CodeConflict, CodeAlreadyExists:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeEncodeFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation error"}
	ErrOutOfRange    = &Error{Code: CodeOutOfRange, Message: "value out of range"}
	ErrDuplicateVote = &Error{Code: CodeDuplicateVote, Message: "already rated"}
	ErrUnauthorized  = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrEncodeFailed  = &Error{Code: CodeEncodeFailed, Message: "image encoding failed"}
	ErrAssetDelete   = &Error{Code: CodeAssetDelete, Message: "asset deletion failed"}
	ErrConflict      = &Error{Code: CodeConflict, Message: "conflict"}
	ErrAlreadyExists = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrInternal      = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// OutOfRange creates an out of range error.
func OutOfRange(msg string) *Error {
	return &Error{Code: CodeOutOfRange, Message: msg}
}

// OutOfRangef creates an out of range error with formatted message.
func OutOfRangef(format string, args ...any) *Error {
	return &Error{Code: CodeOutOfRange, Message: fmt.Sprintf(format, args...)}
}

// DuplicateVote creates a duplicate vote error.
func DuplicateVote(msg string) *Error {
	return &Error{Code: CodeDuplicateVote, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// EncodeFailed creates an image encoding error.
func EncodeFailed(msg string) *Error {
	return &Error{Code: CodeEncodeFailed, Message: msg}
}

// AssetDelete creates an asset deletion error.
func AssetDelete(msg string) *Error {
	return &Error{Code: CodeAssetDelete, Message: msg}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
