// Package domainerrors defines the coded error type shared by all services.
//
// Stores return infrastructure sentinels (pkg/platform/sentinel); services
// translate those into coded errors so the transport layer can map each code
// to an HTTP status without inspecting error strings. Every service operation
// either returns its result or exactly one coded error.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies the kind of failure. Codes are part of the API contract:
// clients use them to decide whether a retry makes sense.
type Code string

const (
	CodeValidation        Code = "validation_error"
	CodeBadRequest        Code = "bad_request"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeInvalidTransition Code = "invalid_transition"
	CodeAlreadyUsed       Code = "already_used"
	CodeAlreadyCheckedIn  Code = "already_checked_in"
	CodeNotCheckedIn      Code = "not_checked_in"
	CodeNotYetValid       Code = "not_yet_valid"
	CodeExpired           Code = "expired"
	CodeTimeout           Code = "timeout"
	CodeInternal          Code = "internal_error"
)

// Error carries a code, a user-presentable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is/errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in a service.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status. The mapping lives here, next to
// the codes, so every handler translates failures identically.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeNotYetValid, CodeExpired:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidTransition, CodeAlreadyUsed, CodeAlreadyCheckedIn, CodeNotCheckedIn:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
