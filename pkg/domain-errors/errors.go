// Package domainerrors provides code-classified errors for service layers.
//
// Stores return sentinel errors (pkg/platform/sentinel) describing
// infrastructure facts; services wrap or translate those into domain errors
// carrying a Code that transports can map onto their own status vocabulary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and branching.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeLocked       Code = "locked"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal"
)

// Error is a domain error with a classification code and optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is/errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// Is is shorthand for HasCode, reading naturally at call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the outermost domain error code, defaulting to CodeInternal
// for unclassified errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeLocked:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
