// Package domainerrors defines the coded error taxonomy shared by every
// registry. Services construct these; the transport layer maps codes to
// HTTP statuses in exactly one place.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation covers missing, zero, or duplicate required fields.
	CodeValidation Code = "validation"
	// CodeNotFound covers unknown ids, accounts, and names.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized covers callers lacking ownership or the required role,
	// and bad credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidState covers operations not valid for the current lifecycle
	// state, including race losers and double-use of a consumed origin.
	CodeInvalidState Code = "invalid_state"
	// CodePayment covers payments that do not match the listed price or exceed
	// the buyer's balance.
	CodePayment Code = "payment"
	// CodeInternal covers infrastructure faults surfaced to callers.
	CodeInternal Code = "internal"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal when err is uncoded.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
