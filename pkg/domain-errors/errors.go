// Package domainerrors carries the tagged error kinds that use cases surface to
// their callers. Stores speak in sentinel errors; services translate them into
// a Code so adapters can map failures without matching on message text.
package domainerrors

import (
	"errors"
)

// Code is the error kind.
type Code string

const (
	// CodeNotFound means a referenced entity is absent.
	CodeNotFound Code = "not_found"
	// CodeInvalidOperation means a state machine guard rejected the request.
	CodeInvalidOperation Code = "invalid_operation"
	// CodeInvalidArgument means the caller supplied a value that can never succeed.
	CodeInvalidArgument Code = "invalid_argument"
	CodeConflict        Code = "conflict"
	CodeUnauthorized    Code = "unauthorized"
	CodeTimeout         Code = "timeout"
	CodeInternal        Code = "internal"
)

// Error is a coded domain error. Err keeps the underlying cause reachable for
// errors.Is / errors.As.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to err. A nil err stays nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether the outermost coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the outermost code in err's chain, CodeInternal for uncoded
// errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
