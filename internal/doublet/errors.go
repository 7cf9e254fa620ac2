package doublet

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes failures surfaced to callers.
type ErrorCode string

const (
	// CodeNotFound indicates an update or delete targeting a missing doublet.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeInvalidFormat indicates a query whose shape cannot be interpreted.
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"

	// CodeParseError indicates malformed LiNo text.
	CodeParseError ErrorCode = "PARSE_ERROR"

	// CodeStorageError indicates the external store could not be read or written.
	CodeStorageError ErrorCode = "STORAGE_ERROR"
)

// Error is the structured error shared by the parser, engine and store.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Index is the doublet concerned, for NotFound errors.
	Index uint32

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound creates an error for a missing doublet.
func NotFound(index uint32) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("doublet %d not found", index),
		Index:   index,
	}
}

// InvalidFormat creates an error for a malformed query shape.
func InvalidFormat(format string, args ...any) *Error {
	return &Error{
		Code:    CodeInvalidFormat,
		Message: fmt.Sprintf(format, args...),
	}
}

// ParseFailure wraps a syntax error from the notation parser.
func ParseFailure(err error) *Error {
	return &Error{
		Code:    CodeParseError,
		Message: "malformed query text",
		Err:     err,
	}
}

// StorageFailure wraps an I/O failure of a persistence backend.
func StorageFailure(message string, err error) *Error {
	return &Error{
		Code:    CodeStorageError,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsNotFound returns true if err is a NOT_FOUND error.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsInvalidFormat returns true if err is an INVALID_FORMAT error.
func IsInvalidFormat(err error) bool {
	return CodeOf(err) == CodeInvalidFormat
}

// IsParseError returns true if err is a PARSE_ERROR error.
func IsParseError(err error) bool {
	return CodeOf(err) == CodeParseError
}

// IsStorageError returns true if err is a STORAGE_ERROR error.
func IsStorageError(err error) bool {
	return CodeOf(err) == CodeStorageError
}
