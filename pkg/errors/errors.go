// Package errors provides structured error types for ProMage.
//
// This package defines error codes and types that enable:
//   - Consistent handling of fatal definition problems across the CLI and library
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Malformed definitions or attribute text
//   - MISSING_*: A required attribute or file is absent
//   - UNKNOWN_*: A reference to an undefined tile type, step kind or map
//   - INTERNAL_*: Unexpected internal errors
//
// Only fatal problems become errors. Recoverable degradations during a run
// (retry budgets exhausted, unmapped image colors) are logged as warnings by
// the steps themselves and never surface here.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidRange, "malformed range %q", text)
//	if errors.Is(err, errors.ErrCodeInvalidRange) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidImage, origErr, "failed to load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Definition and attribute errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidRange      Code = "INVALID_RANGE"
	ErrCodeInvalidAttribute  Code = "INVALID_ATTRIBUTE"
	ErrCodeInvalidDefinition Code = "INVALID_DEFINITION"
	ErrCodeInvalidImage      Code = "INVALID_IMAGE"
	ErrCodeInvalidScript     Code = "INVALID_SCRIPT"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Missing data errors
	ErrCodeMissingAttribute Code = "MISSING_ATTRIBUTE"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"

	// Unresolved reference errors
	ErrCodeUnknownTileType Code = "UNKNOWN_TILE_TYPE"
	ErrCodeUnknownStepKind Code = "UNKNOWN_STEP_KIND"
	ErrCodeUnknownMap      Code = "UNKNOWN_MAP"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
