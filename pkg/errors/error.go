// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation diagnostics (100-199): Problems found while analyzing a template
//   - Catalog errors (300-399): Indicator catalog lookup and registration errors
//   - Lowering errors (400-499): Internal invariant violations while building the IR
//   - Emission errors (500-599): Internal invariant violations while emitting a target tree
//   - Storage errors (600-699): Compile history persistence errors
//   - Configuration errors (700-799): Config files and template documents
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeUnknownIndicator, "unknown indicator")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeUnresolvedInstance, "no instance for %s", key)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert record", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeUnresolvedInstance) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
// This is a convenience wrapper around the standard errors.Unwrap function.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsInvariantViolation reports whether err carries a lowering or emission code.
// These errors mean a stage received a tree shape it cannot handle; they are never
// caused by user input that passed analysis.
func IsInvariantViolation(err error) bool {
	code := GetCode(err)

	return code >= 400 && code < 600
}
