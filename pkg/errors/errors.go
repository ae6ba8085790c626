// Package errors provides structured errors for the depresolve CLI and
// worker.
//
// Resolution itself never fails on a bad lockfile or an unreachable
// resolver; those problems travel as deps.DependencyError values inside the
// result. The errors here are the ones that end a command: bad input, bad
// configuration, a strict scan with unresolved subprojects.
//
// # Error Codes
//
//   - INVALID_*: input or configuration validation failures
//   - *_NOT_FOUND: missing files or subprojects
//   - UNRESOLVED_DEPENDENCIES: a strict scan left subprojects unresolved
//   - RESOLVER_UNAVAILABLE, TIMEOUT: the dynamic resolver could not serve
//   - INTERNAL_ERROR: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown ecosystem %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidEcosystem Code = "INVALID_ECOSYSTEM"
	ErrCodeInvalidManifest  Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath      Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeFileNotFound       Code = "FILE_NOT_FOUND"
	ErrCodeSubprojectNotFound Code = "SUBPROJECT_NOT_FOUND"

	// Resolution errors
	ErrCodeUnresolved          Code = "UNRESOLVED_DEPENDENCIES"
	ErrCodeResolverUnavailable Code = "RESOLVER_UNAVAILABLE"
	ErrCodeTimeout             Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

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

// Exit codes returned by ExitCode.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitUnresolved = 3
)

// ExitCode maps err to a process exit status: usage errors for invalid
// input or configuration, a dedicated status for strict scans that left
// subprojects unresolved, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeInvalidEcosystem,
		ErrCodeInvalidManifest, ErrCodeInvalidPath:
		return ExitUsage
	case ErrCodeUnresolved:
		return ExitUnresolved
	}
	return ExitFailure
}
