package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error for transport mapping.
type Kind int

const (
	// KindInternal is the fallback for anything unclassified.
	KindInternal Kind = iota
	// KindNotFound covers both missing resources and resources the
	// principal does not own; callers cannot tell the two apart.
	KindNotFound
	// KindConflict covers business-rule violations such as duplicate
	// unique keys and active-entry collisions.
	KindConflict
	// KindInvalidInput covers malformed request shapes and field
	// constraint violations.
	KindInvalidInput
	// KindUnauthenticated covers missing or unverifiable principals.
	KindUnauthenticated
)

// Machine-readable error codes surfaced to API clients.
const (
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeProjectNotFound       = "PROJECT_NOT_FOUND"
	CodeTaskNotFound          = "TASK_NOT_FOUND"
	CodeTimeEntryNotFound     = "TIME_ENTRY_NOT_FOUND"
	CodeUserEmailExists       = "USER_EMAIL_ALREADY_EXISTS"
	CodeActiveTimeEntryExists = "ACTIVE_TIME_ENTRY_EXISTS"
	CodeNoActiveTimeEntry     = "NO_ACTIVE_TIME_ENTRY"
	CodeValidationError       = "VALIDATION_ERROR"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeInternal              = "INTERNAL_SERVER_ERROR"
)

// Error is a typed application error carrying a machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// NotFound builds a resource-missing-or-not-owned error.
func NotFound(code, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a business-rule violation error.
func Conflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Invalid builds a malformed-input error.
func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Code: CodeValidationError, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated builds a missing/invalid-principal error.
func Unauthenticated(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthenticated, Code: CodeInvalidCredentials, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unclassified failure. The wrapped error is kept for
// logging but never surfaced to clients.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "An unexpected error occurred", err: err}
}

// From extracts the *Error from err's chain, wrapping unclassified errors
// as Internal so every failure carries a kind and a code.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsCode reports whether err carries the given machine code.
func IsCode(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
