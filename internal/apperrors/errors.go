// Package apperrors provides typed error handling for the list-read service.
// It uses struct-based errors with separate user-safe and internal messages.
package apperrors

import "fmt"

// Code categorizes errors for consistent handling across the application.
type Code int

// Error codes for categorizing application errors.
const (
	// CodeUnknown indicates an unspecified error type
	CodeUnknown Code = iota
	// CodeNotFound indicates a requested resource does not exist
	CodeNotFound
	// CodeInvalidInput indicates malformed or invalid input
	CodeInvalidInput
	// CodeConfiguration indicates a deployment or integration mistake made by
	// the calling code, such as an unmapped sort key in strict mode
	CodeConfiguration
	// CodeIntegrity indicates returned data violates the read contract
	CodeIntegrity
	// CodeDatabase indicates a database operation failure
	CodeDatabase
)

// Error represents a domain error with separate user-safe and internal messages.
// The Message field is always safe to expose to clients.
// The Internal field contains debugging details and should only be logged.
type Error struct {
	Code     Code   // Error category for handler mapping
	Message  string // User-safe message (always exposable)
	Internal string // Internal details (for logging only)
	Field    string // Optional: which field caused the error
	Err      error  // Wrapped underlying error
}

// Sentinel errors for errors.Is checks. Matching is by code, so any *Error
// with the same code satisfies errors.Is against these.
var (
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvalidInput  = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrConfiguration = &Error{Code: CodeConfiguration, Message: "configuration error"}
	ErrIntegrity     = &Error{Code: CodeIntegrity, Message: "integrity violation"}
	ErrDatabaseError = &Error{Code: CodeDatabase, Message: "database error"}
)

// Error implements the error interface.
// Returns the user-safe message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithInternal adds internal debugging details to the error.
func (e *Error) WithInternal(format string, args ...any) *Error {
	e.Internal = fmt.Sprintf(format, args...)
	return e
}

// WithField adds field information to the error.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// Wrap wraps an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// String returns the string representation of the error code.
func (c Code) String() string {
	switch c {
	case CodeUnknown:
		return "unknown"
	case CodeNotFound:
		return "not_found"
	case CodeInvalidInput:
		return "invalid_input"
	case CodeConfiguration:
		return "configuration"
	case CodeIntegrity:
		return "integrity"
	case CodeDatabase:
		return "database"
	default:
		return fmt.Sprintf("unknown_code_%d", c)
	}
}

// Is reports whether target matches this error's code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// NotFound creates a new not found error with the given message.
func NotFound(message string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: message,
	}
}

// InvalidInput creates a new invalid input error with the given message.
func InvalidInput(message string) *Error {
	return &Error{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

// InvalidField creates an invalid input error tied to a field.
func InvalidField(field, message string) *Error {
	return InvalidInput(message).WithField(field)
}

// Configuration creates a new configuration error with the given message.
func Configuration(message string) *Error {
	return &Error{
		Code:    CodeConfiguration,
		Message: message,
	}
}

// Integrity creates a new integrity error with the given message.
func Integrity(message string) *Error {
	return &Error{
		Code:    CodeIntegrity,
		Message: message,
	}
}

// Database creates a new database error with the given message.
func Database(message string) *Error {
	return &Error{
		Code:    CodeDatabase,
		Message: message,
	}
}
