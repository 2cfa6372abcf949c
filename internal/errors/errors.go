// Package errors provides the structured error value returned by every
// shelfwise data-access operation.
//
// Usage:
//
//	// In the repository - return typed errors
//	if taken {
//	    return nil, hint, errors.Duplicate("username or email already registered")
//	}
//
//	// In callers - branch on the stable key
//	if errors.Is(err, errors.ErrDuplicate) {
//	    ...
//	}
//
//	// Or inspect the value directly
//	e := errors.From(err)
//	switch e.Status {
//	case http.StatusUnauthorized:
//	    ...
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Key is a stable, machine-readable error key.
type Key string

// Keys used throughout the application. Each key has exactly one status,
// except KeyGeneric which mirrors the upstream response status.
const (
	KeyUnauthorized         Key = "error.unauthorized"
	KeyInvalidCredentials   Key = "error.invalid_credentials"
	KeyTimeout              Key = "timeout"
	KeyBadContentType       Key = "bad_content_type"
	KeyInvalidContentType   Key = "invalid_content_type"
	KeyValidation           Key = "error.validation"
	KeyDuplicate            Key = "error.duplicate"
	KeyInvalidState         Key = "error.invalid_state"
	KeyAlreadyAuthenticated Key = "error.already_authenticated"
	KeyLikedLimit           Key = "error.liked_limit"
	KeyNotFound             Key = "error.not_found"
	KeyGeneric              Key = "error.generic"
	KeyFetch                Key = "error.fetch"
	KeyDecode               Key = "error.decode"
	KeyInternal             Key = "error.internal"
)

// Status returns the canonical HTTP status for a key.
func (k Key) Status() int {
	switch k {
	case KeyUnauthorized, KeyInvalidCredentials:
		return http.StatusUnauthorized
	case KeyTimeout:
		return http.StatusRequestTimeout
	case KeyBadContentType, KeyInvalidContentType:
		return http.StatusUnsupportedMediaType
	case KeyValidation, KeyDuplicate, KeyInvalidState, KeyAlreadyAuthenticated, KeyLikedLimit:
		return http.StatusBadRequest
	case KeyNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes a single invalid field.
type FieldError struct {
	FieldName  string `json:"fieldName"`
	FieldValue string `json:"fieldValue"`
	MessageKey Key    `json:"messageKey"`
	Message    string `json:"message"`
}

// Error is the structured failure value of the data-access layer.
type Error struct {
	Status     int          `json:"status"`
	MessageKey Key          `json:"messageKey"`
	Message    string       `json:"message"`
	Details    []FieldError `json:"errorDetails,omitempty"`
	cause      error        // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same MessageKey.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.MessageKey == t.MessageKey
	}
	return false
}

// WithDetails returns a copy of the error carrying field-level details.
func (e *Error) WithDetails(details ...FieldError) *Error {
	c := *e
	c.Details = append([]FieldError(nil), details...)
	return &c
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// Sentinel errors for use with errors.Is().
var (
	ErrUnauthorized         = newError(KeyUnauthorized, "unauthorized")
	ErrInvalidCredentials   = newError(KeyInvalidCredentials, "invalid credentials")
	ErrTimeout              = newError(KeyTimeout, "request timed out")
	ErrBadContentType       = newError(KeyBadContentType, "bad content type")
	ErrInvalidContentType   = newError(KeyInvalidContentType, "invalid content type")
	ErrValidation           = newError(KeyValidation, "validation failed")
	ErrDuplicate            = newError(KeyDuplicate, "duplicate user")
	ErrInvalidState         = newError(KeyInvalidState, "invalid user state")
	ErrAlreadyAuthenticated = newError(KeyAlreadyAuthenticated, "already authenticated")
	ErrLikedLimit           = newError(KeyLikedLimit, "liked books limit reached")
	ErrNotFound             = newError(KeyNotFound, "not found")
	ErrGeneric              = newError(KeyGeneric, "something went wrong")
	ErrFetch                = newError(KeyFetch, "network request failed")
	ErrDecode               = newError(KeyDecode, "malformed response body")
	ErrInternal             = newError(KeyInternal, "internal error")
)

func newError(key Key, msg string) *Error {
	return &Error{Status: key.Status(), MessageKey: key, Message: msg}
}

// Constructor functions for creating errors with custom messages.

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return newError(KeyUnauthorized, msg)
}

// InvalidCredentials creates the single error used for every failed login.
func InvalidCredentials() *Error {
	return newError(KeyInvalidCredentials, "invalid username or password")
}

// Timeout creates a timeout error.
func Timeout(msg string) *Error {
	return newError(KeyTimeout, msg)
}

// BadContentType reports a response whose media type differs from the expected one.
func BadContentType(got string) *Error {
	return newError(KeyBadContentType, fmt.Sprintf("Bad content type <%s>", got))
}

// InvalidContentType reports a media type the engine cannot decode.
func InvalidContentType(got string) *Error {
	return newError(KeyInvalidContentType, fmt.Sprintf("Invalid content type <%s>", got))
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return newError(KeyValidation, msg)
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return newError(KeyValidation, fmt.Sprintf(format, args...))
}

// ValidationWithDetails creates a validation error with field details.
func ValidationWithDetails(msg string, details []FieldError) *Error {
	return newError(KeyValidation, msg).WithDetails(details...)
}

// Duplicate creates a duplicate registration error.
func Duplicate(msg string) *Error {
	return newError(KeyDuplicate, msg)
}

// InvalidState creates an invalid user state error.
func InvalidState(msg string) *Error {
	return newError(KeyInvalidState, msg)
}

// AlreadyAuthenticated creates an already authenticated error.
func AlreadyAuthenticated(msg string) *Error {
	return newError(KeyAlreadyAuthenticated, msg)
}

// LikedLimit creates a liked books limit error.
func LikedLimit(limit int) *Error {
	return newError(KeyLikedLimit, fmt.Sprintf("cannot like more than %d books", limit))
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return newError(KeyNotFound, msg)
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return newError(KeyNotFound, fmt.Sprintf(format, args...))
}

// Generic creates an error for an unsuccessful upstream status.
func Generic(status int) *Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &Error{Status: status, MessageKey: KeyGeneric, Message: "something went wrong"}
}

// Fetch wraps a transport-level failure.
func Fetch(err error) *Error {
	return newError(KeyFetch, "network request failed").WithCause(err)
}

// Decode wraps a body decoding failure.
func Decode(err error) *Error {
	return newError(KeyDecode, "malformed response body").WithCause(err)
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return newError(KeyInternal, msg)
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return newError(KeyInternal, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with a key and message.
func Wrap(err error, key Key, msg string) *Error {
	return newError(key, msg).WithCause(err)
}

// From returns err as an *Error. Errors that are not already structured
// become internal errors carrying the original as cause.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KeyInternal, "internal error")
}
