// Package errors defines the application error taxonomy. Every error that
// crosses the usecase boundary implements AppError so the HTTP layer can map
// it to a status code without inspecting internals. User-facing messages for
// authentication failures stay deliberately generic to avoid account
// enumeration; the precise cause is logged server-side only.
package errors

import (
	"net/http"
	"strconv"

	"atrium/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Validation errors (malformed input, weak password, missing field)
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Invalid input",
		"",
	)

	ErrPasswordStrength = NewBaseError(
		http.StatusBadRequest,
		"PASSWORD_STRENGTH",
		"Password must be at least 8 characters and contain uppercase, lowercase, digit and special characters",
		"",
	)

	ErrPasswordReused = NewBaseError(
		http.StatusBadRequest,
		"PASSWORD_REUSED",
		"Password was used recently, please choose a different one",
		"",
	)

	ErrTokenMalformed = NewBaseError(
		http.StatusBadRequest,
		"TOKEN_MALFORMED",
		"Invalid token",
		"",
	)

	// Authentication errors. Wording stays generic on purpose.
	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Invalid email or password",
		"",
	)

	ErrTokenInvalid = NewBaseError(
		http.StatusBadRequest,
		"TOKEN_INVALID",
		"This link is invalid or has expired",
		"",
	)

	ErrSessionInvalid = NewBaseError(
		http.StatusUnauthorized,
		"SESSION_INVALID",
		"Session is invalid or has expired",
		"",
	)

	ErrTwoFactorInvalid = NewBaseError(
		http.StatusUnauthorized,
		"TWO_FACTOR_INVALID",
		"Invalid verification code",
		"",
	)

	ErrTwoFactorRequired = NewBaseError(
		http.StatusUnauthorized,
		"TWO_FACTOR_REQUIRED",
		"Two-factor verification required",
		"",
	)

	ErrTwoFactorNotConfigured = NewBaseError(
		http.StatusBadRequest,
		"TWO_FACTOR_NOT_CONFIGURED",
		"Two-factor authentication is not set up",
		"",
	)

	ErrTwoFactorAlreadyEnabled = NewBaseError(
		http.StatusConflict,
		"TWO_FACTOR_ALREADY_ENABLED",
		"Two-factor authentication is already enabled",
		"",
	)

	// Locked accounts surface as a generic auth failure to the end user;
	// the distinct code exists for server-side logging only.
	ErrAccountLocked = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Invalid email or password",
		"",
	)

	// OAuth errors
	ErrOAuthFailed = NewBaseError(
		http.StatusUnauthorized,
		"OAUTH_FAILED",
		"External sign-in failed",
		"",
	)

	ErrOAuthStateInvalid = NewBaseError(
		http.StatusBadRequest,
		"OAUTH_STATE_INVALID",
		"Sign-in request expired, please try again",
		"",
	)

	ErrOAuthLinkRequired = NewBaseError(
		http.StatusConflict,
		"OAUTH_LINK_REQUIRED",
		"An account with this email already exists, confirm linking to continue",
		"",
	)

	ErrOAuthNotLinked = NewBaseError(
		http.StatusBadRequest,
		"OAUTH_NOT_LINKED",
		"No external provider is linked to this account",
		"",
	)

	ErrUnlinkNeedsPassword = NewBaseError(
		http.StatusBadRequest,
		"UNLINK_NEEDS_PASSWORD",
		"Set a password before unlinking the external provider",
		"",
	)

	// Resource errors. Only used where enumeration risk is low.
	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"Resource not found",
		"",
	)

	ErrSessionNotFound = NewBaseError(
		http.StatusNotFound,
		"SESSION_NOT_FOUND",
		"Session not found",
		"",
	)

	ErrAccountAlreadyExists = NewBaseError(
		http.StatusConflict,
		"ACCOUNT_ALREADY_EXISTS",
		"This email is already registered",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)
)

// TokenExpiredError marks a well-formed bearer token that no longer works:
// past its expiry, already consumed, or superseded by a newer one. Clients
// can tell it apart from a malformed link and offer to start over.
type TokenExpiredError struct{}

// ErrTokenExpired is the shared instance; the type carries no state.
var ErrTokenExpired = &TokenExpiredError{}

// Error implements the error interface
func (e *TokenExpiredError) Error() string {
	return "token expired"
}

// HTTPCode returns the HTTP status code
func (e *TokenExpiredError) HTTPCode() int {
	return http.StatusBadRequest
}

// ErrorCode returns the business error code
func (e *TokenExpiredError) ErrorCode() string {
	return "TOKEN_EXPIRED"
}

// Message returns the user-friendly error message
func (e *TokenExpiredError) Message() string {
	return "This link has expired, please request a new one"
}

// Details returns detailed error information
func (e *TokenExpiredError) Details() string {
	return "the token is expired or was already used"
}

// RateLimitError is returned when an action exceeds its attempt budget.
// RetryAfter is the number of seconds until the window resets.
type RateLimitError struct {
	RetryAfter int
}

// NewRateLimitError creates a rate-limit error with the given retry-after seconds.
func NewRateLimitError(retryAfterSeconds int) *RateLimitError {
	return &RateLimitError{RetryAfter: retryAfterSeconds}
}

// Error implements the error interface
func (e *RateLimitError) Error() string {
	return "too many attempts, retry after " + strconv.Itoa(e.RetryAfter) + "s"
}

// HTTPCode returns the HTTP status code
func (e *RateLimitError) HTTPCode() int {
	return http.StatusTooManyRequests
}

// ErrorCode returns the business error code
func (e *RateLimitError) ErrorCode() string {
	return "RATE_LIMITED"
}

// Message returns the user-friendly error message
func (e *RateLimitError) Message() string {
	return "Too many attempts, please try again later"
}

// Details returns detailed error information
func (e *RateLimitError) Details() string {
	return "retry after " + strconv.Itoa(e.RetryAfter) + " seconds"
}

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
