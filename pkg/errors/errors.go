// Package errors defines the structured error taxonomy of the onboarding
// gateway. Every terminal failure of the provisioning flow maps to exactly one
// error code and one HTTP status.
package errors

import (
	"fmt"
	"net/http"
)

// Error codes surfaced by the gateway.
const (
	CodeInvalidIdentifier      = "invalid_identifier"
	CodeNonceExpiredOrReplayed = "nonce_expired_or_replayed"
	CodeOdooNetworkError       = "odoo_network_error"
	CodeOdooCreationFailed     = "odoo_creation_failed"
	CodeInvalidRequest         = "invalid_request"
	CodeFlowStateInvalid       = "flow_state_invalid"
	CodeDatabaseOperation      = "database_operation_failed"
	CodeInternal               = "internal_error"
)

// AppError is a structured application error carrying the wire code and the
// HTTP status the handlers respond with.
type AppError struct {
	Code        string
	HTTPStatus  int
	Message     string
	Description string
	cause       error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap supports errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithError returns a copy of the error with the given cause attached.
func (e *AppError) WithError(cause error) *AppError {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithMessage returns a copy of the error with a more specific message.
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

// New creates a new AppError.
func New(code string, httpStatus int, message, description string) *AppError {
	return &AppError{
		Code:        code,
		HTTPStatus:  httpStatus,
		Message:     message,
		Description: description,
	}
}

var (
	// ErrInvalidIdentifier rejects tenant database names outside [a-z0-9_].
	ErrInvalidIdentifier = New(CodeInvalidIdentifier, http.StatusBadRequest,
		"Invalid database name.",
		"Use lowercase letters, numbers, and underscores only.")

	// ErrNonceExpiredOrReplayed rejects a creation call whose one-time token
	// was already consumed, never issued, or expired.
	ErrNonceExpiredOrReplayed = New(CodeNonceExpiredOrReplayed, http.StatusConflict,
		"Expired or invalid request (nonce).",
		"The creation request token was already used or has expired. Restart from the details page.")

	// ErrInvalidRequest covers malformed request bodies.
	ErrInvalidRequest = New(CodeInvalidRequest, http.StatusBadRequest,
		"Invalid request.",
		"The request body is missing required fields or is malformed.")

	// ErrFlowStateInvalid rejects a missing or tampered flow token.
	ErrFlowStateInvalid = New(CodeFlowStateInvalid, http.StatusBadRequest,
		"Onboarding session expired.",
		"Start again from the company form.")

	// ErrDatabaseOperation wraps intake store failures.
	ErrDatabaseOperation = New(CodeDatabaseOperation, http.StatusInternalServerError,
		"Database operation failed.", "")

	// ErrInternalServer is the fallback for unclassified failures.
	ErrInternalServer = New(CodeInternal, http.StatusInternalServerError,
		"Internal server error.", "")
)

// ErrOdooNetwork reports a transport failure reaching Odoo during creation.
func ErrOdooNetwork(cause error) *AppError {
	return New(CodeOdooNetworkError, http.StatusBadGateway,
		fmt.Sprintf("Network error to Odoo: %v", cause), "").WithError(cause)
}

// ErrOdooCreationFailed reports that the tenant database is still absent after
// the creation attempt; status is the HTTP status Odoo answered with.
func ErrOdooCreationFailed(status int) *AppError {
	return New(CodeOdooCreationFailed, http.StatusBadGateway,
		fmt.Sprintf("Odoo error HTTP %d", status), "")
}

// AsAppError extracts an AppError from an error chain, falling back to
// ErrInternalServer for unclassified errors.
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternalServer.WithError(err)
}
