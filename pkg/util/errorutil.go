package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the portal session engine.
const (
	CodeNetworkFailure          = "NETWORK_FAILURE"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodePermissionDenied        = "PERMISSION_DENIED"
	CodeInvalidProjectSelection = "INVALID_PROJECT_SELECTION"
	CodeSessionExpired          = "SESSION_EXPIRED"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewNetworkFailure wraps a transport or 5xx failure reaching the gateway.
func NewNetworkFailure(err error) error {
	return &DomainError{
		Code:       CodeNetworkFailure,
		Message:    "auth gateway unreachable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewInvalidCredentials reports a login or registration rejected by the gateway.
func NewInvalidCredentials(message string) error {
	return NewDomainError(CodeInvalidCredentials, message, http.StatusUnauthorized, nil)
}

// NewValidationError reports a local pre-network validation failure.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewPermissionDenied reports a capability or role check failure.
func NewPermissionDenied(message string) error {
	return NewDomainError(CodePermissionDenied, message, http.StatusForbidden, nil)
}

// NewInvalidProjectSelection reports a switch target outside the identity's
// project memberships.
func NewInvalidProjectSelection(projectID string) error {
	return NewDomainError(
		CodeInvalidProjectSelection,
		"project not available to this account",
		http.StatusForbidden,
		map[string]any{"project_id": projectID},
	)
}

// NewSessionExpired reports an identity fetch rejected as unauthorized.
func NewSessionExpired() error {
	return NewDomainError(CodeSessionExpired, "session expired", http.StatusUnauthorized, nil)
}

// ToDomainError converts generic errors to DomainError. Unrecognized errors
// are treated as transport failures.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeNetworkFailure,
		Message:    "auth gateway unreachable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
