package linkauth

import (
	"errors"
	"fmt"
)

// Sentinel errors used across the store and auth layers.
//
// ErrNotFound is a legitimate lookup outcome and is routed by callers
// (resolver branches, generic 401s). Any other store error is an
// infrastructure failure and must abort the request instead of being
// treated as "not found".
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error codes returned in JSON error bodies.
const (
	ErrCodeInvalidCreds = "invalid_credentials"
	ErrCodeMissingField = "missing_field"
	ErrCodeInvalidEmail = "invalid_email"
	ErrCodeWeakPassword = "weak_password"
)

// AuthError carries a machine-readable code and the form field it relates
// to, alongside the human-readable message.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAuthError creates an AuthError with the given code, message and field.
func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}
