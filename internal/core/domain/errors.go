package domain

import (
	"errors"
	"fmt"
)

// Error categories. Route handlers match on these with errors.Is.
var (
	ErrUnauthenticated = errors.New("invalid or missing credentials")
	ErrForbidden       = errors.New("access forbidden")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrTooManyAttempts = errors.New("too many failed login attempts")
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrSelfTarget         = fmt.Errorf("%w: cannot modify your own account", ErrConflict)
	ErrInvalidCredentials = &AuthenticationError{Reason: ReasonBadCredentials}
	ErrWrongPassword      = &ValidationError{Field: "current_password", Msg: "current password is incorrect"}
)

// AuthFailure names the internal cause of an authentication failure. It is
// for logs and metrics only and never leaves the process.
type AuthFailure string

const (
	ReasonMissingToken    AuthFailure = "missing_token"
	ReasonInvalidToken    AuthFailure = "invalid_token"
	ReasonAccountNotFound AuthFailure = "account_not_found"
	ReasonAccountDisabled AuthFailure = "account_disabled"
	ReasonMissingAccount  AuthFailure = "missing_account"
	ReasonBadCredentials  AuthFailure = "bad_credentials"
)

// AuthenticationError reports a failed identity check. Error always returns
// the generic message regardless of Reason.
type AuthenticationError struct {
	Reason AuthFailure
	Cause  error
}

func (e *AuthenticationError) Error() string { return ErrUnauthenticated.Error() }

func (e *AuthenticationError) Is(target error) bool { return target == ErrUnauthenticated }

func (e *AuthenticationError) Unwrap() error { return e.Cause }

// AuthorizationError reports a missing module capability.
type AuthorizationError struct {
	Module Module
	Action Action
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("insufficient permissions to %s in %s", e.Action, e.Module)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrForbidden }

// ValidationError reports a bad or missing input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthFailureReason extracts the internal reason from err, or "" when err is
// not an authentication failure.
func AuthFailureReason(err error) AuthFailure {
	var ae *AuthenticationError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}
