package bank

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrMissingToken         = errors.New("security token missing after login")
	ErrNotLoggedIn          = errors.New("no active session")
	ErrSessionExpired       = errors.New("session expired")

	ErrParsingFailed          = errors.New("failed to parse bank response")
	ErrUnsupportedAccountType = errors.New("unsupported account type for download")
)

// AuthError reports a failed login step. It matches ErrAuthenticationFailed
// with errors.Is, so callers can tell a rejected login apart from a rejected
// API request.
type AuthError struct {
	BankCode BankCode
	Step     string
	Cause    error
	Details  string
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("[%s] login step %s failed: %v", e.BankCode, e.Step, e.Cause)
	if e.Details != "" {
		msg += " - " + e.Details
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuthenticationFailed
}

// HTTPError is returned for any non-2xx response, before the body is
// interpreted.
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}
