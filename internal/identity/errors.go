package identity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("identity: invalid input")
	ErrProfileNotFound = errors.New("identity: profile not found")
)

// ProviderErrorCode classifies failures reported by the identity provider.
type ProviderErrorCode string

const (
	ProviderMalformedEmail     ProviderErrorCode = "malformed_email"
	ProviderWeakPassword       ProviderErrorCode = "weak_password"
	ProviderDuplicateAccount   ProviderErrorCode = "duplicate_account"
	ProviderInvalidCredentials ProviderErrorCode = "invalid_credentials"
	ProviderUnknownAccount     ProviderErrorCode = "unknown_account"
	ProviderTransport          ProviderErrorCode = "transport"
)

// ProviderError wraps a failure reported by the external identity provider.
// The message is the provider-supplied string and is surfaced to users
// unmodified.
type ProviderError struct {
	Code    ProviderErrorCode
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("identity provider error: %s", e.Code)
}

// NewProviderError constructs a ProviderError with the given code and
// provider-supplied message.
func NewProviderError(code ProviderErrorCode, msg string) *ProviderError {
	return &ProviderError{Code: code, Message: msg}
}

// IsProviderCode reports whether err is a ProviderError carrying code.
func IsProviderCode(err error, code ProviderErrorCode) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}

// StoreError wraps a transport or read failure from the profile store.
// A missing profile is ErrProfileNotFound, not a StoreError.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("profile store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
