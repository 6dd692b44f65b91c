package identity

import (
	"errors"
	"fmt"
)

// Code identifies a provider-reported failure. The values mirror the error
// messages returned by the Identity Toolkit API.
type Code string

const (
	CodeInvalidEmail     Code = "INVALID_EMAIL"
	CodeEmailExists      Code = "EMAIL_EXISTS"
	CodeEmailNotFound    Code = "EMAIL_NOT_FOUND"
	CodeInvalidPassword  Code = "INVALID_PASSWORD"
	CodeInvalidLogin     Code = "INVALID_LOGIN_CREDENTIALS"
	CodeUserDisabled     Code = "USER_DISABLED"
	CodeTooManyAttempts  Code = "TOO_MANY_ATTEMPTS_TRY_LATER"
	CodeWeakPassword     Code = "WEAK_PASSWORD"
	CodeInvalidToken     Code = "INVALID_CUSTOM_TOKEN"
	CodeNetworkFailure   Code = "NETWORK_REQUEST_FAILED"
	CodeOperationBlocked Code = "OPERATION_NOT_ALLOWED"
)

// ProviderError is a failure reported by (or while reaching) the identity provider.
type ProviderError struct {
	Code   Code
	Status int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider: %s", e.Code)
}

// AsProviderError unwraps err to a ProviderError, or returns nil.
func AsProviderError(err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}
