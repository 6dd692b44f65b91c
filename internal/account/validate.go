package account

import (
	"regexp"
	"strings"
)

// ValidationError is a local form error. It is produced before any network
// call and its message is shown to the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

const passwordSymbols = "!@#$%^&*()"

// loginPasswordMin is the login form's pre-network check; composition rules
// apply only at registration.
const loginPasswordMin = 6

func validateEmail(email string) *ValidationError {
	if !emailPattern.MatchString(email) {
		return &ValidationError{Message: "please enter a valid email address"}
	}
	return nil
}

// validateRegistrationPassword enforces the strict ruleset. Each rule maps to
// its own message so users know what to fix.
func validateRegistrationPassword(password string) *ValidationError {
	switch {
	case len(password) < 8:
		return &ValidationError{Message: "password must be at least 8 characters long"}
	case !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }):
		return &ValidationError{Message: "password must contain at least one uppercase letter"}
	case !strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }):
		return &ValidationError{Message: "password must contain at least one lowercase letter"}
	case !strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }):
		return &ValidationError{Message: "password must contain at least one digit"}
	case !strings.ContainsAny(password, passwordSymbols):
		return &ValidationError{Message: "password must contain at least one symbol (" + passwordSymbols + ")"}
	}
	return nil
}

func validateLoginPassword(password string) *ValidationError {
	if len(password) < loginPasswordMin {
		return &ValidationError{Message: "password must be at least 6 characters long"}
	}
	return nil
}
