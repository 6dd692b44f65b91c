package account

import (
	"errors"
	"fmt"

	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/identity"
)

// userMessages is the fixed mapping from provider error codes to user-facing
// strings. Not-found and wrong-password share one message so the form does
// not reveal which half was wrong.
var userMessages = map[identity.Code]string{
	identity.CodeInvalidEmail:    "the email address format is invalid",
	identity.CodeUserDisabled:    "this account has been disabled",
	identity.CodeEmailNotFound:   "incorrect email or password",
	identity.CodeInvalidPassword: "incorrect email or password",
	identity.CodeInvalidLogin:    "incorrect email or password",
	identity.CodeTooManyAttempts: "too many failed attempts, please try again later",
	identity.CodeNetworkFailure:  "network problem, please try again",
	identity.CodeEmailExists:     "this email address is already in use",
	identity.CodeWeakPassword:    "the password is too weak",
}

// UserMessage converts any error from the account operations into the string
// shown to the user. Unrecognized provider codes fall back to a generic
// template carrying the raw code.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if pe := identity.AsProviderError(err); pe != nil {
		if msg, ok := userMessages[pe.Code]; ok {
			return msg
		}
		return fmt.Sprintf("authentication failed (%s), please try again", pe.Code)
	}
	return "something went wrong, please try again"
}
