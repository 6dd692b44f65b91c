package account

import (
	"errors"
	"strings"
	"testing"

	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/identity"
)

func TestUserMessageProviderCodes(t *testing.T) {
	cases := []struct {
		code identity.Code
		want string
	}{
		{identity.CodeInvalidEmail, "the email address format is invalid"},
		{identity.CodeUserDisabled, "this account has been disabled"},
		{identity.CodeEmailNotFound, "incorrect email or password"},
		{identity.CodeInvalidPassword, "incorrect email or password"},
		{identity.CodeTooManyAttempts, "too many failed attempts, please try again later"},
		{identity.CodeNetworkFailure, "network problem, please try again"},
		{identity.CodeEmailExists, "this email address is already in use"},
		{identity.CodeWeakPassword, "the password is too weak"},
	}

	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			got := UserMessage(&identity.ProviderError{Code: tc.code})
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUserMessageUnknownCodeFallsBack(t *testing.T) {
	got := UserMessage(&identity.ProviderError{Code: "SOMETHING_NEW"})
	if !strings.Contains(got, "SOMETHING_NEW") {
		t.Fatalf("expected the raw code in the fallback message, got %q", got)
	}
}

func TestUserMessageValidationErrorIsVerbatim(t *testing.T) {
	got := UserMessage(&ValidationError{Message: "the passwords do not match"})
	if got != "the passwords do not match" {
		t.Fatalf("got %q", got)
	}
}

func TestUserMessageUnknownError(t *testing.T) {
	got := UserMessage(errors.New("boom"))
	if got == "" || strings.Contains(got, "boom") {
		t.Fatalf("expected a generic message hiding internals, got %q", got)
	}
}
