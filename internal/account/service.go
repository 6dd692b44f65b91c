// Package account implements the credential intake operations behind the
// login and registration forms.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/identity"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/metrics"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/profile"
)

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Role            profile.Role
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	UserID string
	Email  string
	Token  string
	Role   profile.Role
}

// Service defines the account operations.
type Service interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	SignOut(ctx context.Context)
}

type service struct {
	provider identity.Provider
	sessions *identity.Sessions
	store    profile.Repository
	logger   *slog.Logger
	recorder metrics.Recorder
	now      func() time.Time
}

// NewService creates a new account service.
func NewService(provider identity.Provider, sessions *identity.Sessions, store profile.Repository, logger *slog.Logger, recorder metrics.Recorder) Service {
	return &service{
		provider: provider,
		sessions: sessions,
		store:    store,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// Register validates the form locally, creates the account with the provider,
// writes the profile record for the chosen role and then announces the new
// session. The record is written before the announcement so the synchronizer
// finds the chosen role rather than lazily defaulting one.
func (s *service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if verr := validateEmail(in.Email); verr != nil {
		return nil, verr
	}
	if verr := validateRegistrationPassword(in.Password); verr != nil {
		return nil, verr
	}
	if in.Password != in.ConfirmPassword {
		return nil, &ValidationError{Message: "the passwords do not match"}
	}
	if !in.Role.Valid() {
		return nil, &ValidationError{Message: "please choose a valid account type"}
	}

	sess, err := s.provider.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		s.logger.Warn("registration rejected by provider", "email", in.Email, "error", err)
		return nil, err
	}

	rec := profile.NewForRole(sess.Email, in.Role, s.now())
	if err := s.store.Set(ctx, sess.UserID, rec); err != nil {
		// The account exists at the provider; the synchronizer will create a
		// default record on the next session change, losing the chosen role.
		s.logger.Error("write profile record after sign-up", "userId", sess.UserID, "error", err)
		return nil, fmt.Errorf("store profile record: %w", err)
	}

	s.recorder.RecordRegistration(string(in.Role))
	s.sessions.Announce(&sess)

	return &AuthResult{UserID: sess.UserID, Email: sess.Email, Token: sess.IDToken, Role: in.Role}, nil
}

// Login validates locally, verifies credentials with the provider and
// announces the session.
func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if verr := validateEmail(email); verr != nil {
		return nil, verr
	}
	if verr := validateLoginPassword(password); verr != nil {
		return nil, verr
	}

	sess, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.recorder.RecordSignIn("failure")
		s.logger.Warn("login rejected", "email", email, "error", err)
		return nil, err
	}

	s.recorder.RecordSignIn("success")
	s.sessions.Announce(&sess)

	return &AuthResult{UserID: sess.UserID, Email: sess.Email, Token: sess.IDToken}, nil
}

// SignOut announces a signed-out state; the provider session simply stops
// being used.
func (s *service) SignOut(_ context.Context) {
	s.sessions.Announce(nil)
}
