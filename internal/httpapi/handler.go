package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/account"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/identity"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/profile"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/session"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/view"
)

const (
	serviceTimeout   = 8 * time.Second
	maxAuthBodyBytes = 16 * 1024
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

type sessionResponse struct {
	Initializing bool             `json:"initializing"`
	View         view.Dashboard   `json:"view"`
	Profile      *session.Profile `json:"profile"`
}

// RegisterRoutes registers the auth flow routes.
func RegisterRoutes(r chi.Router, accounts account.Service, syncer *session.Synchronizer, store profile.Repository, logger *slog.Logger) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Recoverer)

		r.Post("/register", registerHandler(accounts, logger))
		r.Post("/login", loginHandler(accounts, logger))
		r.Post("/logout", logoutHandler(accounts))
		r.Get("/session", sessionHandler(syncer))
		r.Get("/drivers/pending", pendingDriversHandler(store, logger))
	})
}

func registerHandler(accounts account.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		result, err := accounts.Register(ctx, account.RegisterInput{
			Email:           req.Email,
			Password:        req.Password,
			ConfirmPassword: req.ConfirmPassword,
			Role:            profile.Role(req.Role),
		})
		if err != nil {
			writeAuthError(w, r, logger, "registration failed", err)
			return
		}

		writeJSON(w, http.StatusCreated, authResponse{
			Success: true,
			Message: "registration successful, you can now sign in",
			Token:   result.Token,
			UserID:  result.UserID,
		})
	}
}

func loginHandler(accounts account.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		result, err := accounts.Login(ctx, req.Email, req.Password)
		if err != nil {
			writeAuthError(w, r, logger, "login failed", err)
			return
		}

		writeJSON(w, http.StatusOK, authResponse{
			Success: true,
			Token:   result.Token,
			UserID:  result.UserID,
		})
	}
}

func logoutHandler(accounts account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts.SignOut(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

func sessionHandler(syncer *session.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := syncer.Snapshot()
		writeJSON(w, http.StatusOK, sessionResponse{
			Initializing: snap.Initializing,
			View:         view.Resolve(snap),
			Profile:      snap.Profile,
		})
	}
}

func pendingDriversHandler(store profile.Repository, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = parsed
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		pending, err := store.ListPendingDrivers(ctx, limit)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to list pending drivers", err)
			writeError(w, http.StatusInternalServerError, "failed to list pending drivers")
			return
		}
		if pending == nil {
			pending = []profile.PendingDriver{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"drivers": pending})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeAuthError converts account errors to the HTTP surface: local
// validation failures are 400s; provider codes map to their closest status;
// both carry the fixed user message.
func writeAuthError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	var ve *account.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Message)
		return
	}

	if pe := identity.AsProviderError(err); pe != nil {
		writeError(w, providerStatus(pe.Code), account.UserMessage(err))
		return
	}

	logRequestError(r.Context(), logger, msg, err)
	writeError(w, http.StatusInternalServerError, account.UserMessage(err))
}

func providerStatus(code identity.Code) int {
	switch code {
	case identity.CodeEmailExists:
		return http.StatusConflict
	case identity.CodeTooManyAttempts:
		return http.StatusTooManyRequests
	case identity.CodeNetworkFailure:
		return http.StatusBadGateway
	case identity.CodeInvalidEmail, identity.CodeWeakPassword:
		return http.StatusBadRequest
	default:
		return http.StatusUnauthorized
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func logRequestError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	attrs := []any{"error", err}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, "requestId", reqID)
	}
	logger.Error(msg, attrs...)
}
