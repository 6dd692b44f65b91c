package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/account"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/identity"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/metrics"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/profile"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/session"
)

type fakeAccounts struct {
	registerFn func(context.Context, account.RegisterInput) (*account.AuthResult, error)
	loginFn    func(context.Context, string, string) (*account.AuthResult, error)
	signOuts   int
}

func (f *fakeAccounts) Register(ctx context.Context, in account.RegisterInput) (*account.AuthResult, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, in)
	}
	return nil, errors.New("registerFn not provided")
}

func (f *fakeAccounts) Login(ctx context.Context, email, password string) (*account.AuthResult, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, email, password)
	}
	return nil, errors.New("loginFn not provided")
}

func (f *fakeAccounts) SignOut(context.Context) {
	f.signOuts++
}

type stubProvider struct {
	sess identity.Session
}

func (p *stubProvider) SignUp(context.Context, string, string) (identity.Session, error) {
	return p.sess, nil
}

func (p *stubProvider) SignInWithPassword(context.Context, string, string) (identity.Session, error) {
	return p.sess, nil
}

func (p *stubProvider) SignInAnonymously(context.Context) (identity.Session, error) {
	return p.sess, nil
}

func (p *stubProvider) SignInWithCustomToken(context.Context, string) (identity.Session, error) {
	return p.sess, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(accounts account.Service, syncer *session.Synchronizer, store profile.Repository) *chi.Mux {
	r := chi.NewRouter()
	RegisterRoutes(r, accounts, syncer, store, testLogger())
	return r
}

func newIdleSynchronizer(store profile.Repository) *session.Synchronizer {
	return session.New(&stubProvider{}, identity.NewSessions(), store, testLogger(), metrics.Nop{})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	var got account.RegisterInput
	accounts := &fakeAccounts{
		registerFn: func(_ context.Context, in account.RegisterInput) (*account.AuthResult, error) {
			got = in
			return &account.AuthResult{UserID: "u1", Email: in.Email, Token: "tok", Role: in.Role}, nil
		},
	}
	store := profile.NewMemoryRepository()
	router := newTestRouter(accounts, newIdleSynchronizer(store), store)

	rec := doJSON(t, router, http.MethodPost, "/api/register",
		`{"email":"a@b.com","password":"Abc123!@","confirmPassword":"Abc123!@","role":"driver"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Email != "a@b.com" || got.Role != profile.RoleDriver {
		t.Fatalf("unexpected input passed through: %+v", got)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["success"] != true || resp["token"] != "tok" {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestRegisterValidationErrorIs400(t *testing.T) {
	accounts := &fakeAccounts{
		registerFn: func(context.Context, account.RegisterInput) (*account.AuthResult, error) {
			return nil, &account.ValidationError{Message: "the passwords do not match"}
		},
	}
	store := profile.NewMemoryRepository()
	router := newTestRouter(accounts, newIdleSynchronizer(store), store)

	rec := doJSON(t, router, http.MethodPost, "/api/register", `{"email":"a@b.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "the passwords do not match") {
		t.Fatalf("expected the validation message, got %s", rec.Body.String())
	}
}

func TestLoginProviderErrorStatuses(t *testing.T) {
	cases := []struct {
		code identity.Code
		want int
	}{
		{identity.CodeInvalidPassword, http.StatusUnauthorized},
		{identity.CodeEmailExists, http.StatusConflict},
		{identity.CodeTooManyAttempts, http.StatusTooManyRequests},
		{identity.CodeNetworkFailure, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			accounts := &fakeAccounts{
				loginFn: func(context.Context, string, string) (*account.AuthResult, error) {
					return nil, &identity.ProviderError{Code: tc.code}
				},
			}
			store := profile.NewMemoryRepository()
			router := newTestRouter(accounts, newIdleSynchronizer(store), store)

			rec := doJSON(t, router, http.MethodPost, "/api/login", `{"email":"a@b.com","password":"secret99"}`)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	accounts := &fakeAccounts{
		loginFn: func(_ context.Context, email, _ string) (*account.AuthResult, error) {
			return &account.AuthResult{UserID: "u1", Email: email, Token: "tok-9"}, nil
		},
	}
	store := profile.NewMemoryRepository()
	router := newTestRouter(accounts, newIdleSynchronizer(store), store)

	rec := doJSON(t, router, http.MethodPost, "/api/login", `{"email":"a@b.com","password":"secret99"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tok-9") {
		t.Fatalf("expected token in response, got %s", rec.Body.String())
	}
}

func TestLogout(t *testing.T) {
	accounts := &fakeAccounts{}
	store := profile.NewMemoryRepository()
	router := newTestRouter(accounts, newIdleSynchronizer(store), store)

	rec := doJSON(t, router, http.MethodPost, "/api/logout", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if accounts.signOuts != 1 {
		t.Fatalf("expected one sign-out, got %d", accounts.signOuts)
	}
}

func TestSessionEndpointWhileInitializing(t *testing.T) {
	store := profile.NewMemoryRepository()
	router := newTestRouter(&fakeAccounts{}, newIdleSynchronizer(store), store)

	rec := doJSON(t, router, http.MethodGet, "/api/session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Initializing || resp.View != "loading" || resp.Profile != nil {
		t.Fatalf("unexpected snapshot: %+v", resp)
	}
}

func TestSessionEndpointResolvedDriver(t *testing.T) {
	store := profile.NewMemoryRepository()
	rec := profile.NewForRole("d@b.com", profile.RoleDriver, time.Now())
	if err := store.Set(context.Background(), "drv-1", rec); err != nil {
		t.Fatal(err)
	}

	provider := &stubProvider{sess: identity.Session{UserID: "drv-1", Email: "d@b.com"}}
	syncer := session.New(provider, identity.NewSessions(), store, testLogger(), metrics.Nop{})

	resolved := make(chan session.Snapshot, 1)
	syncer.Watch(func(snap session.Snapshot) { resolved <- snap })
	syncer.Start(context.Background(), "")
	defer syncer.Stop()

	select {
	case <-resolved:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resolution")
	}

	router := newTestRouter(&fakeAccounts{}, syncer, store)
	res := doJSON(t, router, http.MethodGet, "/api/session", "")

	var resp sessionResponse
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Initializing || resp.View != "driver" {
		t.Fatalf("unexpected session response: %+v", resp)
	}
	if resp.Profile == nil || resp.Profile.Role != profile.RoleDriver {
		t.Fatalf("unexpected profile: %+v", resp.Profile)
	}
}

func TestPendingDriversEndpoint(t *testing.T) {
	store := profile.NewMemoryRepository()
	if err := store.Set(context.Background(), "drv-1", profile.NewForRole("d@b.com", profile.RoleDriver, time.Now())); err != nil {
		t.Fatal(err)
	}
	router := newTestRouter(&fakeAccounts{}, newIdleSynchronizer(store), store)

	rec := doJSON(t, router, http.MethodGet, "/api/drivers/pending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "drv-1") {
		t.Fatalf("expected pending driver in response, got %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/drivers/pending?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad limit, got %d", rec.Code)
	}
}

func TestMalformedBodyIs400(t *testing.T) {
	store := profile.NewMemoryRepository()
	router := newTestRouter(&fakeAccounts{}, newIdleSynchronizer(store), store)

	rec := doJSON(t, router, http.MethodPost, "/api/login", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
