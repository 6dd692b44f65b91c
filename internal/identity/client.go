package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultEndpoint = "https://identitytoolkit.googleapis.com"

// Session is an active, provider-issued proof of identity. It is read-only to
// this service; only the provider creates or expires sessions.
type Session struct {
	UserID       string
	Email        string
	Anonymous    bool
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Provider exposes the Identity Toolkit operations this service consumes.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	SignInAnonymously(ctx context.Context) (Session, error)
	SignInWithCustomToken(ctx context.Context, token string) (Session, error)
}

// Client talks to the Identity Toolkit REST API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewClient creates an Identity Toolkit client. endpoint may be empty to use
// the production API; set it to target the Auth emulator.
func NewClient(apiKey, endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     strings.TrimSpace(apiKey),
	}
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp creates a new email/password account and returns its session.
func (c *Client) SignUp(ctx context.Context, email, password string) (Session, error) {
	return c.call(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, false)
}

// SignInWithPassword verifies credentials and returns a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	return c.call(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, false)
}

// SignInAnonymously establishes a session with no credentials.
func (c *Client) SignInAnonymously(ctx context.Context) (Session, error) {
	return c.call(ctx, "accounts:signUp", map[string]any{
		"returnSecureToken": true,
	}, true)
}

// SignInWithCustomToken redeems a server-minted custom token. The token is
// screened locally before the network call so malformed input fails fast.
func (c *Client) SignInWithCustomToken(ctx context.Context, token string) (Session, error) {
	if err := screenCustomToken(token); err != nil {
		return Session{}, err
	}
	return c.call(ctx, "accounts:signInWithCustomToken", map[string]any{
		"token":             token,
		"returnSecureToken": true,
	}, false)
}

func (c *Client) call(ctx context.Context, method string, payload map[string]any, anonymous bool) (Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Session{}, fmt.Errorf("encode %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/v1/%s?key=%s", c.endpoint, method, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, &ProviderError{Code: CodeNetworkFailure}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error.Message == "" {
			return Session{}, &ProviderError{Code: CodeNetworkFailure, Status: resp.StatusCode}
		}
		// Messages may carry a suffix, e.g. "TOO_MANY_ATTEMPTS_TRY_LATER : ...".
		code, _, _ := strings.Cut(apiErr.Error.Message, " ")
		return Session{}, &ProviderError{Code: Code(code), Status: resp.StatusCode}
	}

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("decode %s response: %w", method, err)
	}

	sess := Session{
		UserID:       out.LocalID,
		Email:        out.Email,
		Anonymous:    anonymous,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
	}
	if secs, err := time.ParseDuration(out.ExpiresIn + "s"); err == nil && out.ExpiresIn != "" {
		sess.ExpiresAt = time.Now().Add(secs)
	}
	return sess, nil
}

// screenCustomToken rejects tokens that are not well-formed JWTs carrying a
// uid claim. Signature verification is the provider's job.
func screenCustomToken(token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return &ProviderError{Code: CodeInvalidToken}
	}
	if uid, _ := claims["uid"].(string); uid == "" {
		return &ProviderError{Code: CodeInvalidToken}
	}
	return nil
}
