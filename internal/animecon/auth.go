package animecon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// tokenCacheWindow bounds how long an access token is reused before the
// next call re-authenticates, regardless of the expiry the upstream
// reports.  Repeated calls within the window share one token.
const tokenCacheWindow = 45 * time.Minute

// tokenExpiryMargin is subtracted from the reported expiry so a token is
// never used right at its deadline.
const tokenExpiryMargin = time.Minute

// validate is the shared schema validator for decoded API responses.
var validate = validator.New()

// Credentials holds everything needed for the password-grant exchange
// against the AnimeCon authentication endpoint.  All fields are required;
// NewAuthClient rejects incomplete credentials.
type Credentials struct {
	AuthEndpoint string // absolute URL of the token endpoint
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Scopes       string // space separated scope list
}

// Token is the response of a successful password-grant request.  All four
// fields must be present and the token type must be "Bearer"; anything
// else indicates an incompatible upstream API.
type Token struct {
	TokenType    string `json:"token_type" validate:"required"`
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
	ExpiresIn    int64  `json:"expires_in" validate:"required"`
}

// AuthClient obtains bearer tokens from the AnimeCon auth endpoint and
// caches them for a bounded interval.  The cache is a single slot guarded
// by a mutex; concurrent authentications race harmlessly, last writer wins.
type AuthClient struct {
	creds Credentials
	httpc *http.Client

	mu          sync.Mutex
	cached      *Token
	cachedUntil time.Time
	force       bool
}

// AuthOption customises an AuthClient at construction time.
type AuthOption func(*AuthClient)

// WithAuthHTTPClient injects the HTTP transport used for token requests.
func WithAuthHTTPClient(httpc *http.Client) AuthOption {
	return func(a *AuthClient) { a.httpc = httpc }
}

// WithForceRefresh makes the first Authenticate call bypass any cached
// token.  Use it when the caller knows the cached credentials went stale
// (for example after a settings change).
func WithForceRefresh() AuthOption {
	return func(a *AuthClient) { a.force = true }
}

// NewAuthClient validates the credentials and returns a client.  Missing
// settings are a configuration error and fail construction.
func NewAuthClient(creds Credentials, opts ...AuthOption) (*AuthClient, error) {
	missing := ""
	switch {
	case creds.AuthEndpoint == "":
		missing = "auth endpoint"
	case creds.ClientID == "":
		missing = "client id"
	case creds.ClientSecret == "":
		missing = "client secret"
	case creds.Username == "":
		missing = "username"
	case creds.Password == "":
		missing = "password"
	case creds.Scopes == "":
		missing = "scopes"
	}
	if missing != "" {
		return nil, fmt.Errorf("animecon: missing %s in authentication settings", missing)
	}
	a := &AuthClient{creds: creds, httpc: http.DefaultClient}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ForceRefresh invalidates the cached token so the next Authenticate call
// performs a fresh password-grant exchange.
func (a *AuthClient) ForceRefresh() {
	a.mu.Lock()
	a.force = true
	a.mu.Unlock()
}

// Authenticate returns a bearer token for the configured account.  A
// cached token is reused while it remains within its cache window.  When
// the auth endpoint answers with a non-2xx status, (nil, nil) is returned
// and the caller decides whether to retry; transport failures and
// malformed 2xx responses are returned as errors.
func (a *AuthClient) Authenticate(ctx context.Context) (*Token, error) {
	a.mu.Lock()
	if !a.force && a.cached != nil && time.Now().Before(a.cachedUntil) {
		tok := *a.cached
		a.mu.Unlock()
		return &tok, nil
	}
	a.mu.Unlock()

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", a.creds.ClientID)
	form.Set("client_secret", a.creds.ClientSecret)
	form.Set("username", a.creds.Username)
	form.Set("password", a.creds.Password)
	form.Set("scopes", a.creds.Scopes)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.creds.AuthEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("animecon: build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("animecon: auth request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Authentication was refused; surface the absent token rather
		// than an error so the caller can decide on a retry policy.
		return nil, nil
	}

	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("animecon: decode auth response: %w", err)
	}
	if err := validate.Struct(tok); err != nil {
		return nil, fmt.Errorf("animecon: incomplete auth response: %w", err)
	}
	if tok.TokenType != "Bearer" {
		return nil, fmt.Errorf("animecon: unexpected token type %q, want Bearer", tok.TokenType)
	}

	until := time.Now().Add(a.cacheFor(tok.ExpiresIn))
	a.mu.Lock()
	a.cached = &tok
	a.cachedUntil = until
	a.force = false
	a.mu.Unlock()

	return &tok, nil
}

// cacheFor clamps the reported token lifetime to the cache window.
func (a *AuthClient) cacheFor(expiresIn int64) time.Duration {
	d := time.Duration(expiresIn)*time.Second - tokenExpiryMargin
	if d > tokenCacheWindow {
		d = tokenCacheWindow
	}
	if d < 0 {
		d = 0
	}
	return d
}
