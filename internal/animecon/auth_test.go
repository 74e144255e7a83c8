package animecon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testCredentials(endpoint string) Credentials {
	return Credentials{
		AuthEndpoint: endpoint,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Username:     "importer@animecon.example",
		Password:     "hunter2",
		Scopes:       "program:read",
	}
}

func tokenResponse() Token {
	return Token{
		TokenType:    "Bearer",
		AccessToken:  "access-abc",
		RefreshToken: "refresh-def",
		ExpiresIn:    3600,
	}
}

func TestNewAuthClientRejectsIncompleteCredentials(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Credentials)
		wantSubstr string
	}{
		{"missing endpoint", func(c *Credentials) { c.AuthEndpoint = "" }, "auth endpoint"},
		{"missing client id", func(c *Credentials) { c.ClientID = "" }, "client id"},
		{"missing client secret", func(c *Credentials) { c.ClientSecret = "" }, "client secret"},
		{"missing username", func(c *Credentials) { c.Username = "" }, "username"},
		{"missing password", func(c *Credentials) { c.Password = "" }, "password"},
		{"missing scopes", func(c *Credentials) { c.Scopes = "" }, "scopes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := testCredentials("https://auth.animecon.example/token")
			tt.mutate(&creds)
			_, err := NewAuthClient(creds)
			if err == nil {
				t.Fatal("NewAuthClient() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantSubstr)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		for key, want := range map[string]string{
			"grant_type":    "password",
			"client_id":     "client-id",
			"client_secret": "client-secret",
			"username":      "importer@animecon.example",
			"password":      "hunter2",
			"scopes":        "program:read",
		} {
			if got := r.PostFormValue(key); got != want {
				t.Errorf("form[%s] = %q, want %q", key, got, want)
			}
		}
		_ = json.NewEncoder(w).Encode(tokenResponse())
	}))
	defer srv.Close()

	a, err := NewAuthClient(testCredentials(srv.URL))
	if err != nil {
		t.Fatalf("NewAuthClient() error: %v", err)
	}

	tok, err := a.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if tok == nil || tok.AccessToken != "access-abc" {
		t.Fatalf("token = %#v", tok)
	}

	// Second call inside the cache window reuses the token.
	tok2, err := a.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("second Authenticate() error: %v", err)
	}
	if tok2 == nil || tok2.AccessToken != tok.AccessToken {
		t.Fatalf("second token = %#v", tok2)
	}
	if requests != 1 {
		t.Errorf("auth endpoint hit %d times, want 1", requests)
	}
}

func TestAuthenticateRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_grant", http.StatusUnauthorized)
	}))
	defer srv.Close()

	a, err := NewAuthClient(testCredentials(srv.URL))
	if err != nil {
		t.Fatalf("NewAuthClient() error: %v", err)
	}

	tok, err := a.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("a refused grant must not be an error, got: %v", err)
	}
	if tok != nil {
		t.Errorf("token = %#v, want nil on refusal", tok)
	}
}

func TestAuthenticateMalformedResponses(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantSubstr string
	}{
		{"not json", "oops", "decode auth response"},
		{"missing access token", `{"token_type":"Bearer","refresh_token":"r","expires_in":3600}`, "incomplete auth response"},
		{"missing expiry", `{"token_type":"Bearer","access_token":"a","refresh_token":"r"}`, "incomplete auth response"},
		{"wrong token type", `{"token_type":"MAC","access_token":"a","refresh_token":"r","expires_in":3600}`, "unexpected token type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a, err := NewAuthClient(testCredentials(srv.URL))
			if err != nil {
				t.Fatalf("NewAuthClient() error: %v", err)
			}
			_, err = a.Authenticate(context.Background())
			if err == nil {
				t.Fatal("Authenticate() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantSubstr)
			}
		})
	}
}

func TestForceRefresh(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_ = json.NewEncoder(w).Encode(tokenResponse())
	}))
	defer srv.Close()

	a, err := NewAuthClient(testCredentials(srv.URL))
	if err != nil {
		t.Fatalf("NewAuthClient() error: %v", err)
	}

	if _, err := a.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	a.ForceRefresh()
	if _, err := a.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() after ForceRefresh error: %v", err)
	}
	if requests != 2 {
		t.Errorf("auth endpoint hit %d times, want 2", requests)
	}

	// The refresh is one-shot; the follow-up call is served from cache.
	if _, err := a.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if requests != 2 {
		t.Errorf("auth endpoint hit %d times after cached call, want 2", requests)
	}
}

func TestWithForceRefreshOption(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_ = json.NewEncoder(w).Encode(tokenResponse())
	}))
	defer srv.Close()

	a, err := NewAuthClient(testCredentials(srv.URL), WithForceRefresh())
	if err != nil {
		t.Fatalf("NewAuthClient() error: %v", err)
	}
	if _, err := a.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if requests != 1 {
		t.Errorf("auth endpoint hit %d times, want 1", requests)
	}
}

func TestCacheFor(t *testing.T) {
	a := &AuthClient{}
	tests := []struct {
		expiresIn int64
		want      string
	}{
		{3600, "45m0s"},  // clamped to the cache window
		{600, "9m0s"},    // margin subtracted
		{30, "0s"},       // never negative
	}
	for _, tt := range tests {
		if got := a.cacheFor(tt.expiresIn).String(); got != tt.want {
			t.Errorf("cacheFor(%d) = %s, want %s", tt.expiresIn, got, tt.want)
		}
	}
}
