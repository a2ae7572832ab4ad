package authcore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeProvider is a stand-in OAuth2 provider: token endpoint plus
// profile and email endpoints serving canned payloads.
type fakeProvider struct {
	server  *httptest.Server
	profile map[string]any
	emails  []map[string]any

	rejectCode bool
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	p := &fakeProvider{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if p.rejectCode {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"provider-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p.profile)
	})
	mux.HandleFunc("/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p.emails)
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) configure(cfg *Config) {
	cfg.OAuth.GitHub = OAuthProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      p.server.URL + "/authorize",
		TokenURL:     p.server.URL + "/token",
		ProfileURL:   p.server.URL + "/profile",
		EmailURL:     p.server.URL + "/emails",
	}
}

func TestOAuthLoginURL(t *testing.T) {
	p := newFakeProvider(t)
	env := newTestService(t, p.configure)

	url, err := env.svc.OAuthLoginURL("github", "https://app.example.com/cb", "csrf-state")
	if err != nil {
		t.Fatalf("OAuthLoginURL failed: %v", err)
	}
	for _, want := range []string{"client_id=client-id", "state=csrf-state", "redirect_uri="} {
		if !strings.Contains(url, want) {
			t.Fatalf("URL %q missing %q", url, want)
		}
	}

	if _, err := env.svc.OAuthLoginURL("gitlab", "https://app.example.com/cb", "s"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("error = %v, want ErrUnknownProvider", err)
	}
}

func TestOAuthCreatesActiveUser(t *testing.T) {
	p := newFakeProvider(t)
	p.profile = map[string]any{"id": 12345, "email": "ada@example.com", "name": "Ada Lovelace"}
	env := newTestService(t, p.configure)

	result, err := env.svc.AuthenticateWithOAuth(context.Background(), "github", "auth-code", "https://app.example.com/cb")
	if err != nil {
		t.Fatalf("AuthenticateWithOAuth failed: %v", err)
	}
	if result.Tokens.RefreshToken == "" {
		t.Fatal("no token pair issued")
	}

	rec := env.store.get(t, result.UserID)
	if rec.Status != StatusActive {
		t.Fatalf("status = %s, want active (provider vouches for the email)", rec.Status)
	}
	if rec.Provider != ProviderGitHub || rec.ProviderID != "12345" {
		t.Fatalf("provider link = %s/%s, want github/12345", rec.Provider, rec.ProviderID)
	}
	if rec.PasswordHash != "" {
		t.Fatal("federated signup must not set a password hash")
	}
	if rec.FirstName != "Ada" || rec.LastName != "Lovelace" {
		t.Fatalf("name = %s %s, want Ada Lovelace", rec.FirstName, rec.LastName)
	}
}

func TestOAuthRelinksExistingAccount(t *testing.T) {
	p := newFakeProvider(t)
	p.profile = map[string]any{"id": 777, "email": "ada@example.com", "name": "Ada Lovelace"}
	env := newTestService(t, p.configure)

	reg := registerActiveUser(t, env, "ada@example.com")

	result, err := env.svc.AuthenticateWithOAuth(context.Background(), "github", "auth-code", "https://app.example.com/cb")
	if err != nil {
		t.Fatalf("AuthenticateWithOAuth failed: %v", err)
	}
	if result.UserID != reg.UserID {
		t.Fatalf("oauth login created user %s, want existing %s", result.UserID, reg.UserID)
	}

	rec := env.store.get(t, reg.UserID)
	if rec.Provider != ProviderGitHub || rec.ProviderID != "777" {
		t.Fatalf("provider link = %s/%s, want github/777", rec.Provider, rec.ProviderID)
	}
	if rec.PasswordHash == "" {
		t.Fatal("re-link must keep the local password")
	}
}

func TestOAuthPrivateEmailFallback(t *testing.T) {
	p := newFakeProvider(t)
	p.profile = map[string]any{"id": 42, "name": "Ada Lovelace"}
	p.emails = []map[string]any{
		{"email": "secondary@example.com", "primary": false, "verified": true},
		{"email": "ada@example.com", "primary": true, "verified": true},
	}
	env := newTestService(t, p.configure)

	result, err := env.svc.AuthenticateWithOAuth(context.Background(), "github", "auth-code", "https://app.example.com/cb")
	if err != nil {
		t.Fatalf("AuthenticateWithOAuth failed: %v", err)
	}
	if result.Email != "ada@example.com" {
		t.Fatalf("email = %q, want the primary verified address", result.Email)
	}
}

func TestOAuthFailureIsGeneric(t *testing.T) {
	p := newFakeProvider(t)
	p.rejectCode = true
	env := newTestService(t, p.configure)

	_, err := env.svc.AuthenticateWithOAuth(context.Background(), "github", "bad-code", "https://app.example.com/cb")
	if !errors.Is(err, ErrOAuthFailed) {
		t.Fatalf("error = %v, want ErrOAuthFailed", err)
	}
}

func TestOAuthSuspendedAccountCannotLogin(t *testing.T) {
	p := newFakeProvider(t)
	p.profile = map[string]any{"id": 12345, "email": "ada@example.com", "name": "Ada Lovelace"}
	env := newTestService(t, p.configure)
	ctx := context.Background()

	reg := registerActiveUser(t, env, "ada@example.com")
	rec := env.store.get(t, reg.UserID)
	rec.Status = StatusSuspended
	if err := env.store.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, err := env.svc.AuthenticateWithOAuth(ctx, "github", "auth-code", "https://app.example.com/cb")
	if !errors.Is(err, ErrAccountSuspended) {
		t.Fatalf("error = %v, want ErrAccountSuspended", err)
	}
}
