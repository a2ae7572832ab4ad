package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// Supported provider names.
const (
	ProviderGitHub   = "github"
	ProviderLinkedIn = "linkedin"
	ProviderGoogle   = "google"
)

// ErrUnknownProvider is returned for a provider name outside the
// supported, configured set.
var ErrUnknownProvider = errors.New("unknown oauth provider")

// Profile is the normalized identity a provider reports after a
// successful code exchange.
type Profile struct {
	Provider   string
	ProviderID string
	Email      string
	FirstName  string
	LastName   string
}

// ProviderConfig is one provider's client registration. Empty URL
// fields fall back to the provider's public endpoints; tests point them
// at a local server.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	ProfileURL   string
	EmailURL     string
}

type provider struct {
	name       string
	config     oauth2.Config
	profileURL string
	emailURL   string
}

// Federation holds the configured providers. Providers with an empty
// ClientID are skipped at construction; asking for one later is
// ErrUnknownProvider.
type Federation struct {
	providers  map[string]*provider
	httpClient *http.Client
}

// NewFederation builds a Federation from per-provider configs keyed by
// provider name. httpClient may be nil, in which case
// http.DefaultClient is used for exchanges and profile fetches.
func NewFederation(configs map[string]ProviderConfig, httpClient *http.Client) (*Federation, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	f := &Federation{
		providers:  make(map[string]*provider),
		httpClient: httpClient,
	}

	for name, cfg := range configs {
		if cfg.ClientID == "" {
			continue
		}
		if cfg.ClientSecret == "" {
			return nil, fmt.Errorf("oauth provider %s: client secret is required", name)
		}

		p, err := newProvider(name, cfg)
		if err != nil {
			return nil, err
		}
		f.providers[name] = p
	}

	return f, nil
}

func newProvider(name string, cfg ProviderConfig) (*provider, error) {
	d, ok := defaults[name]
	if !ok {
		return nil, fmt.Errorf("oauth provider %s is not supported", name)
	}

	p := &provider{
		name: name,
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		profileURL: cfg.ProfileURL,
		emailURL:   cfg.EmailURL,
	}

	if len(p.config.Scopes) == 0 {
		p.config.Scopes = d.scopes
	}
	if p.config.Endpoint.AuthURL == "" {
		p.config.Endpoint.AuthURL = d.authURL
	}
	if p.config.Endpoint.TokenURL == "" {
		p.config.Endpoint.TokenURL = d.tokenURL
	}
	if p.profileURL == "" {
		p.profileURL = d.profileURL
	}
	if p.emailURL == "" {
		p.emailURL = d.emailURL
	}

	return p, nil
}

type providerDefaults struct {
	authURL    string
	tokenURL   string
	profileURL string
	emailURL   string
	scopes     []string
}

var defaults = map[string]providerDefaults{
	ProviderGitHub: {
		authURL:    "https://github.com/login/oauth/authorize",
		tokenURL:   "https://github.com/login/oauth/access_token",
		profileURL: "https://api.github.com/user",
		emailURL:   "https://api.github.com/user/emails",
		scopes:     []string{"read:user", "user:email"},
	},
	ProviderLinkedIn: {
		authURL:    "https://www.linkedin.com/oauth/v2/authorization",
		tokenURL:   "https://www.linkedin.com/oauth/v2/accessToken",
		profileURL: "https://api.linkedin.com/v2/userinfo",
		scopes:     []string{"openid", "profile", "email"},
	},
	ProviderGoogle: {
		authURL:    "https://accounts.google.com/o/oauth2/auth",
		tokenURL:   "https://oauth2.googleapis.com/token",
		profileURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		scopes:     []string{"openid", "profile", "email"},
	},
}

// Configured reports whether the named provider has a client
// registration.
func (f *Federation) Configured(name string) bool {
	_, ok := f.providers[name]
	return ok
}

// AuthCodeURL returns the provider's authorization URL carrying state
// and redirectURL.
func (f *Federation) AuthCodeURL(name, state, redirectURL string) (string, error) {
	p, ok := f.providers[name]
	if !ok {
		return "", ErrUnknownProvider
	}

	cfg := p.config
	cfg.RedirectURL = redirectURL
	return cfg.AuthCodeURL(state), nil
}

// Exchange trades the authorization code for an access token, fetches
// the provider profile, and returns it normalized.
func (f *Federation) Exchange(ctx context.Context, name, code, redirectURL string) (*Profile, error) {
	p, ok := f.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)

	cfg := p.config
	cfg.RedirectURL = redirectURL
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	client := cfg.Client(ctx, tok)
	raw, err := fetchJSON(ctx, client, p.profileURL)
	if err != nil {
		return nil, fmt.Errorf("profile fetch failed: %w", err)
	}

	profile, err := p.normalize(ctx, client, raw)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *provider) normalize(ctx context.Context, client *http.Client, raw map[string]any) (*Profile, error) {
	profile := &Profile{Provider: p.name}

	switch p.name {
	case ProviderGitHub:
		profile.ProviderID = stringID(raw["id"])
		profile.Email = stringValue(raw, "email")
		profile.FirstName, profile.LastName = splitName(stringValue(raw, "name"))
		if profile.Email == "" {
			email, err := p.primaryEmail(ctx, client)
			if err != nil {
				return nil, err
			}
			profile.Email = email
		}
	case ProviderLinkedIn:
		profile.ProviderID = stringValue(raw, "sub")
		profile.Email = stringValue(raw, "email")
		profile.FirstName = stringValue(raw, "given_name")
		profile.LastName = stringValue(raw, "family_name")
	case ProviderGoogle:
		profile.ProviderID = stringValue(raw, "id")
		if profile.ProviderID == "" {
			profile.ProviderID = stringValue(raw, "sub")
		}
		profile.Email = stringValue(raw, "email")
		profile.FirstName = stringValue(raw, "given_name")
		profile.LastName = stringValue(raw, "family_name")
	}

	if profile.ProviderID == "" {
		return nil, errors.New("missing user id in provider response")
	}
	if profile.Email == "" {
		return nil, errors.New("missing email in provider response")
	}
	profile.Email = strings.ToLower(profile.Email)

	return profile, nil
}

// primaryEmail resolves the address for GitHub accounts that keep their
// email private on the profile.
func (p *provider) primaryEmail(ctx context.Context, client *http.Client) (string, error) {
	if p.emailURL == "" {
		return "", errors.New("missing email in provider response")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.emailURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("email request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var entries []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return "", err
	}

	for _, e := range entries {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range entries {
		if e.Verified {
			return e.Email, nil
		}
	}

	return "", errors.New("no verified email on provider account")
}

func fetchJSON(ctx context.Context, client *http.Client, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func stringValue(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func stringID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
