package authcore

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfigValidatesWithSecret(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no jwt secret", func(c *Config) { c.JWT.Secret = nil }},
		{"short jwt secret", func(c *Config) { c.JWT.Secret = []byte("short") }},
		{"zero access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }},
		{"refresh below access", func(c *Config) { c.JWT.RefreshTTL = time.Minute }},
		{"unknown signing method", func(c *Config) { c.JWT.SigningMethod = "rs256" }},
		{"ed25519 without keys", func(c *Config) { c.JWT.SigningMethod = "ed25519" }},
		{"low memory", func(c *Config) { c.Password.Memory = 1024 }},
		{"zero time cost", func(c *Config) { c.Password.Time = 0 }},
		{"short min length", func(c *Config) { c.Password.MinLength = 4 }},
		{"zero lockout attempts", func(c *Config) { c.Lockout.MaxAttempts = 0 }},
		{"zero lockout duration", func(c *Config) { c.Lockout.Duration = 0 }},
		{"zero reset ttl", func(c *Config) { c.Reset.TokenTTL = 0 }},
		{"zero verification ttl", func(c *Config) { c.Verification.TokenTTL = 0 }},
		{"no totp issuer", func(c *Config) { c.TwoFactor.Issuer = "" }},
		{"odd totp digits", func(c *Config) { c.TwoFactor.Digits = 7 }},
		{"short totp period", func(c *Config) { c.TwoFactor.Period = 5 }},
		{"negative totp skew", func(c *Config) { c.TwoFactor.Skew = -1 }},
		{"oauth id without secret", func(c *Config) { c.OAuth.GitHub.ClientID = "id" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("AUTH_JWT_ACCESS_TTL", "5m")
	t.Setenv("AUTH_LOCKOUT_MAX_ATTEMPTS", "7")
	t.Setenv("AUTH_REQUIRE_EMAIL_VERIFICATION", "false")
	t.Setenv("AUTH_OAUTH_GITHUB_CLIENT_ID", "gh-id")
	t.Setenv("AUTH_OAUTH_GITHUB_CLIENT_SECRET", "gh-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.JWT.AccessTTL != 5*time.Minute {
		t.Fatalf("AccessTTL = %v, want 5m", cfg.JWT.AccessTTL)
	}
	if cfg.Lockout.MaxAttempts != 7 {
		t.Fatalf("MaxAttempts = %d, want 7", cfg.Lockout.MaxAttempts)
	}
	if cfg.Verification.RequireOnRegister {
		t.Fatal("RequireOnRegister should be false")
	}
	if cfg.OAuth.GitHub.ClientID != "gh-id" || cfg.OAuth.GitHub.ClientSecret != "gh-secret" {
		t.Fatalf("github oauth = %+v", cfg.OAuth.GitHub)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config invalid: %v", err)
	}
}

func TestBuilderRequiresDependencies(t *testing.T) {
	cfg := testConfig()

	if _, err := New().Build(); err == nil {
		t.Fatal("Build without config accepted")
	}

	_, rdb := newTestRedis(t)
	if _, err := New().WithConfig(cfg).WithRedis(rdb).Build(); err == nil {
		t.Fatal("Build without credential store accepted")
	}
	if _, err := New().WithConfig(cfg).WithCredentialStore(newMockStore()).Build(); err == nil {
		t.Fatal("Build without redis accepted")
	}

	svc, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(newMockStore()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if svc == nil {
		t.Fatal("nil service")
	}
}

func TestServiceNotReady(t *testing.T) {
	var svc *Service
	if _, err := svc.Login(context.Background(), "a@b.co", "x"); err != ErrNotReady {
		t.Fatalf("error = %v, want ErrNotReady", err)
	}
}
