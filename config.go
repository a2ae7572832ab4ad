package authcore

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config carries every tunable policy threshold of the core. Instances
// are configured during initialization and treated as immutable; tests
// construct one with tiny thresholds instead of touching shared state.
type Config struct {
	JWT          JWTConfig
	Password     PasswordConfig
	Lockout      LockoutConfig
	Reset        ResetConfig
	Verification VerificationConfig
	TwoFactor    TwoFactorConfig
	OAuth        OAuthConfig
}

// JWTConfig controls token signing and lifetimes.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	Secret        []byte // hs256 signing key
	PrivateKey    []byte // ed25519 signing key
	PublicKey     []byte // ed25519 verify key
	Issuer        string
	Audience      string
}

// PasswordConfig controls argon2id cost parameters and the strength policy.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool

	UpgradeOnLogin bool
}

// LockoutConfig controls brute-force lockout counting.
type LockoutConfig struct {
	MaxAttempts int
	Duration    time.Duration
}

// ResetConfig controls password-reset token lifetime.
type ResetConfig struct {
	TokenTTL time.Duration
}

// VerificationConfig controls email-verification token lifetime and
// whether new local registrations start pending.
type VerificationConfig struct {
	TokenTTL          time.Duration
	RequireOnRegister bool
}

// TwoFactorConfig controls TOTP parameters.
type TwoFactorConfig struct {
	Issuer string
	Digits int
	Period int
	Skew   int
}

// OAuthConfig carries per-provider client credentials. A provider with an
// empty ClientID is treated as not configured.
type OAuthConfig struct {
	GitHub   OAuthProviderConfig
	LinkedIn OAuthProviderConfig
	Google   OAuthProviderConfig
}

// OAuthProviderConfig is one provider's client registration. The URL
// fields default to the provider's public endpoints and exist so tests
// can point the flow at a local server.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	ProfileURL   string
	EmailURL     string
}

// DefaultConfig returns the conservative production defaults. Call
// Validate after overriding fields.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "aitalent",
			Audience:      "aitalent-api",
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			MinLength:      8,
			RequireUpper:   true,
			RequireLower:   true,
			RequireDigit:   true,
			RequireSymbol:  true,
			UpgradeOnLogin: true,
		},
		Lockout: LockoutConfig{
			MaxAttempts: 5,
			Duration:    30 * time.Minute,
		},
		Reset: ResetConfig{
			TokenTTL: time.Hour,
		},
		Verification: VerificationConfig{
			TokenTTL:          24 * time.Hour,
			RequireOnRegister: true,
		},
		TwoFactor: TwoFactorConfig{
			Issuer: "AI Talent Marketplace",
			Digits: 6,
			Period: 30,
			Skew:   1,
		},
	}
}

// envSpec mirrors the environment surface. Only scalar knobs are
// exposed; byte keys arrive as strings.
type envSpec struct {
	AccessTTL     time.Duration `env:"AUTH_JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"AUTH_JWT_REFRESH_TTL" envDefault:"168h"`
	SigningMethod string        `env:"AUTH_JWT_SIGNING_METHOD" envDefault:"hs256"`
	JWTSecret     string        `env:"AUTH_JWT_SECRET"`
	JWTIssuer     string        `env:"AUTH_JWT_ISSUER" envDefault:"aitalent"`
	JWTAudience   string        `env:"AUTH_JWT_AUDIENCE" envDefault:"aitalent-api"`

	PasswordMinLength int           `env:"AUTH_PASSWORD_MIN_LENGTH" envDefault:"8"`
	LockoutAttempts   int           `env:"AUTH_LOCKOUT_MAX_ATTEMPTS" envDefault:"5"`
	LockoutDuration   time.Duration `env:"AUTH_LOCKOUT_DURATION" envDefault:"30m"`
	ResetTTL          time.Duration `env:"AUTH_RESET_TOKEN_TTL" envDefault:"1h"`
	VerificationTTL   time.Duration `env:"AUTH_VERIFICATION_TOKEN_TTL" envDefault:"24h"`
	RequireVerify     bool          `env:"AUTH_REQUIRE_EMAIL_VERIFICATION" envDefault:"true"`

	TOTPIssuer string `env:"AUTH_TOTP_ISSUER" envDefault:"AI Talent Marketplace"`

	GitHubClientID       string `env:"AUTH_OAUTH_GITHUB_CLIENT_ID"`
	GitHubClientSecret   string `env:"AUTH_OAUTH_GITHUB_CLIENT_SECRET"`
	LinkedInClientID     string `env:"AUTH_OAUTH_LINKEDIN_CLIENT_ID"`
	LinkedInClientSecret string `env:"AUTH_OAUTH_LINKEDIN_CLIENT_SECRET"`
	GoogleClientID       string `env:"AUTH_OAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"AUTH_OAUTH_GOOGLE_CLIENT_SECRET"`
}

// LoadConfig builds a Config from the environment, starting from
// DefaultConfig. A .env file is honored when present.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var spec envSpec
	if err := env.Parse(&spec); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	cfg.JWT.AccessTTL = spec.AccessTTL
	cfg.JWT.RefreshTTL = spec.RefreshTTL
	cfg.JWT.SigningMethod = spec.SigningMethod
	cfg.JWT.Secret = []byte(spec.JWTSecret)
	cfg.JWT.Issuer = spec.JWTIssuer
	cfg.JWT.Audience = spec.JWTAudience
	cfg.Password.MinLength = spec.PasswordMinLength
	cfg.Lockout.MaxAttempts = spec.LockoutAttempts
	cfg.Lockout.Duration = spec.LockoutDuration
	cfg.Reset.TokenTTL = spec.ResetTTL
	cfg.Verification.TokenTTL = spec.VerificationTTL
	cfg.Verification.RequireOnRegister = spec.RequireVerify
	cfg.TwoFactor.Issuer = spec.TOTPIssuer
	cfg.OAuth.GitHub.ClientID = spec.GitHubClientID
	cfg.OAuth.GitHub.ClientSecret = spec.GitHubClientSecret
	cfg.OAuth.LinkedIn.ClientID = spec.LinkedInClientID
	cfg.OAuth.LinkedIn.ClientSecret = spec.LinkedInClientSecret
	cfg.OAuth.Google.ClientID = spec.GoogleClientID
	cfg.OAuth.Google.ClientSecret = spec.GoogleClientSecret

	return cfg, nil
}

// Validate checks the configuration for internal consistency. Build
// refuses a config that fails here.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}

	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.Secret) < 32 {
			return errors.New("hs256 requires Secret of at least 32 bytes")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 8 {
		return errors.New("Password MinLength must be >= 8")
	}

	if c.Lockout.MaxAttempts <= 0 {
		return errors.New("Lockout MaxAttempts must be > 0")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout Duration must be > 0")
	}

	if c.Reset.TokenTTL <= 0 {
		return errors.New("Reset TokenTTL must be > 0")
	}
	if c.Verification.TokenTTL <= 0 {
		return errors.New("Verification TokenTTL must be > 0")
	}

	if c.TwoFactor.Issuer == "" {
		return errors.New("TwoFactor Issuer is required")
	}
	if c.TwoFactor.Digits != 6 && c.TwoFactor.Digits != 8 {
		return errors.New("TwoFactor Digits must be 6 or 8")
	}
	if c.TwoFactor.Period < 15 {
		return errors.New("TwoFactor Period must be >= 15 seconds")
	}
	if c.TwoFactor.Skew < 0 {
		return errors.New("TwoFactor Skew must be >= 0")
	}

	for _, p := range []struct {
		name string
		cfg  OAuthProviderConfig
	}{
		{"github", c.OAuth.GitHub},
		{"linkedin", c.OAuth.LinkedIn},
		{"google", c.OAuth.Google},
	} {
		if p.cfg.ClientID != "" && p.cfg.ClientSecret == "" {
			return errors.New("OAuth " + p.name + " ClientSecret is required when ClientID is set")
		}
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
