package authcore

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aitalent/authcore/oauth"
	"github.com/aitalent/authcore/password"
	"github.com/aitalent/authcore/token"
	"github.com/aitalent/authcore/totp"
)

// Builder assembles a [Service]. Chain the With methods and finish with
// Build; Build validates the configuration and refuses incomplete
// wiring.
type Builder struct {
	config     Config
	configSet  bool
	redis      redis.UniversalClient
	store      CredentialStore
	notifier   Notifier
	logger     *zerolog.Logger
	httpClient *http.Client
	now        func() time.Time
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// WithConfig sets the service configuration. Required.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	b.configSet = true
	return b
}

// WithRedis sets the redis client backing refresh-token revocation.
// Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore sets the durable user record store. Required.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithNotifier sets the out-of-band token dispatcher. Optional; without
// one, reset and verification tokens are generated but not delivered.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithLogger sets the structured logger. Optional; the default discards
// everything.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithHTTPClient sets the client used for OAuth exchanges and profile
// fetches. Optional.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithClock overrides the time source. Tests use this to step through
// lockout and token expiry windows.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration, wires the subsystems, and returns
// a ready Service.
func (b *Builder) Build() (*Service, error) {
	if !b.configSet {
		return nil, errors.New("config is required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.store == nil {
		return nil, errors.New("credential store is required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}

	hasher, err := password.NewHasher(password.Params{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	revocations, err := token.NewRevocationStore(b.redis, "")
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		AccessTTL:     b.config.JWT.AccessTTL,
		RefreshTTL:    b.config.JWT.RefreshTTL,
		SigningMethod: token.SigningMethod(b.config.JWT.SigningMethod),
		Secret:        b.config.JWT.Secret,
		PrivateKey:    b.config.JWT.PrivateKey,
		PublicKey:     b.config.JWT.PublicKey,
		Issuer:        b.config.JWT.Issuer,
		Audience:      b.config.JWT.Audience,
	}, revocations, now)
	if err != nil {
		return nil, err
	}

	otp, err := totp.NewManager(totp.Config{
		Issuer: b.config.TwoFactor.Issuer,
		Digits: b.config.TwoFactor.Digits,
		Period: b.config.TwoFactor.Period,
		Skew:   b.config.TwoFactor.Skew,
	})
	if err != nil {
		return nil, err
	}

	federation, err := oauth.NewFederation(map[string]oauth.ProviderConfig{
		oauth.ProviderGitHub:   providerConfig(b.config.OAuth.GitHub),
		oauth.ProviderLinkedIn: providerConfig(b.config.OAuth.LinkedIn),
		oauth.ProviderGoogle:   providerConfig(b.config.OAuth.Google),
	}, b.httpClient)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:   b.config,
		store:    b.store,
		notifier: b.notifier,
		hasher:   hasher,
		tokens:   tokens,
		totp:     otp,
		oauth:    federation,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logger,
		now:      now,
	}, nil
}

func providerConfig(cfg OAuthProviderConfig) oauth.ProviderConfig {
	return oauth.ProviderConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
		ProfileURL:   cfg.ProfileURL,
		EmailURL:     cfg.EmailURL,
	}
}
