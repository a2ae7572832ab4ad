package token

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Type discriminates access tokens from refresh tokens. A token of one
// type never verifies as the other.
type Type string

const (
	// TypeAccess marks short-lived API tokens.
	TypeAccess Type = "access"
	// TypeRefresh marks long-lived rotation tokens.
	TypeRefresh Type = "refresh"
)

// SigningMethod selects the JWT signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with an HMAC-SHA256 shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrExpired is returned when a token fails its expiry check.
	ErrExpired = errors.New("token expired")
	// ErrInvalid is returned when a token fails signature, claim, or
	// type checks.
	ErrInvalid = errors.New("invalid token")
	// ErrRevoked is returned when a refresh token verifies but is no
	// longer present in the revocation store.
	ErrRevoked = errors.New("refresh token revoked")
)

// Config carries signing material and lifetimes for a Manager.
// Config instances are intended to be configured during initialization
// and then treated as immutable.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	Secret        []byte // hs256
	PrivateKey    []byte // ed25519
	PublicKey     []byte // ed25519
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// Claims is the payload carried by both token types. The jti registered
// claim is the revocation key for refresh tokens.
type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	TokenType Type   `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is a freshly issued access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Manager signs, verifies, and revokes tokens. Safe for concurrent use.
type Manager struct {
	config Config
	store  *RevocationStore
	now    func() time.Time
}

// NewManager validates cfg and returns a Manager backed by store. The
// now function feeds every timestamp and expiry decision; pass
// time.Now outside tests.
func NewManager(cfg Config, store *RevocationStore, now func() time.Time) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("refresh TTL must be >= access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.Secret) < 32 {
			return nil, errors.New("hs256 requires secret of at least 32 bytes")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	if store == nil {
		return nil, errors.New("revocation store is required")
	}
	if now == nil {
		now = time.Now
	}

	return &Manager{config: cfg, store: store, now: now}, nil
}

// Issue signs a fresh access/refresh pair for the user and registers
// the refresh token's jti in the revocation store with the refresh TTL.
func (m *Manager) Issue(ctx context.Context, userID, email, role string) (Pair, error) {
	access, _, err := m.sign(userID, email, role, TypeAccess, m.config.AccessTTL)
	if err != nil {
		return Pair{}, err
	}

	refresh, refreshJTI, err := m.sign(userID, email, role, TypeRefresh, m.config.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}

	if err := m.store.Put(ctx, userID, refreshJTI, m.config.RefreshTTL); err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify parses tokenStr, enforces signature and registered claims, and
// rejects a token whose type claim does not match typ.
func (m *Manager) Verify(tokenStr string, typ Type) (*Claims, error) {
	claims, err := m.parse(tokenStr, true)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != typ {
		return nil, ErrInvalid
	}
	return claims, nil
}

// CheckRefresh verifies tokenStr as a refresh token and confirms it is
// still live in the revocation store. A verified token whose jti is
// missing, or recorded against a different user, is ErrRevoked.
func (m *Manager) CheckRefresh(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := m.Verify(tokenStr, TypeRefresh)
	if err != nil {
		return nil, err
	}

	owner, ok, err := m.store.Owner(ctx, claims.UserID, claims.ID)
	if err != nil {
		return nil, err
	}
	if !ok || owner != claims.UserID {
		return nil, ErrRevoked
	}

	return claims, nil
}

// Discard removes one verified refresh token from the revocation store.
// Used for rotation, after the replacement pair is issued.
func (m *Manager) Discard(ctx context.Context, claims *Claims) error {
	return m.store.Delete(ctx, claims.UserID, claims.ID)
}

// Revoke invalidates a single refresh token. The token is decoded
// without expiry validation so an expired token can still be revoked;
// an unparseable token and an already-revoked one are both no-ops.
func (m *Manager) Revoke(ctx context.Context, tokenStr string) error {
	claims, err := m.parse(tokenStr, false)
	if err != nil || claims.TokenType != TypeRefresh {
		return nil
	}
	return m.store.Delete(ctx, claims.UserID, claims.ID)
}

// RevokeAll invalidates every live refresh token of the user.
func (m *Manager) RevokeAll(ctx context.Context, userID string) error {
	return m.store.DeleteAll(ctx, userID)
}

func (m *Manager) sign(userID, email, role string, typ Type, ttl time.Duration) (string, string, error) {
	now := m.now()
	jti := uuid.NewString()

	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	tok := jwt.NewWithClaims(m.method(), claims)

	signKey, err := m.signKey()
	if err != nil {
		return "", "", err
	}

	signed, err := tok.SignedString(signKey)
	if err != nil {
		return "", "", err
	}

	return signed, jti, nil
}

func (m *Manager) parse(tokenStr string, validateClaims bool) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if !validateClaims {
		options = append(options, jwt.WithoutClaimsValidation())
	} else {
		if m.config.Leeway > 0 {
			options = append(options, jwt.WithLeeway(m.config.Leeway))
		}
		if m.config.Issuer != "" {
			options = append(options, jwt.WithIssuer(m.config.Issuer))
		}
		if m.config.Audience != "" {
			options = append(options, jwt.WithAudience(m.config.Audience))
		}
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey()
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalid
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (m *Manager) signKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.Secret, nil
	default:
		return parseEdPrivateKey(m.config.PrivateKey)
	}
}

func (m *Manager) verifyKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.Secret, nil
	default:
		return parseEdPublicKey(m.config.PublicKey)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
