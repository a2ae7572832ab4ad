package authcore

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/aitalent/authcore/oauth"
	"github.com/aitalent/authcore/password"
	"github.com/aitalent/authcore/token"
	"github.com/aitalent/authcore/totp"
)

// Service orchestrates the credential and session lifecycle. Construct
// one through the [Builder]; a zero Service returns [ErrNotReady] from
// every operation. Safe for concurrent use.
type Service struct {
	config   Config
	store    CredentialStore
	notifier Notifier
	hasher   *password.Hasher
	tokens   *token.Manager
	totp     *totp.Manager
	oauth    *oauth.Federation
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time
}

func (s *Service) ready() error {
	if s == nil || s.store == nil || s.tokens == nil {
		return ErrNotReady
	}
	return nil
}

// VerifyAccessToken decodes and validates an access token, returning
// the identity claims it carries. Hosts call this from their request
// middleware.
func (s *Service) VerifyAccessToken(tokenStr string) (*AuthClaims, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	claims, err := s.tokens.Verify(tokenStr, token.TypeAccess)
	if err != nil {
		return nil, mapTokenErr(err)
	}

	return &AuthClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// normalizeEmail lowercases and validates the address shape. All
// lookups and stored records use the normalized form, so email
// comparison is case insensitive throughout.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}

func mapTokenErr(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrRevoked):
		return ErrRefreshRevoked
	case errors.Is(err, token.ErrInvalid):
		return ErrTokenInvalid
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// issuePair signs a token pair for the record and stamps the login.
func (s *Service) issuePair(ctx context.Context, rec *UserRecord) (*AuthResult, error) {
	pair, err := s.tokens.Issue(ctx, rec.ID, rec.Email, rec.Role)
	if err != nil {
		return nil, mapTokenErr(err)
	}

	return &AuthResult{
		UserID: rec.ID,
		Email:  rec.Email,
		Role:   rec.Role,
		Tokens: TokenPair{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		},
	}, nil
}
