package authcore

import (
	"context"
	"errors"
)

// RefreshToken rotates a refresh token: the presented token must
// verify, still be live in the revocation store, and belong to an
// account that may authenticate. The replacement pair is issued before
// the old token is discarded, so a crash between the two steps never
// strands the user without a session.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	claims, err := s.tokens.CheckRefresh(ctx, refreshToken)
	if err != nil {
		return nil, mapTokenErr(err)
	}

	rec, err := s.store.FindByID(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, storeErr(err)
	}

	switch rec.Status {
	case StatusInactive:
		return nil, ErrAccountInactive
	case StatusSuspended:
		return nil, ErrAccountSuspended
	case StatusPendingVerification:
		return nil, ErrAccountUnverified
	}

	result, err := s.issuePair(ctx, rec)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Discard(ctx, claims); err != nil {
		return nil, mapTokenErr(err)
	}

	return result, nil
}

// Logout revokes one refresh token. Garbage, expired, and
// already-revoked tokens are all no-op successes.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return mapTokenErr(err)
	}
	return nil
}

// LogoutAll revokes every live refresh token of the user. Access tokens
// already in flight remain valid until their own expiry.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if userID == "" {
		return ErrValidation
	}
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		return mapTokenErr(err)
	}
	s.log.Info().Str("user_id", userID).Msg("all sessions revoked")
	return nil
}
