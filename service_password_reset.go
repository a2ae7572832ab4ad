package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aitalent/authcore/password"
)

const forgotPasswordMessage = "If that email is registered, a password reset link has been sent"

// ForgotPassword starts a password reset. The result is identical for
// known and unknown emails so the endpoint cannot be used to probe for
// accounts; only a known local account actually gets a token issued and
// dispatched. The token value itself is never logged.
func (s *Service) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	result := &ForgotPasswordResult{
		Message:   forgotPasswordMessage,
		ExpiresIn: s.config.Reset.TokenTTL,
	}

	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.FindByEmail(ctx, normalized)
	if errors.Is(err, ErrUserNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, storeErr(err)
	}

	if rec.PasswordHash == "" {
		// Federated-only account; nothing to reset, same outward shape.
		return result, nil
	}

	tok, err := s.issueResetToken(rec)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, storeErr(err)
	}

	if s.notifier != nil {
		if err := s.notifier.SendPasswordReset(ctx, rec.Email, tok, s.config.Reset.TokenTTL); err != nil {
			s.log.Error().Err(err).Str("user_id", rec.ID).Msg("reset email dispatch failed")
		}
	}

	s.log.Info().Str("user_id", rec.ID).Msg("password reset issued")
	return result, nil
}

// ResetPassword consumes a one-time reset token and installs a new
// password. Wrong and expired tokens are indistinguishable. On success
// every live session of the account is revoked and the lockout state is
// cleared.
func (s *Service) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if tokenStr == "" {
		return ErrResetTokenInvalid
	}

	// The policy gate runs before the token lookup; the account's
	// personal tokens are rechecked once the record is loaded.
	if err := password.CheckStrength(newPassword, s.strengthPolicy()); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	rec, err := s.store.FindByResetToken(ctx, tokenStr)
	if errors.Is(err, ErrUserNotFound) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return storeErr(err)
	}

	if !s.matchResetToken(rec, tokenStr) {
		return ErrResetTokenInvalid
	}

	if err := s.checkStrength(newPassword, rec.Email, rec.FirstName, rec.LastName); err != nil {
		return err
	}

	reused, err := s.reusedPassword(rec, newPassword)
	if err != nil {
		return storeErr(err)
	}
	if reused {
		return ErrPasswordReused
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return storeErr(err)
	}

	s.applyNewPassword(rec, hash)
	rec.LoginAttempts = 0
	rec.LockoutUntil = nil
	if err := s.store.Save(ctx, rec); err != nil {
		return storeErr(err)
	}

	if err := s.tokens.RevokeAll(ctx, rec.ID); err != nil {
		return mapTokenErr(err)
	}

	s.log.Info().Str("user_id", rec.ID).Msg("password reset completed")
	return nil
}
