package authcore

import (
	"context"
	"errors"
)

// VerifyEmail consumes a one-time verification token and activates a
// pending account. Wrong and expired tokens are indistinguishable.
func (s *Service) VerifyEmail(ctx context.Context, tokenStr string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if tokenStr == "" {
		return ErrVerificationTokenInvalid
	}

	rec, err := s.store.FindByVerificationToken(ctx, tokenStr)
	if errors.Is(err, ErrUserNotFound) {
		return ErrVerificationTokenInvalid
	}
	if err != nil {
		return storeErr(err)
	}

	if !s.matchVerificationToken(rec, tokenStr) {
		return ErrVerificationTokenInvalid
	}

	s.clearVerificationToken(rec)
	if rec.Status == StatusPendingVerification {
		rec.Status = StatusActive
	}
	rec.UpdatedAt = s.now()

	if err := s.store.Save(ctx, rec); err != nil {
		return storeErr(err)
	}

	s.log.Info().Str("user_id", rec.ID).Msg("email verified")
	return nil
}

// ResendVerification issues a fresh verification token for a pending
// account. Like ForgotPassword, it succeeds quietly for unknown emails
// and accounts that are already verified.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	if err := s.ready(); err != nil {
		return err
	}

	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	rec, err := s.store.FindByEmail(ctx, normalized)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return storeErr(err)
	}
	if rec.Status != StatusPendingVerification {
		return nil
	}

	tok, err := s.issueVerificationToken(rec)
	if err != nil {
		return storeErr(err)
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return storeErr(err)
	}

	if s.notifier != nil {
		if err := s.notifier.SendEmailVerification(ctx, rec.Email, tok, s.config.Verification.TokenTTL); err != nil {
			s.log.Error().Err(err).Str("user_id", rec.ID).Msg("verification email dispatch failed")
		}
	}

	return nil
}
