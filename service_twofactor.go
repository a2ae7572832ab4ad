package authcore

import (
	"context"
	"errors"
)

// SetupTwoFactor generates a fresh TOTP secret and provisioning URI for
// the user. Nothing is persisted; the secret only takes effect once a
// live code generated from it passes [Service.EnableTwoFactor].
func (s *Service) SetupTwoFactor(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rec, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	secret, err := s.totp.GenerateSecret()
	if err != nil {
		return nil, storeErr(err)
	}

	return &TwoFactorSetup{
		Secret: secret,
		URI:    s.totp.ProvisionURI(secret, rec.Email),
	}, nil
}

// VerifyTwoFactor checks a code against the user's enrolled secret.
func (s *Service) VerifyTwoFactor(ctx context.Context, userID, code string) error {
	if err := s.ready(); err != nil {
		return err
	}

	rec, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if !rec.TwoFactorEnabled || rec.TwoFactorSecret == "" {
		return ErrTwoFactorNotEnabled
	}

	ok, err := s.totp.VerifyCode(rec.TwoFactorSecret, code, s.now())
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return ErrTwoFactorCode
	}
	return nil
}

// EnableTwoFactor persists the secret from a prior SetupTwoFactor call
// once the user proves possession with a live code. A code that fails
// against the presented secret leaves the account untouched. Enabling
// revokes every live session so stolen refresh tokens do not bypass the
// new factor.
func (s *Service) EnableTwoFactor(ctx context.Context, userID, secret, code string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if secret == "" {
		return ErrValidation
	}

	rec, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.totp.VerifyCode(secret, code, s.now())
	if err != nil || !ok {
		return ErrTwoFactorCode
	}

	rec.TwoFactorEnabled = true
	rec.TwoFactorSecret = secret
	rec.UpdatedAt = s.now()
	if err := s.store.Save(ctx, rec); err != nil {
		return storeErr(err)
	}

	if err := s.tokens.RevokeAll(ctx, rec.ID); err != nil {
		return mapTokenErr(err)
	}

	s.log.Info().Str("user_id", rec.ID).Msg("two-factor enabled")
	return nil
}

// DisableTwoFactor clears the enrolled secret after the user confirms
// their password, then revokes every live session.
func (s *Service) DisableTwoFactor(ctx context.Context, userID, pass string) error {
	if err := s.ready(); err != nil {
		return err
	}

	rec, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if !rec.TwoFactorEnabled {
		return ErrTwoFactorNotEnabled
	}
	if rec.PasswordHash == "" {
		return ErrNoPasswordSet
	}

	match, err := s.hasher.Verify(pass, rec.PasswordHash)
	if err != nil {
		return storeErr(err)
	}
	if !match {
		return ErrInvalidCredentials
	}

	rec.TwoFactorEnabled = false
	rec.TwoFactorSecret = ""
	rec.UpdatedAt = s.now()
	if err := s.store.Save(ctx, rec); err != nil {
		return storeErr(err)
	}

	if err := s.tokens.RevokeAll(ctx, rec.ID); err != nil {
		return mapTokenErr(err)
	}

	s.log.Info().Str("user_id", rec.ID).Msg("two-factor disabled")
	return nil
}

func (s *Service) findUser(ctx context.Context, userID string) (*UserRecord, error) {
	if userID == "" {
		return nil, ErrValidation
	}
	rec, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return rec, nil
}
