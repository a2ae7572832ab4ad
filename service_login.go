package authcore

import (
	"context"
	"errors"
)

// Login authenticates a local-password account and issues a token pair.
//
// The failure gates run in a fixed order: email shape, user lookup,
// account status, lockout, password. Unknown emails and wrong passwords
// both surface as [ErrInvalidCredentials]; a locked account reports the
// remaining lockout time through a [LockedError].
func (s *Service) Login(ctx context.Context, email, pass string) (*AuthResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	rec, err := s.store.FindByEmail(ctx, normalized)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr(err)
	}

	switch rec.Status {
	case StatusPendingVerification:
		return nil, ErrAccountUnverified
	case StatusInactive:
		return nil, ErrAccountInactive
	case StatusSuspended:
		return nil, ErrAccountSuspended
	}

	s.clearExpiredLockout(rec)
	if until, locked := s.activeLockout(rec); locked {
		return nil, &LockedError{Until: until, Remaining: until.Sub(s.now())}
	}

	if rec.PasswordHash == "" {
		// Federated account without a password. Indistinguishable from a
		// wrong password on purpose.
		return nil, ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(pass, rec.PasswordHash)
	if err != nil {
		return nil, storeErr(err)
	}

	if !match {
		s.recordFailedLogin(rec)
		if saveErr := s.store.Save(ctx, rec); saveErr != nil {
			return nil, storeErr(saveErr)
		}
		s.log.Info().Str("user_id", rec.ID).Int("attempts", rec.LoginAttempts).
			Msg("failed login attempt")
		return nil, ErrInvalidCredentials
	}

	s.recordSuccessfulLogin(rec)
	s.maybeUpgradeHash(rec, pass)
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, storeErr(err)
	}

	s.log.Info().Str("user_id", rec.ID).Msg("login succeeded")
	return s.issuePair(ctx, rec)
}

// maybeUpgradeHash re-hashes the password when the stored hash was
// produced with weaker cost parameters. Only possible here, where the
// plaintext just verified.
func (s *Service) maybeUpgradeHash(rec *UserRecord, pass string) {
	if !s.config.Password.UpgradeOnLogin {
		return
	}
	needs, err := s.hasher.NeedsUpgrade(rec.PasswordHash)
	if err != nil || !needs {
		return
	}
	upgraded, err := s.hasher.Hash(pass)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", rec.ID).Msg("hash upgrade failed")
		return
	}
	rec.PasswordHash = upgraded
	rec.UpdatedAt = s.now()
}
