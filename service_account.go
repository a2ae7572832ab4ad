package authcore

import (
	"context"
)

// ChangePassword rotates an authenticated user's password. The current
// password must verify, the new one must pass the strength policy and
// the history reuse check, and every live session is revoked on
// success.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := s.ready(); err != nil {
		return err
	}

	rec, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if rec.PasswordHash == "" {
		return ErrNoPasswordSet
	}

	match, err := s.hasher.Verify(current, rec.PasswordHash)
	if err != nil {
		return storeErr(err)
	}
	if !match {
		return ErrInvalidCredentials
	}

	if err := s.checkStrength(next, rec.Email, rec.FirstName, rec.LastName); err != nil {
		return err
	}

	reused, err := s.reusedPassword(rec, next)
	if err != nil {
		return storeErr(err)
	}
	if reused {
		return ErrPasswordReused
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return storeErr(err)
	}

	s.applyNewPassword(rec, hash)
	if err := s.store.Save(ctx, rec); err != nil {
		return storeErr(err)
	}

	if err := s.tokens.RevokeAll(ctx, rec.ID); err != nil {
		return mapTokenErr(err)
	}

	s.log.Info().Str("user_id", rec.ID).Msg("password changed")
	return nil
}
