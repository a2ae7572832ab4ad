package authcore

import (
	"fmt"
	"strings"
	"time"

	"github.com/aitalent/authcore/internal"
	"github.com/aitalent/authcore/password"
)

// clearExpiredLockout resets a lockout whose window has passed. The
// expiry is silent; the account simply accepts attempts again with a
// fresh counter.
func (s *Service) clearExpiredLockout(rec *UserRecord) {
	if rec.LockoutUntil != nil && !s.now().Before(*rec.LockoutUntil) {
		rec.LockoutUntil = nil
		rec.LoginAttempts = 0
	}
}

// activeLockout returns the lockout deadline when the account is
// currently locked.
func (s *Service) activeLockout(rec *UserRecord) (time.Time, bool) {
	if rec.LockoutUntil != nil && s.now().Before(*rec.LockoutUntil) {
		return *rec.LockoutUntil, true
	}
	return time.Time{}, false
}

// recordFailedLogin bumps the attempt counter and, strictly after the
// increment, starts a lockout window once the counter reaches the
// threshold. The attempt that trips the threshold still reports a
// credential failure; only the next one reports the lock.
func (s *Service) recordFailedLogin(rec *UserRecord) {
	rec.LoginAttempts++
	if rec.LoginAttempts >= s.config.Lockout.MaxAttempts {
		until := s.now().Add(s.config.Lockout.Duration)
		rec.LockoutUntil = &until
	}
	rec.UpdatedAt = s.now()
}

// recordSuccessfulLogin resets the failure state and stamps the login.
func (s *Service) recordSuccessfulLogin(rec *UserRecord) {
	now := s.now()
	rec.LoginAttempts = 0
	rec.LockoutUntil = nil
	rec.LastLoginAt = &now
	rec.UpdatedAt = now
}

// issueResetToken generates a fresh one-time reset token on the record,
// replacing any outstanding one.
func (s *Service) issueResetToken(rec *UserRecord) (string, error) {
	tok, err := internal.NewOneTimeToken()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(s.config.Reset.TokenTTL)
	rec.ResetToken = tok
	rec.ResetTokenExpiresAt = &expires
	rec.UpdatedAt = s.now()
	return tok, nil
}

// matchResetToken reports whether presented matches the record's
// outstanding, unexpired reset token. Wrong and expired are
// indistinguishable to the caller.
func (s *Service) matchResetToken(rec *UserRecord, presented string) bool {
	if rec.ResetToken == "" || rec.ResetTokenExpiresAt == nil {
		return false
	}
	if !s.now().Before(*rec.ResetTokenExpiresAt) {
		return false
	}
	return internal.TokensEqual(rec.ResetToken, presented)
}

// clearResetToken consumes the outstanding reset token.
func (s *Service) clearResetToken(rec *UserRecord) {
	rec.ResetToken = ""
	rec.ResetTokenExpiresAt = nil
}

// issueVerificationToken generates a fresh one-time email verification
// token on the record.
func (s *Service) issueVerificationToken(rec *UserRecord) (string, error) {
	tok, err := internal.NewOneTimeToken()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(s.config.Verification.TokenTTL)
	rec.VerificationToken = tok
	rec.VerificationTokenExpiresAt = &expires
	rec.UpdatedAt = s.now()
	return tok, nil
}

// matchVerificationToken reports whether presented matches the record's
// outstanding, unexpired verification token.
func (s *Service) matchVerificationToken(rec *UserRecord, presented string) bool {
	if rec.VerificationToken == "" || rec.VerificationTokenExpiresAt == nil {
		return false
	}
	if !s.now().Before(*rec.VerificationTokenExpiresAt) {
		return false
	}
	return internal.TokensEqual(rec.VerificationToken, presented)
}

// clearVerificationToken consumes the outstanding verification token.
func (s *Service) clearVerificationToken(rec *UserRecord) {
	rec.VerificationToken = ""
	rec.VerificationTokenExpiresAt = nil
}

// applyNewPassword installs newHash, pushing the prior hash into the
// bounded history and consuming any outstanding reset token.
func (s *Service) applyNewPassword(rec *UserRecord, newHash string) {
	now := s.now()
	if rec.PasswordHash != "" {
		rec.PasswordHistory = append(rec.PasswordHistory, rec.PasswordHash)
		if len(rec.PasswordHistory) > PasswordHistoryLimit {
			rec.PasswordHistory = rec.PasswordHistory[len(rec.PasswordHistory)-PasswordHistoryLimit:]
		}
	}
	rec.PasswordHash = newHash
	rec.LastPasswordChangeAt = &now
	rec.UpdatedAt = now
	s.clearResetToken(rec)
}

// reusedPassword checks the candidate against the current hash and the
// retained history.
func (s *Service) reusedPassword(rec *UserRecord, candidate string) (bool, error) {
	if rec.PasswordHash != "" {
		match, err := s.hasher.Verify(candidate, rec.PasswordHash)
		if err == nil && match {
			return true, nil
		}
	}
	return s.hasher.IsReused(candidate, rec.PasswordHistory)
}

// checkStrength runs the configured strength policy with the user's
// personal tokens fed to the entropy scorer.
func (s *Service) checkStrength(candidate, email, firstName, lastName string) error {
	inputs := make([]string, 0, 4)
	if at := strings.IndexByte(email, '@'); at > 0 {
		inputs = append(inputs, email[:at])
	}
	if email != "" {
		inputs = append(inputs, email)
	}
	if firstName != "" {
		inputs = append(inputs, firstName)
	}
	if lastName != "" {
		inputs = append(inputs, lastName)
	}

	if err := password.CheckStrength(candidate, s.strengthPolicy(), inputs...); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}
	return nil
}

func (s *Service) strengthPolicy() password.Policy {
	return password.Policy{
		MinLength:     s.config.Password.MinLength,
		RequireUpper:  s.config.Password.RequireUpper,
		RequireLower:  s.config.Password.RequireLower,
		RequireDigit:  s.config.Password.RequireDigit,
		RequireSymbol: s.config.Password.RequireSymbol,
	}
}
