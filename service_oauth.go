package authcore

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/aitalent/authcore/oauth"
)

// OAuthLoginURL returns the provider's authorization URL carrying the
// caller-supplied CSRF state. State generation and verification belong
// to the host's session layer.
func (s *Service) OAuthLoginURL(provider, redirectURI, state string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	url, err := s.oauth.AuthCodeURL(provider, state, redirectURI)
	if errors.Is(err, oauth.ErrUnknownProvider) {
		return "", ErrUnknownProvider
	}
	if err != nil {
		return "", err
	}
	return url, nil
}

// AuthenticateWithOAuth completes an authorization-code flow and signs
// the user in, creating or re-linking the account by email. Any
// provider-side failure surfaces as the single generic [ErrOAuthFailed];
// the underlying cause goes to the log only.
func (s *Service) AuthenticateWithOAuth(ctx context.Context, provider, code, redirectURI string) (*AuthResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	profile, err := s.oauth.Exchange(ctx, provider, code, redirectURI)
	if errors.Is(err, oauth.ErrUnknownProvider) {
		return nil, ErrUnknownProvider
	}
	if err != nil {
		s.log.Warn().Err(err).Str("provider", provider).Msg("oauth exchange failed")
		return nil, ErrOAuthFailed
	}

	rec, err := s.linkOrCreate(ctx, profile)
	if err != nil {
		return nil, err
	}

	switch rec.Status {
	case StatusInactive:
		return nil, ErrAccountInactive
	case StatusSuspended:
		return nil, ErrAccountSuspended
	}

	s.recordSuccessfulLogin(rec)
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, storeErr(err)
	}

	s.log.Info().Str("user_id", rec.ID).Str("provider", provider).Msg("oauth login")
	return s.issuePair(ctx, rec)
}

// linkOrCreate resolves the provider profile to a user record. A known
// email re-links the existing account to the provider rather than
// creating a duplicate; an unknown email becomes a fresh active account
// with no password, pre-verified because the provider vouches for the
// address.
func (s *Service) linkOrCreate(ctx context.Context, profile *oauth.Profile) (*UserRecord, error) {
	rec, err := s.store.FindByEmail(ctx, profile.Email)
	if err == nil {
		if string(rec.Provider) != profile.Provider || rec.ProviderID != profile.ProviderID {
			rec.Provider = AuthProvider(profile.Provider)
			rec.ProviderID = profile.ProviderID
		}
		if rec.Status == StatusPendingVerification {
			rec.Status = StatusActive
			s.clearVerificationToken(rec)
		}
		return rec, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, storeErr(err)
	}

	now := s.now()
	rec = &UserRecord{
		ID:         uuid.NewString(),
		Email:      profile.Email,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		Role:       defaultRole,
		Status:     StatusActive,
		Provider:   AuthProvider(profile.Provider),
		ProviderID: profile.ProviderID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, storeErr(err)
	}

	s.log.Info().Str("user_id", rec.ID).Str("provider", profile.Provider).
		Msg("user created from oauth profile")
	return rec, nil
}
