package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const defaultRole = "freelancer"

// Register creates a local-password account and returns a token pair
// for it. With email verification required (the default) the account
// starts in pending state: the pair is still issued, but login and
// refresh are refused until [Service.VerifyEmail] succeeds.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	if err := s.checkStrength(input.Password, normalized, input.FirstName, input.LastName); err != nil {
		return nil, err
	}

	if _, err := s.store.FindByEmail(ctx, normalized); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, storeErr(err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, storeErr(err)
	}

	role := input.Role
	if role == "" {
		role = defaultRole
	}

	now := s.now()
	rec := &UserRecord{
		ID:           uuid.NewString(),
		Email:        normalized,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         role,
		Status:       StatusActive,
		Provider:     ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var verificationToken string
	if s.config.Verification.RequireOnRegister {
		rec.Status = StatusPendingVerification
		verificationToken, err = s.issueVerificationToken(rec)
		if err != nil {
			return nil, storeErr(err)
		}
	}

	if err := s.store.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, storeErr(err)
	}

	if verificationToken != "" && s.notifier != nil {
		if err := s.notifier.SendEmailVerification(ctx, rec.Email, verificationToken, s.config.Verification.TokenTTL); err != nil {
			// Registration stands; delivery is retryable out of band.
			s.log.Error().Err(err).Str("user_id", rec.ID).Msg("verification email dispatch failed")
		}
	}

	s.log.Info().Str("user_id", rec.ID).Str("role", rec.Role).Msg("user registered")

	auth, err := s.issuePair(ctx, rec)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{
		AuthResult:           *auth,
		VerificationRequired: rec.Status == StatusPendingVerification,
	}, nil
}
