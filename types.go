package authcore

import (
	"context"
	"time"
)

// AccountStatus is the lifecycle state of a user account.
type AccountStatus string

const (
	// StatusPendingVerification marks accounts awaiting email verification.
	StatusPendingVerification AccountStatus = "pending_verification"
	// StatusActive marks accounts that may authenticate.
	StatusActive AccountStatus = "active"
	// StatusInactive marks deactivated accounts.
	StatusInactive AccountStatus = "inactive"
	// StatusSuspended marks administratively suspended accounts.
	StatusSuspended AccountStatus = "suspended"
)

// AuthProvider identifies how an account proves identity.
type AuthProvider string

const (
	// ProviderLocal marks password-based accounts.
	ProviderLocal AuthProvider = "local"
	// ProviderGitHub marks accounts federated through GitHub.
	ProviderGitHub AuthProvider = "github"
	// ProviderLinkedIn marks accounts federated through LinkedIn.
	ProviderLinkedIn AuthProvider = "linkedin"
	// ProviderGoogle marks accounts federated through Google.
	ProviderGoogle AuthProvider = "google"
)

// PasswordHistoryLimit bounds the retained prior password hashes per
// account, most recent last.
const PasswordHistoryLimit = 5

// UserRecord is the full credential record held by the [CredentialStore].
// The Service is the only writer of its lifecycle fields; the store is
// expected to persist it as given.
//
// Email is stored lowercase. PasswordHash is empty for accounts that only
// ever authenticated through a federated provider.
type UserRecord struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	Status       AccountStatus
	Provider     AuthProvider
	ProviderID   string

	TwoFactorEnabled bool
	TwoFactorSecret  string

	PasswordHistory []string
	LoginAttempts   int
	LockoutUntil    *time.Time

	ResetToken          string
	ResetTokenExpiresAt *time.Time

	VerificationToken          string
	VerificationTokenExpiresAt *time.Time

	LastPasswordChangeAt *time.Time
	LastLoginAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CredentialStore is the durable per-user record store the Service
// consumes. Implementations return [ErrUserNotFound] for lookup misses;
// any other error is treated as a transient fault.
//
// FindByResetToken and FindByVerificationToken must resolve by an indexed
// token column, not a scan over all users.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	FindByResetToken(ctx context.Context, token string) (*UserRecord, error)
	FindByVerificationToken(ctx context.Context, token string) (*UserRecord, error)
	Create(ctx context.Context, rec *UserRecord) error
	Save(ctx context.Context, rec *UserRecord) error
}

// Notifier dispatches one-time tokens out of band. Token values are never
// logged by the Service; delivery is entirely the host's concern.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, token string, ttl time.Duration) error
	SendEmailVerification(ctx context.Context, email, token string, ttl time.Duration) error
}

// TokenPair is an access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned by Login, Register, RefreshToken, and
// AuthenticateWithOAuth.
type AuthResult struct {
	UserID string
	Email  string
	Role   string
	Tokens TokenPair
}

// AuthClaims is the decoded identity of a verified access token.
type AuthClaims struct {
	UserID string
	Email  string
	Role   string
}

// RegisterInput is the input for [Service.Register].
type RegisterInput struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Role      string `validate:"omitempty,oneof=freelancer client"`
}

// RegisterResult is returned by [Service.Register].
type RegisterResult struct {
	AuthResult
	VerificationRequired bool
}

// ForgotPasswordResult is returned by [Service.ForgotPassword]. Its shape
// is identical for known and unknown emails.
type ForgotPasswordResult struct {
	Message   string
	ExpiresIn time.Duration
}

// TwoFactorSetup holds a freshly generated TOTP secret and its
// otpauth:// provisioning URI. Nothing is persisted until the secret is
// confirmed through [Service.EnableTwoFactor].
type TwoFactorSetup struct {
	Secret string
	URI    string
}
