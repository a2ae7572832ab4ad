package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is returned on any login failure that must not
	// reveal whether the email exists or which gate rejected the attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when an email fails shape validation.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrValidation is returned when required input fields are missing or malformed.
	ErrValidation = errors.New("invalid input")
	// ErrAccountLocked is returned while a lockout window is active.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountInactive is returned for logins against deactivated accounts.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrAccountSuspended is returned for logins against suspended accounts.
	ErrAccountSuspended = errors.New("account is suspended")
	// ErrAccountUnverified is returned for logins against accounts awaiting email verification.
	ErrAccountUnverified = errors.New("email address not verified")
	// ErrEmailExists is returned when registration targets an email already in use.
	ErrEmailExists = errors.New("email already registered")
	// ErrUserNotFound signals a credential-store lookup miss where the id
	// was expected to resolve. Store implementations return it from the
	// Find methods; transient faults must be any other error.
	ErrUserNotFound = errors.New("user not found")
	// ErrWeakPassword is returned when a password fails the strength policy.
	ErrWeakPassword = errors.New("password does not meet strength requirements")
	// ErrPasswordReused is returned when a new password matches one of the
	// retained historical hashes.
	ErrPasswordReused = errors.New("password was used recently")
	// ErrNoPasswordSet is returned for password operations on accounts that
	// only ever authenticated through a federated provider.
	ErrNoPasswordSet = errors.New("account has no password set")
	// ErrTokenExpired is returned when a JWT fails its expiry check.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned when a JWT fails signature or claim checks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrRefreshRevoked is returned when a refresh token verifies but its
	// identifier is absent from the revocation store.
	ErrRefreshRevoked = errors.New("refresh token revoked")
	// ErrResetTokenInvalid covers both unknown and expired reset tokens;
	// the two causes are deliberately indistinguishable to callers.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	// ErrVerificationTokenInvalid covers both unknown and expired email
	// verification tokens.
	ErrVerificationTokenInvalid = errors.New("invalid or expired verification token")
	// ErrTwoFactorCode is returned when a TOTP code fails verification.
	ErrTwoFactorCode = errors.New("invalid two-factor code")
	// ErrTwoFactorNotEnabled is returned when a two-factor operation
	// requires an enrolled account.
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication not enabled")
	// ErrOAuthFailed is the single error surfaced for any federation
	// failure; provider detail goes to the log, never to the caller.
	ErrOAuthFailed = errors.New("oauth authentication failed")
	// ErrUnknownProvider is returned for a provider name outside the
	// supported set.
	ErrUnknownProvider = errors.New("unknown oauth provider")
	// ErrStoreUnavailable wraps transient credential-store or revocation-store faults.
	ErrStoreUnavailable = errors.New("credential backend unavailable")
	// ErrNotReady is returned when the service is invoked before Build wired
	// its dependencies.
	ErrNotReady = errors.New("service not initialized")
)

// ErrorKind classifies service errors into the response classes the host
// controller layer maps onto status codes. The core itself never decides
// transport framing.
type ErrorKind int

const (
	// KindInternal covers transient faults and wiring defects (500-class).
	KindInternal ErrorKind = iota
	// KindValidation covers malformed input (400-class).
	KindValidation
	// KindAuthentication covers credential, token, and lockout failures (401-class).
	KindAuthentication
	// KindConflict covers duplicate-resource failures (409-class).
	KindConflict
	// KindNotFound covers lookups expected to succeed (404-class).
	KindNotFound
)

// KindOf reports the [ErrorKind] of any error returned by a [Service]
// operation. Unknown errors classify as KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrWeakPassword),
		errors.Is(err, ErrPasswordReused):
		return KindValidation
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountLocked),
		errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrAccountSuspended),
		errors.Is(err, ErrAccountUnverified),
		errors.Is(err, ErrNoPasswordSet),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrRefreshRevoked),
		errors.Is(err, ErrResetTokenInvalid),
		errors.Is(err, ErrVerificationTokenInvalid),
		errors.Is(err, ErrTwoFactorCode),
		errors.Is(err, ErrTwoFactorNotEnabled),
		errors.Is(err, ErrOAuthFailed):
		return KindAuthentication
	case errors.Is(err, ErrEmailExists):
		return KindConflict
	case errors.Is(err, ErrUserNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// LockedError reports an active lockout window. It matches
// [ErrAccountLocked] under errors.Is and carries the remaining duration
// so callers can tell the user when to retry.
type LockedError struct {
	Until     time.Time
	Remaining time.Duration
}

// Error implements the error interface.
func (e *LockedError) Error() string {
	minutes := int(e.Remaining.Minutes())
	if e.Remaining > 0 && minutes == 0 {
		minutes = 1
	}
	return fmt.Sprintf("account locked, try again in %d minute(s)", minutes)
}

// Is makes LockedError match ErrAccountLocked.
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
