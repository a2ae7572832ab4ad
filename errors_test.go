package authcore

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{ErrValidation, KindValidation},
		{ErrInvalidEmail, KindValidation},
		{ErrWeakPassword, KindValidation},
		{ErrPasswordReused, KindValidation},
		{ErrInvalidCredentials, KindAuthentication},
		{ErrAccountLocked, KindAuthentication},
		{ErrTokenExpired, KindAuthentication},
		{ErrRefreshRevoked, KindAuthentication},
		{ErrTwoFactorCode, KindAuthentication},
		{ErrOAuthFailed, KindAuthentication},
		{ErrEmailExists, KindConflict},
		{ErrUserNotFound, KindNotFound},
		{ErrStoreUnavailable, KindInternal},
		{errors.New("anything else"), KindInternal},
		{fmt.Errorf("%w: details", ErrWeakPassword), KindValidation},
		{&LockedError{Until: time.Now(), Remaining: time.Minute}, KindAuthentication},
	}

	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestLockedErrorReportsMinutes(t *testing.T) {
	err := &LockedError{Remaining: 14*time.Minute + 30*time.Second}
	if got := err.Error(); got != "account locked, try again in 14 minute(s)" {
		t.Fatalf("Error() = %q", got)
	}

	// Sub-minute remainders round up to one minute, never zero.
	err = &LockedError{Remaining: 20 * time.Second}
	if got := err.Error(); got != "account locked, try again in 1 minute(s)" {
		t.Fatalf("Error() = %q", got)
	}

	if !errors.Is(err, ErrAccountLocked) {
		t.Fatal("LockedError does not match ErrAccountLocked")
	}
}
