package authcore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestForgotPasswordUnknownEmailSameShape(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	registerActiveUser(t, env, "ada@example.com")

	known, err := env.svc.ForgotPassword(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword(known) failed: %v", err)
	}
	unknown, err := env.svc.ForgotPassword(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword(unknown) failed: %v", err)
	}

	if *known != *unknown {
		t.Fatalf("results differ: %+v vs %+v", known, unknown)
	}
	if len(env.notifier.resets) != 1 {
		t.Fatalf("dispatched %d reset messages, want 1", len(env.notifier.resets))
	}
}

func TestResetPasswordFlow(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	reg := registerActiveUser(t, env, "ada@example.com")

	if _, err := env.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	sent := env.notifier.lastReset(t)

	if err := env.svc.ResetPassword(ctx, sent.Token, testPassword2); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	// Old sessions are dead, old password is dead, new password works.
	if _, err := env.svc.RefreshToken(ctx, reg.Tokens.RefreshToken); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("old session error = %v, want ErrRefreshRevoked", err)
	}
	if _, err := env.svc.Login(ctx, "ada@example.com", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.svc.Login(ctx, "ada@example.com", testPassword2); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}

	// The token is consumed.
	if err := env.svc.ResetPassword(ctx, sent.Token, testPassword); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("replayed token error = %v, want ErrResetTokenInvalid", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	registerActiveUser(t, env, "ada@example.com")

	if _, err := env.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	sent := env.notifier.lastReset(t)

	env.clock.Advance(2 * time.Hour)

	err := env.svc.ResetPassword(ctx, sent.Token, testPassword2)
	if !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expired token error = %v, want ErrResetTokenInvalid", err)
	}
}

func TestResetPasswordWrongToken(t *testing.T) {
	env := newTestService(t, nil)

	err := env.svc.ResetPassword(context.Background(), "bogus-token", testPassword2)
	if !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("error = %v, want ErrResetTokenInvalid", err)
	}
}

func TestResetPasswordWeakPasswordSkipsLookup(t *testing.T) {
	env := newTestService(t, nil)

	env.store.failNext = errors.New("store must not be reached")

	err := env.svc.ResetPassword(context.Background(), "bogus-token", "weak")
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("error = %v, want ErrWeakPassword", err)
	}

	env.store.mu.Lock()
	armed := env.store.failNext != nil
	env.store.mu.Unlock()
	if !armed {
		t.Fatal("store was queried before the strength check")
	}
}

func TestResetPasswordRejectsRecentReuse(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	registerActiveUser(t, env, "ada@example.com")

	if _, err := env.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	sent := env.notifier.lastReset(t)

	err := env.svc.ResetPassword(ctx, sent.Token, testPassword)
	if !errors.Is(err, ErrPasswordReused) {
		t.Fatalf("error = %v, want ErrPasswordReused", err)
	}
}

func TestPasswordHistoryBound(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	reg := registerActiveUser(t, env, "ada@example.com")

	current := testPassword
	// Rotate through PasswordHistoryLimit+2 passwords.
	for i := 0; i < PasswordHistoryLimit+2; i++ {
		next := fmt.Sprintf("Vz7#Qm%d$wXe!rT%d", i, i+10)
		if err := env.svc.ChangePassword(ctx, reg.UserID, current, next); err != nil {
			t.Fatalf("ChangePassword %d failed: %v", i, err)
		}
		current = next
	}

	rec := env.store.get(t, reg.UserID)
	if len(rec.PasswordHistory) != PasswordHistoryLimit {
		t.Fatalf("history length = %d, want %d", len(rec.PasswordHistory), PasswordHistoryLimit)
	}

	// The original password has aged out of the history and is usable again.
	if err := env.svc.ChangePassword(ctx, reg.UserID, current, testPassword); err != nil {
		t.Fatalf("reusing aged-out password failed: %v", err)
	}
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	reg := registerActiveUser(t, env, "ada@example.com")

	err := env.svc.ChangePassword(ctx, reg.UserID, "wrong-current-1!A", testPassword2)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("error = %v, want ErrInvalidCredentials", err)
	}

	if err := env.svc.ChangePassword(ctx, reg.UserID, testPassword, testPassword); !errors.Is(err, ErrPasswordReused) {
		t.Fatalf("same-password error = %v, want ErrPasswordReused", err)
	}
}

func TestResetPasswordClearsLockout(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	registerActiveUser(t, env, "ada@example.com")

	for i := 0; i < 3; i++ {
		_, _ = env.svc.Login(ctx, "ada@example.com", "wrong-password-1!A")
	}

	if _, err := env.svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	sent := env.notifier.lastReset(t)
	if err := env.svc.ResetPassword(ctx, sent.Token, testPassword2); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := env.svc.Login(ctx, "ada@example.com", testPassword2); err != nil {
		t.Fatalf("login after reset failed: %v", err)
	}
}
