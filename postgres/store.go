// Package postgres provides a reference CredentialStore on PostgreSQL.
// Token lookups resolve through partial indexes, never a table scan.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aitalent/authcore"
)

// Schema creates the user credentials table and its lookup indexes.
// Intended for migrations and tests.
const Schema = `
CREATE TABLE IF NOT EXISTS user_credentials (
	id                       TEXT PRIMARY KEY,
	email                    TEXT NOT NULL UNIQUE,
	password_hash            TEXT NOT NULL DEFAULT '',
	first_name               TEXT NOT NULL DEFAULT '',
	last_name                TEXT NOT NULL DEFAULT '',
	role                     TEXT NOT NULL DEFAULT '',
	status                   TEXT NOT NULL,
	provider                 TEXT NOT NULL,
	provider_id              TEXT NOT NULL DEFAULT '',
	two_factor_enabled       BOOLEAN NOT NULL DEFAULT FALSE,
	two_factor_secret        TEXT NOT NULL DEFAULT '',
	password_history         TEXT[] NOT NULL DEFAULT '{}',
	login_attempts           INTEGER NOT NULL DEFAULT 0,
	lockout_until            TIMESTAMPTZ,
	reset_token              TEXT NOT NULL DEFAULT '',
	reset_token_expires_at   TIMESTAMPTZ,
	verification_token       TEXT NOT NULL DEFAULT '',
	verification_expires_at  TIMESTAMPTZ,
	last_password_change_at  TIMESTAMPTZ,
	last_login_at            TIMESTAMPTZ,
	created_at               TIMESTAMPTZ NOT NULL,
	updated_at               TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS user_credentials_reset_token_idx
	ON user_credentials (reset_token) WHERE reset_token <> '';
CREATE INDEX IF NOT EXISTS user_credentials_verification_token_idx
	ON user_credentials (verification_token) WHERE verification_token <> '';
`

const selectColumns = `
	id, email, password_hash, first_name, last_name, role, status,
	provider, provider_id, two_factor_enabled, two_factor_secret,
	password_history, login_attempts, lockout_until,
	reset_token, reset_token_expires_at,
	verification_token, verification_expires_at,
	last_password_change_at, last_login_at, created_at, updated_at`

// Store implements authcore.CredentialStore on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store on pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// FindByID implements authcore.CredentialStore.
func (s *Store) FindByID(ctx context.Context, id string) (*authcore.UserRecord, error) {
	return s.findOne(ctx, `WHERE id = $1`, id)
}

// FindByEmail implements authcore.CredentialStore.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authcore.UserRecord, error) {
	return s.findOne(ctx, `WHERE email = $1`, email)
}

// FindByResetToken implements authcore.CredentialStore.
func (s *Store) FindByResetToken(ctx context.Context, token string) (*authcore.UserRecord, error) {
	if token == "" {
		return nil, authcore.ErrUserNotFound
	}
	return s.findOne(ctx, `WHERE reset_token = $1`, token)
}

// FindByVerificationToken implements authcore.CredentialStore.
func (s *Store) FindByVerificationToken(ctx context.Context, token string) (*authcore.UserRecord, error) {
	if token == "" {
		return nil, authcore.ErrUserNotFound
	}
	return s.findOne(ctx, `WHERE verification_token = $1`, token)
}

func (s *Store) findOne(ctx context.Context, where string, arg any) (*authcore.UserRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM user_credentials `+where, arg)

	var rec authcore.UserRecord
	err := row.Scan(
		&rec.ID, &rec.Email, &rec.PasswordHash, &rec.FirstName, &rec.LastName,
		&rec.Role, &rec.Status, &rec.Provider, &rec.ProviderID,
		&rec.TwoFactorEnabled, &rec.TwoFactorSecret,
		&rec.PasswordHistory, &rec.LoginAttempts, &rec.LockoutUntil,
		&rec.ResetToken, &rec.ResetTokenExpiresAt,
		&rec.VerificationToken, &rec.VerificationTokenExpiresAt,
		&rec.LastPasswordChangeAt, &rec.LastLoginAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authcore.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user credentials: %w", err)
	}
	return &rec, nil
}

// Create implements authcore.CredentialStore. A duplicate email maps to
// authcore.ErrEmailExists.
func (s *Store) Create(ctx context.Context, rec *authcore.UserRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_credentials (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)
	`,
		rec.ID, rec.Email, rec.PasswordHash, rec.FirstName, rec.LastName,
		rec.Role, rec.Status, rec.Provider, rec.ProviderID,
		rec.TwoFactorEnabled, rec.TwoFactorSecret,
		rec.PasswordHistory, rec.LoginAttempts, rec.LockoutUntil,
		rec.ResetToken, rec.ResetTokenExpiresAt,
		rec.VerificationToken, rec.VerificationTokenExpiresAt,
		rec.LastPasswordChangeAt, rec.LastLoginAt, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return authcore.ErrEmailExists
		}
		return fmt.Errorf("insert user credentials: %w", err)
	}
	return nil
}

// Save implements authcore.CredentialStore.
func (s *Store) Save(ctx context.Context, rec *authcore.UserRecord) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE user_credentials SET
			email = $2, password_hash = $3, first_name = $4, last_name = $5,
			role = $6, status = $7, provider = $8, provider_id = $9,
			two_factor_enabled = $10, two_factor_secret = $11,
			password_history = $12, login_attempts = $13, lockout_until = $14,
			reset_token = $15, reset_token_expires_at = $16,
			verification_token = $17, verification_expires_at = $18,
			last_password_change_at = $19, last_login_at = $20, updated_at = $21
		WHERE id = $1
	`,
		rec.ID, rec.Email, rec.PasswordHash, rec.FirstName, rec.LastName,
		rec.Role, rec.Status, rec.Provider, rec.ProviderID,
		rec.TwoFactorEnabled, rec.TwoFactorSecret,
		rec.PasswordHistory, rec.LoginAttempts, rec.LockoutUntil,
		rec.ResetToken, rec.ResetTokenExpiresAt,
		rec.VerificationToken, rec.VerificationTokenExpiresAt,
		rec.LastPasswordChangeAt, rec.LastLoginAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}
