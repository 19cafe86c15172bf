package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/database"
)

// TokenRepository persists auth tokens and password-reset tokens.
type TokenRepository interface {
	CreateAuthToken(ctx context.Context, t *AuthToken) error
	FindAuthToken(ctx context.Context, value string) (*AuthToken, error)
	DeleteAuthToken(ctx context.Context, value string) error

	// UpsertResetToken stores rt as the owner's only reset token. An existing
	// row is rotated in place; rotated reports which path ran.
	UpsertResetToken(ctx context.Context, rt *ResetToken) (rotated bool, err error)

	// FindResetToken looks a reset token up by value. NotFound if absent.
	FindResetToken(ctx context.Context, token string) (*ResetToken, error)

	// CompleteReset deletes the token and stores the new password hash on
	// its owner in one transaction, clearing first_connection. It fails
	// with NotFound when the token was consumed or expired concurrently.
	CompleteReset(ctx context.Context, token, passwordHash string, now time.Time) error
}

// tokenRepository implements TokenRepository with MariaDB queries.
type tokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new token repository backed by the given DB pool.
func NewTokenRepository(db *sql.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) CreateAuthToken(ctx context.Context, t *AuthToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (value, owner_id, owner_kind, created_at) VALUES (?, ?, ?, ?)`,
		t.Value, t.OwnerID, string(t.Kind), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting auth token: %w", err)
	}
	return nil
}

func (r *tokenRepository) FindAuthToken(ctx context.Context, value string) (*AuthToken, error) {
	t := &AuthToken{}
	var kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT value, owner_id, owner_kind, created_at FROM auth_tokens WHERE value = ?`, value,
	).Scan(&t.Value, &t.OwnerID, &kind, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("auth token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying auth token: %w", err)
	}
	t.Kind = OwnerKind(kind)
	return t, nil
}

// DeleteAuthToken revokes a token. Deleting an unknown token is not an error.
func (r *tokenRepository) DeleteAuthToken(ctx context.Context, value string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE value = ?`, value); err != nil {
		return fmt.Errorf("deleting auth token: %w", err)
	}
	return nil
}

// UpsertResetToken locks the owner's reset row, if any, before deciding to
// update or insert, so two concurrent requests cannot both insert.
func (r *tokenRepository) UpsertResetToken(ctx context.Context, rt *ResetToken) (bool, error) {
	var rotated bool
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		var id string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM reset_tokens WHERE owner_id = ? FOR UPDATE`, rt.OwnerID,
		).Scan(&id)

		switch {
		case err == nil:
			rotated = true
			rt.ID = id
			_, err = tx.ExecContext(ctx,
				`UPDATE reset_tokens SET token = ?, owner_email = ?, expires_at = ? WHERE id = ?`,
				rt.Token, rt.OwnerEmail, rt.ExpiresAt, id)
			if err != nil {
				return fmt.Errorf("rotating reset token: %w", err)
			}
			return nil

		case errors.Is(err, sql.ErrNoRows):
			if rt.ID == "" {
				rt.ID = uuid.NewString()
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO reset_tokens (id, owner_id, owner_email, token, expires_at) VALUES (?, ?, ?, ?, ?)`,
				rt.ID, rt.OwnerID, rt.OwnerEmail, rt.Token, rt.ExpiresAt)
			if err != nil {
				return fmt.Errorf("inserting reset token: %w", err)
			}
			return nil

		default:
			return fmt.Errorf("locking reset token: %w", err)
		}
	})
	return rotated, err
}

func (r *tokenRepository) FindResetToken(ctx context.Context, token string) (*ResetToken, error) {
	rt := &ResetToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, owner_email, token, expires_at FROM reset_tokens WHERE token = ?`, token,
	).Scan(&rt.ID, &rt.OwnerID, &rt.OwnerEmail, &rt.Token, &rt.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("reset token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying reset token: %w", err)
	}
	return rt, nil
}

func (r *tokenRepository) CompleteReset(ctx context.Context, token, passwordHash string, now time.Time) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		var ownerID string
		err := tx.QueryRowContext(ctx,
			`SELECT owner_id FROM reset_tokens WHERE token = ? AND expires_at > ? FOR UPDATE`, token, now,
		).Scan(&ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NewNotFound("reset token not found")
		}
		if err != nil {
			return fmt.Errorf("locking reset token: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE users SET password_hash = ?, first_connection = FALSE WHERE id = ?`,
			passwordHash, ownerID)
		if err != nil {
			return fmt.Errorf("updating password: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return apperror.NewNotFound("user not found")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM reset_tokens WHERE token = ?`, token); err != nil {
			return fmt.Errorf("deleting reset token: %w", err)
		}
		return nil
	})
}
