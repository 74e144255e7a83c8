package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo persists/validates the admin's refresh tokens (single
// 'token_hash' column; the raw token never touches the database).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (token_hash, expires_at) VALUES (?,?)",
		tokenHash, exp)
	return err
}

// ValidateRefresh succeeds only if a non-revoked, non-expired token with
// the given hash exists; otherwise it returns ErrTokenNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) error {
	var (
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTokenNotFound
		}
		return err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return ErrTokenNotFound
	}
	return nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAll revokes every active refresh token, ending all admin
// sessions at once.
func (r *TokenRepo) RevokeAll(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE revoked_at IS NULL")
	return err
}
