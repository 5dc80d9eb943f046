package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

// tokenRepository implements domain.TokenRepository.
// The session has a single row (id = 1).
type tokenRepository struct {
	db *DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *DB) domain.TokenRepository {
	return &tokenRepository{db: db}
}

// Get returns the stored tokens
func (r *tokenRepository) Get(ctx context.Context) (domain.Tokens, error) {
	query := `SELECT access_token, refresh_token FROM session_tokens WHERE id = 1`

	var t domain.Tokens
	err := r.db.QueryRowContext(ctx, query).Scan(&t.AccessToken, &t.RefreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Tokens{}, nil
		}
		return domain.Tokens{}, fmt.Errorf("failed to get session tokens: %w", err)
	}
	return t, nil
}

// Set stores the tokens
func (r *tokenRepository) Set(ctx context.Context, tokens domain.Tokens) error {
	query := r.db.rebind(`
		INSERT INTO session_tokens (id, access_token, refresh_token, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE
		SET access_token = excluded.access_token, refresh_token = excluded.refresh_token, updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := r.db.ExecContext(ctx, query, tokens.AccessToken, tokens.RefreshToken); err != nil {
		return fmt.Errorf("failed to save session tokens: %w", err)
	}
	return nil
}

// Clear removes every stored token
func (r *tokenRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_tokens`); err != nil {
		return fmt.Errorf("failed to clear session tokens: %w", err)
	}
	return nil
}
