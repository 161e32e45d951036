package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"loanwise/internal/domain"
)

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// FindByPlainToken resolves a bearer token to its api_keys row. Tokens
// are stored as sha256 hex digests, never in plain text.
func (r *APIKeyRepository) FindByPlainToken(ctx context.Context, plainToken string) (*domain.APIKey, error) {
	plainToken = strings.TrimSpace(plainToken)
	if plainToken == "" {
		return nil, errors.New("empty token")
	}

	sum := sha256.Sum256([]byte(plainToken))
	hash := fmt.Sprintf("%x", sum)

	query := `
		SELECT id, token_hash, user_id, name, expires_at
		FROM api_keys
		WHERE token_hash = $1
		  AND (expires_at IS NULL OR expires_at > $2)
		LIMIT 1
	`

	var key domain.APIKey
	err := r.db.QueryRowContext(ctx, query, hash, time.Now()).Scan(
		&key.ID,
		&key.TokenHash,
		&key.UserID,
		&key.Name,
		&key.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("token not found")
		}
		return nil, err
	}

	return &key, nil
}
