package sqlite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rpggio/actionplan/internal/repository"
)

// APIKeyRepository stores hashed bearer tokens for the MCP HTTP transport.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Issue creates a new random token for handle and returns it. Only its
// hash is stored.
func (r *APIKeyRepository) Issue(ctx context.Context, handle, description string) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := "ap_" + hex.EncodeToString(buf)
	if err := r.Add(ctx, token, handle, description); err != nil {
		return "", err
	}
	return token, nil
}

// Add stores the hash of an existing token for handle.
func (r *APIKeyRepository) Add(ctx context.Context, token, handle, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, handle, created_at, description) VALUES (?, ?, ?, ?)`,
		HashToken(token), handle, time.Now().UTC(), description,
	)
	if err != nil {
		return mapError("add api key", err)
	}
	return nil
}

// ResolveHandle returns the account handle a token was issued to.
func (r *APIKeyRepository) ResolveHandle(ctx context.Context, token string) (string, error) {
	hash := HashToken(token)
	var handle string
	err := r.db.QueryRowContext(ctx, `SELECT handle FROM api_keys WHERE key_hash = ?`, hash).Scan(&handle)
	if err != nil {
		return "", mapError("resolve api key", err)
	}
	if handle == "" {
		return "", repository.ErrNotFound
	}
	// best effort
	_, _ = r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash)
	return handle, nil
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
