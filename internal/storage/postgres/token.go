package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Elfar/piano/internal/domain/auth"
)

const (
	getTokenByHashSQL = `SELECT id, user_id, token_hash, name FROM api_tokens WHERE token_hash = $1`

	getUserSQL = `SELECT id, email, name, phone_number FROM users WHERE id = $1`

	upsertUserSQL = `INSERT INTO users (email, name, phone_number) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, phone_number = EXCLUDED.phone_number
		RETURNING id`

	upsertTokenSQL = `INSERT INTO api_tokens (user_id, token_hash, name) VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
)

var _ auth.Repository = (*TokenRepository)(nil)

// TokenRepository provides bearer token and user lookups backed by
// PostgreSQL.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a TokenRepository that uses the given pool.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// FindByHash looks up a token by its HMAC-SHA256 hash. Returns
// auth.ErrUnauthorized when no matching token exists.
func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*auth.TokenInfo, error) {
	var info auth.TokenInfo
	err := r.pool.QueryRow(ctx, getTokenByHashSQL, hash).
		Scan(&info.ID, &info.UserID, &info.TokenHash, &info.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnauthorized
		}
		return nil, fmt.Errorf("finding token by hash: %w", err)
	}
	return &info, nil
}

// GetUser returns the account the token authenticates as.
func (r *TokenRepository) GetUser(ctx context.Context, id int64) (*auth.User, error) {
	var u auth.User
	err := r.pool.QueryRow(ctx, getUserSQL, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	return &u, nil
}

// UpsertUser creates or updates a user account by email and returns its id.
// Used by seeding.
func (r *TokenRepository) UpsertUser(ctx context.Context, email, name, phoneNumber string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, upsertUserSQL, email, name, phoneNumber).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user %q: %w", email, err)
	}
	return id, nil
}

// UpsertToken stores a token hash for the user and returns the token id.
// Used by seeding.
func (r *TokenRepository) UpsertToken(ctx context.Context, userID int64, tokenHash, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, upsertTokenSQL, userID, tokenHash, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting token %q: %w", name, err)
	}
	return id, nil
}
